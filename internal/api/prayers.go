package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/existflow/prayerlist/internal/model"
)

// PrayerInput is the body for creating or replacing a prayer.
type PrayerInput struct {
	Title             string `json:"title"`
	PrayerDescription string `json:"prayerDescription"`
	IsPrivate         bool   `json:"isPrivate"`
	PrayerType        string `json:"prayerType"`
	IsAnswered        *bool  `json:"isAnswered,omitempty"`
	PrayerPriority    *int   `json:"prayerPriority,omitempty"`
	PrayerSubjectID   *int64 `json:"prayerSubjectId,omitempty"`
}

func (in PrayerInput) validate() error {
	if in.Title == "" {
		return invalidInput("Prayer title is required")
	}
	return nil
}

// EditInput returns the input that rewrites p unchanged, as a base for edits.
func EditInput(p model.Prayer) PrayerInput {
	answered := p.IsAnswered
	priority := p.PrayerPriority
	return PrayerInput{
		Title:             p.Title,
		PrayerDescription: p.PrayerDescription,
		IsPrivate:         p.IsPrivate,
		PrayerType:        p.PrayerType,
		IsAnswered:        &answered,
		PrayerPriority:    &priority,
		PrayerSubjectID:   p.PrayerSubjectID,
	}
}

// CreatedPrayer is returned when a prayer is created.
type CreatedPrayer struct {
	Message        string `json:"message"`
	PrayerID       int64  `json:"prayerId"`
	PrayerAccessID int64  `json:"prayerAccessId"`
}

type prayerSequence struct {
	PrayerID        int64 `json:"prayerId"`
	DisplaySequence int   `json:"displaySequence"`
}

func prayerOrder(ids []int64) map[string][]prayerSequence {
	seq := make([]prayerSequence, len(ids))
	for i, id := range ids {
		seq[i] = prayerSequence{PrayerID: id, DisplaySequence: i}
	}
	return map[string][]prayerSequence{"prayers": seq}
}

// UserPrayers lists the prayers visible to a user.
func (c *Client) UserPrayers(ctx context.Context, userID int64) ([]model.Prayer, error) {
	var res struct {
		Message string         `json:"message"`
		Prayers []model.Prayer `json:"prayers"`
	}
	if err := c.do(ctx, request{
		method: http.MethodGet,
		path:   fmt.Sprintf("/users/%d/prayers", userID),
	}, &res); err != nil {
		return nil, err
	}
	if res.Prayers == nil {
		res.Prayers = []model.Prayer{}
	}
	return res.Prayers, nil
}

// CreateUserPrayer adds a prayer owned by userID.
func (c *Client) CreateUserPrayer(ctx context.Context, userID int64, in PrayerInput) (*CreatedPrayer, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var res CreatedPrayer
	if err := c.do(ctx, request{
		method: http.MethodPost,
		path:   fmt.Sprintf("/users/%d/prayers", userID),
		body:   in,
	}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// UpdatePrayer replaces a prayer's editable fields.
func (c *Client) UpdatePrayer(ctx context.Context, prayerID int64, in PrayerInput) error {
	if err := in.validate(); err != nil {
		return err
	}
	return c.do(ctx, request{
		method: http.MethodPut,
		path:   fmt.Sprintf("/prayers/%d", prayerID),
		body:   in,
	}, nil)
}

// DeletePrayer removes a prayer.
func (c *Client) DeletePrayer(ctx context.Context, prayerID int64) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		path:   fmt.Sprintf("/prayers/%d", prayerID),
	}, nil)
}

// ReorderUserPrayers persists ids as the user's prayer order, index = sequence.
func (c *Client) ReorderUserPrayers(ctx context.Context, userID int64, ids []int64) error {
	return c.do(ctx, request{
		method: http.MethodPatch,
		path:   fmt.Sprintf("/users/%d/prayers/reorder", userID),
		body:   prayerOrder(ids),
	}, nil)
}

// AddPrayerAccess shares a prayer with a user or group. Sharing twice is a Conflict.
func (c *Client) AddPrayerAccess(ctx context.Context, prayerID int64, accessType string, accessTypeID int64) (int64, error) {
	if accessType != model.AccessTypeUser && accessType != model.AccessTypeGroup {
		return 0, invalidInput(fmt.Sprintf("unknown access type %q", accessType))
	}
	var res struct {
		Message        string `json:"message"`
		PrayerAccessID int64  `json:"prayerAccessId"`
	}
	if err := c.do(ctx, request{
		method: http.MethodPost,
		path:   fmt.Sprintf("/prayers/%d/access", prayerID),
		body: map[string]any{
			"accessType":   accessType,
			"accessTypeId": accessTypeID,
		},
		overrides: map[int]override{
			http.StatusConflict: {kind: KindConflict, message: "This prayer is already shared with that recipient."},
		},
	}, &res); err != nil {
		return 0, err
	}
	return res.PrayerAccessID, nil
}

// RemovePrayerAccess revokes one share of a prayer.
func (c *Client) RemovePrayerAccess(ctx context.Context, prayerID, accessID int64) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		path:   fmt.Sprintf("/prayers/%d/access/%d", prayerID, accessID),
	}, nil)
}
