package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/existflow/prayerlist/internal/model"
)

// SubjectInput is the body for creating a prayer subject.
type SubjectInput struct {
	PrayerSubjectType        string `json:"prayerSubjectType"`
	PrayerSubjectDisplayName string `json:"prayerSubjectDisplayName"`
	Notes                    string `json:"notes,omitempty"`
	LinkedUserProfileID      *int64 `json:"linkedUserProfileId,omitempty"`
}

// SubjectUpdate is the partial body for PATCH /prayer-subjects/{id}.
type SubjectUpdate struct {
	PrayerSubjectType        *string `json:"prayerSubjectType,omitempty"`
	PrayerSubjectDisplayName *string `json:"prayerSubjectDisplayName,omitempty"`
	Notes                    *string `json:"notes,omitempty"`
}

type subjectSequence struct {
	PrayerSubjectID int64 `json:"prayerSubjectId"`
	DisplaySequence int   `json:"displaySequence"`
}

func validSubjectType(t string) bool {
	switch t {
	case model.SubjectIndividual, model.SubjectFamily, model.SubjectGroup:
		return true
	}
	return false
}

// PrayerSubjects lists the user's prayer subjects with their prayers.
func (c *Client) PrayerSubjects(ctx context.Context, userID int64) ([]model.PrayerSubject, error) {
	var res struct {
		Message        string                `json:"message"`
		PrayerSubjects []model.PrayerSubject `json:"prayerSubjects"`
	}
	if err := c.do(ctx, request{
		method: http.MethodGet,
		path:   fmt.Sprintf("/users/%d/prayer-subjects", userID),
	}, &res); err != nil {
		return nil, err
	}
	if res.PrayerSubjects == nil {
		res.PrayerSubjects = []model.PrayerSubject{}
	}
	return res.PrayerSubjects, nil
}

// CreatePrayerSubject adds a subject and returns its id. The server may answer
// with either {prayerSubjectId} or the full {prayerSubject}.
func (c *Client) CreatePrayerSubject(ctx context.Context, userID int64, in SubjectInput) (int64, error) {
	if strings.TrimSpace(in.PrayerSubjectDisplayName) == "" {
		return 0, invalidInput("Display name is required")
	}
	if !validSubjectType(in.PrayerSubjectType) {
		return 0, invalidInput(fmt.Sprintf("unknown subject type %q", in.PrayerSubjectType))
	}
	var res struct {
		Message         string               `json:"message"`
		PrayerSubjectID int64                `json:"prayerSubjectId"`
		PrayerSubject   *model.PrayerSubject `json:"prayerSubject"`
	}
	if err := c.do(ctx, request{
		method: http.MethodPost,
		path:   fmt.Sprintf("/users/%d/prayer-subjects", userID),
		body:   in,
	}, &res); err != nil {
		return 0, err
	}
	id := res.PrayerSubjectID
	if id == 0 && res.PrayerSubject != nil {
		id = res.PrayerSubject.PrayerSubjectID
	}
	if id == 0 {
		return 0, malformed(fmt.Errorf("create subject response missing id"))
	}
	return id, nil
}

// UpdatePrayerSubject patches a subject.
func (c *Client) UpdatePrayerSubject(ctx context.Context, subjectID int64, update SubjectUpdate) error {
	if update.PrayerSubjectType != nil && !validSubjectType(*update.PrayerSubjectType) {
		return invalidInput(fmt.Sprintf("unknown subject type %q", *update.PrayerSubjectType))
	}
	return c.do(ctx, request{
		method: http.MethodPatch,
		path:   fmt.Sprintf("/prayer-subjects/%d", subjectID),
		body:   update,
	}, nil)
}

// DeletePrayerSubject deletes a subject. With reassignToSelf its prayers move
// to the user's own subject instead of being deleted.
func (c *Client) DeletePrayerSubject(ctx context.Context, subjectID int64, reassignToSelf bool) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		path:   fmt.Sprintf("/prayer-subjects/%d", subjectID),
		query:  url.Values{"reassignToSelf": {strconv.FormatBool(reassignToSelf)}},
	}, nil)
}

// ReorderPrayerSubjects persists the user's subject order.
func (c *Client) ReorderPrayerSubjects(ctx context.Context, userID int64, ids []int64) error {
	seq := make([]subjectSequence, len(ids))
	for i, id := range ids {
		seq[i] = subjectSequence{PrayerSubjectID: id, DisplaySequence: i}
	}
	return c.do(ctx, request{
		method: http.MethodPatch,
		path:   fmt.Sprintf("/users/%d/prayer-subjects/reorder", userID),
		body:   map[string][]subjectSequence{"prayerSubjects": seq},
	}, nil)
}

// ReorderSubjectPrayers persists the prayer order inside one subject.
func (c *Client) ReorderSubjectPrayers(ctx context.Context, subjectID int64, ids []int64) error {
	return c.do(ctx, request{
		method: http.MethodPatch,
		path:   fmt.Sprintf("/prayer-subjects/%d/prayers/reorder", subjectID),
		body:   prayerOrder(ids),
	}, nil)
}
