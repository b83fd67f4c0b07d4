package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/existflow/prayerlist/internal/model"
)

// GroupInput is the body for creating or updating a group.
type GroupInput struct {
	GroupName        string `json:"groupName"`
	GroupDescription string `json:"groupDescription"`
	IsActive         *bool  `json:"isActive,omitempty"`
}

type groupSequence struct {
	GroupID         int64 `json:"groupId"`
	DisplaySequence int   `json:"displaySequence"`
}

// UserGroups lists the groups a user belongs to.
func (c *Client) UserGroups(ctx context.Context, userID int64) ([]model.Group, error) {
	var groups []model.Group
	if err := c.do(ctx, request{
		method: http.MethodGet,
		path:   fmt.Sprintf("/users/%d/groups", userID),
	}, &groups); err != nil {
		return nil, err
	}
	if groups == nil {
		groups = []model.Group{}
	}
	return groups, nil
}

// CreateGroup creates a group owned by the caller.
func (c *Client) CreateGroup(ctx context.Context, in GroupInput) (*model.Group, error) {
	if strings.TrimSpace(in.GroupName) == "" {
		return nil, invalidInput("Group name is required")
	}
	var group model.Group
	if err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/groups",
		body:   in,
		overrides: map[int]override{
			http.StatusForbidden: {kind: KindForbidden, message: "You do not have permission to create a group."},
		},
	}, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

// UpdateGroup replaces a group's name and description.
func (c *Client) UpdateGroup(ctx context.Context, groupID int64, in GroupInput) error {
	if strings.TrimSpace(in.GroupName) == "" {
		return invalidInput("Group name is required")
	}
	return c.do(ctx, request{
		method: http.MethodPut,
		path:   fmt.Sprintf("/groups/%d", groupID),
		body:   in,
		overrides: map[int]override{
			http.StatusForbidden: {kind: KindForbidden, message: "You do not have permission to update this group."},
		},
	}, nil)
}

// DeleteGroup deletes a group. Only its creator may do this.
func (c *Client) DeleteGroup(ctx context.Context, groupID int64) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		path:   fmt.Sprintf("/groups/%d", groupID),
		overrides: map[int]override{
			http.StatusForbidden: {kind: KindForbidden, message: "You do not have permission to delete this group."},
		},
	}, nil)
}

// JoinGroup joins a group with an invite code.
func (c *Client) JoinGroup(ctx context.Context, groupID int64, inviteCode string) error {
	if strings.TrimSpace(inviteCode) == "" {
		return invalidInput("Invite code is required")
	}
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   fmt.Sprintf("/groups/%d/join", groupID),
		body:   map[string]string{"inviteCode": inviteCode},
		overrides: map[int]override{
			http.StatusForbidden: {kind: KindInvalidInviteCode, message: msgInvalidInviteCode, fixed: true},
		},
	}, nil)
}

// LeaveGroup removes userID from a group.
func (c *Client) LeaveGroup(ctx context.Context, groupID, userID int64) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		path:   fmt.Sprintf("/groups/%d/users/%d", groupID, userID),
	}, nil)
}

// CreateGroupInvite issues a fresh invite code for a group.
func (c *Client) CreateGroupInvite(ctx context.Context, groupID int64) (string, error) {
	var res struct {
		InviteCode string `json:"inviteCode"`
		Message    string `json:"message"`
	}
	if err := c.do(ctx, request{
		method: http.MethodPost,
		path:   fmt.Sprintf("/groups/%d/invite", groupID),
		body:   struct{}{},
	}, &res); err != nil {
		return "", err
	}
	if res.InviteCode == "" {
		return "", malformed(fmt.Errorf("invite response missing code"))
	}
	return res.InviteCode, nil
}

// GroupUsers lists a group's members.
func (c *Client) GroupUsers(ctx context.Context, groupID int64) ([]model.User, error) {
	var users []model.User
	if err := c.do(ctx, request{
		method: http.MethodGet,
		path:   fmt.Sprintf("/groups/%d/users", groupID),
	}, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

// GroupPrayers lists the prayers shared with a group.
func (c *Client) GroupPrayers(ctx context.Context, groupID int64) ([]model.Prayer, error) {
	var res struct {
		Message string         `json:"message"`
		Prayers []model.Prayer `json:"prayers"`
	}
	if err := c.do(ctx, request{
		method: http.MethodGet,
		path:   fmt.Sprintf("/groups/%d/prayers", groupID),
	}, &res); err != nil {
		return nil, err
	}
	if res.Prayers == nil {
		res.Prayers = []model.Prayer{}
	}
	return res.Prayers, nil
}

// CreateGroupPrayer adds a prayer directly to a group.
func (c *Client) CreateGroupPrayer(ctx context.Context, groupID int64, in PrayerInput) (*CreatedPrayer, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var res CreatedPrayer
	if err := c.do(ctx, request{
		method: http.MethodPost,
		path:   fmt.Sprintf("/groups/%d/prayers", groupID),
		body:   in,
	}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ReorderUserGroups persists the user's group order.
func (c *Client) ReorderUserGroups(ctx context.Context, userID int64, ids []int64) error {
	seq := make([]groupSequence, len(ids))
	for i, id := range ids {
		seq[i] = groupSequence{GroupID: id, DisplaySequence: i}
	}
	return c.do(ctx, request{
		method: http.MethodPatch,
		path:   fmt.Sprintf("/users/%d/groups/reorder", userID),
		body:   map[string][]groupSequence{"groups": seq},
	}, nil)
}

// ReorderGroupPrayers persists the prayer order inside a group.
func (c *Client) ReorderGroupPrayers(ctx context.Context, groupID int64, ids []int64) error {
	return c.do(ctx, request{
		method: http.MethodPatch,
		path:   fmt.Sprintf("/groups/%d/prayers/reorder", groupID),
		body:   prayerOrder(ids),
	}, nil)
}
