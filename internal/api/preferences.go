package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/existflow/prayerlist/internal/model"
)

// PreferenceUpdate is the body for PATCH /users/{id}/preferences/{prefId}.
type PreferenceUpdate struct {
	PreferenceKey   string `json:"preferenceKey"`
	PreferenceValue string `json:"preferenceValue"`
	IsActive        bool   `json:"isActive"`
}

// Preferences lists the user's preferences, server defaults merged in.
func (c *Client) Preferences(ctx context.Context, userID int64) ([]model.UserPreference, error) {
	var prefs []model.UserPreference
	if err := c.do(ctx, request{
		method: http.MethodGet,
		path:   fmt.Sprintf("/users/%d/preferences", userID),
	}, &prefs); err != nil {
		return nil, err
	}
	if prefs == nil {
		prefs = []model.UserPreference{}
	}
	return prefs, nil
}

// UpdatePreference writes one preference and returns the stored record.
func (c *Client) UpdatePreference(ctx context.Context, userID, prefID int64, in PreferenceUpdate) (*model.UserPreference, error) {
	if in.PreferenceKey == "" {
		return nil, invalidInput("Preference key is required")
	}
	var pref model.UserPreference
	if err := c.do(ctx, request{
		method: http.MethodPatch,
		path:   fmt.Sprintf("/users/%d/preferences/%d", userID, prefID),
		body:   in,
	}, &pref); err != nil {
		return nil, err
	}
	return &pref, nil
}
