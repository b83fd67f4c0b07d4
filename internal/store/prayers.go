package store

import (
	"context"

	"github.com/existflow/prayerlist/internal/api"
	"github.com/existflow/prayerlist/internal/model"
)

func userPrayers(st *State) *Slice[model.Prayer] { return &st.UserPrayers }

func prayerID(p model.Prayer) int64 { return p.PrayerID }

// FetchUserPrayers loads the current user's prayers.
func (s *Store) FetchUserPrayers(ctx context.Context) error {
	return fetch(ctx, s, userPrayers, s.api.UserPrayers)
}

// CreateUserPrayer creates a prayer and reloads the list.
func (s *Store) CreateUserPrayer(ctx context.Context, in api.PrayerInput) (*api.CreatedPrayer, error) {
	created, err := mutate(ctx, s, userPrayers, StatusCreating,
		func(ctx context.Context, userID int64) (*api.CreatedPrayer, error) {
			return s.api.CreateUserPrayer(ctx, userID, in)
		}, nil)
	if err != nil {
		return nil, err
	}
	s.refetchAfter(ctx, "create prayer", s.FetchUserPrayers)
	return created, nil
}

// UpdatePrayer updates a prayer and reloads the list.
func (s *Store) UpdatePrayer(ctx context.Context, id int64, in api.PrayerInput) error {
	err := exec(ctx, s, userPrayers, StatusUpdating, func(ctx context.Context, _ int64) error {
		return s.api.UpdatePrayer(ctx, id, in)
	}, nil)
	if err != nil {
		return err
	}
	s.refetchAfter(ctx, "update prayer", s.FetchUserPrayers)
	return nil
}

// DeletePrayer deletes a prayer and drops it from the list.
func (s *Store) DeletePrayer(ctx context.Context, id int64) error {
	return exec(ctx, s, userPrayers, StatusDeleting, func(ctx context.Context, _ int64) error {
		return s.api.DeletePrayer(ctx, id)
	}, func(data []model.Prayer) []model.Prayer {
		return without(data, func(p model.Prayer) bool { return p.PrayerID == id })
	})
}

// ReorderUserPrayers applies ordered at once and then persists it.
func (s *Store) ReorderUserPrayers(ctx context.Context, ordered []model.Prayer) error {
	return reorder(ctx, s, userPrayers, inOrder(ordered), func(ctx context.Context, userID int64) error {
		return s.api.ReorderUserPrayers(ctx, userID, ids(ordered, prayerID))
	}, s.api.UserPrayers)
}

// SharePrayer grants a user or group access to a prayer and returns the new
// access id.
func (s *Store) SharePrayer(ctx context.Context, id int64, accessType string, accessTypeID int64) (int64, error) {
	return mutate(ctx, s, userPrayers, StatusUpdating,
		func(ctx context.Context, _ int64) (int64, error) {
			return s.api.AddPrayerAccess(ctx, id, accessType, accessTypeID)
		}, nil)
}

// UnsharePrayer removes an access grant.
func (s *Store) UnsharePrayer(ctx context.Context, id, accessID int64) error {
	return exec(ctx, s, userPrayers, StatusUpdating, func(ctx context.Context, _ int64) error {
		return s.api.RemovePrayerAccess(ctx, id, accessID)
	}, nil)
}
