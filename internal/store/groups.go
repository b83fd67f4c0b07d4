package store

import (
	"context"
	"fmt"

	"github.com/existflow/prayerlist/internal/api"
	"github.com/existflow/prayerlist/internal/model"
)

func groups(st *State) *Slice[model.Group]                  { return &st.Groups }
func groupPrayers(st *State) *Slice[model.Prayer]           { return &st.GroupPrayers.Slice }
func groupPrayersKeyed(st *State) *KeyedSlice[model.Prayer] { return &st.GroupPrayers }
func groupUsersKeyed(st *State) *KeyedSlice[model.User]     { return &st.GroupUsers }

func groupID(g model.Group) int64 { return g.GroupID }

// fetchKeyed loads the list owned by parentID. Switching to another parent
// clears the data first so one group's rows never show under another.
func fetchKeyed[E any](ctx context.Context, s *Store, at func(*State) *KeyedSlice[E], parentID int64,
	load func(ctx context.Context, parentID int64) ([]E, error)) error {
	var ticket uint64
	epoch, _, err := s.start(func(st *State) {
		ks := at(st)
		if ks.ParentID != parentID {
			ks.Reset()
			ks.ParentID = parentID
		}
		ks.Begin(StatusLoading)
		ticket = ks.Issue()
	})
	if err != nil {
		return err
	}

	data, err := load(ctx, parentID)
	s.finish(epoch, func(st *State) {
		ks := at(st)
		if !ks.Current(ticket) || ks.ParentID != parentID {
			return
		}
		if err != nil {
			ks.Fail(message(err))
			return
		}
		ks.Replace(data)
	})
	return err
}

// FetchGroups loads the groups the current user belongs to.
func (s *Store) FetchGroups(ctx context.Context) error {
	return fetch(ctx, s, groups, s.api.UserGroups)
}

// CreateGroup creates a group and reloads the list.
func (s *Store) CreateGroup(ctx context.Context, in api.GroupInput) (*model.Group, error) {
	g, err := mutate(ctx, s, groups, StatusCreating, func(ctx context.Context, _ int64) (*model.Group, error) {
		return s.api.CreateGroup(ctx, in)
	}, nil)
	if err != nil {
		return nil, err
	}
	s.refetchAfter(ctx, "create group", s.FetchGroups)
	return g, nil
}

// UpdateGroup updates a group and reloads the list.
func (s *Store) UpdateGroup(ctx context.Context, id int64, in api.GroupInput) error {
	err := exec(ctx, s, groups, StatusUpdating, func(ctx context.Context, _ int64) error {
		return s.api.UpdateGroup(ctx, id, in)
	}, nil)
	if err != nil {
		return err
	}
	s.refetchAfter(ctx, "update group", s.FetchGroups)
	return nil
}

// DeleteGroup deletes a group and drops it from the list.
func (s *Store) DeleteGroup(ctx context.Context, id int64) error {
	return exec(ctx, s, groups, StatusDeleting, func(ctx context.Context, _ int64) error {
		return s.api.DeleteGroup(ctx, id)
	}, dropGroup(id))
}

// LeaveGroup removes the current user from a group and drops it from the list.
func (s *Store) LeaveGroup(ctx context.Context, id int64) error {
	return exec(ctx, s, groups, StatusDeleting, func(ctx context.Context, userID int64) error {
		return s.api.LeaveGroup(ctx, id, userID)
	}, dropGroup(id))
}

func dropGroup(id int64) func([]model.Group) []model.Group {
	return func(data []model.Group) []model.Group {
		return without(data, func(g model.Group) bool { return g.GroupID == id })
	}
}

// JoinGroup joins with an invite code and reloads the list.
func (s *Store) JoinGroup(ctx context.Context, id int64, inviteCode string) error {
	err := exec(ctx, s, groups, StatusUpdating, func(ctx context.Context, _ int64) error {
		return s.api.JoinGroup(ctx, id, inviteCode)
	}, nil)
	if err != nil {
		return err
	}
	s.refetchAfter(ctx, "join group", s.FetchGroups)
	return nil
}

// CreateGroupInvite returns a fresh invite code for a group.
func (s *Store) CreateGroupInvite(ctx context.Context, id int64) (string, error) {
	return authorized(ctx, s, func(ctx context.Context, _ int64) (string, error) {
		return s.api.CreateGroupInvite(ctx, id)
	})
}

// ReorderGroups applies ordered at once and then persists it.
func (s *Store) ReorderGroups(ctx context.Context, ordered []model.Group) error {
	return reorder(ctx, s, groups, inOrder(ordered), func(ctx context.Context, userID int64) error {
		return s.api.ReorderUserGroups(ctx, userID, ids(ordered, groupID))
	}, s.api.UserGroups)
}

// FetchGroupPrayers loads the prayers shared with a group.
func (s *Store) FetchGroupPrayers(ctx context.Context, id int64) error {
	return fetchKeyed(ctx, s, groupPrayersKeyed, id, s.api.GroupPrayers)
}

// CreateGroupPrayer adds a prayer to a group and reloads the group's prayers.
func (s *Store) CreateGroupPrayer(ctx context.Context, id int64, in api.PrayerInput) (*api.CreatedPrayer, error) {
	created, err := mutate(ctx, s, groupPrayers, StatusCreating,
		func(ctx context.Context, _ int64) (*api.CreatedPrayer, error) {
			return s.api.CreateGroupPrayer(ctx, id, in)
		}, nil)
	if err != nil {
		return nil, err
	}
	s.refetchAfter(ctx, "create group prayer", func(ctx context.Context) error {
		return s.FetchGroupPrayers(ctx, id)
	})
	return created, nil
}

// ReorderGroupPrayers applies ordered to the loaded group's prayers at once and
// then persists it. Group id must be the group whose prayers are loaded.
func (s *Store) ReorderGroupPrayers(ctx context.Context, id int64, ordered []model.Prayer) error {
	loaded := func(st *State) ([]model.Prayer, error) {
		if st.GroupPrayers.ParentID != id {
			return nil, &api.Error{Kind: api.KindInvalidInput, Message: fmt.Sprintf("Prayers of group %d are not loaded", id)}
		}
		return cloned(ordered), nil
	}
	return reorder(ctx, s, groupPrayers, loaded, func(ctx context.Context, _ int64) error {
		return s.api.ReorderGroupPrayers(ctx, id, ids(ordered, prayerID))
	}, func(ctx context.Context, _ int64) ([]model.Prayer, error) {
		return s.api.GroupPrayers(ctx, id)
	})
}

// FetchGroupUsers loads the members of a group.
func (s *Store) FetchGroupUsers(ctx context.Context, id int64) error {
	return fetchKeyed(ctx, s, groupUsersKeyed, id, s.api.GroupUsers)
}
