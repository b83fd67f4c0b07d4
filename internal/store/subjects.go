package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/existflow/prayerlist/internal/api"
	"github.com/existflow/prayerlist/internal/model"
)

func prayerSubjects(st *State) *Slice[model.PrayerSubject] { return &st.PrayerSubjects }

func subjectID(ps model.PrayerSubject) int64 { return ps.PrayerSubjectID }

// FetchPrayerSubjects loads the user's prayer subjects with their prayers.
func (s *Store) FetchPrayerSubjects(ctx context.Context) error {
	return fetch(ctx, s, prayerSubjects, s.api.PrayerSubjects)
}

// CreatePrayerSubject creates a subject, reloads the list and returns the new id.
func (s *Store) CreatePrayerSubject(ctx context.Context, in api.SubjectInput) (int64, error) {
	id, err := mutate(ctx, s, prayerSubjects, StatusCreating, func(ctx context.Context, userID int64) (int64, error) {
		return s.api.CreatePrayerSubject(ctx, userID, in)
	}, nil)
	if err != nil {
		return 0, err
	}
	s.refetchAfter(ctx, "create prayer subject", s.FetchPrayerSubjects)
	return id, nil
}

// UpdatePrayerSubject patches a subject and reloads the list.
func (s *Store) UpdatePrayerSubject(ctx context.Context, id int64, update api.SubjectUpdate) error {
	err := exec(ctx, s, prayerSubjects, StatusUpdating, func(ctx context.Context, _ int64) error {
		return s.api.UpdatePrayerSubject(ctx, id, update)
	}, nil)
	if err != nil {
		return err
	}
	s.refetchAfter(ctx, "update prayer subject", s.FetchPrayerSubjects)
	return nil
}

// DeletePrayerSubject deletes a subject. With reassignToSelf its prayers move
// to the user's own subject, so the list is reloaded instead of trimmed.
func (s *Store) DeletePrayerSubject(ctx context.Context, id int64, reassignToSelf bool) error {
	var effect func([]model.PrayerSubject) []model.PrayerSubject
	if !reassignToSelf {
		effect = func(data []model.PrayerSubject) []model.PrayerSubject {
			return without(data, func(ps model.PrayerSubject) bool { return ps.PrayerSubjectID == id })
		}
	}
	err := exec(ctx, s, prayerSubjects, StatusDeleting, func(ctx context.Context, _ int64) error {
		return s.api.DeletePrayerSubject(ctx, id, reassignToSelf)
	}, effect)
	if err != nil || !reassignToSelf {
		return err
	}
	s.refetchAfter(ctx, "delete prayer subject", s.FetchPrayerSubjects)
	return nil
}

// ReorderPrayerSubjects applies ordered at once and then persists it.
func (s *Store) ReorderPrayerSubjects(ctx context.Context, ordered []model.PrayerSubject) error {
	return reorder(ctx, s, prayerSubjects, inOrder(ordered), func(ctx context.Context, userID int64) error {
		return s.api.ReorderPrayerSubjects(ctx, userID, ids(ordered, subjectID))
	}, s.api.PrayerSubjects)
}

// ReorderSubjectPrayers reorders the prayers inside one subject.
func (s *Store) ReorderSubjectPrayers(ctx context.Context, id int64, ordered []model.Prayer) error {
	next := func(st *State) ([]model.PrayerSubject, error) {
		found := false
		list := mapped(st.PrayerSubjects.Data, func(ps model.PrayerSubject) model.PrayerSubject {
			if ps.PrayerSubjectID == id {
				ps.Prayers = cloned(ordered)
				found = true
			}
			return ps
		})
		if !found {
			return nil, &api.Error{Kind: api.KindInvalidInput, Message: fmt.Sprintf("Prayer subject %d is not loaded", id)}
		}
		return list, nil
	}
	return reorder(ctx, s, prayerSubjects, next, func(ctx context.Context, _ int64) error {
		return s.api.ReorderSubjectPrayers(ctx, id, ids(ordered, prayerID))
	}, s.api.PrayerSubjects)
}

// SetSubjectSearch sets the subject search box text.
func (s *Store) SetSubjectSearch(q string) {
	s.update(func(st *State) { st.SubjectQuery.Search = q })
}

// SetSubjectType filters subjects by type; "" or "all" shows every type.
func (s *Store) SetSubjectType(t string) {
	t = strings.ToLower(strings.TrimSpace(t))
	if t == "all" {
		t = ""
	}
	s.update(func(st *State) { st.SubjectQuery.Type = t })
}
