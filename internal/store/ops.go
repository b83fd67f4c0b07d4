package store

import (
	"context"

	"github.com/existflow/prayerlist/internal/logger"
)

// pick selects one slice out of State.
type pick[E any] func(st *State) *Slice[E]

// loader fetches a whole list for the logged-in user.
type loader[E any] func(ctx context.Context, userID int64) ([]E, error)

// fetch replaces the slice with a fresh server list. A completion whose ticket
// is no longer the latest is dropped.
func fetch[E any](ctx context.Context, s *Store, at pick[E], load loader[E]) error {
	var ticket uint64
	epoch, userID, err := s.start(func(st *State) {
		sl := at(st)
		sl.Begin(StatusLoading)
		ticket = sl.Issue()
	})
	if err != nil {
		return err
	}

	data, err := load(ctx, userID)
	s.finish(epoch, func(st *State) {
		sl := at(st)
		if !sl.Current(ticket) {
			return
		}
		if err != nil {
			sl.Fail(message(err))
			return
		}
		sl.Replace(data)
	})
	return err
}

// mutate runs call under op's busy state. On success effect, when not nil,
// rewrites the slice data with the call's result.
func mutate[E, R any](ctx context.Context, s *Store, at pick[E], op Status,
	call func(ctx context.Context, userID int64) (R, error), effect func(data []E, res R) []E) (R, error) {
	epoch, userID, err := s.start(func(st *State) { at(st).Begin(op) })
	if err != nil {
		var zero R
		return zero, err
	}

	res, err := call(ctx, userID)
	s.finish(epoch, func(st *State) {
		sl := at(st)
		switch {
		case err != nil:
			sl.Fail(message(err))
		case effect != nil:
			sl.Apply(func(data []E) []E { return effect(data, res) })
		default:
			sl.Succeed()
		}
	})
	return res, err
}

// exec is mutate for calls with no result.
func exec[E any](ctx context.Context, s *Store, at pick[E], op Status,
	call func(ctx context.Context, userID int64) error, effect func(data []E) []E) error {
	var eff func([]E, struct{}) []E
	if effect != nil {
		eff = func(data []E, _ struct{}) []E { return effect(data) }
	}
	_, err := mutate(ctx, s, at, op, func(ctx context.Context, userID int64) (struct{}, error) {
		return struct{}{}, call(ctx, userID)
	}, eff)
	return err
}

// arrange computes the new order of a slice under the store lock. An error
// aborts the reorder before anything changes.
type arrange[E any] func(st *State) ([]E, error)

// inOrder arranges a slice as exactly ordered.
func inOrder[E any](ordered []E) arrange[E] {
	return func(*State) ([]E, error) { return cloned(ordered), nil }
}

// reorder commits the arranged order locally before the server confirms it.
// If persisting fails the list is replaced with a fresh server copy, or with
// the pre-reorder list when that fetch fails too, and the slice is marked
// failed. A fetch that finished in between owns the slice and is left alone.
func reorder[E any](ctx context.Context, s *Store, at pick[E], next arrange[E],
	persist func(ctx context.Context, userID int64) error, refetch loader[E]) error {
	var (
		snapshot []E
		ticket   uint64
		planErr  error
	)
	epoch, userID, err := s.start(func(st *State) {
		ordered, err := next(st)
		if err != nil {
			planErr = err
			return
		}
		sl := at(st)
		snapshot = sl.Data
		sl.Begin(StatusReordering)
		sl.Replace(ordered)
		ticket = sl.Issue()
	})
	if err != nil {
		return err
	}
	if planErr != nil {
		return planErr
	}

	err = persist(ctx, userID)
	if err == nil {
		return nil
	}
	s.log.Warn("Reorder rejected, reloading", logger.Err(err))

	fresh, ferr := refetch(ctx, userID)
	if ferr != nil {
		s.log.Warn("Reload after reorder failed, restoring previous order", logger.Err(ferr))
	}
	s.finish(epoch, func(st *State) {
		sl := at(st)
		if !sl.Current(ticket) {
			return
		}
		if ferr == nil {
			sl.set(fresh)
		} else {
			sl.set(snapshot)
		}
		sl.Fail(message(err))
	})
	return err
}

// authorized runs call for the logged-in user without touching any slice.
func authorized[R any](ctx context.Context, s *Store, call func(ctx context.Context, userID int64) (R, error)) (R, error) {
	_, userID, err := s.start(func(*State) {})
	if err != nil {
		var zero R
		return zero, err
	}
	return call(ctx, userID)
}

// refetchAfter reloads a slice after a mutation. A failed reload is recorded on
// the slice but does not fail the mutation that preceded it.
func (s *Store) refetchAfter(ctx context.Context, what string, reload func(context.Context) error) {
	if err := reload(ctx); err != nil {
		s.log.Warn("Reload after "+what+" failed", logger.Err(err))
	}
}
