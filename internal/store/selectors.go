package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/existflow/prayerlist/internal/model"
)

// DateRange limits a list to items created within a window ending now.
type DateRange string

const (
	RangeAll   DateRange = "all"
	RangeToday DateRange = "today"
	RangeWeek  DateRange = "week"
	RangeMonth DateRange = "month"
	RangeYear  DateRange = "year"
)

// ParseDateRange accepts the range names, case-insensitively. Empty means all.
func ParseDateRange(s string) (DateRange, error) {
	switch r := DateRange(strings.ToLower(strings.TrimSpace(s))); r {
	case "":
		return RangeAll, nil
	case RangeAll, RangeToday, RangeWeek, RangeMonth, RangeYear:
		return r, nil
	default:
		return "", fmt.Errorf("unknown date range %q (want all, today, week, month or year)", s)
	}
}

// Since returns the inclusive lower bound of r at now. ok is false for RangeAll.
func (r DateRange) Since(now time.Time) (time.Time, bool) {
	switch r {
	case RangeToday:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), true
	case RangeWeek:
		return now.Add(-7 * 24 * time.Hour), true
	case RangeMonth:
		return now.AddDate(0, -1, 0), true
	case RangeYear:
		return now.AddDate(-1, 0, 0), true
	}
	return time.Time{}, false
}

// Contains reports whether t falls inside r at now. Future times never match
// a bounded range.
func (r DateRange) Contains(t, now time.Time) bool {
	since, ok := r.Since(now)
	if !ok {
		return true
	}
	return !t.Before(since) && !t.After(now)
}

func matches(q string, fields ...string) bool {
	if q == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func normalize(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

// PrayerFilter narrows a prayer list. Nil pointers disable their filter.
type PrayerFilter struct {
	Search     string
	DateRange  DateRange
	IsAnswered *bool
	CreatedBy  *int64
}

// FilterPrayers returns the prayers matching every active filter in f.
// Search covers title and description.
func FilterPrayers(list []model.Prayer, f PrayerFilter, now time.Time) []model.Prayer {
	q := normalize(f.Search)
	out := make([]model.Prayer, 0, len(list))
	for _, p := range list {
		if !matches(q, p.Title, p.PrayerDescription) {
			continue
		}
		if !f.DateRange.Contains(p.DatetimeCreate, now) {
			continue
		}
		if f.IsAnswered != nil && p.IsAnswered != *f.IsAnswered {
			continue
		}
		if f.CreatedBy != nil && p.CreatedBy != *f.CreatedBy {
			continue
		}
		out = append(out, p)
	}
	return out
}

// GroupFilter narrows a group list. Nil pointers disable their filter.
type GroupFilter struct {
	Search     string
	DateRange  DateRange
	IsActive   *bool
	SortByName bool
}

// FilterGroups returns the groups matching f. Search covers name and
// description.
func FilterGroups(list []model.Group, f GroupFilter, now time.Time) []model.Group {
	q := normalize(f.Search)
	out := make([]model.Group, 0, len(list))
	for _, g := range list {
		if !matches(q, g.GroupName, g.GroupDescription) {
			continue
		}
		if !f.DateRange.Contains(g.DatetimeCreate, now) {
			continue
		}
		if f.IsActive != nil && g.IsActive != *f.IsActive {
			continue
		}
		out = append(out, g)
	}
	if f.SortByName {
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].GroupName) < strings.ToLower(out[j].GroupName)
		})
	}
	return out
}

// FilterSubjects applies the subject search box and type filter. Search
// covers display name and notes.
func FilterSubjects(list []model.PrayerSubject, q SubjectQuery) []model.PrayerSubject {
	search := normalize(q.Search)
	typ := normalize(q.Type)
	out := make([]model.PrayerSubject, 0, len(list))
	for _, ps := range list {
		if typ != "" && typ != "all" && strings.ToLower(ps.PrayerSubjectType) != typ {
			continue
		}
		if !matches(search, ps.PrayerSubjectDisplayName, ps.Notes) {
			continue
		}
		out = append(out, ps)
	}
	return out
}

// NotificationFilter narrows the notification list.
type NotificationFilter struct {
	Search     string
	DateRange  DateRange
	UnreadOnly bool
}

// FilterNotifications returns the notifications matching f. Search covers the
// message text.
func FilterNotifications(list []model.Notification, f NotificationFilter, now time.Time) []model.Notification {
	q := normalize(f.Search)
	out := make([]model.Notification, 0, len(list))
	for _, n := range list {
		if f.UnreadOnly && !n.IsUnread() {
			continue
		}
		if !matches(q, n.NotificationMessage) {
			continue
		}
		if !f.DateRange.Contains(n.DatetimeCreate, now) {
			continue
		}
		out = append(out, n)
	}
	return out
}

// memo caches one derived list. It recomputes when the source version or the
// filter key changes.
type memo[E any, K comparable] struct {
	mu       sync.Mutex
	valid    bool
	version  uint64
	key      K
	out      []E
	computes int
}

func (m *memo[E, K]) get(version uint64, key K, compute func() []E) []E {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.valid && m.version == version && m.key == key {
		return m.out
	}
	m.out = compute()
	m.version, m.key, m.valid = version, key, true
	m.computes++
	return m.out
}

func (m *memo[E, K]) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.computes
}

// clock returns the memo bucket of a bounded range: results are reused within
// one wall-clock minute, so an item may stay inside a range for up to a minute
// after its boundary passes. RangeAll never depends on the clock.
func clock(r DateRange, now time.Time) time.Time {
	if _, ok := r.Since(now); !ok {
		return time.Time{}
	}
	return now.Truncate(time.Minute)
}

type optBool struct{ set, v bool }

func fromBool(p *bool) optBool {
	if p == nil {
		return optBool{}
	}
	return optBool{set: true, v: *p}
}

type optInt struct {
	set bool
	v   int64
}

func fromInt(p *int64) optInt {
	if p == nil {
		return optInt{}
	}
	return optInt{set: true, v: *p}
}

type prayerKey struct {
	search   string
	rng      DateRange
	at       time.Time
	answered optBool
	creator  optInt
}

// PrayerView memoizes FilterPrayers over a prayer slice.
type PrayerView struct {
	memo memo[model.Prayer, prayerKey]
	now  func() time.Time
}

// NewPrayerView returns an empty view.
func NewPrayerView() *PrayerView { return &PrayerView{now: time.Now} }

// Select returns the filtered prayers, recomputing only on a data or filter change.
func (v *PrayerView) Select(sl Slice[model.Prayer], f PrayerFilter) []model.Prayer {
	now := v.now()
	at := clock(f.DateRange, now)
	key := prayerKey{normalize(f.Search), f.DateRange, at, fromBool(f.IsAnswered), fromInt(f.CreatedBy)}
	return v.memo.get(sl.Version, key, func() []model.Prayer {
		return FilterPrayers(sl.Data, f, now)
	})
}

// Computes returns how many times the view has recomputed.
func (v *PrayerView) Computes() int { return v.memo.count() }

type groupKey struct {
	search string
	rng    DateRange
	at     time.Time
	active optBool
	sorted bool
}

// GroupView memoizes FilterGroups over the group slice.
type GroupView struct {
	memo memo[model.Group, groupKey]
	now  func() time.Time
}

func NewGroupView() *GroupView { return &GroupView{now: time.Now} }

func (v *GroupView) Select(sl Slice[model.Group], f GroupFilter) []model.Group {
	now := v.now()
	key := groupKey{normalize(f.Search), f.DateRange, clock(f.DateRange, now), fromBool(f.IsActive), f.SortByName}
	return v.memo.get(sl.Version, key, func() []model.Group {
		return FilterGroups(sl.Data, f, now)
	})
}

func (v *GroupView) Computes() int { return v.memo.count() }

// SubjectView memoizes FilterSubjects over the subject slice.
type SubjectView struct {
	memo memo[model.PrayerSubject, SubjectQuery]
}

func NewSubjectView() *SubjectView { return &SubjectView{} }

func (v *SubjectView) Select(sl Slice[model.PrayerSubject], q SubjectQuery) []model.PrayerSubject {
	key := SubjectQuery{Search: normalize(q.Search), Type: normalize(q.Type)}
	return v.memo.get(sl.Version, key, func() []model.PrayerSubject {
		return FilterSubjects(sl.Data, q)
	})
}

func (v *SubjectView) Computes() int { return v.memo.count() }

type notificationKey struct {
	search string
	rng    DateRange
	at     time.Time
	unread bool
}

// NotificationView memoizes FilterNotifications over the notification slice.
type NotificationView struct {
	memo memo[model.Notification, notificationKey]
	now  func() time.Time
}

func NewNotificationView() *NotificationView { return &NotificationView{now: time.Now} }

func (v *NotificationView) Select(sl Slice[model.Notification], f NotificationFilter) []model.Notification {
	now := v.now()
	key := notificationKey{normalize(f.Search), f.DateRange, clock(f.DateRange, now), f.UnreadOnly}
	return v.memo.get(sl.Version, key, func() []model.Notification {
		return FilterNotifications(sl.Data, f, now)
	})
}

func (v *NotificationView) Computes() int { return v.memo.count() }
