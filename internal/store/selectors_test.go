package store

import (
	"testing"
	"time"

	"github.com/existflow/prayerlist/internal/model"
)

func boolp(b bool) *bool { return &b }

func prayerAt(id int64, title string, answered bool, created time.Time) model.Prayer {
	p := model.Prayer{PrayerID: id, Title: title, IsAnswered: answered}
	p.DatetimeCreate = created
	return p
}

func TestFilterPrayers_Composition(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.Local)
	list := []model.Prayer{
		prayerAt(1, "Health", false, now.AddDate(0, 0, -3)),
		prayerAt(2, "Work", true, now.AddDate(0, 0, -40)),
	}

	got := FilterPrayers(list, PrayerFilter{DateRange: RangeWeek, IsAnswered: boolp(false)}, now)
	if len(got) != 1 || got[0].PrayerID != 1 {
		t.Fatalf("week+unanswered = %v, want [1]", prayerIDs(got))
	}

	got = FilterPrayers(list, PrayerFilter{DateRange: RangeMonth}, now)
	if len(got) != 1 || got[0].PrayerID != 1 {
		t.Fatalf("month = %v, want [1]", prayerIDs(got))
	}

	got = FilterPrayers(list, PrayerFilter{DateRange: RangeAll, IsAnswered: boolp(true)}, now)
	if len(got) != 1 || got[0].PrayerID != 2 {
		t.Fatalf("all+answered = %v, want [2]", prayerIDs(got))
	}
}

func TestFilterPrayers_SearchAndCreator(t *testing.T) {
	now := time.Now()
	a := prayerAt(1, "Healing", false, now)
	a.PrayerDescription = "for mom"
	a.CreatedBy = 7
	b := prayerAt(2, "Exams", false, now)
	b.PrayerDescription = "HEALTHY focus"
	b.CreatedBy = 8

	got := FilterPrayers([]model.Prayer{a, b}, PrayerFilter{Search: "  heal "}, now)
	if len(got) != 2 {
		t.Fatalf("search heal = %v, want both", prayerIDs(got))
	}
	creator := int64(8)
	got = FilterPrayers([]model.Prayer{a, b}, PrayerFilter{Search: "heal", CreatedBy: &creator}, now)
	if len(got) != 1 || got[0].PrayerID != 2 {
		t.Fatalf("search heal by 8 = %v, want [2]", prayerIDs(got))
	}
}

func TestDateRange_Bounds(t *testing.T) {
	now := time.Date(2026, 3, 15, 9, 30, 0, 0, time.Local)
	midnight := time.Date(2026, 3, 15, 0, 0, 0, 0, time.Local)
	tests := []struct {
		r    DateRange
		at   time.Time
		want bool
	}{
		{RangeToday, midnight, true},
		{RangeToday, midnight.Add(-time.Second), false},
		{RangeToday, now.Add(time.Minute), false},
		{RangeWeek, now.Add(-7 * 24 * time.Hour), true},
		{RangeYear, now.AddDate(-1, 0, 1), true},
		{RangeYear, now.AddDate(-2, 0, 0), false},
		{RangeAll, now.AddDate(-20, 0, 0), true},
		{RangeAll, now.Add(time.Hour), true},
	}
	for _, tt := range tests {
		if got := tt.r.Contains(tt.at, now); got != tt.want {
			t.Errorf("%s.Contains(%v) = %v, want %v", tt.r, tt.at, got, tt.want)
		}
	}
}

func TestParseDateRange(t *testing.T) {
	if r, err := ParseDateRange(" Week "); err != nil || r != RangeWeek {
		t.Fatalf("ParseDateRange(Week) = %q, %v", r, err)
	}
	if r, err := ParseDateRange(""); err != nil || r != RangeAll {
		t.Fatalf("ParseDateRange(\"\") = %q, %v", r, err)
	}
	if _, err := ParseDateRange("decade"); err == nil {
		t.Fatal("ParseDateRange(decade) returned nil error")
	}
}

func TestPrayerView_RecomputesOnlyOnInputChange(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.Local)
	v := NewPrayerView()
	v.now = func() time.Time { return now }

	sl := NewSlice[model.Prayer]()
	sl.Replace([]model.Prayer{prayerAt(1, "Health", false, now), prayerAt(2, "Work", true, now)})

	f := PrayerFilter{Search: "health", IsAnswered: boolp(false)}
	first := v.Select(sl, f)
	v.Select(sl, PrayerFilter{Search: "Health ", IsAnswered: boolp(false)})
	if v.Computes() != 1 {
		t.Fatalf("computes after equal inputs = %d, want 1", v.Computes())
	}
	if len(first) != 1 {
		t.Fatalf("result = %v, want one prayer", prayerIDs(first))
	}

	v.Select(sl, PrayerFilter{Search: "work"})
	if v.Computes() != 2 {
		t.Fatalf("computes after filter change = %d, want 2", v.Computes())
	}

	sl.Apply(func(d []model.Prayer) []model.Prayer { return d[:1] })
	v.Select(sl, PrayerFilter{Search: "work"})
	if v.Computes() != 3 {
		t.Fatalf("computes after data change = %d, want 3", v.Computes())
	}
}

func TestFilterSubjects(t *testing.T) {
	list := []model.PrayerSubject{
		{PrayerSubjectID: 1, PrayerSubjectType: model.SubjectIndividual, PrayerSubjectDisplayName: "Mom"},
		{PrayerSubjectID: 2, PrayerSubjectType: model.SubjectFamily, PrayerSubjectDisplayName: "The Smiths", Notes: "moving soon"},
		{PrayerSubjectID: 3, PrayerSubjectType: model.SubjectGroup, PrayerSubjectDisplayName: "Choir"},
	}
	got := FilterSubjects(list, SubjectQuery{Search: "mo"})
	if len(got) != 2 {
		t.Fatalf("search mo = %d subjects, want 2", len(got))
	}
	got = FilterSubjects(list, SubjectQuery{Search: "mo", Type: "family"})
	if len(got) != 1 || got[0].PrayerSubjectID != 2 {
		t.Fatalf("search mo in family = %v, want [2]", ids(got, subjectID))
	}
	if got := FilterSubjects(list, SubjectQuery{Type: "all"}); len(got) != 3 {
		t.Fatalf("type all = %d subjects, want 3", len(got))
	}
}

func TestFilterGroups_SortByName(t *testing.T) {
	list := []model.Group{
		{GroupID: 1, GroupName: "youth", IsActive: true},
		{GroupID: 2, GroupName: "Alpha", IsActive: false},
		{GroupID: 3, GroupName: "Bible study", IsActive: true},
	}
	got := FilterGroups(list, GroupFilter{SortByName: true, IsActive: boolp(true)}, time.Now())
	if want := []int64{3, 1}; !equalIDs(ids(got, groupID), want) {
		t.Fatalf("groups = %v, want %v", ids(got, groupID), want)
	}
}

func TestFilterNotifications_UnreadOnly(t *testing.T) {
	list := []model.Notification{
		{NotificationID: 1, NotificationMessage: "Ann shared a prayer", NotificationStatus: model.NotificationUnread},
		{NotificationID: 2, NotificationMessage: "Bob joined", NotificationStatus: model.NotificationRead},
	}
	got := FilterNotifications(list, NotificationFilter{UnreadOnly: true}, time.Now())
	if len(got) != 1 || got[0].NotificationID != 1 {
		t.Fatalf("unread = %d items, want only 1", len(got))
	}
}

func TestPrayerView_DateRangeLagsAtMostOneMinute(t *testing.T) {
	created := time.Date(2026, 3, 8, 11, 59, 30, 0, time.Local)
	sl := NewSlice[model.Prayer]()
	sl.Replace([]model.Prayer{prayerAt(1, "Health", false, created)})
	f := PrayerFilter{DateRange: RangeWeek}

	now := time.Date(2026, 3, 15, 11, 59, 5, 0, time.Local)
	v := NewPrayerView()
	v.now = func() time.Time { return now }
	if got := v.Select(sl, f); len(got) != 1 {
		t.Fatalf("at 11:59:05 result = %v, want the prayer", prayerIDs(got))
	}

	// past the boundary but inside the same minute: the cached result stands
	now = now.Add(45 * time.Second)
	if got := v.Select(sl, f); len(got) != 1 || v.Computes() != 1 {
		t.Fatalf("at 11:59:50 result = %v computes = %d, want cached prayer", prayerIDs(got), v.Computes())
	}

	now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.Local)
	if got := v.Select(sl, f); len(got) != 0 {
		t.Fatalf("at 12:00:00 result = %v, want none", prayerIDs(got))
	}
}
