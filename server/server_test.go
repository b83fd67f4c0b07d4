package server_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/existflow/prayerlist/internal/api"
	"github.com/existflow/prayerlist/internal/db"
	"github.com/existflow/prayerlist/internal/logger"
	"github.com/existflow/prayerlist/internal/model"
	"github.com/existflow/prayerlist/internal/session"
	"github.com/existflow/prayerlist/internal/store"
	"github.com/existflow/prayerlist/server"
)

type harness struct {
	srv   *server.Server
	url   string
	mu    sync.Mutex
	codes map[string]string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{codes: map[string]string{}}
	srv, err := server.New(server.Options{
		Secret: []byte("test-secret"),
		Logger: logger.Discard(),
		SendResetCode: func(email, code string) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.codes[email] = code
		},
	})
	if err != nil {
		t.Fatalf("server.New returned error: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	h.srv, h.url = srv, ts.URL
	return h
}

func (h *harness) code(email string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.codes[email]
}

// client returns a store bound to a client of the test server, backed by a
// real vault so saved credentials survive.
func (h *harness) client(t *testing.T) *store.Store {
	t.Helper()
	kv, err := db.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("db.Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })
	vault := session.NewVault(kv, session.NewSealer([]byte("secret"), []byte("0123456789abcdef")))

	st := store.New(vault, logger.Discard())
	c, err := api.New(api.Options{BaseURL: h.url, Timeout: 5 * time.Second, Logger: logger.Discard()}, st)
	if err != nil {
		t.Fatalf("api.New returned error: %v", err)
	}
	st.Bind(c)
	return st
}

func (h *harness) signup(t *testing.T, st *store.Store, username string) *model.User {
	t.Helper()
	u, err := st.Signup(context.Background(), api.SignupRequest{
		Username:  username,
		Password:  "secret1",
		Email:     username + "@example.com",
		FirstName: username,
	})
	if err != nil {
		t.Fatalf("Signup(%s) returned error: %v", username, err)
	}
	return u
}

func (h *harness) loggedIn(t *testing.T, username string, remember bool) *store.Store {
	t.Helper()
	st := h.client(t)
	h.signup(t, st, username)
	if err := st.Login(context.Background(), username, "secret1", remember); err != nil {
		t.Fatalf("Login(%s) returned error: %v", username, err)
	}
	return st
}

func TestSignupLoginAndDuplicate(t *testing.T) {
	h := newHarness(t)
	st := h.client(t)
	ctx := context.Background()

	u := h.signup(t, st, "ann")
	if u.UserProfileID == 0 || u.Username != "ann" {
		t.Fatalf("signup user = %+v", u)
	}
	if _, err := st.Signup(ctx, api.SignupRequest{Username: "ann", Password: "secret1", Email: "other@example.com", FirstName: "A"}); !errors.Is(err, api.ErrConflict) {
		t.Fatalf("duplicate Signup error = %v, want conflict", err)
	}

	if err := st.Login(ctx, "ann", "wrong-password", false); !errors.Is(err, api.ErrInvalidCredentials) {
		t.Fatalf("Login with wrong password error = %v, want invalid credentials", err)
	}
	if err := st.Login(ctx, "ann@example.com", "secret1", false); err != nil {
		t.Fatalf("Login by email returned error: %v", err)
	}
	if got := st.Session().UserID(); got != u.UserProfileID {
		t.Fatalf("session user = %d, want %d", got, u.UserProfileID)
	}
}

func TestPrayers_CreateReorderUpdateDelete(t *testing.T) {
	h := newHarness(t)
	st := h.loggedIn(t, "ann", false)
	ctx := context.Background()

	for _, title := range []string{"first", "second", "third"} {
		if _, err := st.CreateUserPrayer(ctx, api.PrayerInput{Title: title}); err != nil {
			t.Fatalf("CreateUserPrayer(%s) returned error: %v", title, err)
		}
	}
	list := st.Snapshot().UserPrayers.Data
	if len(list) != 3 || list[0].Title != "first" {
		t.Fatalf("prayers = %+v, want 3 starting with first", list)
	}

	reversed := []model.Prayer{list[2], list[1], list[0]}
	if err := st.ReorderUserPrayers(ctx, reversed); err != nil {
		t.Fatalf("ReorderUserPrayers returned error: %v", err)
	}
	if err := st.FetchUserPrayers(ctx); err != nil {
		t.Fatalf("FetchUserPrayers returned error: %v", err)
	}
	if got := st.Snapshot().UserPrayers.Data; got[0].Title != "third" || got[2].Title != "first" {
		t.Fatalf("order after reorder = %s, %s, %s", got[0].Title, got[1].Title, got[2].Title)
	}

	answered := true
	if err := st.UpdatePrayer(ctx, list[1].PrayerID, api.PrayerInput{Title: "second, answered", IsAnswered: &answered}); err != nil {
		t.Fatalf("UpdatePrayer returned error: %v", err)
	}
	for _, p := range st.Snapshot().UserPrayers.Data {
		if p.PrayerID == list[1].PrayerID && (!p.IsAnswered || p.DatetimeAnswered == nil) {
			t.Fatalf("updated prayer = %+v, want answered with timestamp", p)
		}
	}

	if err := st.DeletePrayer(ctx, list[0].PrayerID); err != nil {
		t.Fatalf("DeletePrayer returned error: %v", err)
	}
	if n := len(st.Snapshot().UserPrayers.Data); n != 2 {
		t.Fatalf("len(prayers) = %d after delete, want 2", n)
	}
}

func TestPrayers_OnlyOwnerCanEdit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ann := h.loggedIn(t, "ann", false)
	bob := h.loggedIn(t, "bob", false)

	created, err := ann.CreateUserPrayer(ctx, api.PrayerInput{Title: "ann's"})
	if err != nil {
		t.Fatalf("CreateUserPrayer returned error: %v", err)
	}
	err = bob.UpdatePrayer(ctx, created.PrayerID, api.PrayerInput{Title: "hijack"})
	if !errors.Is(err, api.ErrForbidden) {
		t.Fatalf("UpdatePrayer by other user error = %v, want forbidden", err)
	}
	if bob.Session().Token == "" {
		t.Fatal("forbidden response ended the session")
	}
}

func TestShare_NotifiesRecipientAndRejectsDuplicates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ann := h.loggedIn(t, "ann", false)
	bob := h.loggedIn(t, "bob", false)
	bobID := bob.Session().UserID()

	created, err := ann.CreateUserPrayer(ctx, api.PrayerInput{Title: "healing"})
	if err != nil {
		t.Fatalf("CreateUserPrayer returned error: %v", err)
	}
	if _, err := ann.SharePrayer(ctx, created.PrayerID, model.AccessTypeUser, bobID); err != nil {
		t.Fatalf("SharePrayer returned error: %v", err)
	}
	if _, err := ann.SharePrayer(ctx, created.PrayerID, model.AccessTypeUser, bobID); !errors.Is(err, api.ErrConflict) {
		t.Fatalf("second SharePrayer error = %v, want conflict", err)
	}

	if err := bob.FetchUserPrayers(ctx); err != nil {
		t.Fatalf("FetchUserPrayers returned error: %v", err)
	}
	if got := bob.Snapshot().UserPrayers.Data; len(got) != 1 || got[0].Title != "healing" {
		t.Fatalf("bob's prayers = %+v, want the shared one", got)
	}

	if err := bob.FetchNotifications(ctx); err != nil {
		t.Fatalf("FetchNotifications returned error: %v", err)
	}
	if n := bob.UnreadCount(); n != 1 {
		t.Fatalf("UnreadCount = %d, want 1", n)
	}
	count, err := bob.MarkAllNotificationsRead(ctx)
	if err != nil || count != 1 {
		t.Fatalf("MarkAllNotificationsRead = %d, %v; want 1", count, err)
	}
	if n := bob.UnreadCount(); n != 0 {
		t.Fatalf("UnreadCount after mark all = %d, want 0", n)
	}
}

func TestGroups_InviteJoinLeave(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ann := h.loggedIn(t, "ann", false)
	bob := h.loggedIn(t, "bob", false)

	g, err := ann.CreateGroup(ctx, api.GroupInput{GroupName: "Tuesday circle"})
	if err != nil {
		t.Fatalf("CreateGroup returned error: %v", err)
	}
	code, err := ann.CreateGroupInvite(ctx, g.GroupID)
	if err != nil || len(code) != 8 {
		t.Fatalf("CreateGroupInvite = %q, %v", code, err)
	}

	if err := bob.JoinGroup(ctx, g.GroupID, "WRONG123"); !errors.Is(err, api.ErrInvalidInviteCode) {
		t.Fatalf("JoinGroup with bad code error = %v, want invalid invite code", err)
	}
	if err := bob.JoinGroup(ctx, g.GroupID, code); err != nil {
		t.Fatalf("JoinGroup returned error: %v", err)
	}
	if got := bob.Snapshot().Groups.Data; len(got) != 1 || got[0].GroupID != g.GroupID {
		t.Fatalf("bob's groups = %+v", got)
	}

	if _, err := bob.CreateGroupPrayer(ctx, g.GroupID, api.PrayerInput{Title: "for the circle"}); err != nil {
		t.Fatalf("CreateGroupPrayer returned error: %v", err)
	}
	if err := ann.FetchGroupPrayers(ctx, g.GroupID); err != nil {
		t.Fatalf("FetchGroupPrayers returned error: %v", err)
	}
	if got := ann.Snapshot().GroupPrayers; got.ParentID != g.GroupID || len(got.Data) != 1 {
		t.Fatalf("ann's group prayers = %+v", got)
	}
	if err := ann.FetchGroupUsers(ctx, g.GroupID); err != nil {
		t.Fatalf("FetchGroupUsers returned error: %v", err)
	}
	if n := len(ann.Snapshot().GroupUsers.Data); n != 2 {
		t.Fatalf("group users = %d, want 2", n)
	}

	if err := bob.UpdateGroup(ctx, g.GroupID, api.GroupInput{GroupName: "mine now"}); !errors.Is(err, api.ErrForbidden) {
		t.Fatalf("UpdateGroup by member error = %v, want forbidden", err)
	}
	if err := bob.LeaveGroup(ctx, g.GroupID); err != nil {
		t.Fatalf("LeaveGroup returned error: %v", err)
	}
	if n := len(bob.Snapshot().Groups.Data); n != 0 {
		t.Fatalf("bob still lists %d groups after leaving", n)
	}

	if err := ann.FetchNotifications(ctx); err != nil {
		t.Fatalf("FetchNotifications returned error: %v", err)
	}
	notes := ann.Snapshot().Notifications.Data
	if len(notes) != 1 || notes[0].NotificationType != model.NotificationGroupMemberJoined {
		t.Fatalf("ann's notifications = %+v", notes)
	}
}

func TestSubjects_SelfSubjectAndReassign(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	st := h.loggedIn(t, "ann", false)

	if err := st.FetchPrayerSubjects(ctx); err != nil {
		t.Fatalf("FetchPrayerSubjects returned error: %v", err)
	}
	subjects := st.Snapshot().PrayerSubjects.Data
	if len(subjects) != 1 {
		t.Fatalf("subjects after signup = %+v, want the user's own", subjects)
	}
	self := subjects[0].PrayerSubjectID

	mom, err := st.CreatePrayerSubject(ctx, api.SubjectInput{PrayerSubjectType: model.SubjectFamily, PrayerSubjectDisplayName: "Mom"})
	if err != nil {
		t.Fatalf("CreatePrayerSubject returned error: %v", err)
	}
	if _, err := st.CreateUserPrayer(ctx, api.PrayerInput{Title: "for mom", PrayerSubjectID: &mom}); err != nil {
		t.Fatalf("CreateUserPrayer returned error: %v", err)
	}

	if err := st.DeletePrayerSubject(ctx, mom, true); err != nil {
		t.Fatalf("DeletePrayerSubject returned error: %v", err)
	}
	subjects = st.Snapshot().PrayerSubjects.Data
	if len(subjects) != 1 || len(subjects[0].Prayers) != 1 || subjects[0].PrayerSubjectID != self {
		t.Fatalf("subjects after reassign = %+v", subjects)
	}
}

func TestPreferences_DefaultsAndUpdate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	st := h.loggedIn(t, "ann", false)

	if err := st.FetchPreferences(ctx); err != nil {
		t.Fatalf("FetchPreferences returned error: %v", err)
	}
	pref, ok := st.Preference(model.PrefNotifications)
	if !ok || pref.PreferenceValue != "true" {
		t.Fatalf("Preference(%s) = %+v, %v", model.PrefNotifications, pref, ok)
	}
	if _, ok := st.Preference(model.PrefPrayerReminders); !ok {
		t.Fatal("default reminders preference missing")
	}

	updated, err := st.UpdatePreference(ctx, pref.UserPreferenceID, api.PreferenceUpdate{
		PreferenceKey:   model.PrefNotifications,
		PreferenceValue: "false",
		IsActive:        true,
	})
	if err != nil || updated.PreferenceValue != "false" {
		t.Fatalf("UpdatePreference = %+v, %v", updated, err)
	}
}

func TestRevokedToken_RefreshesWithSavedCredentials(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	st := h.loggedIn(t, "ann", true)
	before := st.Session().Token

	h.srv.RevokeTokens()

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- st.FetchGroups(ctx)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		// concurrent fetches of one slice may supersede each other, but none
		// may surface the 401
		if errors.Is(err, api.ErrUnauthorized) {
			t.Fatalf("FetchGroups after revoke returned %v", err)
		}
	}

	sess := st.Session()
	if !sess.IsAuthenticated || sess.Token == before {
		t.Fatalf("session after refresh = authenticated %v, token changed %v", sess.IsAuthenticated, sess.Token != before)
	}
	if err := st.FetchUserPrayers(ctx); err != nil {
		t.Fatalf("FetchUserPrayers with refreshed token returned error: %v", err)
	}
}

func TestRevokedToken_WithoutCredentialsLogsOut(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	st := h.loggedIn(t, "ann", false)

	h.srv.RevokeTokens()

	if err := st.FetchUserPrayers(ctx); !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("FetchUserPrayers after revoke error = %v, want unauthorized", err)
	}
	if sess := st.Session(); sess.IsAuthenticated || sess.Token != "" {
		t.Fatalf("session after failed refresh = %+v, want logged out", sess)
	}
}

func TestChangePassword_WrongCurrentKeepsSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	st := h.loggedIn(t, "ann", true)

	if err := st.ChangePassword(ctx, "not-it", "newpass1"); !errors.Is(err, api.ErrInvalidInput) {
		t.Fatalf("ChangePassword with wrong current error = %v, want invalid input", err)
	}
	if !st.Session().IsAuthenticated {
		t.Fatal("wrong current password ended the session")
	}

	if err := st.ChangePassword(ctx, "secret1", "newpass1"); err != nil {
		t.Fatalf("ChangePassword returned error: %v", err)
	}
	h.srv.RevokeTokens()
	// the refresh logs in with the updated saved password
	if err := st.FetchUserPrayers(ctx); err != nil {
		t.Fatalf("FetchUserPrayers after password change and revoke returned error: %v", err)
	}
}

func TestPasswordReset(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	st := h.client(t)
	h.signup(t, st, "ann")

	c, err := api.New(api.Options{BaseURL: h.url, Logger: logger.Discard()}, nil)
	if err != nil {
		t.Fatalf("api.New returned error: %v", err)
	}
	if _, err := c.ForgotPassword(ctx, "ann@example.com"); err != nil {
		t.Fatalf("ForgotPassword returned error: %v", err)
	}
	code := h.code("ann@example.com")
	if len(code) != 6 {
		t.Fatalf("reset code = %q, want 6 digits", code)
	}

	if _, err := c.VerifyResetCode(ctx, "ann@example.com", "000000x"); !errors.Is(err, api.ErrInvalidInput) {
		t.Fatalf("VerifyResetCode with bad code error = %v, want invalid input", err)
	}
	token, err := c.VerifyResetCode(ctx, "ann@example.com", code)
	if err != nil || token == "" {
		t.Fatalf("VerifyResetCode = %q, %v", token, err)
	}
	if err := c.ResetPassword(ctx, token, "brandnew"); err != nil {
		t.Fatalf("ResetPassword returned error: %v", err)
	}
	if err := c.ResetPassword(ctx, token, "again-new"); !errors.Is(err, api.ErrInvalidInput) {
		t.Fatalf("reusing reset token error = %v, want invalid input", err)
	}

	if err := st.Login(ctx, "ann", "brandnew", false); err != nil {
		t.Fatalf("Login with new password returned error: %v", err)
	}
}

func TestDeleteAccount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	st := h.loggedIn(t, "ann", true)

	if err := st.DeleteAccount(ctx); err != nil {
		t.Fatalf("DeleteAccount returned error: %v", err)
	}
	if st.Session().IsAuthenticated {
		t.Fatal("session survived account deletion")
	}
	if err := st.Login(ctx, "ann", "secret1", false); !errors.Is(err, api.ErrInvalidCredentials) {
		t.Fatalf("Login after delete error = %v, want invalid credentials", err)
	}
}
