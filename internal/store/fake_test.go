package store

import (
	"context"
	"sync"
	"testing"

	"github.com/existflow/prayerlist/internal/api"
	"github.com/existflow/prayerlist/internal/logger"
	"github.com/existflow/prayerlist/internal/model"
	"github.com/existflow/prayerlist/internal/session"
)

// fakeAPI is an in-memory API. fail makes a named method return an error and
// userPrayers, when set, replaces the UserPrayers response per call.
type fakeAPI struct {
	mu            sync.Mutex
	calls         map[string]int
	fail          map[string]error
	password      string
	token         string
	user          model.User
	prayers       []model.Prayer
	groups        []model.Group
	groupPrayers  map[int64][]model.Prayer
	groupUsers    map[int64][]model.User
	subjects      []model.PrayerSubject
	notifications []model.Notification
	prefs         []model.UserPreference
	reordered     []int64
	userPrayers   func(call int) ([]model.Prayer, error)
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		calls:        map[string]int{},
		fail:         map[string]error{},
		password:     "secret1",
		token:        "token-1",
		user:         model.User{UserProfileID: 7, Username: "ann", Email: "ann@example.com"},
		groupPrayers: map[int64][]model.Prayer{},
		groupUsers:   map[int64][]model.User{},
	}
}

func (f *fakeAPI) enter(name string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	return f.calls[name], f.fail[name]
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) setFail(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[name] = err
}

func (f *fakeAPI) Login(_ context.Context, username, password string) (*api.LoginResponse, error) {
	if _, err := f.enter("Login"); err != nil {
		return nil, err
	}
	if username != f.user.Username || password != f.password {
		return nil, &api.Error{Kind: api.KindInvalidCredentials, Message: "Invalid username or password."}
	}
	u := f.user
	return &api.LoginResponse{Message: "ok", Token: f.token, User: &u}, nil
}

func (f *fakeAPI) Signup(_ context.Context, req api.SignupRequest) (*api.SignupResponse, error) {
	if _, err := f.enter("Signup"); err != nil {
		return nil, err
	}
	return &api.SignupResponse{Message: "created", User: &model.User{UserProfileID: 8, Email: req.Email}}, nil
}

func (f *fakeAPI) UpdateProfile(_ context.Context, _ int64, update api.ProfileUpdate) (*model.User, error) {
	if _, err := f.enter("UpdateProfile"); err != nil {
		return nil, err
	}
	u := f.user
	if update.FirstName != nil {
		u.FirstName = *update.FirstName
	}
	return &u, nil
}

func (f *fakeAPI) ChangePassword(context.Context, int64, string, string) error {
	_, err := f.enter("ChangePassword")
	return err
}

func (f *fakeAPI) DeleteAccount(context.Context, int64) error {
	_, err := f.enter("DeleteAccount")
	return err
}

func (f *fakeAPI) RegisterPushToken(context.Context, string, string) (bool, error) {
	_, err := f.enter("RegisterPushToken")
	return err == nil, err
}

func (f *fakeAPI) UserPrayers(context.Context, int64) ([]model.Prayer, error) {
	n, err := f.enter("UserPrayers")
	if f.userPrayers != nil {
		return f.userPrayers(n)
	}
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloned(f.prayers), nil
}

func (f *fakeAPI) CreateUserPrayer(_ context.Context, _ int64, in api.PrayerInput) (*api.CreatedPrayer, error) {
	if _, err := f.enter("CreateUserPrayer"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id := int64(len(f.prayers) + 100)
	f.prayers = append(f.prayers, model.Prayer{PrayerID: id, Title: in.Title})
	return &api.CreatedPrayer{Message: "created", PrayerID: id}, nil
}

func (f *fakeAPI) UpdatePrayer(context.Context, int64, api.PrayerInput) error {
	_, err := f.enter("UpdatePrayer")
	return err
}

func (f *fakeAPI) DeletePrayer(context.Context, int64) error {
	_, err := f.enter("DeletePrayer")
	return err
}

func (f *fakeAPI) ReorderUserPrayers(_ context.Context, _ int64, ids []int64) error {
	if _, err := f.enter("ReorderUserPrayers"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reordered = ids
	return nil
}

func (f *fakeAPI) AddPrayerAccess(context.Context, int64, string, int64) (int64, error) {
	_, err := f.enter("AddPrayerAccess")
	return 55, err
}

func (f *fakeAPI) RemovePrayerAccess(context.Context, int64, int64) error {
	_, err := f.enter("RemovePrayerAccess")
	return err
}

func (f *fakeAPI) UserGroups(context.Context, int64) ([]model.Group, error) {
	if _, err := f.enter("UserGroups"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloned(f.groups), nil
}

func (f *fakeAPI) CreateGroup(_ context.Context, in api.GroupInput) (*model.Group, error) {
	if _, err := f.enter("CreateGroup"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	g := model.Group{GroupID: int64(len(f.groups) + 1), GroupName: in.GroupName}
	f.groups = append(f.groups, g)
	return &g, nil
}

func (f *fakeAPI) UpdateGroup(context.Context, int64, api.GroupInput) error {
	_, err := f.enter("UpdateGroup")
	return err
}

func (f *fakeAPI) DeleteGroup(context.Context, int64) error {
	_, err := f.enter("DeleteGroup")
	return err
}

func (f *fakeAPI) JoinGroup(context.Context, int64, string) error {
	_, err := f.enter("JoinGroup")
	return err
}

func (f *fakeAPI) LeaveGroup(context.Context, int64, int64) error {
	_, err := f.enter("LeaveGroup")
	return err
}

func (f *fakeAPI) CreateGroupInvite(context.Context, int64) (string, error) {
	_, err := f.enter("CreateGroupInvite")
	return "JOIN-ME", err
}

func (f *fakeAPI) GroupUsers(_ context.Context, id int64) ([]model.User, error) {
	if _, err := f.enter("GroupUsers"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloned(f.groupUsers[id]), nil
}

func (f *fakeAPI) GroupPrayers(_ context.Context, id int64) ([]model.Prayer, error) {
	if _, err := f.enter("GroupPrayers"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloned(f.groupPrayers[id]), nil
}

func (f *fakeAPI) CreateGroupPrayer(context.Context, int64, api.PrayerInput) (*api.CreatedPrayer, error) {
	_, err := f.enter("CreateGroupPrayer")
	return &api.CreatedPrayer{PrayerID: 9}, err
}

func (f *fakeAPI) ReorderUserGroups(context.Context, int64, []int64) error {
	_, err := f.enter("ReorderUserGroups")
	return err
}

func (f *fakeAPI) ReorderGroupPrayers(context.Context, int64, []int64) error {
	_, err := f.enter("ReorderGroupPrayers")
	return err
}

func (f *fakeAPI) PrayerSubjects(context.Context, int64) ([]model.PrayerSubject, error) {
	if _, err := f.enter("PrayerSubjects"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloned(f.subjects), nil
}

func (f *fakeAPI) CreatePrayerSubject(context.Context, int64, api.SubjectInput) (int64, error) {
	_, err := f.enter("CreatePrayerSubject")
	return 31, err
}

func (f *fakeAPI) UpdatePrayerSubject(context.Context, int64, api.SubjectUpdate) error {
	_, err := f.enter("UpdatePrayerSubject")
	return err
}

func (f *fakeAPI) DeletePrayerSubject(context.Context, int64, bool) error {
	_, err := f.enter("DeletePrayerSubject")
	return err
}

func (f *fakeAPI) ReorderPrayerSubjects(context.Context, int64, []int64) error {
	_, err := f.enter("ReorderPrayerSubjects")
	return err
}

func (f *fakeAPI) ReorderSubjectPrayers(_ context.Context, _ int64, ids []int64) error {
	if _, err := f.enter("ReorderSubjectPrayers"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reordered = ids
	return nil
}

func (f *fakeAPI) Notifications(context.Context, int64) ([]model.Notification, error) {
	if _, err := f.enter("Notifications"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloned(f.notifications), nil
}

func (f *fakeAPI) ToggleNotification(context.Context, int64, int64) error {
	_, err := f.enter("ToggleNotification")
	return err
}

func (f *fakeAPI) DeleteNotification(context.Context, int64, int64) error {
	_, err := f.enter("DeleteNotification")
	return err
}

func (f *fakeAPI) MarkAllNotificationsRead(context.Context, int64) (int, error) {
	_, err := f.enter("MarkAllNotificationsRead")
	return len(f.notifications), err
}

func (f *fakeAPI) Preferences(context.Context, int64) ([]model.UserPreference, error) {
	if _, err := f.enter("Preferences"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloned(f.prefs), nil
}

func (f *fakeAPI) UpdatePreference(_ context.Context, _ int64, id int64, in api.PreferenceUpdate) (*model.UserPreference, error) {
	if _, err := f.enter("UpdatePreference"); err != nil {
		return nil, err
	}
	return &model.UserPreference{UserPreferenceID: id, PreferenceKey: in.PreferenceKey, PreferenceValue: in.PreferenceValue, IsActive: true}, nil
}

var _ API = (*fakeAPI)(nil)

// memVault is an in-memory Vault.
type memVault struct {
	mu    sync.Mutex
	sess  session.Session
	creds *session.Credentials
}

func (v *memVault) LoadSession(context.Context) (session.Session, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	s := v.sess
	s.IsTokenValidated = false
	return s, nil
}

func (v *memVault) SaveSession(_ context.Context, s session.Session) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sess = s
	return nil
}

func (v *memVault) ClearSession(context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sess = session.Session{}
	return nil
}

func (v *memVault) SaveCredentials(_ context.Context, c session.Credentials) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.creds = &c
	return nil
}

func (v *memVault) Credentials(context.Context) (session.Credentials, bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.creds == nil {
		return session.Credentials{}, false, nil
	}
	return *v.creds, true, nil
}

func (v *memVault) ClearCredentials(context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.creds = nil
	return nil
}

func newTestStore() (*Store, *fakeAPI, *memVault) {
	vault := &memVault{}
	fake := newFakeAPI()
	s := New(vault, logger.Discard())
	s.Bind(fake)
	return s, fake, vault
}

// loggedIn returns a store with ann logged in.
func loggedIn(t *testing.T) (*Store, *fakeAPI, *memVault) {
	t.Helper()
	s, fake, vault := newTestStore()
	if err := s.Login(context.Background(), "ann", "secret1", false); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	return s, fake, vault
}
