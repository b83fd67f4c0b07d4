// Package store keeps client-side state for every remote resource and runs the
// async operations that change it.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/existflow/prayerlist/internal/api"
	"github.com/existflow/prayerlist/internal/logger"
	"github.com/existflow/prayerlist/internal/model"
	"github.com/existflow/prayerlist/internal/session"
)

const persistTimeout = 5 * time.Second

// errNotAuthenticated is what operations report when no user is logged in.
var errNotAuthenticated = &api.Error{Kind: api.KindUnauthorized, Message: "User not authenticated"}

// Vault persists the session and saved credentials; *session.Vault implements it.
type Vault interface {
	LoadSession(ctx context.Context) (session.Session, error)
	SaveSession(ctx context.Context, s session.Session) error
	ClearSession(ctx context.Context) error
	SaveCredentials(ctx context.Context, creds session.Credentials) error
	Credentials(ctx context.Context) (session.Credentials, bool, error)
	ClearCredentials(ctx context.Context) error
}

// AuthState is the session plus the status of the last auth operation.
type AuthState struct {
	Session session.Session
	Status  Status
	Error   string
}

// KeyedSlice is a Slice scoped to one parent id, such as a group.
type KeyedSlice[E any] struct {
	Slice[E]
	ParentID int64
}

// SubjectQuery holds the prayer subject search box and type filter.
type SubjectQuery struct {
	Search string
	Type   string // "" or "all" disables the filter
}

// State is the whole client state. Snapshot returns a copy.
type State struct {
	Auth           AuthState
	UserPrayers    Slice[model.Prayer]
	Groups         Slice[model.Group]
	GroupPrayers   KeyedSlice[model.Prayer]
	GroupUsers     KeyedSlice[model.User]
	PrayerSubjects Slice[model.PrayerSubject]
	SubjectQuery   SubjectQuery
	Notifications  Slice[model.Notification]
	Preferences    Slice[model.UserPreference]
}

func initialState() State {
	return State{
		Auth:           AuthState{Status: StatusIdle},
		UserPrayers:    NewSlice[model.Prayer](),
		Groups:         NewSlice[model.Group](),
		GroupPrayers:   KeyedSlice[model.Prayer]{Slice: NewSlice[model.Prayer]()},
		GroupUsers:     KeyedSlice[model.User]{Slice: NewSlice[model.User]()},
		PrayerSubjects: NewSlice[model.PrayerSubject](),
		Notifications:  NewSlice[model.Notification](),
		Preferences:    NewSlice[model.UserPreference](),
	}
}

// resetAll clears the session and every slice. Versions keep increasing so
// memoized views never confuse old data with new.
func resetAll(st *State) {
	validated := st.Auth.Session.IsTokenValidated
	st.Auth = AuthState{Status: StatusIdle}
	st.Auth.Session.IsTokenValidated = validated
	st.UserPrayers.Reset()
	st.Groups.Reset()
	st.GroupPrayers.Reset()
	st.GroupPrayers.ParentID = 0
	st.GroupUsers.Reset()
	st.GroupUsers.ParentID = 0
	st.PrayerSubjects.Reset()
	st.SubjectQuery = SubjectQuery{}
	st.Notifications.Reset()
	st.Preferences.Reset()
}

// Store owns State. All mutation happens under mu; the lock is never held
// across a network call.
type Store struct {
	mu    sync.RWMutex
	state State
	// epoch increases on every logout; completions from an older epoch are dropped.
	epoch uint64

	// vaultMu orders session writes to the vault against the clear on logout.
	vaultMu sync.Mutex

	api   API
	vault Vault
	log   *logger.Logger
	now   func() time.Time
}

// New creates a store. vault may be nil to keep everything in memory.
func New(vault Vault, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Default()
	}
	return &Store{
		state: initialState(),
		vault: vault,
		log:   log,
		now:   time.Now,
	}
}

// Bind sets the API the store calls. It must be called before any operation.
func (s *Store) Bind(a API) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.api = a
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Session returns the current session.
func (s *Store) Session() session.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Auth.Session
}

// update runs fn under the write lock.
func (s *Store) update(fn func(st *State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
}

// start runs fn under the write lock and returns the epoch and user id it ran
// in. It fails when nobody is logged in.
func (s *Store) start(fn func(st *State)) (uint64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID := s.state.Auth.Session.UserID()
	if !s.state.Auth.Session.IsAuthenticated || userID == 0 {
		return s.epoch, 0, errNotAuthenticated
	}
	fn(&s.state)
	return s.epoch, userID, nil
}

// finish runs fn under the write lock unless a logout happened since epoch.
func (s *Store) finish(epoch uint64, fn func(st *State)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return false
	}
	fn(&s.state)
	return true
}

func message(err error) string {
	return api.MessageOf(err)
}

// --- api.Session ---

// Token implements api.Session.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Auth.Session.Token
}

// Credentials implements api.Session.
func (s *Store) Credentials(ctx context.Context) (api.Credentials, bool) {
	if s.vault == nil {
		return api.Credentials{}, false
	}
	s.mu.RLock()
	epoch := s.epoch
	s.mu.RUnlock()

	creds, ok, err := s.vault.Credentials(ctx)
	if err != nil {
		s.log.Warn("Failed to read saved credentials", logger.Err(err))
		return api.Credentials{}, false
	}
	if !ok {
		return api.Credentials{}, false
	}
	return api.Credentials{Username: creds.Username, Password: creds.Password, Epoch: epoch}, true
}

// Refreshed implements api.Session: a silent re-login installs a new session
// unless a logout happened after creds were read.
func (s *Store) Refreshed(creds api.Credentials, res *api.LoginResponse) bool {
	sess, ok := s.installAt(creds.Epoch, res)
	if !ok {
		s.log.Warn("Dropped token refresh that finished after logout")
		return false
	}
	s.log.Info("Session refreshed", logger.F("user_id", sess.UserID()))
	return true
}

// ForceLogout implements api.Session.
func (s *Store) ForceLogout(reason error) {
	s.log.Warn("Forced logout", logger.Err(reason))
	s.clear(true)
}

func installed(st *State, res *api.LoginResponse) session.Session {
	st.Auth.Session = session.Session{
		Token:            res.Token,
		User:             res.User,
		IsAuthenticated:  true,
		IsTokenValidated: true,
	}
	st.Auth.Status = StatusSucceeded
	st.Auth.Error = ""
	return st.Auth.Session
}

func (s *Store) install(res *api.LoginResponse) session.Session {
	var sess session.Session
	s.update(func(st *State) { sess = installed(st, res) })
	return sess
}

// installAt installs and persists res unless a logout happened since epoch.
func (s *Store) installAt(epoch uint64, res *api.LoginResponse) (session.Session, bool) {
	s.vaultMu.Lock()
	defer s.vaultMu.Unlock()
	var sess session.Session
	if !s.finish(epoch, func(st *State) { sess = installed(st, res) }) {
		return sess, false
	}
	s.saveSession(sess)
	return sess, true
}

func (s *Store) persist(sess session.Session) {
	s.vaultMu.Lock()
	defer s.vaultMu.Unlock()
	s.saveSession(sess)
}

func (s *Store) saveSession(sess session.Session) {
	if s.vault == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.vault.SaveSession(ctx, sess); err != nil {
		s.log.Error("Failed to persist session", logger.Err(err))
	}
}

// clear resets the session and every dependent slice in one step, then
// removes persisted state. IsTokenValidated stays set: the check has run.
func (s *Store) clear(forgetCredentials bool) {
	s.mu.Lock()
	resetAll(&s.state)
	s.epoch++
	s.mu.Unlock()

	if s.vault == nil {
		return
	}
	s.vaultMu.Lock()
	defer s.vaultMu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.vault.ClearSession(ctx); err != nil {
		s.log.Error("Failed to clear persisted session", logger.Err(err))
	}
	if forgetCredentials {
		if err := s.vault.ClearCredentials(ctx); err != nil {
			s.log.Error("Failed to clear saved credentials", logger.Err(err))
		}
	}
}

var _ api.Session = (*Store)(nil)

// IsNotAuthenticated reports whether err came from an operation attempted
// while logged out.
func IsNotAuthenticated(err error) bool {
	return api.KindOf(err) == api.KindUnauthorized
}
