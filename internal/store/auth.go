package store

import (
	"context"
	"fmt"

	"github.com/existflow/prayerlist/internal/api"
	"github.com/existflow/prayerlist/internal/logger"
	"github.com/existflow/prayerlist/internal/model"
	"github.com/existflow/prayerlist/internal/session"
)

// Restore rehydrates the persisted session. The token is not trusted until
// ValidateToken has run.
func (s *Store) Restore(ctx context.Context) error {
	if s.vault == nil {
		return nil
	}
	sess, err := s.vault.LoadSession(ctx)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	s.update(func(st *State) {
		st.Auth.Session = sess
		st.Auth.Session.IsTokenValidated = false
	})
	return nil
}

// ValidateToken checks the restored token's expiry. An expired or unreadable
// token is replaced by a silent login with saved credentials when there are
// any; otherwise the session is cleared. Either way IsTokenValidated is set.
func (s *Store) ValidateToken(ctx context.Context) error {
	sess := s.Session()
	if sess.IsAuthenticated && session.TokenUsable(sess.Token, s.now()) {
		s.update(func(st *State) { st.Auth.Session.IsTokenValidated = true })
		return nil
	}

	defer s.update(func(st *State) { st.Auth.Session.IsTokenValidated = true })

	creds, ok := s.Credentials(ctx)
	if !ok {
		if sess.IsAuthenticated {
			s.log.Info("Stored token expired, clearing session")
			s.clear(false)
		}
		return nil
	}

	s.update(func(st *State) { st.Auth.Status = StatusLoading })
	res, err := s.api.Login(ctx, creds.Username, creds.Password)
	if err != nil {
		s.log.Warn("Silent re-login failed", logger.Err(err))
		s.clear(api.KindOf(err) == api.KindInvalidCredentials)
		s.update(func(st *State) {
			st.Auth.Status = StatusFailed
			st.Auth.Error = message(err)
		})
		return err
	}
	if _, ok := s.installAt(creds.Epoch, res); !ok {
		s.log.Warn("Dropped silent re-login that finished after logout")
	}
	return nil
}

// Login authenticates and installs the session. With remember the credentials
// are saved for silent re-login; without it any saved ones are forgotten.
func (s *Store) Login(ctx context.Context, username, password string, remember bool) error {
	s.update(func(st *State) { st.Auth.Status = StatusLoading })

	res, err := s.api.Login(ctx, username, password)
	if err != nil {
		s.update(func(st *State) {
			st.Auth.Status = StatusFailed
			st.Auth.Error = message(err)
		})
		return err
	}

	sess := s.install(res)
	s.persist(sess)

	if s.vault != nil {
		if remember {
			err = s.vault.SaveCredentials(ctx, session.Credentials{Username: username, Password: password})
		} else {
			err = s.vault.ClearCredentials(ctx)
		}
		if err != nil {
			s.log.Error("Failed to update saved credentials", logger.Err(err))
		}
	}
	s.log.Info("Logged in", logger.F("user_id", sess.UserID()))
	return nil
}

// Logout ends the session, forgets saved credentials and clears every slice.
func (s *Store) Logout(ctx context.Context) error {
	s.clear(true)
	s.log.Info("Logged out")
	return nil
}

// Signup creates an account. It does not log in.
func (s *Store) Signup(ctx context.Context, req api.SignupRequest) (*model.User, error) {
	s.update(func(st *State) { st.Auth.Status = StatusCreating })
	res, err := s.api.Signup(ctx, req)
	if err != nil {
		s.update(func(st *State) {
			st.Auth.Status = StatusFailed
			st.Auth.Error = message(err)
		})
		return nil, err
	}
	s.update(func(st *State) {
		st.Auth.Status = StatusSucceeded
		st.Auth.Error = ""
	})
	return res.User, nil
}

// UpdateProfile patches the profile and swaps in the server's copy of the user.
func (s *Store) UpdateProfile(ctx context.Context, update api.ProfileUpdate) error {
	epoch, userID, err := s.start(func(st *State) { st.Auth.Status = StatusUpdating })
	if err != nil {
		return err
	}
	user, err := s.api.UpdateProfile(ctx, userID, update)

	var sess session.Session
	applied := s.finish(epoch, func(st *State) {
		if err != nil {
			st.Auth.Status = StatusFailed
			st.Auth.Error = message(err)
			return
		}
		st.Auth.Session.User = user
		st.Auth.Status = StatusSucceeded
		st.Auth.Error = ""
		sess = st.Auth.Session
	})
	if err != nil {
		return err
	}
	if applied {
		s.persist(sess)
	}
	return nil
}

// ChangePassword changes the password. Saved credentials are updated to match.
func (s *Store) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	epoch, userID, err := s.start(func(st *State) { st.Auth.Status = StatusUpdating })
	if err != nil {
		return err
	}
	err = s.api.ChangePassword(ctx, userID, oldPassword, newPassword)
	s.finish(epoch, func(st *State) {
		if err != nil {
			st.Auth.Status = StatusFailed
			st.Auth.Error = message(err)
			return
		}
		st.Auth.Status = StatusSucceeded
		st.Auth.Error = ""
	})
	if err != nil {
		return err
	}

	if s.vault != nil {
		if creds, ok, verr := s.vault.Credentials(ctx); verr == nil && ok {
			creds.Password = newPassword
			if verr := s.vault.SaveCredentials(ctx, creds); verr != nil {
				s.log.Error("Failed to update saved credentials", logger.Err(verr))
			}
		}
	}
	return nil
}

// DeleteAccount deletes the account and logs out.
func (s *Store) DeleteAccount(ctx context.Context) error {
	_, userID, err := s.start(func(st *State) { st.Auth.Status = StatusDeleting })
	if err != nil {
		return err
	}
	if err := s.api.DeleteAccount(ctx, userID); err != nil {
		s.update(func(st *State) {
			st.Auth.Status = StatusFailed
			st.Auth.Error = message(err)
		})
		return err
	}
	s.clear(true)
	return nil
}

// RegisterPushToken records a device push token for the current user.
func (s *Store) RegisterPushToken(ctx context.Context, pushToken, platform string) (bool, error) {
	if !s.Session().IsAuthenticated {
		return false, errNotAuthenticated
	}
	return s.api.RegisterPushToken(ctx, pushToken, platform)
}
