package api

import (
	"context"
	"errors"
	"sync"

	"github.com/existflow/prayerlist/internal/logger"
)

const defaultMaxWaiters = 256

var (
	errNoCredentials = errors.New("no saved credentials")
	errQueueFull     = errors.New("refresh queue full")
	errLoggedOut     = errors.New("session ended")
)

type refreshState int

const (
	refreshIdle refreshState = iota
	refreshInFlight
)

func (s refreshState) String() string {
	if s == refreshInFlight {
		return "in-flight"
	}
	return "idle"
}

type refreshOutcome struct {
	token string
	err   error
}

type loginFunc func(ctx context.Context, creds Credentials) (*LoginResponse, error)

// Refresher coordinates silent re-login after a 401. At most one login is in
// flight; every caller that hits a 401 meanwhile waits for that login's result.
type Refresher struct {
	mu         sync.Mutex
	state      refreshState
	waiters    []chan refreshOutcome
	maxWaiters int

	session Session
	login   loginFunc
	log     *logger.Logger
}

func newRefresher(session Session, login loginFunc, maxWaiters int, log *logger.Logger) *Refresher {
	if maxWaiters <= 0 {
		maxWaiters = defaultMaxWaiters
	}
	return &Refresher{
		session:    session,
		login:      login,
		maxWaiters: maxWaiters,
		log:        log,
	}
}

// Await returns a token to retry with. staleToken is the token the failed
// request carried; if the session already holds a different one, a refresh
// finished in between and that token is returned without another login.
func (r *Refresher) Await(ctx context.Context, staleToken string) (string, error) {
	r.mu.Lock()
	if r.state == refreshIdle {
		switch current := r.session.Token(); {
		case current == "":
			// logged out while the request was in flight
			r.mu.Unlock()
			return "", errLoggedOut
		case current != staleToken:
			r.mu.Unlock()
			return current, nil
		}
	}
	if len(r.waiters) >= r.maxWaiters {
		r.mu.Unlock()
		return "", errQueueFull
	}

	ch := make(chan refreshOutcome, 1)
	r.waiters = append(r.waiters, ch)
	if r.state == refreshIdle {
		r.state = refreshInFlight
		r.log.Info("Token refresh started")
		go r.run(context.WithoutCancel(ctx))
	}
	r.mu.Unlock()

	select {
	case out := <-ch:
		return out.token, out.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// InFlight reports whether a refresh is currently running.
func (r *Refresher) InFlight() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == refreshInFlight
}

// run performs the refresh and releases every waiter with its outcome. The
// session is updated, or logged out, before any waiter sees the result.
func (r *Refresher) run(ctx context.Context) {
	out := r.refresh(ctx)
	if out.err != nil && !errors.Is(out.err, errLoggedOut) {
		r.log.Warn("Token refresh failed, forcing logout", logger.Err(out.err))
		r.session.ForceLogout(out.err)
	}

	r.mu.Lock()
	waiters := r.waiters
	r.waiters = nil
	r.state = refreshIdle
	r.mu.Unlock()

	r.log.Info("Token refresh settled",
		logger.F("waiters", len(waiters)),
		logger.F("ok", out.err == nil),
	)
	for _, ch := range waiters {
		ch <- out
	}
}

func (r *Refresher) refresh(ctx context.Context) refreshOutcome {
	creds, ok := r.session.Credentials(ctx)
	if !ok || creds.Username == "" || creds.Password == "" {
		return refreshOutcome{err: errNoCredentials}
	}

	res, err := r.login(ctx, creds)
	if err != nil {
		return refreshOutcome{err: err}
	}
	if res.Token == "" {
		return refreshOutcome{err: malformed(errors.New("login response has no token"))}
	}

	if !r.session.Refreshed(creds, res) {
		return refreshOutcome{err: errLoggedOut}
	}
	return refreshOutcome{token: res.Token}
}
