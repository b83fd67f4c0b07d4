package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/existflow/prayerlist/internal/logger"
	"github.com/existflow/prayerlist/internal/model"
)

// authServer serves /login and a protected /users/1/prayers that only accepts
// the token "fresh".
type authServer struct {
	logins     atomic.Int32
	loginDelay time.Duration
	loginFails bool
	alwaysDeny bool
	staleGate  chan struct{} // closed once every stale request has arrived
	staleSeen  atomic.Int32
	staleWant  int32
}

func (a *authServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/login":
		a.logins.Add(1)
		if a.loginDelay > 0 {
			time.Sleep(a.loginDelay)
		}
		if a.loginFails {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "down"})
			return
		}
		writeJSON(w, http.StatusOK, LoginResponse{
			Message: "ok",
			Token:   "fresh",
			User:    &model.User{UserProfileID: 1, Username: "ann"},
		})
	case "/users/1/prayers":
		if !a.alwaysDeny && r.Header.Get("Authorization") == "Bearer fresh" {
			writeJSON(w, http.StatusOK, map[string]any{"message": "ok", "prayers": []model.Prayer{{PrayerID: 1}}})
			return
		}
		if a.staleGate != nil {
			if a.staleSeen.Add(1) == a.staleWant {
				close(a.staleGate)
			}
			select {
			case <-a.staleGate:
			case <-time.After(2 * time.Second):
			}
		}
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "expired"})
	default:
		http.NotFound(w, r)
	}
}

func TestRefresh_ConcurrentUnauthorizedShareOneLogin(t *testing.T) {
	const callers = 5
	srv := &authServer{
		loginDelay: 50 * time.Millisecond,
		staleGate:  make(chan struct{}),
		staleWant:  callers,
	}
	server := httptest.NewServer(srv)
	t.Cleanup(server.Close)

	session := &fakeSession{token: "stale", creds: &Credentials{Username: "ann", Password: "secret1"}}
	c := newTestClient(t, server.URL, session)

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.UserPrayers(context.Background(), 1)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d returned error: %v", i, err)
		}
	}
	if got := srv.logins.Load(); got != 1 {
		t.Fatalf("login calls = %d, want 1", got)
	}
	refreshed, logouts := session.counts()
	if refreshed != 1 || logouts != 0 {
		t.Fatalf("refreshed = %d, logouts = %d, want 1 and 0", refreshed, logouts)
	}
	if c.refresher.InFlight() {
		t.Fatal("refresher still in flight after all callers returned")
	}
}

func TestRefresh_SecondUnauthorizedForcesLogoutOnce(t *testing.T) {
	srv := &authServer{alwaysDeny: true}
	server := httptest.NewServer(srv)
	t.Cleanup(server.Close)

	session := &fakeSession{token: "stale", creds: &Credentials{Username: "ann", Password: "secret1"}}
	c := newTestClient(t, server.URL, session)

	_, err := c.UserPrayers(context.Background(), 1)
	if KindOf(err) != KindUnauthorized {
		t.Fatalf("KindOf(err) = %q, want Unauthorized", KindOf(err))
	}
	if got := srv.logins.Load(); got != 1 {
		t.Fatalf("login calls = %d, want 1", got)
	}
	if _, logouts := session.counts(); logouts != 1 {
		t.Fatalf("logouts = %d, want 1", logouts)
	}
	if session.Token() != "" {
		t.Fatalf("token = %q, want cleared", session.Token())
	}
}

func TestRefresh_NoCredentialsLogsOutWithoutLogin(t *testing.T) {
	srv := &authServer{}
	server := httptest.NewServer(srv)
	t.Cleanup(server.Close)

	session := &fakeSession{token: "stale"}
	c := newTestClient(t, server.URL, session)

	_, err := c.UserPrayers(context.Background(), 1)
	if KindOf(err) != KindUnauthorized {
		t.Fatalf("KindOf(err) = %q, want Unauthorized", KindOf(err))
	}
	if got := srv.logins.Load(); got != 0 {
		t.Fatalf("login calls = %d, want 0", got)
	}
	if _, logouts := session.counts(); logouts != 1 {
		t.Fatalf("logouts = %d, want 1", logouts)
	}
}

func TestRefresh_LoginFailureRejectsAllWaiters(t *testing.T) {
	const callers = 4
	srv := &authServer{
		loginFails: true,
		loginDelay: 30 * time.Millisecond,
		staleGate:  make(chan struct{}),
		staleWant:  callers,
	}
	server := httptest.NewServer(srv)
	t.Cleanup(server.Close)

	session := &fakeSession{token: "stale", creds: &Credentials{Username: "ann", Password: "secret1"}}
	c := newTestClient(t, server.URL, session)

	var wg sync.WaitGroup
	kinds := make([]Kind, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := c.UserPrayers(context.Background(), 1)
			kinds[i] = KindOf(err)
		}(i)
	}
	wg.Wait()

	for i, k := range kinds {
		if k != KindUnauthorized {
			t.Fatalf("caller %d kind = %q, want Unauthorized", i, k)
		}
	}
	if got := srv.logins.Load(); got != 1 {
		t.Fatalf("login calls = %d, want 1", got)
	}
	if _, logouts := session.counts(); logouts != 1 {
		t.Fatalf("logouts = %d, want 1", logouts)
	}
}

func TestRefresher_WaiterCancellationDoesNotAbortRefresh(t *testing.T) {
	release := make(chan struct{})
	session := &fakeSession{token: "stale", creds: &Credentials{Username: "ann", Password: "pw"}}
	r := newRefresher(session, func(ctx context.Context, _ Credentials) (*LoginResponse, error) {
		<-release
		return &LoginResponse{Token: "fresh"}, nil
	}, 0, logger.Discard())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := r.Await(ctx, "stale"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Await error = %v, want deadline exceeded", err)
	}
	close(release)

	deadline := time.Now().Add(2 * time.Second)
	for r.InFlight() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if session.Token() != "fresh" {
		t.Fatalf("token = %q, want fresh after detached refresh", session.Token())
	}
}

func TestRefresher_FullQueueRejectsImmediately(t *testing.T) {
	release := make(chan struct{})
	session := &fakeSession{token: "stale", creds: &Credentials{Username: "ann", Password: "pw"}}
	r := newRefresher(session, func(ctx context.Context, _ Credentials) (*LoginResponse, error) {
		<-release
		return &LoginResponse{Token: "fresh"}, nil
	}, 1, logger.Discard())

	done := make(chan string, 1)
	go func() {
		tok, _ := r.Await(context.Background(), "stale")
		done <- tok
	}()
	deadline := time.Now().Add(2 * time.Second)
	for !r.InFlight() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	if _, err := r.Await(context.Background(), "stale"); !errors.Is(err, errQueueFull) {
		t.Fatalf("Await error = %v, want queue full", err)
	}
	close(release)
	if tok := <-done; tok != "fresh" {
		t.Fatalf("first waiter token = %q, want fresh", tok)
	}
}

func TestRefresher_ReturnsNewerTokenWithoutLogin(t *testing.T) {
	var logins atomic.Int32
	session := &fakeSession{token: "fresh", creds: &Credentials{Username: "ann", Password: "pw"}}
	r := newRefresher(session, func(context.Context, Credentials) (*LoginResponse, error) {
		logins.Add(1)
		return &LoginResponse{Token: "other"}, nil
	}, 0, logger.Discard())

	tok, err := r.Await(context.Background(), "stale")
	if err != nil || tok != "fresh" {
		t.Fatalf("Await = %q, %v, want fresh, nil", tok, err)
	}
	if logins.Load() != 0 {
		t.Fatalf("login calls = %d, want 0", logins.Load())
	}
}

func TestRefresh_DroppedResultFailsWithoutForcedLogout(t *testing.T) {
	srv := &authServer{}
	server := httptest.NewServer(srv)
	t.Cleanup(server.Close)

	session := &fakeSession{token: "stale", creds: &Credentials{Username: "ann", Password: "secret1"}, ended: true}
	c := newTestClient(t, server.URL, session)

	_, err := c.UserPrayers(context.Background(), 1)
	if KindOf(err) != KindUnauthorized {
		t.Fatalf("KindOf(err) = %q, want Unauthorized", KindOf(err))
	}
	if got := srv.logins.Load(); got != 1 {
		t.Fatalf("login calls = %d, want 1", got)
	}
	if refreshed, logouts := session.counts(); refreshed != 0 || logouts != 0 {
		t.Fatalf("refreshed = %d, logouts = %d, want 0 and 0", refreshed, logouts)
	}
	if c.refresher.InFlight() {
		t.Fatal("refresher still in flight")
	}
}
