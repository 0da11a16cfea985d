package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tobiusaolo/Carryitrentals-sub000/internal/core/domain"
)

// memStore is an in-memory CredentialStore recording how often it is
// written, so tests can assert "no store mutation on failure".
type memStore struct {
	mu     sync.Mutex
	cred   domain.Credential
	empty  bool
	writes int
	clears int
}

func newMemStore() *memStore {
	return &memStore{empty: true}
}

func (m *memStore) Write(_ context.Context, cred domain.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = cred
	m.empty = false
	m.writes++
	return nil
}

func (m *memStore) Read(_ context.Context) (domain.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.empty {
		return domain.Credential{}, nil
	}
	return m.cred, nil
}

func (m *memStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = domain.Credential{}
	m.empty = true
	m.clears++
	return nil
}

func (m *memStore) snapshot() domain.Credential {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cred
}

// stubAuthAPI scripts upstream responses. A non-nil gate blocks every call
// until the channel is closed, for concurrency tests.
type stubAuthAPI struct {
	mu           sync.Mutex
	loginPair    domain.TokenPair
	loginErr     error
	user         *domain.User
	userErr      error
	refreshPair  domain.TokenPair
	refreshErr   error
	loginCalls   int
	userCalls    int
	refreshCalls int
	gate         chan struct{}
	entered      chan struct{}
}

func (s *stubAuthAPI) wait() {
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.gate != nil {
		<-s.gate
	}
}

func (s *stubAuthAPI) Login(context.Context, string, string) (domain.TokenPair, error) {
	s.mu.Lock()
	s.loginCalls++
	s.mu.Unlock()
	s.wait()
	return s.loginPair, s.loginErr
}

func (s *stubAuthAPI) CurrentUser(context.Context, string) (*domain.User, error) {
	s.mu.Lock()
	s.userCalls++
	s.mu.Unlock()
	s.wait()
	return s.user, s.userErr
}

func (s *stubAuthAPI) Refresh(context.Context, string) (domain.TokenPair, error) {
	s.mu.Lock()
	s.refreshCalls++
	s.mu.Unlock()
	s.wait()
	return s.refreshPair, s.refreshErr
}

func (s *stubAuthAPI) calls() (login, user, refresh int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loginCalls, s.userCalls, s.refreshCalls
}

func newTestService(api *stubAuthAPI, store *memStore) *SessionService {
	return NewSessionService(api, store, time.Second, zerolog.Nop())
}

func TestSessionService_Login_Success(t *testing.T) {
	api := &stubAuthAPI{loginPair: domain.TokenPair{AccessToken: "at-1", RefreshToken: "rt-1"}}
	store := newMemStore()
	svc := newTestService(api, store)

	pair, err := svc.Login(context.Background(), "alice@example.com", "pass")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if pair.AccessToken != "at-1" || pair.RefreshToken != "rt-1" {
		t.Fatalf("unexpected pair: %+v", pair)
	}

	cred := store.snapshot()
	if cred.AccessToken != "at-1" || cred.RefreshToken != "rt-1" {
		t.Fatalf("tokens not persisted together: %+v", cred)
	}
	if cred.User != nil {
		t.Fatalf("user should be unknown right after login")
	}
}

func TestSessionService_Login_FailureLeavesStoreAlone(t *testing.T) {
	api := &stubAuthAPI{loginErr: domain.ErrInvalidCredentials}
	store := newMemStore()
	svc := newTestService(api, store)

	if _, err := svc.Login(context.Background(), "alice@example.com", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if store.writes != 0 {
		t.Fatalf("store mutated on failed login")
	}
}

func TestSessionService_Login_EmptyInputShortCircuits(t *testing.T) {
	api := &stubAuthAPI{}
	svc := newTestService(api, newMemStore())

	if _, err := svc.Login(context.Background(), "", ""); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if login, _, _ := api.calls(); login != 0 {
		t.Fatalf("upstream called for empty credentials")
	}
}

func TestSessionService_FetchCurrentUser_CachesProfile(t *testing.T) {
	user := &domain.User{ID: 7, Name: "Alice", Email: "alice@example.com", Role: domain.RoleOwner}
	api := &stubAuthAPI{user: user}
	store := newMemStore()
	_ = store.Write(context.Background(), domain.Credential{AccessToken: "at-1", RefreshToken: "rt-1"})
	svc := newTestService(api, store)

	got, err := svc.FetchCurrentUser(context.Background())
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if got.Role != domain.RoleOwner {
		t.Fatalf("unexpected role: %s", got.Role)
	}

	cred := store.snapshot()
	if cred.User == nil || cred.User.ID != 7 {
		t.Fatalf("profile not cached: %+v", cred)
	}
	if cred.AccessToken != "at-1" || cred.RefreshToken != "rt-1" {
		t.Fatalf("tokens disturbed by profile fetch: %+v", cred)
	}
}

func TestSessionService_FetchCurrentUser_NoToken(t *testing.T) {
	svc := newTestService(&stubAuthAPI{}, newMemStore())
	if _, err := svc.FetchCurrentUser(context.Background()); !errors.Is(err, domain.ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential, got %v", err)
	}
}

func TestSessionService_FetchCurrentUser_FailurePreservesStore(t *testing.T) {
	api := &stubAuthAPI{userErr: domain.ErrUnauthorized}
	store := newMemStore()
	_ = store.Write(context.Background(), domain.Credential{AccessToken: "at-1", RefreshToken: "rt-1"})
	writesBefore := store.writes
	svc := newTestService(api, store)

	if _, err := svc.FetchCurrentUser(context.Background()); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if store.writes != writesBefore || store.clears != 0 {
		t.Fatalf("store mutated by failed fetch")
	}
}

func TestSessionService_Refresh_PreservesUserAndRotates(t *testing.T) {
	user := &domain.User{ID: 7, Role: domain.RoleAdmin}
	api := &stubAuthAPI{refreshPair: domain.TokenPair{AccessToken: "at-2", RefreshToken: "rt-2"}}
	store := newMemStore()
	_ = store.Write(context.Background(), domain.Credential{AccessToken: "at-1", RefreshToken: "rt-1", User: user})
	svc := newTestService(api, store)

	pair, err := svc.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if pair.AccessToken != "at-2" || pair.RefreshToken != "rt-2" {
		t.Fatalf("unexpected pair: %+v", pair)
	}

	cred := store.snapshot()
	if cred.User == nil || cred.User.ID != 7 {
		t.Fatalf("cached user lost across refresh: %+v", cred)
	}
	if cred.RefreshToken != "rt-2" {
		t.Fatalf("rotated refresh token not persisted: %+v", cred)
	}
}

func TestSessionService_Refresh_WithoutRotationKeepsOldRefreshToken(t *testing.T) {
	api := &stubAuthAPI{refreshPair: domain.TokenPair{AccessToken: "at-2"}}
	store := newMemStore()
	_ = store.Write(context.Background(), domain.Credential{AccessToken: "at-1", RefreshToken: "rt-1"})
	svc := newTestService(api, store)

	pair, err := svc.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if pair.RefreshToken != "rt-1" {
		t.Fatalf("expected old refresh token to survive, got %+v", pair)
	}
	if cred := store.snapshot(); cred.RefreshToken != "rt-1" || cred.AccessToken != "at-2" {
		t.Fatalf("unexpected stored credential: %+v", cred)
	}
}

func TestSessionService_Refresh_FailureIsTerminal(t *testing.T) {
	api := &stubAuthAPI{refreshErr: domain.ErrUnauthorized}
	store := newMemStore()
	_ = store.Write(context.Background(), domain.Credential{
		AccessToken:  "at-1",
		RefreshToken: "rt-1",
		User:         &domain.User{ID: 7, Role: domain.RoleOwner},
	})
	svc := newTestService(api, store)

	if _, err := svc.Refresh(context.Background()); !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}

	cred, err := store.Read(context.Background())
	if err != nil {
		t.Fatalf("read after clear: %v", err)
	}
	if cred.AccessToken != "" || cred.RefreshToken != "" || cred.User != nil {
		t.Fatalf("store not fully cleared after terminal refresh: %+v", cred)
	}
}

func TestSessionService_Logout_Idempotent(t *testing.T) {
	store := newMemStore()
	svc := newTestService(&stubAuthAPI{}, store)

	svc.Logout(context.Background())
	svc.Logout(context.Background())

	cred, err := store.Read(context.Background())
	if err != nil {
		t.Fatalf("read after logout: %v", err)
	}
	if cred.HasAccessToken() || cred.HasRefreshToken() || cred.User != nil {
		t.Fatalf("store not empty after logout: %+v", cred)
	}
}

func TestSessionService_Refresh_SingleFlight(t *testing.T) {
	api := &stubAuthAPI{
		refreshPair: domain.TokenPair{AccessToken: "at-2", RefreshToken: "rt-2"},
		gate:        make(chan struct{}),
		entered:     make(chan struct{}, 1),
	}
	store := newMemStore()
	_ = store.Write(context.Background(), domain.Credential{AccessToken: "at-1", RefreshToken: "rt-1"})
	svc := newTestService(api, store)

	const callers = 5
	var wg sync.WaitGroup
	results := make([]error, callers)

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, results[0] = svc.Refresh(context.Background())
	}()
	<-api.entered // the first caller is inside the upstream call

	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Refresh(context.Background())
		}(i)
	}
	// Give the late callers time to attach to the in-flight call, then
	// release it.
	time.Sleep(100 * time.Millisecond)
	close(api.gate)
	wg.Wait()

	for i, err := range results {
		if err != nil {
			t.Fatalf("caller %d failed: %v", i, err)
		}
	}
	if _, _, refresh := api.calls(); refresh != 1 {
		t.Fatalf("expected exactly one upstream refresh, got %d", refresh)
	}
}
