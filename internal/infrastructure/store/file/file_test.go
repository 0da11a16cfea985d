package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tobiusaolo/Carryitrentals-sub000/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "credentials.json"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestStore_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := domain.Credential{
		AccessToken:  "at-1",
		RefreshToken: "rt-1",
		User:         &domain.User{ID: 7, Name: "Alice", Email: "alice@example.com", Role: domain.RoleOwner},
	}
	if err := s.Write(ctx, in); err != nil {
		t.Fatalf("write: %v", err)
	}

	out, err := s.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if out.AccessToken != "at-1" || out.RefreshToken != "rt-1" {
		t.Fatalf("tokens did not round-trip: %+v", out)
	}
	if out.User == nil || out.User.ID != 7 || out.User.Role != domain.RoleOwner {
		t.Fatalf("profile did not round-trip: %+v", out.User)
	}
}

func TestStore_ReadMissingFileMeansLoggedOut(t *testing.T) {
	s := newTestStore(t)

	cred, err := s.Read(context.Background())
	if err != nil {
		t.Fatalf("missing file should not be an error: %v", err)
	}
	if cred.HasAccessToken() || cred.HasRefreshToken() || cred.User != nil {
		t.Fatalf("expected empty credential, got %+v", cred)
	}
}

func TestStore_WriteWithoutUserDropsCachedProfile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_ = s.Write(ctx, domain.Credential{
		AccessToken:  "at-1",
		RefreshToken: "rt-1",
		User:         &domain.User{ID: 7, Role: domain.RoleAdmin},
	})
	// A fresh login writes only tokens: the old profile must not leak into
	// the new session.
	if err := s.Write(ctx, domain.Credential{AccessToken: "at-2", RefreshToken: "rt-2"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	out, err := s.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if out.User != nil {
		t.Fatalf("stale profile survived a token-only write: %+v", out.User)
	}
	if out.AccessToken != "at-2" || out.RefreshToken != "rt-2" {
		t.Fatalf("tokens not replaced: %+v", out)
	}
}

func TestStore_ClearIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_ = s.Write(ctx, domain.Credential{AccessToken: "at-1", RefreshToken: "rt-1"})
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("first clear: %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("second clear should be a no-op: %v", err)
	}

	cred, err := s.Read(ctx)
	if err != nil {
		t.Fatalf("read after clear: %v", err)
	}
	if cred.HasAccessToken() || cred.HasRefreshToken() {
		t.Fatalf("credential survived clear: %+v", cred)
	}
}

func TestStore_MalformedProfileKeepsTokens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	doc := `{"token":"at-1","refresh_token":"rt-1","user":{"id":"not-a-number"}}`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	cred, err := s.Read(context.Background())
	if !errors.Is(err, domain.ErrMalformedCredential) {
		t.Fatalf("expected ErrMalformedCredential, got %v", err)
	}
	if cred.AccessToken != "at-1" || cred.RefreshToken != "rt-1" {
		t.Fatalf("token fields lost alongside the malformed profile: %+v", cred)
	}
}

func TestStore_MalformedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	if _, err := s.Read(context.Background()); !errors.Is(err, domain.ErrMalformedCredential) {
		t.Fatalf("expected ErrMalformedCredential, got %v", err)
	}
}

func TestStore_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.json")
	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := s.Write(context.Background(), domain.Credential{AccessToken: "at-1", RefreshToken: "rt-1"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "credentials.json" {
		t.Fatalf("unexpected directory contents: %v", entries)
	}
}
