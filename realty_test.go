package realty

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lborres/realty/adapters/memory"
	"github.com/lborres/realty/core"
	"github.com/lborres/realty/services"
)

const testSecret = "01234567890123456789012345678901"

// recordingHTTP captures the assembled Realty instead of serving it.
type recordingHTTP struct {
	got *core.Realty
	err error
}

func (d *recordingHTTP) RegisterRoutes(r *core.Realty) error {
	d.got = r
	return d.err
}

func TestNew_Validation(t *testing.T) {
	store := memory.New()

	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{
			name:    "missing secret",
			cfg:     Config{Users: store, Sessions: store, HTTP: &recordingHTTP{}},
			wantErr: core.ErrSecretRequired,
		},
		{
			name:    "short secret",
			cfg:     Config{Secret: "short-secret", Users: store, Sessions: store, HTTP: &recordingHTTP{}},
			wantErr: core.ErrSecretTooShort,
		},
		{
			name:    "missing storage",
			cfg:     Config{Secret: testSecret, Users: store, HTTP: &recordingHTTP{}},
			wantErr: core.ErrStorageRequired,
		},
		{
			name:    "missing http adapter",
			cfg:     Config{Secret: testSecret, Users: store, Sessions: store},
			wantErr: core.ErrHTTPAdapterRequired,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			// Act
			_, err := New(test.cfg)

			// Assert
			if !errors.Is(err, test.wantErr) {
				t.Fatalf("expected %v, got %v", test.wantErr, err)
			}
		})
	}
}

func TestNew_ShortSecretMentionsMinimum(t *testing.T) {
	store := memory.New()

	_, err := New(Config{Secret: "short-secret", Users: store, Sessions: store, HTTP: &recordingHTTP{}})

	if err == nil || !strings.Contains(err.Error(), "32") {
		t.Fatalf("expected error message to include minimum length, got %v", err)
	}
}

func TestNew_Defaults(t *testing.T) {
	store := memory.New()
	http := &recordingHTTP{}

	r, err := New(Config{Secret: testSecret, Users: store, Sessions: store, HTTP: http})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if http.got != r {
		t.Fatalf("RegisterRoutes should receive the assembled instance")
	}
	if r.Cookie.Name != "realty_session" || r.Cookie.Path != "/" || r.Cookie.SameSite != "Lax" {
		t.Errorf("unexpected cookie defaults: %+v", r.Cookie)
	}
	if r.Session.MaxAge != core.DefaultSessionConfig().MaxAge {
		t.Errorf("expected default max age, got %v", r.Session.MaxAge)
	}
	if r.CSRF == nil {
		t.Errorf("anti-forgery should be enabled by default")
	}
	if len(r.Endpoints) != len(services.BaseEndpoints()) {
		t.Errorf("expected %d endpoints, got %d", len(services.BaseEndpoints()), len(r.Endpoints))
	}
	if _, ok := r.Sessions.CacheStats(); !ok {
		t.Errorf("default cache should report stats")
	}
}

func TestNew_WithoutDocumentsOrChat(t *testing.T) {
	store := memory.New()

	r, err := New(Config{Secret: testSecret, Users: store, Sessions: store, HTTP: &recordingHTTP{}, DisableCSRF: true})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx := context.Background()

	if _, err := r.Preferences.GetPreferences(ctx, "u1"); !errors.Is(err, core.ErrNotImplemented) {
		t.Errorf("preferences without a document store should be unimplemented, got %v", err)
	}
	if _, err := r.Listings.ListListings(ctx, "u1"); !errors.Is(err, core.ErrNotImplemented) {
		t.Errorf("listings without a document store should be unimplemented, got %v", err)
	}
	if _, err := r.Advisor.SuggestStrategy(ctx, "growth"); !errors.Is(err, core.ErrChatNotConfigured) {
		t.Errorf("advisor without chat should be unconfigured, got %v", err)
	}
	if r.CSRF != nil {
		t.Errorf("DisableCSRF should leave CSRF nil")
	}
}

func TestNew_WithDocuments(t *testing.T) {
	store := memory.New()

	r, err := New(Config{
		Secret:    testSecret,
		Users:     store,
		Sessions:  store,
		Documents: memory.NewDocumentStore(),
		HTTP:      &recordingHTTP{},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	prefs, err := r.Preferences.GetPreferences(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetPreferences failed: %v", err)
	}
	if len(prefs) != 0 {
		t.Errorf("expected empty preferences, got %v", prefs)
	}
}

func TestNew_ShouldNotUseCacheWhenDisableCacheTrue(t *testing.T) {
	store := memory.New()

	r, err := New(Config{Secret: testSecret, Users: store, Sessions: store, HTTP: &recordingHTTP{}, DisableCache: true})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, ok := r.Sessions.CacheStats(); ok {
		t.Fatalf("expected no cache stats when the cache is disabled")
	}
}

func TestNew_PropagatesRouteErrors(t *testing.T) {
	store := memory.New()
	boom := errors.New("boom")

	_, err := New(Config{Secret: testSecret, Users: store, Sessions: store, HTTP: &recordingHTTP{err: boom}})

	if !errors.Is(err, boom) {
		t.Fatalf("expected RegisterRoutes error, got %v", err)
	}
}
