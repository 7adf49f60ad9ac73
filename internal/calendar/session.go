package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"taskmirror/internal/config"
)

// AuthState tracks the gateway's authentication lifecycle.
type AuthState int

const (
	StateUnloaded AuthState = iota
	StateLoaded
	StateSignedIn
)

func (s AuthState) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoaded:
		return "loaded"
	case StateSignedIn:
		return "signed-in"
	default:
		return "unknown"
	}
}

// Session owns the calendar provider's authentication state for the life of
// the process: the OAuth client configuration, the cached token and the
// authenticated API service. Transitions go Unloaded -> Loaded -> SignedIn
// and never backwards. A Session is safe for concurrent use and is meant to
// be injected into whatever needs the gateway rather than read from package
// globals.
type Session struct {
	mu    sync.Mutex
	state AuthState
	cfg   config.GoogleConfig
	oauth *oauth2.Config
	svc   *gcal.Service
}

// NewSession creates an unloaded session from the provider configuration.
func NewSession(cfg config.GoogleConfig) *Session {
	return &Session{cfg: cfg}
}

// State returns the current authentication state.
func (s *Session) State() AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Load builds the OAuth client configuration. It is idempotent: repeated
// calls after the first are no-ops.
func (s *Session) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Session) loadLocked() error {
	if s.state >= StateLoaded {
		return nil
	}
	if !s.cfg.Enabled() {
		return fmt.Errorf("calendar credentials not configured")
	}
	s.oauth = &oauth2.Config{
		ClientID:     s.cfg.ClientID,
		ClientSecret: s.cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gcal.CalendarEventsScope},
	}
	s.state = StateLoaded
	return nil
}

// SignIn obtains a bearer token and builds the authenticated calendar
// service. The token comes from the cached token file (written by a prior
// consent flow); refresh happens transparently through the token source.
// Loading is triggered first if it has not happened yet.
func (s *Session) SignIn(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSignedIn {
		return nil
	}
	if err := s.loadLocked(); err != nil {
		return err
	}

	tok, err := tokenFromFile(s.cfg.TokenFile)
	if err != nil {
		return fmt.Errorf("no cached token at %s: %w", s.cfg.TokenFile, err)
	}
	ts := s.oauth.TokenSource(ctx, tok)
	if _, err := ts.Token(); err != nil {
		return fmt.Errorf("cached token is invalid: %w", err)
	}

	svc, err := gcal.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, ts)))
	if err != nil {
		return fmt.Errorf("unable to create calendar service: %w", err)
	}
	s.svc = svc
	s.state = StateSignedIn
	return nil
}

// service returns the authenticated API service, signing in first if
// needed.
func (s *Session) service(ctx context.Context) (*gcal.Service, error) {
	if err := s.SignIn(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.svc, nil
}

// tokenFromFile reads an oauth2.Token from a JSON file.
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("failed to decode token from %s: %w", file, err)
	}
	return tok, nil
}

// SaveToken writes a token to the session's token file, creating the parent
// directory if needed. Exposed so a one-time consent flow can seed the
// cache.
func (s *Session) SaveToken(tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(s.cfg.TokenFile), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	f, err := os.OpenFile(s.cfg.TokenFile, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache OAuth token to %s: %w", s.cfg.TokenFile, err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(tok)
}
