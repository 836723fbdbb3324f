// Package shell is the terminal client: it resolves the caller's identity
// once at boot, gates the dashboards behind it and surfaces every failure as
// a single dismissible message.
package shell

import (
	"context"
	"errors"

	"github.com/lborres/realty/core"
)

// API is the server surface the shell drives. *APIClient implements it.
type API interface {
	CurrentUser(ctx context.Context) (core.Projection, error)
	Login(ctx context.Context, email, password string) (core.Projection, error)
	Register(ctx context.Context, name, email, password string) (core.Projection, error)
	Logout(ctx context.Context) error

	Preferences(ctx context.Context) (core.Preferences, error)
	SavePreferences(ctx context.Context, prefs core.Preferences) (core.Preferences, error)
	Listings(ctx context.Context) ([]core.Listing, error)
	AddListing(ctx context.Context, in core.ListingInput) (core.Listing, error)
	DeleteListing(ctx context.Context, id string) error
	Reports(ctx context.Context) (map[string]any, error)
	Heatmap(ctx context.Context) (map[string]any, error)
	SuggestSuburbs(ctx context.Context, prompt string) (string, error)
	SuggestStrategy(ctx context.Context, goal string) (string, error)
}

var _ API = (*APIClient)(nil)

type State int

const (
	StateLoading State = iota
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

type View string

const (
	ViewHome      View = "home"
	ViewLogin     View = "login"
	ViewRegister  View = "register"
	ViewBuyer     View = "buyer"
	ViewInvestor  View = "investor"
	ViewAgent     View = "agent"
	ViewVendor    View = "vendor"
	ViewDeveloper View = "developer"
)

var Views = []View{ViewHome, ViewLogin, ViewRegister, ViewBuyer, ViewInvestor, ViewAgent, ViewVendor, ViewDeveloper}

// Dashboard reports whether v needs an authenticated user.
func (v View) Dashboard() bool {
	switch v {
	case ViewBuyer, ViewInvestor, ViewAgent, ViewVendor, ViewDeveloper:
		return true
	}
	return false
}

func ParseView(s string) (View, bool) {
	for _, v := range Views {
		if string(v) == s {
			return v, true
		}
	}
	return "", false
}

type MessageKind int

const (
	MessageSuccess MessageKind = iota
	MessageError
)

type Message struct {
	Kind MessageKind
	Text string
}

// Shell holds the client-side session state. It is not safe for concurrent
// use.
type Shell struct {
	api   API
	state State
	user  core.Projection
	view  View
	msg   *Message
}

func New(api API) *Shell {
	return &Shell{api: api, state: StateLoading, view: ViewHome}
}

// Boot performs the single identity check. Any failure, including network
// errors, leaves the shell anonymous.
func (s *Shell) Boot(ctx context.Context) {
	user, err := s.api.CurrentUser(ctx)
	if err != nil {
		s.setAnonymous()
		return
	}
	s.setUser(user)
}

func (s *Shell) State() State { return s.state }
func (s *Shell) View() View   { return s.view }

func (s *Shell) User() (core.Projection, bool) {
	return s.user, s.state == StateAuthenticated
}

func (s *Shell) Message() (Message, bool) {
	if s.msg == nil {
		return Message{}, false
	}
	return *s.msg, true
}

func (s *Shell) Dismiss() { s.msg = nil }

// Navigate moves to v and returns the view actually shown. Dashboards
// resolve to the login view unless a user is authenticated.
func (s *Shell) Navigate(v View) View {
	if v.Dashboard() && s.state != StateAuthenticated {
		v = ViewLogin
	}
	s.view = v
	return v
}

func (s *Shell) setUser(user core.Projection) {
	s.user = user
	s.state = StateAuthenticated
}

func (s *Shell) setAnonymous() {
	s.user = core.Projection{}
	s.state = StateAnonymous
}

func (s *Shell) succeed(text string) {
	s.msg = &Message{Kind: MessageSuccess, Text: text}
}

func (s *Shell) fail(err error) {
	s.msg = &Message{Kind: MessageError, Text: ErrorText(err)}
}

// ErrorText renders err for the message line.
func ErrorText(err error) string {
	var apiErr *APIError
	switch {
	case errors.Is(err, ErrTimedOut):
		return "The request timed out."
	case errors.As(err, &apiErr):
		return apiErr.Error()
	case errors.Is(err, ErrNetwork):
		return "Could not reach the server."
	case errors.Is(err, ErrUnauthenticated):
		return "Please log in first."
	case errors.Is(err, ErrUnexpectedResponse):
		return "The server sent an unexpected response."
	case errors.Is(err, context.Canceled):
		return "Cancelled."
	}
	return err.Error()
}

func (s *Shell) Login(ctx context.Context, email, password string) error {
	user, err := s.api.Login(ctx, email, password)
	if err != nil {
		s.fail(err)
		return err
	}
	s.setUser(user)
	s.view = ViewHome
	s.succeed("Logged in successfully.")
	return nil
}

func (s *Shell) Register(ctx context.Context, name, email, password string) error {
	user, err := s.api.Register(ctx, name, email, password)
	if err != nil {
		s.fail(err)
		return err
	}
	s.setUser(user)
	s.view = ViewHome
	s.succeed("User registered successfully.")
	return nil
}

// Logout always clears the local identity, whatever the server says.
func (s *Shell) Logout(ctx context.Context) error {
	err := s.api.Logout(ctx)
	s.setAnonymous()
	s.view = ViewHome
	if err != nil {
		s.fail(err)
		return err
	}
	s.succeed("Logged out successfully.")
	return nil
}

// authed runs a dashboard call. A 401 from the server means the session is
// gone, so the shell drops to anonymous and shows the login view.
func authed[T any](s *Shell, ctx context.Context, okText string, call func(context.Context) (T, error)) (T, error) {
	var zero T
	if s.state != StateAuthenticated {
		s.view = ViewLogin
		s.fail(ErrUnauthenticated)
		return zero, ErrUnauthenticated
	}

	out, err := call(ctx)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			s.setAnonymous()
			s.view = ViewLogin
		}
		s.fail(err)
		return zero, err
	}
	if okText != "" {
		s.succeed(okText)
	}
	return out, nil
}

func (s *Shell) LoadPreferences(ctx context.Context) (core.Preferences, error) {
	return authed(s, ctx, "", s.api.Preferences)
}

func (s *Shell) SavePreferences(ctx context.Context, prefs core.Preferences) (core.Preferences, error) {
	return authed(s, ctx, "Preferences saved successfully!", func(ctx context.Context) (core.Preferences, error) {
		return s.api.SavePreferences(ctx, prefs)
	})
}

func (s *Shell) AskSuburbs(ctx context.Context, prompt string) (string, error) {
	return authed(s, ctx, "AI recommendation generated!", func(ctx context.Context) (string, error) {
		return s.api.SuggestSuburbs(ctx, prompt)
	})
}

func (s *Shell) AskStrategy(ctx context.Context, goal string) (string, error) {
	return authed(s, ctx, "Investment strategy suggested!", func(ctx context.Context) (string, error) {
		return s.api.SuggestStrategy(ctx, goal)
	})
}

func (s *Shell) Listings(ctx context.Context) ([]core.Listing, error) {
	return authed(s, ctx, "", s.api.Listings)
}

func (s *Shell) AddListing(ctx context.Context, in core.ListingInput) (core.Listing, error) {
	return authed(s, ctx, "Listing added successfully!", func(ctx context.Context) (core.Listing, error) {
		return s.api.AddListing(ctx, in)
	})
}

func (s *Shell) DeleteListing(ctx context.Context, id string) error {
	_, err := authed(s, ctx, "Listing deleted successfully!", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.api.DeleteListing(ctx, id)
	})
	return err
}

func (s *Shell) Reports(ctx context.Context) (map[string]any, error) {
	return authed(s, ctx, "", s.api.Reports)
}

func (s *Shell) Heatmap(ctx context.Context) (map[string]any, error) {
	return authed(s, ctx, "", s.api.Heatmap)
}
