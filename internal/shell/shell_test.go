package shell

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lborres/realty/core"
)

type fakeAPI struct {
	user    *core.Projection
	userErr error
	err     error // returned by every dashboard call when set

	prefs    core.Preferences
	listings []core.Listing
	calls    []string
}

var _ API = (*fakeAPI)(nil)

func (f *fakeAPI) record(name string) { f.calls = append(f.calls, name) }

func (f *fakeAPI) CurrentUser(context.Context) (core.Projection, error) {
	f.record("user")
	if f.userErr != nil {
		return core.Projection{}, f.userErr
	}
	if f.user == nil {
		return core.Projection{}, &APIError{Status: 401, Message: "Unauthorized."}
	}
	return *f.user, nil
}

func (f *fakeAPI) Login(_ context.Context, email, password string) (core.Projection, error) {
	f.record("login")
	if password != "password123" {
		return core.Projection{}, &APIError{Status: 401, Message: "Invalid login credentials."}
	}
	u := core.Projection{ID: "u1", Name: "Alice", Email: email}
	f.user = &u
	return u, nil
}

func (f *fakeAPI) Register(_ context.Context, name, email, _ string) (core.Projection, error) {
	f.record("register")
	u := core.Projection{ID: "u1", Name: name, Email: email}
	f.user = &u
	return u, nil
}

func (f *fakeAPI) Logout(context.Context) error {
	f.record("logout")
	f.user = nil
	return f.err
}

func (f *fakeAPI) Preferences(context.Context) (core.Preferences, error) {
	f.record("prefs")
	return f.prefs, f.err
}

func (f *fakeAPI) SavePreferences(_ context.Context, p core.Preferences) (core.Preferences, error) {
	f.record("save-prefs")
	if f.err != nil {
		return nil, f.err
	}
	if f.prefs == nil {
		f.prefs = core.Preferences{}
	}
	for k, v := range p {
		f.prefs[k] = v
	}
	return f.prefs, nil
}

func (f *fakeAPI) Listings(context.Context) ([]core.Listing, error) {
	f.record("listings")
	return f.listings, f.err
}

func (f *fakeAPI) AddListing(_ context.Context, in core.ListingInput) (core.Listing, error) {
	f.record("add-listing")
	if f.err != nil {
		return core.Listing{}, f.err
	}
	l := core.Listing{ID: "l1", Title: in.Title, Price: *in.Price, Location: in.Location}
	f.listings = append(f.listings, l)
	return l, nil
}

func (f *fakeAPI) DeleteListing(_ context.Context, id string) error {
	f.record("rm-listing " + id)
	return f.err
}

func (f *fakeAPI) Reports(context.Context) (map[string]any, error) {
	f.record("reports")
	return map[string]any{"message": "Vendor reports"}, f.err
}

func (f *fakeAPI) Heatmap(context.Context) (map[string]any, error) {
	f.record("heatmap")
	return map[string]any{"message": "Heatmap"}, f.err
}

func (f *fakeAPI) SuggestSuburbs(_ context.Context, prompt string) (string, error) {
	f.record("suburbs")
	return "Try Marrickville for " + prompt, f.err
}

func (f *fakeAPI) SuggestStrategy(_ context.Context, goal string) (string, error) {
	f.record("strategy")
	return "Buy and hold for " + goal, f.err
}

func TestShell_BootAuthenticated(t *testing.T) {
	api := &fakeAPI{user: &core.Projection{ID: "u1", Name: "Alice"}}
	s := New(api)
	assert.Equal(t, StateLoading, s.State())

	s.Boot(context.Background())
	assert.Equal(t, StateAuthenticated, s.State())
	user, ok := s.User()
	require.True(t, ok)
	assert.Equal(t, "Alice", user.Name)
	assert.Equal(t, []string{"user"}, api.calls)
}

func TestShell_BootFailsOpenToAnonymous(t *testing.T) {
	for _, err := range []error{
		nil, // 401
		ErrNetwork,
		ErrTimedOut,
		&APIError{Status: 500, Message: "Server Error"},
	} {
		s := New(&fakeAPI{userErr: err})
		s.Boot(context.Background())
		assert.Equal(t, StateAnonymous, s.State())
		_, ok := s.Message()
		assert.False(t, ok, "boot failures are silent")
	}
}

func TestShell_DashboardsAreGated(t *testing.T) {
	s := New(&fakeAPI{})
	s.Boot(context.Background())

	assert.Equal(t, ViewHome, s.Navigate(ViewHome))
	for _, v := range []View{ViewBuyer, ViewInvestor, ViewAgent, ViewVendor, ViewDeveloper} {
		assert.Equal(t, ViewLogin, s.Navigate(v), v)
	}

	require.NoError(t, s.Login(context.Background(), "alice@example.com", "password123"))
	for _, v := range []View{ViewBuyer, ViewInvestor, ViewAgent, ViewVendor, ViewDeveloper} {
		assert.Equal(t, v, s.Navigate(v))
	}
}

func TestShell_LoginAndLogoutMessages(t *testing.T) {
	api := &fakeAPI{}
	s := New(api)
	s.Boot(context.Background())
	ctx := context.Background()

	err := s.Login(ctx, "alice@example.com", "nope")
	require.Error(t, err)
	assert.Equal(t, StateAnonymous, s.State())
	msg, ok := s.Message()
	require.True(t, ok)
	assert.Equal(t, Message{Kind: MessageError, Text: "Invalid login credentials."}, msg)

	require.NoError(t, s.Login(ctx, "alice@example.com", "password123"))
	assert.Equal(t, StateAuthenticated, s.State())
	msg, _ = s.Message()
	assert.Equal(t, Message{Kind: MessageSuccess, Text: "Logged in successfully."}, msg)

	s.Dismiss()
	_, ok = s.Message()
	assert.False(t, ok)

	require.NoError(t, s.Logout(ctx))
	assert.Equal(t, StateAnonymous, s.State())
	msg, _ = s.Message()
	assert.Equal(t, "Logged out successfully.", msg.Text)
}

func TestShell_LogoutClearsStateEvenWhenServerFails(t *testing.T) {
	api := &fakeAPI{user: &core.Projection{ID: "u1"}, err: ErrNetwork}
	s := New(api)
	s.Boot(context.Background())
	require.Equal(t, StateAuthenticated, s.State())

	err := s.Logout(context.Background())
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, StateAnonymous, s.State())
	_, ok := s.User()
	assert.False(t, ok)
}

func TestShell_Register(t *testing.T) {
	s := New(&fakeAPI{})
	s.Boot(context.Background())

	require.NoError(t, s.Register(context.Background(), "Bob", "bob@example.com", "password123"))
	user, ok := s.User()
	require.True(t, ok)
	assert.Equal(t, "Bob", user.Name)
	msg, _ := s.Message()
	assert.Equal(t, "User registered successfully.", msg.Text)
}

func TestShell_DashboardActionsRequireLogin(t *testing.T) {
	api := &fakeAPI{}
	s := New(api)
	s.Boot(context.Background())

	_, err := s.LoadPreferences(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, ViewLogin, s.View())
	assert.Equal(t, []string{"user"}, api.calls, "no request is sent")
}

func TestShell_ServerRejectionDropsToAnonymous(t *testing.T) {
	api := &fakeAPI{user: &core.Projection{ID: "u1"}}
	s := New(api)
	s.Boot(context.Background())
	s.Navigate(ViewAgent)

	api.err = &APIError{Status: 401, Message: "Unauthorized."}
	_, err := s.Listings(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateAnonymous, s.State())
	assert.Equal(t, ViewLogin, s.View())
}

func TestShell_DashboardActions(t *testing.T) {
	api := &fakeAPI{user: &core.Projection{ID: "u1", Name: "Alice"}}
	s := New(api)
	ctx := context.Background()
	s.Boot(ctx)

	prefs, err := s.SavePreferences(ctx, core.Preferences{"budget": 500000.0})
	require.NoError(t, err)
	assert.Equal(t, 500000.0, prefs["budget"])
	msg, _ := s.Message()
	assert.Equal(t, "Preferences saved successfully!", msg.Text)

	answer, err := s.AskSuburbs(ctx, "schools")
	require.NoError(t, err)
	assert.Contains(t, answer, "schools")

	answer, err = s.AskStrategy(ctx, "yield")
	require.NoError(t, err)
	assert.Contains(t, answer, "yield")
	msg, _ = s.Message()
	assert.Equal(t, "Investment strategy suggested!", msg.Text)

	price := 1.0
	l, err := s.AddListing(ctx, core.ListingInput{Title: "Flat", Price: &price, Location: "Glebe"})
	require.NoError(t, err)
	require.NoError(t, s.DeleteListing(ctx, l.ID))
	msg, _ = s.Message()
	assert.Equal(t, "Listing deleted successfully!", msg.Text)

	_, err = s.Reports(ctx)
	require.NoError(t, err)
	_, err = s.Heatmap(ctx)
	require.NoError(t, err)
}

func TestShell_AdvisorTimeoutMessage(t *testing.T) {
	api := &fakeAPI{user: &core.Projection{ID: "u1"}}
	s := New(api)
	s.Boot(context.Background())

	api.err = ErrTimedOut
	_, err := s.AskSuburbs(context.Background(), "anything")
	require.ErrorIs(t, err, ErrTimedOut)
	msg, _ := s.Message()
	assert.Equal(t, Message{Kind: MessageError, Text: "The request timed out."}, msg)
	assert.Equal(t, StateAuthenticated, s.State())
}

func TestErrorText(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrTimedOut, "The request timed out."},
		{&APIError{Status: 504, Message: "The AI request timed out."}, "The request timed out."},
		{errors.Join(ErrNetwork, errors.New("dial tcp")), "Could not reach the server."},
		{&APIError{Status: 422, Message: "Validation failed", Fields: map[string][]string{"email": {"The email field is required."}}},
			"Validation failed\n  The email field is required."},
		{ErrUnauthenticated, "Please log in first."},
		{errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorText(tt.err))
	}
}

func TestParseView(t *testing.T) {
	v, ok := ParseView("investor")
	assert.True(t, ok)
	assert.Equal(t, ViewInvestor, v)
	assert.True(t, v.Dashboard())
	assert.False(t, ViewRegister.Dashboard())

	_, ok = ParseView("admin")
	assert.False(t, ok)
	assert.Equal(t, "authenticated", StateAuthenticated.String())
}
