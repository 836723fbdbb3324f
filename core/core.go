package core

// CookieConfig describes the session cookie written by HTTP adapters.
type CookieConfig struct {
	Name     string
	Domain   string
	Path     string
	Secure   bool
	SameSite string
}

// Realty is the assembled application handed to an HTTP adapter.
type Realty struct {
	Auth        AuthHandler
	Preferences PreferencesProvider
	Listings    ListingProvider
	Insights    InsightsProvider
	Advisor     AdvisorProvider
	CSRF        AntiForgery // nil disables the anti-forgery check
	Sessions    SessionMaintainer
	Endpoints   []*Endpoint
	Cookie      CookieConfig
	Session     SessionConfig
	BasePath    string
}
