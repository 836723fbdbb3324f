package services

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/lborres/realty/core"
)

// Operation IDs bound by HTTP adapters.
const (
	OpRegister        = "register"
	OpLogin           = "login"
	OpLogout          = "logout"
	OpCurrentUser     = "currentUser"
	OpGetPreferences  = "getPreferences"
	OpSavePreferences = "savePreferences"
	OpListListings    = "listListings"
	OpCreateListing   = "createListing"
	OpDeleteListing   = "deleteListing"
	OpReports         = "reports"
	OpHeatmap         = "heatmap"
	OpSuggestSuburbs  = "suggestSuburbs"
	OpSuggestStrategy = "suggestStrategy"
	OpCSRFCookie      = "csrfCookie"
	OpHealth          = "health"
)

func endpoint(method, path, opID, desc string, auth bool) core.Endpoint {
	return core.Endpoint{
		Method: method,
		Path:   path,
		Metadata: core.EndpointMetadata{
			OperationID:  opID,
			Description:  desc,
			RequiresAuth: auth,
		},
	}
}

// BaseEndpoints returns the framework-agnostic route table. Paths use
// ":name" parameters.
func BaseEndpoints() []core.Endpoint {
	return []core.Endpoint{
		endpoint(http.MethodPost, "/register", OpRegister, "Register a user with name, email and password", false),
		endpoint(http.MethodPost, "/login", OpLogin, "Log in with email and password", false),
		endpoint(http.MethodPost, "/logout", OpLogout, "Invalidate the current session and rotate the CSRF token", false),
		endpoint(http.MethodGet, "/user", OpCurrentUser, "Get the authenticated user", true),
		endpoint(http.MethodGet, "/user/preferences", OpGetPreferences, "Get the buyer preferences", true),
		endpoint(http.MethodPost, "/user/preferences", OpSavePreferences, "Merge and save the buyer preferences", true),
		endpoint(http.MethodGet, "/user/listings", OpListListings, "List the agent's listings", true),
		endpoint(http.MethodPost, "/user/listings", OpCreateListing, "Create a listing", true),
		endpoint(http.MethodDelete, "/user/listings/:id", OpDeleteListing, "Delete a listing", true),
		endpoint(http.MethodGet, "/user/reports", OpReports, "Vendor reports", true),
		endpoint(http.MethodGet, "/user/heatmap", OpHeatmap, "Developer heatmap", true),
		endpoint(http.MethodPost, "/advisor/suburbs", OpSuggestSuburbs, "Suggest suburbs from saved preferences", true),
		endpoint(http.MethodPost, "/advisor/strategy", OpSuggestStrategy, "Suggest an investment strategy", true),
		endpoint(http.MethodGet, "/csrf-cookie", OpCSRFCookie, "Issue an anti-forgery cookie", false),
		endpoint(http.MethodGet, "/healthz", OpHealth, "Liveness probe", false),
	}
}

// EndpointRegistry holds endpoints keyed by "METHOD:PATH" and rejects
// duplicates.
type EndpointRegistry struct {
	endpoints map[string]*core.Endpoint
}

// NewEndpointRegistry creates a registry with BaseEndpoints pre-registered.
func NewEndpointRegistry() *EndpointRegistry {
	reg := &EndpointRegistry{endpoints: make(map[string]*core.Endpoint)}
	// BaseEndpoints has no duplicates; Register cannot fail here.
	_ = reg.Register(BaseEndpoints())
	return reg
}

func endpointKey(ep *core.Endpoint) string {
	return fmt.Sprintf("%s:%s", ep.Method, ep.Path)
}

// Register adds endpoints atomically: on a conflict with an existing entry or
// within the batch nothing is registered.
func (r *EndpointRegistry) Register(endpoints []core.Endpoint) error {
	seen := make(map[string]bool, len(endpoints))
	for i := range endpoints {
		key := endpointKey(&endpoints[i])
		if _, exists := r.endpoints[key]; exists {
			return fmt.Errorf("endpoint conflict: %s %s already registered", endpoints[i].Method, endpoints[i].Path)
		}
		if seen[key] {
			return fmt.Errorf("duplicate endpoint in batch: %s %s", endpoints[i].Method, endpoints[i].Path)
		}
		seen[key] = true
	}

	for i := range endpoints {
		ep := endpoints[i]
		r.endpoints[endpointKey(&ep)] = &ep
	}
	return nil
}

// Endpoints returns every registered endpoint ordered by path, then method.
func (r *EndpointRegistry) Endpoints() []*core.Endpoint {
	result := make([]*core.Endpoint, 0, len(r.endpoints))
	for _, ep := range r.endpoints {
		result = append(result, ep)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Path == result[j].Path {
			return result[i].Method < result[j].Method
		}
		return result[i].Path < result[j].Path
	})
	return result
}
