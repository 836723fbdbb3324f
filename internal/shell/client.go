package shell

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/lborres/realty/core"
)

var (
	ErrTimedOut           = errors.New("request timed out")
	ErrNetwork            = errors.New("server unreachable")
	ErrUnauthenticated    = errors.New("not logged in")
	ErrUnexpectedResponse = errors.New("unexpected response")
)

const (
	csrfCookieName = "XSRF-TOKEN"
	csrfHeaderName = "X-XSRF-TOKEN"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
	Fields  map[string][]string
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(e.Message)
	for _, k := range keys {
		for _, msg := range e.Fields[k] {
			b.WriteString("\n  ")
			b.WriteString(msg)
		}
	}
	return b.String()
}

// Unwrap lets callers test 401 and 504 answers with errors.Is.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrUnauthenticated
	case http.StatusGatewayTimeout:
		return ErrTimedOut
	}
	return nil
}

// APIClient talks to the realty server with cookie sessions. It primes the
// anti-forgery cookie on demand and echoes it on unsafe requests.
type APIClient struct {
	base           *url.URL
	http           *http.Client
	advisorTimeout time.Duration
}

func NewAPIClient(cfg Config) (*APIClient, error) {
	base, err := url.Parse(cfg.APIURL)
	if err != nil {
		return nil, err
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &APIClient{
		base:           base,
		http:           &http.Client{Jar: jar},
		advisorTimeout: cfg.AdvisorTimeout,
	}, nil
}

func (c *APIClient) cookie(name string) string {
	for _, ck := range c.http.Jar.Cookies(c.base) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

func (c *APIClient) primeCSRF(ctx context.Context) (string, error) {
	if token := c.cookie(csrfCookieName); token != "" {
		return token, nil
	}
	if err := c.send(ctx, http.MethodGet, "/csrf-cookie", "", nil, nil); err != nil {
		return "", err
	}
	return c.cookie(csrfCookieName), nil
}

func (c *APIClient) do(ctx context.Context, method, path string, in, out any) error {
	var token string
	if method != http.MethodGet && method != http.MethodHead {
		var err error
		if token, err = c.primeCSRF(ctx); err != nil {
			return err
		}
	}
	return c.send(ctx, method, path, token, in, out)
}

func (c *APIClient) send(ctx context.Context, method, path, csrfToken string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if csrfToken != "" {
		req.Header.Set(csrfHeaderName, csrfToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return classify(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return classify(ctx, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var e core.ErrorResponse
		if err := json.Unmarshal(raw, &e); err != nil || e.Message == "" {
			e.Message = fmt.Sprintf("Request failed with status %d.", resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Message, Fields: e.Errors}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	return nil
}

func classify(ctx context.Context, err error) error {
	if errors.Is(context.Cause(ctx), ErrTimedOut) {
		return ErrTimedOut
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}

type userEnvelope struct {
	Message string          `json:"message"`
	User    core.Projection `json:"user"`
}

func (c *APIClient) CurrentUser(ctx context.Context) (core.Projection, error) {
	var out userEnvelope
	err := c.do(ctx, http.MethodGet, "/user", nil, &out)
	return out.User, err
}

func (c *APIClient) Login(ctx context.Context, email, password string) (core.Projection, error) {
	var out userEnvelope
	err := c.do(ctx, http.MethodPost, "/login", core.LoginInput{Email: email, Password: password}, &out)
	return out.User, err
}

func (c *APIClient) Register(ctx context.Context, name, email, password string) (core.Projection, error) {
	var out userEnvelope
	err := c.do(ctx, http.MethodPost, "/register", core.RegisterInput{Name: name, Email: email, Password: password}, &out)
	return out.User, err
}

func (c *APIClient) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/logout", nil, nil)
}

func (c *APIClient) Preferences(ctx context.Context) (core.Preferences, error) {
	var out struct {
		Preferences core.Preferences `json:"preferences"`
	}
	err := c.do(ctx, http.MethodGet, "/user/preferences", nil, &out)
	return out.Preferences, err
}

func (c *APIClient) SavePreferences(ctx context.Context, prefs core.Preferences) (core.Preferences, error) {
	var out struct {
		Preferences core.Preferences `json:"preferences"`
	}
	err := c.do(ctx, http.MethodPost, "/user/preferences", prefs, &out)
	return out.Preferences, err
}

func (c *APIClient) Listings(ctx context.Context) ([]core.Listing, error) {
	var out struct {
		Listings []core.Listing `json:"listings"`
	}
	err := c.do(ctx, http.MethodGet, "/user/listings", nil, &out)
	return out.Listings, err
}

func (c *APIClient) AddListing(ctx context.Context, in core.ListingInput) (core.Listing, error) {
	var out struct {
		Listing core.Listing `json:"listing"`
	}
	err := c.do(ctx, http.MethodPost, "/user/listings", in, &out)
	return out.Listing, err
}

func (c *APIClient) DeleteListing(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/user/listings/"+url.PathEscape(id), nil, nil)
}

func (c *APIClient) Reports(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, http.MethodGet, "/user/reports", nil, &out)
	return out, err
}

func (c *APIClient) Heatmap(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, http.MethodGet, "/user/heatmap", nil, &out)
	return out, err
}

// advisor bounds AI calls by the client-side timeout. Expiry yields
// ErrTimedOut, never ErrNetwork.
func (c *APIClient) advisor(ctx context.Context, path string, in any) (string, error) {
	ctx, cancel := context.WithTimeoutCause(ctx, c.advisorTimeout, ErrTimedOut)
	defer cancel()

	var out struct {
		Reply string `json:"reply"`
	}
	if err := c.do(ctx, http.MethodPost, path, in, &out); err != nil {
		return "", err
	}
	return out.Reply, nil
}

func (c *APIClient) SuggestSuburbs(ctx context.Context, prompt string) (string, error) {
	return c.advisor(ctx, "/advisor/suburbs", map[string]string{"prompt": prompt})
}

func (c *APIClient) SuggestStrategy(ctx context.Context, goal string) (string, error) {
	return c.advisor(ctx, "/advisor/strategy", map[string]string{"goal": goal})
}
