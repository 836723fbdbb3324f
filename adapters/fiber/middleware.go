package fiber

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/requestid"

	"github.com/lborres/realty/core"
	"github.com/lborres/realty/pkg/crypto"
)

const (
	CSRFCookieName = "XSRF-TOKEN"
	CSRFHeaderName = "X-XSRF-TOKEN"
)

// extractToken extracts the session token from the request.
// Checks Authorization header (Bearer token) first, then falls back to cookie.
func (a *Adapter) extractToken(c fiber.Ctx) string {
	if token, ok := bearerToken(c); ok {
		return token
	}
	return c.Cookies(a.realty.Cookie.Name)
}

func bearerToken(c fiber.Ctx) (string, bool) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:], true
	}
	return "", false
}

// authed resolves the caller and hands the identity to h. Unknown, expired
// and missing sessions all answer 401.
func (a *Adapter) authed(h protectedHandler) fiber.Handler {
	return func(c fiber.Ctx) error {
		id, ok, err := a.realty.Auth.CurrentUser(c.Context(), a.extractToken(c))
		if err != nil {
			return a.fail(c, err)
		}
		if !ok {
			return a.fail(c, core.ErrUnauthenticated)
		}
		return h(c, id)
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions, fiber.MethodTrace:
		return true
	}
	return false
}

// sessionHash is the hash the anti-forgery token is bound to. Anonymous
// callers bind to "".
func (a *Adapter) sessionHash(c fiber.Ctx) string {
	if token := c.Cookies(a.realty.Cookie.Name); token != "" {
		return crypto.HashToken(token)
	}
	return ""
}

// csrfGuard enforces the double-submit check on unsafe methods. Bearer
// requests carry no ambient credentials and are exempt.
func (a *Adapter) csrfGuard(c fiber.Ctx) error {
	if a.realty.CSRF == nil || isSafeMethod(c.Method()) {
		return c.Next()
	}
	if _, ok := bearerToken(c); ok {
		return c.Next()
	}

	header := c.Get(CSRFHeaderName)
	if header == "" || header != c.Cookies(CSRFCookieName) {
		return a.fail(c, crypto.ErrCSRFMismatch)
	}
	if err := a.realty.CSRF.Verify(header, a.sessionHash(c)); err != nil {
		return a.fail(c, err)
	}
	return c.Next()
}

// rotateCSRF issues a fresh anti-forgery cookie bound to sessionHash.
func (a *Adapter) rotateCSRF(c fiber.Ctx, sessionHash string) error {
	if a.realty.CSRF == nil {
		return nil
	}
	token, err := a.realty.CSRF.Issue(sessionHash)
	if err != nil {
		return err
	}

	cfg := a.realty.Cookie
	c.Cookie(&fiber.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		MaxAge:   int(a.realty.Session.MaxAge.Seconds()),
		Secure:   cfg.Secure,
		HTTPOnly: false,
		SameSite: cfg.SameSite,
	})
	return nil
}

func (a *Adapter) setSessionCookie(c fiber.Ctx, token string) {
	cfg := a.realty.Cookie
	c.Cookie(&fiber.Cookie{
		Name:     cfg.Name,
		Value:    token,
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		MaxAge:   int(a.realty.Session.MaxAge.Seconds()),
		Secure:   cfg.Secure,
		HTTPOnly: true,
		SameSite: cfg.SameSite,
	})
}

func (a *Adapter) clearSessionCookie(c fiber.Ctx) {
	cfg := a.realty.Cookie
	c.Cookie(&fiber.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		Expires:  time.Unix(0, 0),
		Secure:   cfg.Secure,
		HTTPOnly: true,
		SameSite: cfg.SameSite,
	})
}

// accessLog writes one line per request and renders errors that escaped the
// handlers, recovered panics included.
func (a *Adapter) accessLog(c fiber.Ctx) error {
	start := time.Now()

	if err := c.Next(); err != nil {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			_ = c.Status(fe.Code).JSON(core.ErrorResponse{Message: fe.Message})
		} else {
			_ = a.fail(c, err)
		}
	}

	status := c.Response().StatusCode()
	args := []any{
		"method", c.Method(),
		"path", c.Path(),
		"status", status,
		"latency", time.Since(start).String(),
		"request_id", requestid.FromContext(c),
		"ip", c.IP(),
	}
	if status >= fiber.StatusInternalServerError {
		a.log.Warn(c.Context(), "request failed", args...)
	} else {
		a.log.Info(c.Context(), "request", args...)
	}
	return nil
}
