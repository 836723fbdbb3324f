package fiber

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v3"

	"github.com/lborres/realty/core"
	"github.com/lborres/realty/pkg/crypto"
)

const StatusCSRFMismatch = 419

func (a *Adapter) bind(c fiber.Ctx, out any) error {
	if err := c.Bind().Body(out); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidBody, err)
	}
	return nil
}

func (a *Adapter) register(c fiber.Ctx) error {
	var input core.RegisterInput
	if err := a.bind(c, &input); err != nil {
		return a.fail(c, err)
	}

	result, err := a.realty.Auth.Register(c.Context(), input, c.IP(), c.Get(fiber.HeaderUserAgent))
	if err != nil {
		return a.fail(c, err)
	}

	if err := a.startSession(c, result); err != nil {
		return a.fail(c, err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user":    result.User,
	})
}

func (a *Adapter) login(c fiber.Ctx) error {
	var input core.LoginInput
	if err := a.bind(c, &input); err != nil {
		return a.fail(c, err)
	}

	result, err := a.realty.Auth.Login(c.Context(), input, c.IP(), c.Get(fiber.HeaderUserAgent))
	if err != nil {
		return a.fail(c, err)
	}

	if err := a.startSession(c, result); err != nil {
		return a.fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "Logged in successfully.",
		"user":    result.User,
	})
}

// startSession replaces whatever session the request arrived with. The
// superseded token is destroyed server-side, not just overwritten in the
// cookie.
func (a *Adapter) startSession(c fiber.Ctx, result *core.AuthResult) error {
	if prior := a.extractToken(c); prior != "" && prior != result.Token {
		if err := a.realty.Auth.Logout(c.Context(), prior); err != nil {
			return err
		}
	}

	a.setSessionCookie(c, result.Token)
	return a.rotateCSRF(c, crypto.HashToken(result.Token))
}

// logout is idempotent: it answers 200 with or without a live session.
func (a *Adapter) logout(c fiber.Ctx) error {
	if err := a.realty.Auth.Logout(c.Context(), a.extractToken(c)); err != nil {
		return a.fail(c, err)
	}

	a.clearSessionCookie(c)
	if err := a.rotateCSRF(c, ""); err != nil {
		return a.fail(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Logged out successfully."})
}

func (a *Adapter) csrfCookie(c fiber.Ctx) error {
	if err := a.rotateCSRF(c, a.sessionHash(c)); err != nil {
		return a.fail(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func (a *Adapter) health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (a *Adapter) currentUser(c fiber.Ctx, id core.Identity) error {
	return c.JSON(fiber.Map{"user": id.User})
}

func (a *Adapter) getPreferences(c fiber.Ctx, id core.Identity) error {
	prefs, err := a.realty.Preferences.GetPreferences(c.Context(), id.User.ID)
	if err != nil {
		return a.fail(c, err)
	}
	return c.JSON(fiber.Map{"preferences": prefs})
}

func (a *Adapter) savePreferences(c fiber.Ctx, id core.Identity) error {
	var prefs core.Preferences
	if err := a.bind(c, &prefs); err != nil {
		return a.fail(c, err)
	}

	saved, err := a.realty.Preferences.SavePreferences(c.Context(), id.User.ID, prefs)
	if err != nil {
		return a.fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Preferences saved.", "preferences": saved})
}

func (a *Adapter) listListings(c fiber.Ctx, id core.Identity) error {
	listings, err := a.realty.Listings.ListListings(c.Context(), id.User.ID)
	if err != nil {
		return a.fail(c, err)
	}
	if listings == nil {
		listings = []core.Listing{}
	}
	return c.JSON(fiber.Map{"listings": listings})
}

func (a *Adapter) createListing(c fiber.Ctx, id core.Identity) error {
	var input core.ListingInput
	if err := a.bind(c, &input); err != nil {
		return a.fail(c, err)
	}

	listing, err := a.realty.Listings.CreateListing(c.Context(), id.User.ID, input)
	if err != nil {
		return a.fail(c, err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"message": "Listing added.", "listing": listing})
}

func (a *Adapter) deleteListing(c fiber.Ctx, id core.Identity) error {
	listingID := c.Params("id")
	if err := a.realty.Listings.DeleteListing(c.Context(), id.User.ID, listingID); err != nil {
		return a.fail(c, err)
	}
	return c.JSON(fiber.Map{"message": fmt.Sprintf("Listing %s deleted.", listingID)})
}

func (a *Adapter) reports(c fiber.Ctx, id core.Identity) error {
	data, err := a.realty.Insights.Reports(c.Context(), id.User.ID)
	if err != nil {
		return a.fail(c, err)
	}
	return c.JSON(data)
}

func (a *Adapter) heatmap(c fiber.Ctx, id core.Identity) error {
	data, err := a.realty.Insights.Heatmap(c.Context(), id.User.ID)
	if err != nil {
		return a.fail(c, err)
	}
	return c.JSON(data)
}

type suburbsRequest struct {
	Prompt string `json:"prompt"`
}

type strategyRequest struct {
	Goal string `json:"goal"`
}

func (a *Adapter) suggestSuburbs(c fiber.Ctx, id core.Identity) error {
	var input suburbsRequest
	if err := a.bind(c, &input); err != nil {
		return a.fail(c, err)
	}

	reply, err := a.realty.Advisor.SuggestSuburbs(c.Context(), id.User.ID, input.Prompt)
	if err != nil {
		return a.fail(c, err)
	}
	return c.JSON(fiber.Map{"reply": reply})
}

func (a *Adapter) suggestStrategy(c fiber.Ctx, _ core.Identity) error {
	var input strategyRequest
	if err := a.bind(c, &input); err != nil {
		return a.fail(c, err)
	}

	reply, err := a.realty.Advisor.SuggestStrategy(c.Context(), input.Goal)
	if err != nil {
		return a.fail(c, err)
	}
	return c.JSON(fiber.Map{"reply": reply})
}

// fail renders err as a JSON error body. 5xx errors other than the chat
// upstream ones are logged; their text never reaches the client.
func (a *Adapter) fail(c fiber.Ctx, err error) error {
	status := mapErrorToStatus(err)
	body := errorResponse(status, err)

	if status == http.StatusInternalServerError {
		a.log.Error(c.Context(), "unhandled error", "method", c.Method(), "path", c.Path(), "error", err)
	} else if status >= http.StatusBadGateway {
		a.log.Warn(c.Context(), "chat completion failed", "path", c.Path(), "error", err)
	}
	return c.Status(status).JSON(body)
}

// mapErrorToStatus maps realty error types to HTTP status codes
func mapErrorToStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity

	case errors.Is(err, core.ErrInvalidBody):
		return http.StatusBadRequest

	case errors.Is(err, core.ErrInvalidCredentials),
		errors.Is(err, core.ErrUnauthenticated),
		errors.Is(err, core.ErrUserNotFound),
		errors.Is(err, core.ErrInvalidToken),
		errors.Is(err, core.ErrSessionNotFound),
		errors.Is(err, core.ErrSessionExpired):
		return http.StatusUnauthorized

	case errors.Is(err, core.ErrListingNotFound):
		return http.StatusNotFound

	case errors.Is(err, crypto.ErrCSRFMismatch):
		return StatusCSRFMismatch

	case errors.Is(err, core.ErrNotImplemented),
		errors.Is(err, core.ErrChatNotConfigured):
		return http.StatusNotImplemented

	case errors.Is(err, core.ErrChatTimeout):
		return http.StatusGatewayTimeout

	case errors.Is(err, core.ErrChatUnavailable),
		errors.Is(err, core.ErrChatUnexpectedShape):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}

func errorResponse(status int, err error) core.ErrorResponse {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		return core.ErrorResponse{Message: "Validation failed", Errors: verr.Fields}
	case status == http.StatusBadRequest:
		return core.ErrorResponse{Message: "Invalid request body."}
	case errors.Is(err, core.ErrInvalidCredentials):
		return core.ErrorResponse{Message: "Invalid login credentials."}
	case status == http.StatusUnauthorized:
		return core.ErrorResponse{Message: "Unauthorized."}
	case status == http.StatusNotFound:
		return core.ErrorResponse{Message: "Listing not found."}
	case status == StatusCSRFMismatch:
		return core.ErrorResponse{Message: "CSRF token mismatch."}
	case errors.Is(err, core.ErrChatNotConfigured):
		return core.ErrorResponse{Message: "The AI advisor is not configured."}
	case status == http.StatusNotImplemented:
		return core.ErrorResponse{Message: "Not implemented."}
	case status == http.StatusGatewayTimeout:
		return core.ErrorResponse{Message: "The AI request timed out."}
	case errors.Is(err, core.ErrChatUnexpectedShape):
		return core.ErrorResponse{Message: "The AI service returned an unexpected response."}
	case status == http.StatusBadGateway:
		return core.ErrorResponse{Message: "The AI service is unavailable."}
	default:
		return core.ErrorResponse{Message: "Server Error"}
	}
}
