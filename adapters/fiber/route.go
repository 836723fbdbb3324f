package fiber

import (
	"fmt"

	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"

	"github.com/lborres/realty/core"
	"github.com/lborres/realty/internal/logging"
	"github.com/lborres/realty/services"
)

type Adapter struct {
	app    *fiber.App
	log    logging.Logger
	realty *core.Realty
}

var _ core.HTTPAdapter = (*Adapter)(nil)

func New(app *fiber.App, log logging.Logger) *Adapter {
	if log == nil {
		log = logging.Discard
	}
	return &Adapter{app: app, log: log}
}

// protectedHandler receives the identity resolved by authed.
type protectedHandler func(c fiber.Ctx, id core.Identity) error

func (a *Adapter) publicHandlers() map[string]fiber.Handler {
	return map[string]fiber.Handler{
		services.OpRegister:   a.register,
		services.OpLogin:      a.login,
		services.OpLogout:     a.logout,
		services.OpCSRFCookie: a.csrfCookie,
		services.OpHealth:     a.health,
	}
}

func (a *Adapter) protectedHandlers() map[string]protectedHandler {
	return map[string]protectedHandler{
		services.OpCurrentUser:     a.currentUser,
		services.OpGetPreferences:  a.getPreferences,
		services.OpSavePreferences: a.savePreferences,
		services.OpListListings:    a.listListings,
		services.OpCreateListing:   a.createListing,
		services.OpDeleteListing:   a.deleteListing,
		services.OpReports:         a.reports,
		services.OpHeatmap:         a.heatmap,
		services.OpSuggestSuburbs:  a.suggestSuburbs,
		services.OpSuggestStrategy: a.suggestStrategy,
	}
}

// RegisterRoutes mounts every endpoint of r under r.BasePath. An endpoint
// whose operation has no handler is a wiring error.
func (a *Adapter) RegisterRoutes(r *core.Realty) error {
	a.realty = r

	api := a.app.Group(r.BasePath)
	api.Use(requestid.New(), a.accessLog, recoverer.New(), a.csrfGuard)

	public := a.publicHandlers()
	protected := a.protectedHandlers()

	for _, ep := range r.Endpoints {
		opID := ep.Metadata.OperationID

		var h fiber.Handler
		if ph, ok := protected[opID]; ok {
			h = a.authed(ph)
		} else if pub, ok := public[opID]; ok {
			h = pub
			if ep.Metadata.RequiresAuth {
				h = a.authed(func(c fiber.Ctx, _ core.Identity) error { return pub(c) })
			}
		} else {
			return fmt.Errorf("no handler for operation %q (%s %s)", opID, ep.Method, ep.Path)
		}

		api.Add([]string{ep.Method}, ep.Path, h)
	}

	return nil
}
