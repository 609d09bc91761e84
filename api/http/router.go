package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/artem13815/library/api/http/handlers"
	"github.com/artem13815/library/pkg/auth"
	"github.com/artem13815/library/pkg/security/jwt"
)

// Handlers groups everything Register mounts.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Health    *handlers.HealthHandler
	BookAdmin *handlers.BookAdminHandler
	BookUser  *handlers.BookUserHandler
}

// Register wires all HTTP routes onto given Fiber app.
func Register(app *fiber.App, h Handlers, gate jwt.Authorizer) {
	api := app.Group("/api")
	v1 := api.Group("/v1")

	v1.Get("/status", h.Health.Status)
	// Health and readiness endpoints for probes/monitoring
	v1.Get("/health", h.Health.Health)
	v1.Get("/ready", h.Health.Ready)

	a := v1.Group("/auth")
	a.Post("/register", h.Auth.Register)
	a.Post("/login", h.Auth.Login)

	admin := v1.Group("/book/admin", jwt.RequireRoles(gate, auth.RoleAdmin))
	admin.Post("/add", h.BookAdmin.Add)
	admin.Post("/create", h.BookAdmin.Create)
	admin.Put("/update", h.BookAdmin.Update)
	admin.Delete("/delete", h.BookAdmin.Delete)

	// browsing is public; it must be registered before the gated group,
	// whose middleware covers the whole /book/user prefix
	v1.Get("/book/user/all", h.BookUser.All)
	v1.Get("/book/user/search", h.BookUser.Search)

	user := v1.Group("/book/user", jwt.RequireRoles(gate, auth.RoleUser, auth.RoleAdmin))
	user.Get("/personalize", h.BookUser.Personalize)
	user.Post("/borrow", h.BookUser.Borrow)
	user.Post("/return", h.BookUser.Return)
}
