// Package router wires HTTP routes to handlers.  Registration is
// split by audience: public browse, device session/cart, staff board
// endpoints and owner administration.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/rivieraos/riviera/internal/config"
	"github.com/rivieraos/riviera/internal/handler"
	"github.com/rivieraos/riviera/internal/middleware"
	"github.com/rivieraos/riviera/internal/model"
)

// RegisterHealth registers the liveness endpoint used by load
// balancers and monitoring.
func RegisterHealth(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers authentication routes.  Token issuing lives
// under /v1/auth; /v1/me requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated browse surface.  The
// read-mostly endpoints sit behind the Redis response cache.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, f *handler.FeedbackHandler, rdb *redis.Client) {
	g := e.Group("/v1/public")
	g.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	g.GET("/venues", p.ListVenues)
	g.GET("/venues/:id/units", p.ListUnits)
	g.GET("/venues/:id/menu", p.Menu)
	g.GET("/venues/:id/reviews", p.VenueReviews)
	g.GET("/qr/:token", p.ResolveQR)

	// Feedback ingestion writes; it bypasses the cache group.
	e.POST("/v1/public/feedback", f.Submit)
}

// RegisterDevice registers the per-device session and cart routes.
// These are keyed by the X-Device-ID header, not by JWT identity, so
// anonymous on-site customers can use them straight from a QR scan.
func RegisterDevice(e *echo.Echo, s *handler.SessionHandler, cart *handler.CartHandler) {
	e.POST("/v1/session/start", s.Start)
	e.POST("/v1/session/exit", s.Exit)
	e.DELETE("/v1/session", s.Clear)
	e.GET("/v1/session", s.Get)

	e.GET("/v1/cart", cart.Get)
	e.POST("/v1/cart/items", cart.AddItem)
	e.PATCH("/v1/cart/items/:cartId", cart.UpdateQuantity)
	e.DELETE("/v1/cart/items/:cartId", cart.RemoveItem)
	e.DELETE("/v1/cart", cart.Clear)
	e.PUT("/v1/cart/venue", cart.SetVenue)
}

// RegisterOrders registers order placement (open to devices) and the
// staff-only board actions.
func RegisterOrders(e *echo.Echo, o *handler.OrderHandler, b *handler.BoardHandler, jwtSecret string) {
	// Checkout comes from customer devices without accounts.
	e.POST("/v1/orders", o.Create)

	// The wall display socket is reachable anonymously; staff
	// handhelds pass their JWT via the optional middleware below.
	e.GET("/v1/venues/:id/board/ws", b.Subscribe, optionalJWT(jwtSecret))

	staff := e.Group("/v1")
	staff.Use(middleware.JWTAuth(jwtSecret))
	staff.Use(middleware.RequireRole(model.RoleStaff, model.RoleAdmin))
	staff.GET("/orders", o.List)
	staff.PATCH("/orders/:id/assign", o.Assign)
	staff.PATCH("/orders/:id/status", o.UpdateStatus)
}

// RegisterBookings registers the sunbed booking flow for customers.
func RegisterBookings(e *echo.Echo, b *handler.BookingHandler, jwtSecret string) {
	g := e.Group("/v1/bookings")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.POST("/hold", b.Hold)
	g.POST("/confirm", b.Confirm)
	g.GET("", b.List)
	g.GET("/:id", b.Get)
}

// RegisterAdmin registers owner administration: venue/unit/product
// creation, layout editing and the feedback queue controls.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, f *handler.FeedbackHandler, jwtSecret string) {
	e.GET("/v1/venues/:id/layout", a.GetLayout)

	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleAdmin))
	g.POST("/venues", a.CreateVenue)
	g.POST("/venues/:id/units", a.CreateUnit)
	g.POST("/venues/:id/products", a.CreateProduct)
	g.PUT("/venues/:id/layout", a.SaveLayout)
	g.GET("/feedback/queue", f.QueueStatus)
	g.POST("/feedback/flush", f.Flush)
}

// optionalJWT runs JWTAuth only when an Authorization header is
// present, so the same route serves anonymous wall displays and
// authenticated staff handhelds.
func optionalJWT(secret string) echo.MiddlewareFunc {
	authed := middleware.JWTAuth(secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		withAuth := authed(next)
		return func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") == "" {
				return next(c)
			}
			return withAuth(c)
		}
	}
}
