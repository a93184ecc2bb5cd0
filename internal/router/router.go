package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bug-tracker/internal/config"
	"github.com/iliyamo/bug-tracker/internal/handler"
	"github.com/iliyamo/bug-tracker/internal/middleware"
)

// Handlers bundles every handler the router wires up.
type Handlers struct {
	Auth		   *handler.AuthHandler
	Users		   *handler.UserHandler
	Projects	   *handler.ProjectHandler
	ProjectUsers   *handler.ProjectUserHandler
	Tickets		   *handler.TicketHandler
	ArchivedTicket *handler.ArchivedTicketHandler
	Support		   *handler.SupportTicketHandler
}

// RegisterRoutes wires all endpoints onto the Echo instance.  The
// signin/signup lane and the health check are public; everything else
// sits behind JWT auth and the read-only guard for demo accounts.
// searchCache is applied to the shared (non-personal) search routes
// only, since "mine" searches differ per caller and must not be
// served from a shared cache entry.
func RegisterRoutes(e *echo.Echo, cfg config.Config, h Handlers, searchCache echo.MiddlewareFunc) {
	e.GET("/healthz", handler.Health)

	// Public auth lane.
	e.POST("/users/register", h.Auth.Register)
	e.POST("/users/login", h.Auth.Login)
	e.POST("/users/google-signin", h.Auth.GoogleSignin)
	e.POST("/users/send-verification", h.Auth.SendVerification)
	e.GET("/users/verify-email", h.Auth.VerifyEmail)

	authed := []echo.MiddlewareFunc{
		middleware.JWTAuth(cfg.JWTSecret),
		middleware.DemoReadOnly(cfg.DemoUserIDs),
	}

	users := e.Group("/users", authed...)
	users.GET("/search", h.Users.Search)
	users.GET("/dashboard", h.Users.Dashboard)
	users.GET("/notifications", h.Users.Notifications)
	users.GET("/notifications/search", h.Users.SearchNotifications)
	users.GET("/notifications/unread", h.Users.UnreadCount)
	users.PATCH("/notifications/read-all", h.Users.MarkAllRead)
	users.PATCH("/notifications/:id/read", h.Users.MarkRead)
	users.DELETE("/notifications/:id", h.Users.DeleteNotification)
	users.POST("/accept-invite", h.Users.AcceptInvite)

	projects := e.Group("/projects", authed...)
	projects.POST("", h.Projects.Create)
	projects.GET("/search", h.Projects.SearchActive, searchCache)
	projects.GET("/mine", h.Projects.SearchMine)
	projects.GET("/archive/mine", h.Projects.SearchArchivedMine)
	projects.GET("/archive/:id", h.Projects.GetArchived)
	projects.DELETE("/archive/:id", h.Projects.DeleteArchived)
	projects.GET("/:id", h.Projects.Get)
	projects.PATCH("/:id", h.Projects.Update)
	projects.POST("/:id/archive", h.Projects.Archive)
	projects.POST("/:id/restore", h.Projects.Restore)
	projects.POST("/:id/leave", h.ProjectUsers.Leave)
	projects.POST("/:id/users/invite", h.ProjectUsers.Invite)
	projects.PATCH("/:id/users/roles", h.ProjectUsers.UpdateRoles)
	projects.DELETE("/:id/users", h.ProjectUsers.Remove)

	tickets := e.Group("/tickets", authed...)
	tickets.POST("", h.Tickets.Create)
	tickets.GET("/search", h.Tickets.SearchActive, searchCache)
	tickets.GET("/mine", h.Tickets.SearchMine)
	tickets.GET("/stats", h.Tickets.Stats)
	tickets.GET("/unassigned", h.Tickets.Unassigned)
	tickets.GET("/active", h.Tickets.Active)
	tickets.GET("/archive/mine", h.ArchivedTicket.SearchMine)
	tickets.GET("/archive/:id", h.ArchivedTicket.Get)
	tickets.POST("/archive/:id/restore", h.ArchivedTicket.Restore)
	tickets.DELETE("/archive/:id", h.ArchivedTicket.Delete)
	tickets.POST("/support", h.Support.Create)
	tickets.GET("/support/search", h.Support.Search, searchCache)
	tickets.GET("/support/:id", h.Support.Get)
	tickets.DELETE("/support/:id", h.Support.Delete)
	tickets.GET("/:id", h.Tickets.Get)
	tickets.PATCH("/:id", h.Tickets.Update)
	tickets.POST("/:id/claim", h.Tickets.Claim)
	tickets.POST("/:id/archive", h.ArchivedTicket.Archive)
	tickets.POST("/:id/comments", h.Tickets.AddComment)
	tickets.DELETE("/:id/comments", h.Tickets.DeleteComment)
}
