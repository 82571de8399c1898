package handlers

import (
	"logistiko-backend/auth"
	"logistiko-backend/models"

	"github.com/gin-gonic/gin"
)

// Handlers groups everything the router mounts
type Handlers struct {
	Auth       *AuthHandler
	Users      *UserHandler
	Clients    *ClientHandler
	Obligation *ObligationHandler
	Documents  *DocumentHandler
	Emails     *EmailHandler
	Calls      *CallHandler
	Tickets    *TicketHandler
	Door       *DoorHandler
	Search     *SearchHandler
	Exports    *ExportHandler
	Health     *HealthHandler
}

// NewRouter assembles the gin engine with all routes. Staff routes live under
// /api/v1 behind JWT; the shared-link download, the VoIP webhook and the
// health probes are public.
func NewRouter(h Handlers, secretKey []byte) *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", h.Health.Live)
	r.GET("/readyz", h.Health.Ready)
	r.GET("/health/details", h.Health.Details)

	r.GET("/shared/:token", h.Documents.RedeemSharedLink)
	r.POST("/voip/webhook", h.Calls.Webhook)

	api := r.Group("/api/v1")
	api.POST("/auth/login", h.Auth.Login)

	protected := api.Group("")
	protected.Use(auth.Middleware(secretKey))
	{
		protected.GET("/auth/me", h.Auth.Me)

		admin := protected.Group("/users")
		admin.Use(auth.RequireRole(models.RoleAdmin))
		{
			admin.POST("", h.Users.Create)
			admin.GET("", h.Users.List)
			admin.GET("/:id", h.Users.Get)
			admin.PUT("/:id", h.Users.Update)
			admin.DELETE("/:id", h.Users.Delete)
		}

		writer := auth.RequireRole(models.RoleAccountant)

		clients := protected.Group("/clients")
		{
			clients.POST("", writer, h.Clients.Create)
			clients.GET("", h.Clients.List)
			clients.GET("/lookup/:afm", h.Clients.Lookup)
			clients.GET("/:id", h.Clients.Get)
			clients.PUT("/:id", writer, h.Clients.Update)
			clients.POST("/:id/deactivate", writer, h.Clients.Deactivate)
			clients.GET("/:id/obligations", h.Clients.Obligations)
			clients.GET("/:id/documents", h.Clients.Documents)
		}

		types := protected.Group("/obligation-types")
		{
			types.POST("", writer, h.Obligation.CreateType)
			types.GET("", h.Obligation.ListTypes)
			types.PUT("/:id", writer, h.Obligation.UpdateType)
			types.DELETE("/:id", writer, h.Obligation.DeleteType)
		}

		profiles := protected.Group("/obligation-profiles")
		{
			profiles.POST("", writer, h.Obligation.CreateProfile)
			profiles.GET("", h.Obligation.ListProfiles)
			profiles.GET("/:id", h.Obligation.GetProfile)
			profiles.PUT("/:id", writer, h.Obligation.UpdateProfile)
		}

		obligations := protected.Group("/obligations")
		{
			obligations.GET("", h.Obligation.List)
			obligations.POST("/generate", writer, h.Obligation.Generate)
			obligations.POST("/complete-bulk", writer, h.Obligation.CompleteBulk)
			obligations.POST("/:id/complete", writer, h.Obligation.Complete)
		}

		documents := protected.Group("/documents")
		{
			documents.POST("", writer, h.Documents.Upload)
			documents.GET("", h.Documents.List)
			documents.POST("/tags", writer, h.Documents.CreateTag)
			documents.GET("/tags", h.Documents.ListTags)
			documents.POST("/collections", writer, h.Documents.CreateCollection)
			documents.GET("/collections", h.Documents.ListCollections)
			documents.POST("/collections/:id/items/:documentId", writer, h.Documents.AddToCollection)
			documents.DELETE("/collections/:id/items/:documentId", writer, h.Documents.RemoveFromCollection)
			documents.GET("/:id/download", h.Documents.Download)
			documents.GET("/:id/versions", h.Documents.Versions)
			documents.DELETE("/:id", writer, h.Documents.DeleteLineage)
			documents.POST("/:id/tags/:tagId", writer, h.Documents.AssignTag)
			documents.DELETE("/:id/tags/:tagId", writer, h.Documents.UnassignTag)
			documents.POST("/:id/share", writer, h.Documents.CreateSharedLink)
			documents.GET("/:id/share", h.Documents.ListSharedLinks)
		}

		emails := protected.Group("/emails")
		{
			emails.POST("/templates", writer, h.Emails.CreateTemplate)
			emails.GET("/templates", h.Emails.ListTemplates)
			emails.PUT("/templates/:id", writer, h.Emails.UpdateTemplate)
			emails.DELETE("/templates/:id", writer, h.Emails.DeleteTemplate)
			emails.POST("/send", writer, h.Emails.Send)
			emails.GET("/logs", h.Emails.Logs)
			emails.GET("/settings", auth.RequireRole(models.RoleAdmin), h.Emails.GetSettings)
			emails.PUT("/settings", auth.RequireRole(models.RoleAdmin), h.Emails.SaveSettings)
			emails.POST("/settings/test", auth.RequireRole(models.RoleAdmin), h.Emails.TestSettings)
		}

		protected.GET("/calls", h.Calls.List)

		tickets := protected.Group("/tickets")
		{
			tickets.POST("", writer, h.Tickets.Create)
			tickets.GET("", h.Tickets.List)
			tickets.GET("/:id", h.Tickets.Get)
			tickets.PUT("/:id", writer, h.Tickets.Update)
			tickets.DELETE("/:id", writer, h.Tickets.Delete)
		}

		protected.POST("/door/:command", writer, h.Door.Execute)
		protected.GET("/search", h.Search.Search)

		exports := protected.Group("/exports")
		{
			exports.GET("/clients.xlsx", h.Exports.Clients)
			exports.GET("/obligations.xlsx", h.Exports.Obligations)
		}
	}

	return r
}
