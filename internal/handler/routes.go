package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ridgeline-auto/dms-api/internal/middleware"
	"github.com/ridgeline-auto/dms-api/internal/models"
	"github.com/ridgeline-auto/dms-api/internal/service"
	"github.com/ridgeline-auto/dms-api/pkg/config"
)

// Handlers bundles every HTTP handler for route registration.
type Handlers struct {
	Auth         *AuthHandler
	Leads        *LeadHandler
	Vehicles     *VehicleHandler
	Customers    *CustomerHandler
	Sales        *SaleHandler
	Appointments *AppointmentHandler
	RepairOrders *RepairOrderHandler
	Parts        *PartHandler
	Tasks        *TaskHandler
	Documents    *DocumentHandler
	Messages     *MessageHandler
	Users        *UserHandler
	Audit        *AuditHandler
	Exports      *ExportHandler
}

// RegisterRoutes mounts the API under cfg.APIPrefix.
//
// Auth layout: login and signed document downloads are public, everything
// else sits behind the JWT gate. User administration requires the admin
// role and exports require sales_manager level or above; other write routes
// are open to any authenticated staff member because field-level ownership
// is not modeled.
func RegisterRoutes(r *gin.Engine, cfg *config.Config, auth *service.AuthService, h Handlers) {
	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", h.Auth.Login)
	api.GET("/documents/download", h.Documents.Download)

	authed := api.Group("")
	authed.Use(middleware.JWT(auth))

	authed.GET("/auth/me", h.Auth.Me)

	authed.GET("/leads", h.Leads.List)
	authed.GET("/leads/:id", h.Leads.Get)
	authed.POST("/leads", h.Leads.Create)
	authed.PATCH("/leads/:id", h.Leads.Update)
	authed.DELETE("/leads/:id", h.Leads.Delete)

	authed.GET("/vehicles", h.Vehicles.List)
	authed.GET("/vehicles/:id", h.Vehicles.Get)
	authed.POST("/vehicles", h.Vehicles.Create)
	authed.PATCH("/vehicles/:id", h.Vehicles.Update)
	authed.DELETE("/vehicles/:id", h.Vehicles.Delete)

	authed.GET("/customers", h.Customers.List)
	authed.GET("/customers/:id", h.Customers.Get)
	authed.POST("/customers", h.Customers.Create)
	authed.PATCH("/customers/:id", h.Customers.Update)
	authed.DELETE("/customers/:id", h.Customers.Delete)

	authed.GET("/sales", h.Sales.List)
	authed.GET("/sales/:id", h.Sales.Get)
	authed.POST("/sales", h.Sales.Create)
	authed.PATCH("/sales/:id", h.Sales.Update)
	authed.DELETE("/sales/:id", h.Sales.Delete)

	authed.GET("/service-appointments", h.Appointments.List)
	authed.GET("/service-appointments/:id", h.Appointments.Get)
	authed.POST("/service-appointments", h.Appointments.Create)
	authed.PATCH("/service-appointments/:id", h.Appointments.Update)
	authed.DELETE("/service-appointments/:id", h.Appointments.Delete)

	authed.GET("/repair-orders", h.RepairOrders.List)
	authed.GET("/repair-orders/:id", h.RepairOrders.Get)
	authed.POST("/repair-orders", h.RepairOrders.Create)
	authed.PATCH("/repair-orders/:id", h.RepairOrders.Update)
	authed.DELETE("/repair-orders/:id", h.RepairOrders.Delete)

	authed.GET("/parts", h.Parts.List)
	authed.GET("/parts/:id", h.Parts.Get)
	authed.POST("/parts", h.Parts.Create)
	authed.PATCH("/parts/:id", h.Parts.Update)
	authed.DELETE("/parts/:id", h.Parts.Delete)

	authed.GET("/tasks", h.Tasks.List)
	authed.GET("/tasks/:id", h.Tasks.Get)
	authed.POST("/tasks", h.Tasks.Create)
	authed.PATCH("/tasks/:id", h.Tasks.Update)
	authed.DELETE("/tasks/:id", h.Tasks.Delete)

	authed.GET("/documents", h.Documents.List)
	authed.GET("/documents/:id", h.Documents.Get)
	authed.GET("/documents/:id/download-url", h.Documents.SignDownload)
	authed.POST("/documents", h.Documents.Upload)
	authed.PATCH("/documents/:id", h.Documents.Update)
	authed.DELETE("/documents/:id", h.Documents.Delete)

	authed.GET("/messages", h.Messages.List)
	authed.GET("/messages/unread-count", h.Messages.UnreadCount)
	authed.GET("/messages/:id", h.Messages.Get)
	authed.POST("/messages", h.Messages.Send)
	authed.DELETE("/messages/:id", h.Messages.Delete)

	authed.GET("/audit-logs", h.Audit.List)

	admin := authed.Group("")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/users", h.Users.List)
	admin.GET("/users/:id", h.Users.Get)
	admin.POST("/users", h.Users.Create)
	admin.PATCH("/users/:id", h.Users.Update)
	admin.DELETE("/users/:id", h.Users.Deactivate)

	if cfg.Exports.Enabled {
		exports := authed.Group("")
		exports.Use(middleware.RequireLevel(models.RoleSalesManager))
		exports.GET("/vehicles/export", h.Exports.Vehicles)
		exports.GET("/sales/export", h.Exports.Sales)
		exports.GET("/customers/export", h.Exports.Customers)
		exports.GET("/sales/:id/invoice", h.Exports.SaleInvoice)
	}
}
