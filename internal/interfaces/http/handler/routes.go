package handler

import (
	"github.com/erp/rental/internal/bootstrap"
	"github.com/erp/rental/internal/infrastructure/scheduler"
	"github.com/erp/rental/internal/interfaces/http/router"
)

// Handlers bundles every API handler for route registration
type Handlers struct {
	Property   *PropertyHandler
	Room       *RoomHandler
	Tenant     *TenantHandler
	Agreement  *AgreementHandler
	Collection *CollectionHandler
	Invoice    *InvoiceHandler
	Expense    *ExpenseHandler
	Ledger     *LedgerHandler
	Dues       *DuesHandler
	Report     *ReportHandler
	Import     *ImportHandler
	Document   *DocumentHandler
	Job        *JobHandler
	System     *SystemHandler
}

// NewHandlers builds the handlers on top of the application services
func NewHandlers(svc *bootstrap.Services, jobs *scheduler.Scheduler, system *SystemHandler, maxImportSize int64) Handlers {
	return Handlers{
		Property:   NewPropertyHandler(svc.Properties),
		Room:       NewRoomHandler(svc.Rooms),
		Tenant:     NewTenantHandler(svc.Tenants),
		Agreement:  NewAgreementHandler(svc.Agreements),
		Collection: NewCollectionHandler(svc.Collections),
		Invoice:    NewInvoiceHandler(svc.Invoices),
		Expense:    NewExpenseHandler(svc.Expenses),
		Ledger:     NewLedgerHandler(svc.Ledger),
		Dues:       NewDuesHandler(svc.Dues),
		Report:     NewReportHandler(svc.Reports),
		Import:     NewImportHandler(svc.Import, maxImportSize),
		Document:   NewDocumentHandler(svc.Documents),
		Job:        NewJobHandler(jobs),
		System:     system,
	}
}

// Areas lays out the API, one group per area
func (hs Handlers) Areas() []*router.Area {
	properties := router.NewArea("properties", "/properties")
	properties.POST("", hs.Property.Create).
		GET("", hs.Property.List).
		GET("/:id", hs.Property.GetByID).
		PUT("/:id", hs.Property.Update).
		DELETE("/:id", hs.Property.Delete).
		POST("/:id/flats", hs.Property.CreateFlat).
		GET("/:id/flats", hs.Property.ListFlats).
		DELETE("/:id/flats/:flat_id", hs.Property.DeleteFlat)

	rooms := router.NewArea("rooms", "/rooms")
	rooms.POST("", hs.Room.Create).
		GET("", hs.Room.List).
		GET("/:id", hs.Room.GetByID).
		PUT("/:id/pricing", hs.Room.UpdatePricing).
		POST("/:id/status", hs.Room.ChangeStatus).
		DELETE("/:id", hs.Room.Delete)

	catalog := router.NewArea("catalog", "/catalog")
	catalog.POST("/room-types", hs.Room.CreateRoomType).
		GET("/room-types", hs.Room.ListRoomTypes).
		POST("/charges", hs.Room.CreateCharge).
		GET("/charges", hs.Room.ListCharges).
		POST("/charges/:id/deactivate", hs.Room.DeactivateCharge)

	tenants := router.NewArea("tenants", "/tenants")
	tenants.POST("", hs.Tenant.Create).
		GET("", hs.Tenant.List).
		GET("/:id", hs.Tenant.GetByID).
		PUT("/:id", hs.Tenant.Update).
		POST("/:id/status", hs.Tenant.ChangeStatus).
		DELETE("/:id", hs.Tenant.Delete).
		GET("/:id/statement", hs.Ledger.History).
		GET("/:id/statement/report", hs.Report.Statement).
		GET("/:id/balance", hs.Ledger.Balance).
		POST("/:id/recalculate", hs.Ledger.Recalculate).
		GET("/:id/dues", hs.Dues.ForTenant).
		GET("/:id/payments", hs.Invoice.ListPayments)

	agents := router.NewArea("agents", "/agents")
	agents.POST("", hs.Tenant.CreateAgent).
		GET("", hs.Tenant.ListAgents)

	agreements := router.NewArea("agreements", "/agreements")
	agreements.POST("", hs.Agreement.Create).
		GET("", hs.Agreement.List).
		GET("/:id", hs.Agreement.GetByID).
		PUT("/:id", hs.Agreement.Update).
		DELETE("/:id", hs.Agreement.Delete).
		POST("/:id/activate", hs.Agreement.Activate).
		POST("/:id/terminate", hs.Agreement.Terminate).
		POST("/:id/cancel", hs.Agreement.Cancel).
		POST("/:id/renew", hs.Agreement.Renew).
		POST("/:id/clean-terminate", hs.Agreement.CleanAndTerminate).
		POST("/:id/occupants", hs.Tenant.AddOccupant).
		GET("/:id/occupants", hs.Tenant.ListOccupants).
		DELETE("/:id/occupants/:occupant_id", hs.Tenant.RemoveOccupant)

	collections := router.NewArea("collections", "/collections")
	collections.POST("", hs.Collection.Create).
		GET("", hs.Collection.List).
		GET("/recent", hs.Collection.Recent).
		GET("/:id", hs.Collection.GetByID).
		PUT("/:id", hs.Collection.Update).
		POST("/:id/status", hs.Collection.ChangeStatus).
		POST("/:id/cancel", hs.Collection.Cancel).
		DELETE("/:id", hs.Collection.Delete)

	invoices := router.NewArea("invoices", "/invoices")
	invoices.POST("", hs.Invoice.Create).
		GET("", hs.Invoice.List).
		GET("/:id", hs.Invoice.GetByID).
		POST("/:id/post", hs.Invoice.Post).
		POST("/:id/cancel", hs.Invoice.Cancel).
		POST("/:id/payments", hs.Invoice.RegisterPayment)

	payments := router.NewArea("payments", "/payments")
	payments.POST("/:id/cancel", hs.Invoice.CancelPayment)

	expenses := router.NewArea("expenses", "/expenses")
	expenses.POST("", hs.Expense.Create).
		GET("", hs.Expense.List).
		GET("/:id", hs.Expense.GetByID).
		POST("/:id/cancel", hs.Expense.Cancel)

	dues := router.NewArea("dues", "/dues")
	dues.GET("", hs.Dues.List).
		GET("/totals", hs.Dues.Totals).
		GET("/reminders", hs.Dues.Reminders).
		POST("/rebuild", hs.Dues.Rebuild)

	reports := router.NewArea("reports", "/reports")
	reports.GET("/dashboard", hs.Report.Dashboard)

	imports := router.NewArea("imports", "/imports")
	imports.POST("", hs.Import.Validate).
		GET("", hs.Import.List).
		GET("/:id", hs.Import.GetByID).
		POST("/:id/run", hs.Import.Run)

	documents := router.NewArea("documents", "/documents")
	documents.POST("", hs.Document.InitiateUpload).
		GET("", hs.Document.ListByOwner).
		GET("/:id", hs.Document.GetByID).
		POST("/:id/confirm", hs.Document.ConfirmUpload).
		DELETE("/:id", hs.Document.Delete)

	jobs := router.NewArea("jobs", "/jobs")
	jobs.GET("", hs.Job.List).
		GET("/history", hs.Job.History).
		POST("/:name/run", hs.Job.Run)

	system := router.NewArea("system", "/system")
	system.GET("/info", hs.System.GetSystemInfo).
		GET("/ping", hs.System.Ping).
		GET("/health", hs.System.Health)

	return []*router.Area{
		properties, rooms, catalog, tenants, agents, agreements,
		collections, invoices, payments, expenses, dues, reports, imports, documents, jobs, system,
	}
}
