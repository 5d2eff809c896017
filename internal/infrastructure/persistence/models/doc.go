// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities should be free of GORM tags and infrastructure concerns
// 2. Persistence models contain all GORM annotations and table mappings
// 3. Mappers convert between domain entities and persistence models
// 4. Repositories use persistence models for database operations
//
// Structure:
// - base.go: Base persistence models and the model list used by AutoMigrate
// - property.go: Catalog models (Property, Flat, RoomType, Room, OtherCharge)
// - tenant.go: Directory models (Tenant, Occupant, Agent)
// - agreement.go: Agreement and its attached charges
// - collection.go: Collections received from tenants
// - ledger.go: Statement entries
// - billing.go: Invoices, payments and allocations
// - finance.go: Expenses
//
// Column types are chosen so the same models migrate on PostgreSQL and SQLite.
package models
