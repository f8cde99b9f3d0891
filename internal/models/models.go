// Package models defines the ledger service's GORM models.
package models

// All lists every model, in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&Transaction{},
		&AuditLog{},
	}
}
