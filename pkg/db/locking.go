package db

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SkipLocked adds FOR UPDATE SKIP LOCKED on postgres. Other dialects rely on
// their own whole-database write locking and get the query unchanged.
func SkipLocked(tx *gorm.DB) *gorm.DB {
	if !IsPostgres(tx) {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
}

func IsPostgres(tx *gorm.DB) bool {
	return tx != nil && tx.Dialector != nil && tx.Dialector.Name() == "postgres"
}
