package services

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// forUpdate adds a row-level exclusive lock to the query. Must be
// called inside a transaction; the lock holds until commit.
//
// SQLite (used by the test suite) has no SELECT ... FOR UPDATE; its
// single-writer transactions already serialize the critical section,
// so the clause is skipped there.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
