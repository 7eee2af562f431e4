// Package gorm provides the Postgres-backed store implementations.
//
// Email uniqueness is a database unique index on the normalized email
// column, so concurrent registrations are serialized by the store and
// never decided by an application-level check.
//
// Use Open to connect and migrate, then wrap the handle:
//
//	db, err := gorm.Open(databaseURL)
//	users := gorm.NewUserStore(db)
//	tasks := gorm.NewTaskStore(db)
package gorm
