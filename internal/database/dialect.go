package database

import (
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/migrator"
	"gorm.io/gorm/schema"
)

// exactSQLite stores decimal columns as TEXT. A decimal(p,s) column has
// NUMERIC affinity in SQLite, which turns amounts into 64-bit floats and
// rounds anything past 15 significant digits.
type exactSQLite struct {
	*sqlite.Dialector
}

func newExactSQLite(dsn string) gorm.Dialector {
	return exactSQLite{Dialector: &sqlite.Dialector{DSN: dsn}}
}

func (d exactSQLite) DataTypeOf(field *schema.Field) string {
	dataType := d.Dialector.DataTypeOf(field)
	if isDecimalType(dataType) {
		return "text"
	}
	return dataType
}

// Migrator must see the wrapper, not the embedded dialector, or
// AutoMigrate would still declare decimal columns.
func (d exactSQLite) Migrator(db *gorm.DB) gorm.Migrator {
	return sqlite.Migrator{Migrator: migrator.Migrator{Config: migrator.Config{
		DB:                          db,
		Dialector:                   d,
		CreateIndexAfterCreateTable: true,
	}}}
}

func isDecimalType(dataType string) bool {
	t := strings.ToLower(strings.TrimSpace(dataType))
	return strings.HasPrefix(t, "decimal") || strings.HasPrefix(t, "numeric(")
}
