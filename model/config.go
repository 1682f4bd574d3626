package model

import "database/sql"

type DBType string

const (
	DBTypeDuckDB DBType = "duckdb"
)

type DBConfig struct {
	Type DBType
	DSN  string
}

// TableSummary is the row count and date span of a published table.
type TableSummary struct {
	Table    string       `db:"-"`
	RowCount int64        `db:"row_count"`
	MinDate  sql.NullTime `db:"min_date"`
	MaxDate  sql.NullTime `db:"max_date"`
}
