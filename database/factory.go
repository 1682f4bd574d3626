package database

import (
	"fmt"

	"github.com/jing2uo/pricepanel/database/duckdb"
	"github.com/jing2uo/pricepanel/model"
)

func NewDatabase(cfg model.DBConfig) (DataRepository, error) {
	switch cfg.Type {
	case model.DBTypeDuckDB, "":
		return duckdb.NewDriver(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported db type: %s", cfg.Type)
	}
}
