package duckdb

import (
	"fmt"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/jmoiron/sqlx"

	"github.com/jing2uo/pricepanel/model"
)

type DuckDBDriver struct {
	dsn string
	db  *sqlx.DB
}

// NewDriver 创建 DuckDB 驱动, DSN 为空时使用内存数据库
func NewDriver(cfg model.DBConfig) *DuckDBDriver {
	return &DuckDBDriver{dsn: cfg.DSN}
}

func (d *DuckDBDriver) Connect() error {
	db, err := sqlx.Open("duckdb", d.dsn)
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("database ping failed: %w", err)
	}

	d.db = db
	return nil
}

func (d *DuckDBDriver) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// InitSchema 按注册表建表; 长表与宽表的列由 parquet 决定, 在导入时创建
func (d *DuckDBDriver) InitSchema() error {
	for _, t := range model.AllTables() {
		if err := d.createTableInternal(t); err != nil {
			return err
		}
	}
	return nil
}
