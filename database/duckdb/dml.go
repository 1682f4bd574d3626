package duckdb

import (
	"fmt"
	"strings"

	"github.com/jing2uo/pricepanel/model"
)

func (d *DuckDBDriver) truncateTable(meta *model.TableMeta) error {
	query := fmt.Sprintf("DELETE FROM %s", meta.TableName)
	if _, err := d.db.Exec(query); err != nil {
		return fmt.Errorf("duckdb truncate failed: %w", err)
	}
	return nil
}

func columnNames(meta *model.TableMeta) string {
	names := make([]string, len(meta.Columns))
	for i, c := range meta.Columns {
		names[i] = c.Name
	}
	return strings.Join(names, ", ")
}

// ImportRaw 用本批次的原始 parquet 文件替换 raw_prices
func (d *DuckDBDriver) ImportRaw(paths []string) error {
	meta := model.TableRawPrices
	if err := d.truncateTable(meta); err != nil {
		return err
	}
	if len(paths) == 0 {
		return nil
	}

	files := make([]string, len(paths))
	for i, p := range paths {
		files[i] = quotePath(p)
	}

	cols := columnNames(meta)
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		SELECT %s FROM read_parquet([%s])
		ORDER BY %s
	`, meta.TableName, cols, cols, strings.Join(files, ", "), strings.Join(meta.OrderByKey, ", "))

	if _, err := d.db.Exec(query); err != nil {
		return fmt.Errorf("failed to import raw parquet into %s: %w", meta.TableName, err)
	}
	return nil
}

// ImportFrame 以 parquet 文件的列重建整张表
func (d *DuckDBDriver) ImportFrame(table string, parquetPath string) error {
	query := fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS SELECT * FROM read_parquet(%s)",
		table, quotePath(parquetPath),
	)
	if _, err := d.db.Exec(query); err != nil {
		return fmt.Errorf("failed to import %s into %s: %w", parquetPath, table, err)
	}
	return nil
}

func (d *DuckDBDriver) ImportManifest(entries []model.ManifestEntry) error {
	meta := model.TableManifest

	tx, err := d.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s", meta.TableName)); err != nil {
		return fmt.Errorf("duckdb truncate failed: %w", err)
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (ticker, min_date, max_date, rows) VALUES (:ticker, CAST(:min_date AS DATE), CAST(:max_date AS DATE), :rows)",
		meta.TableName,
	)
	for _, e := range entries {
		if _, err := tx.NamedExec(query, e); err != nil {
			return fmt.Errorf("failed to insert manifest row %s: %w", e.Ticker, err)
		}
	}
	return tx.Commit()
}

func (d *DuckDBDriver) Summary(table string) (model.TableSummary, error) {
	query := fmt.Sprintf(
		"SELECT COUNT(*) AS row_count, MIN(date) AS min_date, MAX(date) AS max_date FROM %s",
		table,
	)

	s := model.TableSummary{Table: table}
	if err := d.db.Get(&s, query); err != nil {
		return s, fmt.Errorf("failed to summarize %s: %w", table, err)
	}
	return s, nil
}
