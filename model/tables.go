package model

import (
	"database/sql"
	"reflect"
	"strings"
	"sync"
	"time"
)

type DataType int

const (
	TypeString DataType = iota
	TypeFloat64
	TypeInt64
	TypeDate     // YYYY-MM-DD
	TypeDateTime // YYYY-MM-DD HH:MM:SS
)

type Column struct {
	Name string
	Type DataType
}

type TableMeta struct {
	TableName  string
	Columns    []Column
	OrderByKey []string
}

var (
	tableRegistry   []*TableMeta
	tableRegistryMu sync.Mutex
)

func registerTable(t *TableMeta) {
	tableRegistryMu.Lock()
	defer tableRegistryMu.Unlock()
	tableRegistry = append(tableRegistry, t)
}

// AllTables 返回当前所有已注册的表结构
func AllTables() []*TableMeta {
	tableRegistryMu.Lock()
	defer tableRegistryMu.Unlock()

	result := make([]*TableMeta, len(tableRegistry))
	copy(result, tableRegistry)
	return result
}

var (
	nullFloatType = reflect.TypeOf(sql.NullFloat64{})
	nullIntType   = reflect.TypeOf(sql.NullInt64{})
	timeType      = reflect.TypeOf(time.Time{})
)

// SchemaFromStruct derives a TableMeta from `col` and `type` tags and registers it.
func SchemaFromStruct(tableName string, model interface{}, orderByKey []string) *TableMeta {
	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	var cols []Column
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		colName := field.Tag.Get("col")
		if colName == "-" {
			continue
		}
		if colName == "" {
			colName = strings.ToLower(field.Name)
		}

		cols = append(cols, Column{Name: colName, Type: columnType(field)})
	}

	meta := &TableMeta{
		TableName:  tableName,
		Columns:    cols,
		OrderByKey: orderByKey,
	}
	registerTable(meta)
	return meta
}

func columnType(field reflect.StructField) DataType {
	switch field.Tag.Get("type") {
	case "date":
		return TypeDate
	case "datetime":
		return TypeDateTime
	}

	ft := field.Type
	if ft.Kind() == reflect.Ptr {
		ft = ft.Elem()
	}
	switch ft {
	case nullFloatType:
		return TypeFloat64
	case nullIntType:
		return TypeInt64
	case timeType:
		return TypeDateTime
	}
	switch ft.Kind() {
	case reflect.Float64, reflect.Float32:
		return TypeFloat64
	case reflect.Int, reflect.Int64, reflect.Int32, reflect.Uint32:
		return TypeInt64
	default:
		return TypeString
	}
}

// RawRow is the persisted shape of one raw bar.
type RawRow struct {
	Ticker   string    `col:"ticker"    parquet:"ticker,dict"`
	Date     time.Time `col:"date"      parquet:"date,date"          type:"date"`
	Open     *float64  `col:"open"      parquet:"open,optional"`
	High     *float64  `col:"high"      parquet:"high,optional"`
	Low      *float64  `col:"low"       parquet:"low,optional"`
	Close    *float64  `col:"close"     parquet:"close,optional"`
	AdjClose *float64  `col:"adj_close" parquet:"adj_close,optional"`
	Volume   *int64    `col:"volume"    parquet:"volume,optional"`
}

// --- 表结构元数据 (TableMeta) ---

var TableRawPrices = SchemaFromStruct(
	"raw_prices",
	RawRow{},
	[]string{"ticker", "date"},
)

var TableManifest = SchemaFromStruct(
	"manifest",
	ManifestEntry{},
	[]string{"ticker"},
)

// Tables loaded straight from the processed parquet artifacts.
const (
	TableLong = "prices_daily"
	TableWide = "prices_daily_wide"
)
