package store

import (
	"database/sql"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/jing2uo/pricepanel/model"
	"github.com/jing2uo/pricepanel/utils"
)

// Footer metadata keys.
const (
	MetaKeyColumns = "key_columns"
	MetaColumns    = "columns"
)

const (
	LongFile     = "prices_daily.parquet"
	WideFile     = "prices_daily_wide.parquet"
	ManifestFile = "_manifest.json"
)

func LongPath(dir string) string { return filepath.Join(dir, LongFile) }

func WidePath(dir string) string { return filepath.Join(dir, WideFile) }

func ManifestPath(dir string) string { return filepath.Join(dir, ManifestFile) }

func valueNode(integer bool) parquet.Node {
	if integer {
		return parquet.Optional(parquet.Int(64))
	}
	return parquet.Optional(parquet.Leaf(parquet.DoubleType))
}

// frameSchema describes one output table: required key columns followed by
// optional value columns.
type frameSchema struct {
	name    string
	keys    []string
	values  []string
	integer map[string]bool
}

func (fs frameSchema) build() *parquet.Schema {
	group := parquet.Group{}
	for _, k := range fs.keys {
		switch k {
		case "date":
			group[k] = parquet.Date()
		default:
			group[k] = parquet.String()
		}
	}
	for _, v := range fs.values {
		group[v] = valueNode(fs.integer[v])
	}
	return parquet.NewSchema(fs.name, group)
}

type frameWriter struct {
	w       *utils.RowWriter
	leaves  map[string]parquet.LeafColumn
	numCols int
}

func newFrameWriter(path string, fs frameSchema) (*frameWriter, error) {
	schema := fs.build()
	columns := append(append([]string{}, fs.keys...), fs.values...)

	w, err := utils.NewRowWriter(path, schema,
		parquet.KeyValueMetadata(MetaKeyColumns, strings.Join(fs.keys, ",")),
		parquet.KeyValueMetadata(MetaColumns, strings.Join(columns, ",")),
	)
	if err != nil {
		return nil, err
	}

	leaves := make(map[string]parquet.LeafColumn, len(columns))
	for _, c := range columns {
		leaf, ok := schema.Lookup(c)
		if !ok {
			w.Abort()
			return nil, fmt.Errorf("column %s missing from schema", c)
		}
		leaves[c] = leaf
	}
	return &frameWriter{w: w, leaves: leaves, numCols: len(columns)}, nil
}

func (fw *frameWriter) newRow() parquet.Row {
	return make(parquet.Row, fw.numCols)
}

func (fw *frameWriter) set(row parquet.Row, col string, v parquet.Value) {
	leaf := fw.leaves[col]
	row[leaf.ColumnIndex] = v.Level(0, leaf.MaxDefinitionLevel, leaf.ColumnIndex)
}

func (fw *frameWriter) setFloat(row parquet.Row, col string, v sql.NullFloat64, integer bool) {
	leaf := fw.leaves[col]
	if !v.Valid || math.IsNaN(v.Float64) || math.IsInf(v.Float64, 0) {
		row[leaf.ColumnIndex] = parquet.NullValue().Level(0, 0, leaf.ColumnIndex)
		return
	}
	if integer {
		fw.set(row, col, parquet.Int64Value(int64(v.Float64)))
		return
	}
	fw.set(row, col, parquet.DoubleValue(v.Float64))
}

// WriteLong replaces the long table at path. Columns are date, ticker and
// the table's projected fields.
func WriteLong(path string, t model.CanonicalTable) error {
	fs := frameSchema{name: model.TableLong, keys: []string{"date", "ticker"}, integer: map[string]bool{}}
	for _, f := range t.Fields {
		fs.values = append(fs.values, string(f))
		fs.integer[string(f)] = f.IsInteger()
	}

	fw, err := newFrameWriter(path, fs)
	if err != nil {
		return err
	}
	for _, r := range t.Records {
		row := fw.newRow()
		fw.set(row, "date", dateValue(r.Date))
		fw.set(row, "ticker", parquet.ByteArrayValue([]byte(r.Ticker)))
		for _, f := range t.Fields {
			fw.setFloat(row, string(f), r.Value(f), f.IsInteger())
		}
		if err := fw.w.Write(row); err != nil {
			fw.w.Abort()
			return err
		}
	}
	return fw.w.Close()
}

// WriteWide replaces the wide table at path. Column names are flattened
// from their (field, ticker) keys here and nowhere else.
func WriteWide(path string, t model.WideTable) error {
	fs := frameSchema{name: model.TableWide, keys: []string{"date"}, integer: map[string]bool{}}
	names := make([]string, len(t.Keys))
	for i, k := range t.Keys {
		names[i] = k.Name()
		fs.values = append(fs.values, names[i])
		fs.integer[names[i]] = k.Field.IsInteger()
	}

	fw, err := newFrameWriter(path, fs)
	if err != nil {
		return err
	}
	for i, d := range t.Dates {
		row := fw.newRow()
		fw.set(row, "date", dateValue(d))
		for j, name := range names {
			fw.setFloat(row, name, t.Cells[i][j], fs.integer[name])
		}
		if err := fw.w.Write(row); err != nil {
			fw.w.Abort()
			return err
		}
	}
	return fw.w.Close()
}

// Frame is a persisted table read back column-wise. Value columns are
// widened to float64.
type Frame struct {
	KeyColumns []string
	Columns    []string
	NumRows    int
	Dates      map[string][]time.Time
	Strings    map[string][]string
	Values     map[string][]sql.NullFloat64
}

func (f *Frame) Has(col string) bool {
	_, d := f.Dates[col]
	_, s := f.Strings[col]
	_, v := f.Values[col]
	return d || s || v
}

// ReadFrame loads a flat parquet file written by this package or any other
// producer with DATE, string, integer and floating point leaves.
func ReadFrame(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	st, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	pf, err := parquet.OpenFile(file, st.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet %s: %w", path, err)
	}

	frame := &Frame{
		NumRows: int(pf.NumRows()),
		Dates:   map[string][]time.Time{},
		Strings: map[string][]string{},
		Values:  map[string][]sql.NullFloat64{},
	}
	if v, ok := pf.Lookup(MetaKeyColumns); ok && v != "" {
		frame.KeyColumns = strings.Split(v, ",")
	}

	var (
		leafNames []string
		leafKinds []columnKind
	)
	for _, cp := range pf.Schema().Columns() {
		name := strings.Join(cp, ".")
		leaf, _ := pf.Schema().Lookup(cp...)
		leafNames = append(leafNames, name)
		leafKinds = append(leafKinds, kindOf(leaf.Node))
	}
	if v, ok := pf.Lookup(MetaColumns); ok && v != "" {
		frame.Columns = strings.Split(v, ",")
	} else {
		frame.Columns = leafNames
	}

	for i, name := range leafNames {
		switch leafKinds[i] {
		case kindDate:
			frame.Dates[name] = make([]time.Time, 0, frame.NumRows)
		case kindString:
			frame.Strings[name] = make([]string, 0, frame.NumRows)
		default:
			frame.Values[name] = make([]sql.NullFloat64, 0, frame.NumRows)
		}
	}

	buf := make([]parquet.Row, 256)
	for _, rg := range pf.RowGroups() {
		rows := rg.Rows()
		for {
			n, err := rows.ReadRows(buf)
			for _, row := range buf[:n] {
				for _, v := range row {
					col := v.Column()
					if col < 0 || col >= len(leafNames) {
						continue
					}
					frame.appendValue(leafNames[col], leafKinds[col], v)
				}
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to read rows from %s: %w", path, err)
			}
		}
		rows.Close()
	}
	return frame, nil
}

type columnKind int

const (
	kindFloat columnKind = iota
	kindInt
	kindDate
	kindString
)

func kindOf(n parquet.Node) columnKind {
	if lt := n.Type().LogicalType(); lt != nil {
		switch {
		case lt.Date != nil:
			return kindDate
		case lt.UTF8 != nil:
			return kindString
		}
	}
	switch n.Type().Kind() {
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return kindString
	case parquet.Int32, parquet.Int64:
		return kindInt
	default:
		return kindFloat
	}
}

func (f *Frame) appendValue(name string, kind columnKind, v parquet.Value) {
	switch kind {
	case kindDate:
		f.Dates[name] = append(f.Dates[name], dateFromDays(v.Int32()))
	case kindString:
		f.Strings[name] = append(f.Strings[name], string(v.ByteArray()))
	case kindInt:
		if v.IsNull() {
			f.Values[name] = append(f.Values[name], sql.NullFloat64{})
			return
		}
		f.Values[name] = append(f.Values[name], sql.NullFloat64{Float64: float64(v.Int64()), Valid: true})
	default:
		if v.IsNull() {
			f.Values[name] = append(f.Values[name], sql.NullFloat64{})
			return
		}
		var x float64
		if v.Kind() == parquet.Float {
			x = float64(v.Float())
		} else {
			x = v.Double()
		}
		f.Values[name] = append(f.Values[name], model.Float(x))
	}
}
