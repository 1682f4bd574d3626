package database

import (
	"github.com/jing2uo/pricepanel/model"
)

type DataRepository interface {
	Connect() error
	Close() error

	InitSchema() error

	ImportRaw(paths []string) error
	ImportFrame(table string, parquetPath string) error
	ImportManifest(entries []model.ManifestEntry) error

	Summary(table string) (model.TableSummary, error)
}
