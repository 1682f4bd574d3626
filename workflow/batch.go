package workflow

import (
	"log/slog"
	"time"

	"github.com/jing2uo/pricepanel/calc"
	"github.com/jing2uo/pricepanel/config"
	"github.com/jing2uo/pricepanel/database"
	"github.com/jing2uo/pricepanel/exchange"
	"github.com/jing2uo/pricepanel/model"
	"github.com/jing2uo/pricepanel/provider"
	"github.com/jing2uo/pricepanel/slogx"
)

// Batch carries one ingest run through the task graph. Each task reads the
// fields filled by its dependencies and writes its own.
type Batch struct {
	Settings config.Settings
	Provider provider.Provider
	Calendar calc.CalendarBuilder
	Logger   *slog.Logger
	OpenDB   func(model.DBConfig) (database.DataRepository, error)

	// fetch
	Series   []model.Series
	RawFiles []string

	// align
	Dates    []time.Time
	Aligned  []model.AlignedSeries
	Long     model.CanonicalTable
	Wide     model.WideTable
	Manifest []model.ManifestEntry

	// publish
	Published []model.TableSummary
}

// NewBatch wires the default collaborators for settings.
func NewBatch(settings config.Settings, p provider.Provider, logger *slog.Logger) *Batch {
	if logger == nil {
		logger = slogx.Discard()
	}
	return &Batch{
		Settings: settings,
		Provider: p,
		Calendar: calc.CalendarBuilder{Sessions: exchange.NewSource(settings.Exchange.SessionsDir)},
		Logger:   logger,
		OpenDB:   database.NewDatabase,
	}
}
