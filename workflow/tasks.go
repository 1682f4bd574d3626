package workflow

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jing2uo/pricepanel/calc"
	"github.com/jing2uo/pricepanel/model"
	"github.com/jing2uo/pricepanel/provider"
	"github.com/jing2uo/pricepanel/store"
	"github.com/jing2uo/pricepanel/utils"
)

var (
	TaskFetch   *Task
	TaskAlign   *Task
	TaskPersist *Task
	TaskPublish *Task
)

// IngestTasks is the full ingest graph in dependency order.
var IngestTasks = []string{"fetch", "align", "persist", "publish"}

func init() {
	TaskFetch = &Task{
		Name:      "fetch",
		DependsOn: []string{},
		Executor:  executeFetch,
	}

	TaskAlign = &Task{
		Name:      "align",
		DependsOn: []string{"fetch"},
		Executor:  executeAlign,
	}

	TaskPersist = &Task{
		Name:      "persist",
		DependsOn: []string{"align"},
		Executor:  executePersist,
	}

	TaskPublish = &Task{
		Name:      "publish",
		DependsOn: []string{"persist"},
		SkipIf: func(ctx context.Context, b *Batch) bool {
			return b.Settings.Paths.Database == ""
		},
		Executor: executePublish,
	}
}

func GetRegisteredTasks() map[string]*Task {
	return map[string]*Task{
		TaskFetch.Name:   TaskFetch,
		TaskAlign.Name:   TaskAlign,
		TaskPersist.Name: TaskPersist,
		TaskPublish.Name: TaskPublish,
	}
}

type fetched struct {
	series model.Series
	raw    string
}

func executeFetch(ctx context.Context, b *Batch) (*TaskResult, error) {
	cfg := b.Settings
	if err := provider.CheckInterval(cfg.Interval); err != nil {
		return nil, err
	}
	start, end, err := cfg.DateRange()
	if err != nil {
		return nil, err
	}
	if err := utils.CheckOutputDir(cfg.Paths.Raw); err != nil {
		return nil, err
	}

	fmt.Printf("🐢 开始获取 %d 个标的的日线数据 (%s)\n", len(cfg.Tickers), b.Provider.Name())

	pipeline := utils.NewPipeline[string, fetched](
		utils.WithConcurrency(cfg.Workers),
		utils.WithFailFast(),
	)
	out, result := pipeline.Run(ctx, cfg.Tickers, func(ctx context.Context, ticker string) (fetched, error) {
		s, err := b.Provider.Fetch(ctx, provider.Request{
			Ticker:   ticker,
			Start:    start,
			End:      end,
			Interval: cfg.Interval,
		})
		if err != nil {
			var noData *model.NoDataError
			if errors.As(err, &noData) {
				return fetched{}, err
			}
			return fetched{}, fmt.Errorf("failed to fetch %s: %w", ticker, err)
		}

		path, err := store.WriteRaw(cfg.Paths.Raw, s)
		if err != nil {
			return fetched{}, err
		}
		b.Logger.Debug("fetched", "ticker", ticker, "bars", len(s.Bars), "raw", path)
		return fetched{series: calc.Adjust(s), raw: path}, nil
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if result.HasErrors() {
		b.Logger.Error("fetch failed", "errors", result.ErrorSummary(), "elapsed", result.Duration)
		return nil, result.FirstError()
	}

	series := make([]model.Series, len(out))
	raws := make([]string, len(out))
	for i, f := range out {
		series[i] = f.series
		raws[i] = f.raw
	}
	b.Series = series
	b.RawFiles = raws

	bars := 0
	for _, s := range series {
		bars += len(s.Bars)
	}
	fmt.Printf("📥 原始数据已保存: %s (%d 条)\n", cfg.Paths.Raw, bars)
	return &TaskResult{State: StateCompleted, Rows: bars, Message: "raw bars fetched"}, nil
}

func executeAlign(ctx context.Context, b *Batch) (*TaskResult, error) {
	cfg := b.Settings
	policy := cfg.CalendarPolicy()

	dates, err := b.Calendar.Build(ctx, policy, b.Series)
	if err != nil {
		return nil, err
	}
	b.Dates = dates
	b.Logger.Info("calendar built", "policy", policy.String(), "dates", len(dates))

	limit := cfg.Limit()
	aligned := make([]model.AlignedSeries, len(b.Series))
	records := make([][]model.Record, len(b.Series))

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Workers > 0 {
		g.SetLimit(cfg.Workers)
	}
	for i, s := range b.Series {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			aligned[i] = calc.Align(s, dates, limit)
			records[i] = calc.Returns(aligned[i])
			b.Logger.Debug("aligned", "ticker", s.Ticker, "rows", len(aligned[i].Slots), "filled", aligned[i].Filled())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	long, err := calc.Combine(records, cfg.Fields())
	if err != nil {
		return nil, err
	}

	b.Aligned = aligned
	b.Long = long
	b.Wide = calc.Pivot(long)
	b.Manifest = calc.Manifest(aligned)

	fmt.Printf("📐 对齐完成: 日历 %s, %d 个交易日, %d 行\n", policy, len(dates), len(long.Records))
	return &TaskResult{State: StateCompleted, Rows: len(long.Records), Message: "series aligned"}, nil
}

func executePersist(ctx context.Context, b *Batch) (*TaskResult, error) {
	dir := b.Settings.Paths.Processed
	if err := utils.CheckOutputDir(dir); err != nil {
		return nil, err
	}

	if err := store.WriteLong(store.LongPath(dir), b.Long); err != nil {
		return nil, fmt.Errorf("failed to write long table: %w", err)
	}
	if err := store.WriteWide(store.WidePath(dir), b.Wide); err != nil {
		return nil, fmt.Errorf("failed to write wide table: %w", err)
	}
	if err := store.WriteManifest(store.ManifestPath(dir), b.Manifest); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}

	fmt.Printf("💾 处理结果已保存: %s\n", dir)
	return &TaskResult{State: StateCompleted, Rows: len(b.Long.Records), Message: "tables persisted"}, nil
}

func executePublish(ctx context.Context, b *Batch) (*TaskResult, error) {
	cfg := b.Settings
	db, err := b.OpenDB(model.DBConfig{Type: model.DBTypeDuckDB, DSN: cfg.Paths.Database})
	if err != nil {
		return nil, fmt.Errorf("failed to create database driver: %w", err)
	}
	if err := db.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.InitSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	dir := cfg.Paths.Processed
	if err := db.ImportRaw(b.RawFiles); err != nil {
		return nil, err
	}
	if err := db.ImportFrame(model.TableLong, store.LongPath(dir)); err != nil {
		return nil, err
	}
	if err := db.ImportFrame(model.TableWide, store.WidePath(dir)); err != nil {
		return nil, err
	}
	if err := db.ImportManifest(b.Manifest); err != nil {
		return nil, err
	}

	b.Published = nil
	for _, table := range []string{model.TableRawPrices.TableName, model.TableLong, model.TableWide} {
		s, err := db.Summary(table)
		if err != nil {
			return nil, err
		}
		b.Published = append(b.Published, s)
		b.Logger.Info("published", "table", table, "rows", s.RowCount,
			"min_date", s.MinDate.Time.Format(model.DateLayout),
			"max_date", s.MaxDate.Time.Format(model.DateLayout))
	}

	fmt.Printf("🚀 已发布到 DuckDB: %s\n", cfg.Paths.Database)
	return &TaskResult{State: StateCompleted, Message: "tables published"}, nil
}
