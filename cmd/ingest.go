package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/jing2uo/pricepanel/config"
	"github.com/jing2uo/pricepanel/provider"
	"github.com/jing2uo/pricepanel/slogx"
	"github.com/jing2uo/pricepanel/workflow"
)

// Ingest runs fetch, align, persist and publish for the config at cfgPath
// and writes the final status line to w.
func Ingest(ctx context.Context, cfgPath string, w io.Writer) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	logger := slogx.NewDefault(cfg.LogLevel)
	logger.Debug("config loaded", "path", cfgPath, "tickers", len(cfg.Tickers), "calendar", cfg.Calendar)

	p, err := provider.New(provider.Options{
		Name:    cfg.Provider.Name,
		BaseURL: cfg.Provider.BaseURL,
		Dir:     cfg.Provider.Dir,
		RPS:     cfg.Provider.RPS,
		Timeout: cfg.Provider.Timeout,
	})
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	batch := workflow.NewBatch(cfg, p, logger)
	executor := workflow.NewTaskExecutor(workflow.GetRegisteredTasks())
	if err := executor.Run(ctx, workflow.IngestTasks, batch); err != nil {
		return fmt.Errorf("workflow execution failed: %w", err)
	}

	fmt.Fprintf(w, "[OK] Saved raw → %s, processed → %s\n", cfg.Paths.Raw, cfg.Paths.Processed)
	return nil
}
