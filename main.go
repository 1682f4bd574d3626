package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jing2uo/pricepanel/cmd"
	"github.com/jing2uo/pricepanel/config"
	"github.com/jing2uo/pricepanel/validate"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rootCmd = &cobra.Command{
		Use:           "pricepanel",
		Short:         "Normalize multi-ticker daily prices into validated tables",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	var cfgPath, dataPath string

	var ingestCmd = &cobra.Command{
		Use:   "ingest",
		Short: "Fetch, adjust, align and persist prices for the configured tickers",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.Ingest(ctx, cfgPath, c.OutOrStdout())
		},
	}

	var validateCmd = &cobra.Command{
		Use:   "validate",
		Short: "Check the persisted long table",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.Validate(dataPath, c.OutOrStdout())
		},
	}

	ingestCmd.Flags().StringVar(&cfgPath, "config", config.DefaultPath, "配置文件路径")
	validateCmd.Flags().StringVar(&dataPath, "path", validate.DefaultPath, "长表 parquet 路径")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(validateCmd)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, cmd.ErrReported) {
			fmt.Fprintf(os.Stderr, "🛑 error: %v\n", err)
		}
		os.Exit(1)
	}
}
