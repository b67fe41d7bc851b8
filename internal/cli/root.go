// Package cli はコマンドラインインターフェースを提供します
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"jo3qma.com/autosniper/internal/app"
	"jo3qma.com/autosniper/internal/config"
)

// Version はビルド時に設定されます
var Version = "0.1.0"

// runtime はコマンド実行中に共有する設定と依存関係です
type runtime struct {
	configPath string
	cfg        config.Config
	logger     *slog.Logger
	closeLog   func() error
	app        *app.App
}

// NewRootCommand はサブコマンドを登録したルートコマンドを作成します
func NewRootCommand() *cobra.Command {
	rt := &runtime{}

	root := &cobra.Command{
		Use:   "autosniper",
		Short: "Grays vehicle auction tracker",
		Long: `AutoSniper collects vehicle listings from Grays, keeps their auction state
up to date, and partitions them into active, sold and referred datasets.

Typical pipeline:
  autosniper links       collect listing URLs from the search pages
  autosniper details     extract static details for new listings
  autosniper refresh     re-fetch bids and classify each listing
  autosniper partition   move sold and referred listings into their archives`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}
			return rt.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			rt.close()
		},
	}

	root.PersistentFlags().StringVarP(&rt.configPath, "config", "c", "", "path to a YAML config file (env: AUTOSNIPER_CONFIG)")

	root.AddCommand(
		newLinksCmd(rt),
		newDetailsCmd(rt),
		newRefreshCmd(rt),
		newPartitionCmd(rt),
		newEstimateCmd(rt),
		newSummaryCmd(rt),
		newViableCmd(rt),
		newServeCmd(rt),
	)
	return root
}

// Execute はルートコマンドを実行します
func Execute() error {
	return NewRootCommand().Execute()
}

func (rt *runtime) init(cmd *cobra.Command) error {
	cfg, err := config.Load(rt.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	rt.cfg = cfg

	rt.logger, rt.closeLog = config.SetupLogger(cfg.LogFile, cfg.Level())
	slog.SetDefault(rt.logger)

	a, err := app.New(cmd.Context(), cfg, rt.logger)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	rt.app = a
	return nil
}

func (rt *runtime) close() {
	if rt.app != nil {
		rt.app.Close()
	}
	if rt.closeLog != nil {
		if err := rt.closeLog(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
		}
	}
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
