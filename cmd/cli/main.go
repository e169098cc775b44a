package main

import (
	"fmt"
	"log"
	"os"

	"biodelta/adapters/excel"
	"biodelta/app"
	"biodelta/domain/community"
	"biodelta/domain/diversity"
	"biodelta/internal/config"
	"biodelta/internal/errors"
	"biodelta/ui"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "biodelta",
		Short:         "Compare microbial community diversity before and after antibiotic treatment",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newServeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		if errors.IsAppError(err) {
			fmt.Fprintf(os.Stderr, "Error [%s]: %v\n", errors.GetCode(err), err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// loadConfig reads .env when present, then the environment
func loadConfig() (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env: %v", err)
	}
	return config.Load()
}

func newSession(cfg *config.Config) *app.AnalysisSession {
	exportConfig := excel.DefaultExportConfig()
	exportConfig.IncludeChart = cfg.Export.IncludeChart
	return app.NewAnalysisSession(
		excel.NewDataReader(),
		excel.NewWorkbookExporter(exportConfig),
		diversity.NewCalculator(cfg.Analysis.LossThreshold),
	)
}

func newAnalyzeCmd() *cobra.Command {
	var beforePath, afterPath, outPath string
	var threshold float64
	var markdown bool

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Compute the Shannon entropy change between two samples",
		Long: `Load a Before and an After sample (CSV, TSV or XLSX with Species and
Proportion columns), compute the Shannon entropy of each in bits, and report
whether the drop exceeds the loss threshold.

Rows are paired by position, not by species name.

Example: biodelta analyze --before day0.csv --after day7.csv --out entropy_results.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("threshold") {
				if err := config.ValidateThreshold(threshold); err != nil {
					return err
				}
				cfg.Analysis.LossThreshold = threshold
			}
			return runAnalyze(newSession(cfg), beforePath, afterPath, outPath, markdown)
		},
	}

	cmd.Flags().StringVar(&beforePath, "before", "", "Sample taken before treatment")
	cmd.Flags().StringVar(&afterPath, "after", "", "Sample taken after treatment")
	cmd.Flags().StringVar(&outPath, "out", "", "Write the results workbook to this .xlsx path")
	cmd.Flags().Float64Var(&threshold, "threshold", diversity.DefaultLossThreshold, "ΔH above which the loss is significant")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "Print the full Markdown report instead of the summary")
	_ = cmd.MarkFlagRequired("before")
	_ = cmd.MarkFlagRequired("after")

	return cmd
}

func runAnalyze(session *app.AnalysisSession, beforePath, afterPath, outPath string, markdown bool) error {
	paths := [2]string{community.Before: beforePath, community.After: afterPath}
	for _, side := range []community.Side{community.Before, community.After} {
		path := paths[side]
		sample, err := session.LoadSample(side, path)
		if err != nil {
			return err
		}
		fmt.Printf("✅ %s data loaded: %d rows from %s\n", side, sample.Len(), path)
	}

	analysis, err := session.Analyze()
	if err != nil {
		return err
	}

	if markdown {
		fmt.Print(analysis.Markdown())
	} else {
		fmt.Print(analysis.Summary())
	}

	if outPath != "" {
		if err := session.Export(outPath); err != nil {
			return err
		}
		fmt.Printf("Results saved to %s\n", outPath)
	}
	return nil
}

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Server.Port = port
			}

			reader := excel.NewDataReader()
			webApp, err := ui.NewApp(ui.Config{
				Port:           cfg.Server.Port,
				MaxUploadBytes: int64(cfg.Server.MaxUploadMB) << 20,
			}, newSession(cfg), reader)
			if err != nil {
				return errors.Wrap(err, "failed to create web app")
			}
			return webApp.Start()
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Listen port (default from PORT, then 8080)")

	return cmd
}
