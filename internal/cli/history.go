package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sideways-trend/internal/prices"
	"sideways-trend/internal/store"
	"sideways-trend/pkg/utils"
)

// addStoreCommands adds commands backed by the SQLite store.
func addStoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newImportCmd(app))
	rootCmd.AddCommand(newStoredCmd(app))
	rootCmd.AddCommand(newSymbolsCmd(app))
	rootCmd.AddCommand(newHistoryCmd(app))
}

func newImportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Store a price file for later analysis",
		Example: `  sideways import AAPL.csv
  sideways import export.csv --symbol MSFT --date-format 2006-01-02`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			series, err := prices.Load(args[0], fileOptions(cmd, app))
			if err != nil {
				return err
			}

			s, err := app.openStore()
			if err != nil {
				return err
			}
			if err := s.SaveSeries(ctx, series); err != nil {
				return err
			}
			app.Logger.Debug().Str("symbol", series.Symbol).Int("prices", series.Len()).Msg("Series imported")

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"symbol": series.Symbol,
					"prices": series.Len(),
				})
			}
			output.Success("Imported %d prices for %s", series.Len(), series.Symbol)
			return nil
		},
	}

	addFileFlags(cmd)
	cmd.Flags().String("symbol", "", "symbol to store the series under (default: file name)")

	return cmd
}

func newStoredCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stored <symbol>",
		Short: "Find the longest sideways trend in a stored series",
		Example: `  sideways stored AAPL
  sideways stored AAPL --max-pct-change 3 --save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(commandContext(app, "stored"), 60*time.Second)
			defer cancel()

			maxPct, alg, err := searchSettings(cmd, app)
			if err != nil {
				return err
			}

			s, err := app.openStore()
			if err != nil {
				return err
			}
			series, err := s.GetSeries(ctx, args[0])
			if err != nil {
				return err
			}

			analysis := analyzeSeries(ctx, series, alg, maxPct)
			if save, _ := cmd.Flags().GetBool("save"); save {
				if err := s.SaveAnalysis(ctx, analysis); err != nil {
					return err
				}
			}

			if output.IsJSON() {
				return output.JSON(analysis)
			}
			displayAnalysis(output, analysis, app.Config.Data.DateFormat)
			return nil
		},
	}

	addSearchFlags(cmd)
	cmd.Flags().Bool("save", false, "record the result in the history")

	return cmd
}

func newSymbolsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "symbols",
		Short: "List stored symbols",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			s, err := app.openStore()
			if err != nil {
				return err
			}
			symbols, err := s.ListSymbols(context.Background())
			if err != nil {
				return err
			}

			if output.IsJSON() {
				if symbols == nil {
					symbols = []string{}
				}
				return output.JSON(symbols)
			}
			if len(symbols) == 0 {
				output.Dim("No stored series. Use 'sideways import <file>' first.")
				return nil
			}
			for _, symbol := range symbols {
				output.Println(symbol)
			}
			return nil
		},
	}
}

func newHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show saved analyses",
		Example: `  sideways history
  sideways history --symbol AAPL --limit 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			symbol, _ := cmd.Flags().GetString("symbol")
			limit, _ := cmd.Flags().GetInt("limit")

			s, err := app.openStore()
			if err != nil {
				return err
			}
			analyses, err := s.GetAnalyses(context.Background(), store.AnalysisFilter{Symbol: symbol, Limit: limit})
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(analyses)
			}
			if len(analyses) == 0 {
				output.Dim("No saved analyses.")
				return nil
			}

			layout := app.Config.Data.DateFormat
			t := NewTable(output, "ID", "Symbol", "Algorithm", "Max %", "From", "To", "Days", "Low", "High", "Change", "Saved")
			t.AlignRight(4, 7, 8, 9, 10)
			for _, a := range analyses {
				t.AddRow(shortID(a.ID),
					a.Symbol,
					a.Algorithm,
					fmt.Sprintf("%.2f", a.MaxPctChange),
					utils.FormatDate(a.StartDate, layout),
					utils.FormatDate(a.EndDate, layout),
					fmt.Sprintf("%d", a.Days),
					utils.FormatMinor(a.Low, a.Scale),
					utils.FormatMinor(a.High, a.Scale),
					utils.FormatPercent(a.SpreadPct),
					a.CreatedAt.Local().Format("2006-01-02 15:04"))
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().String("symbol", "", "only show analyses of this symbol")
	cmd.Flags().Int("limit", 20, "maximum number of analyses to show (0 for all)")

	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
