package cli

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"sideways-trend/internal/errors"
	"sideways-trend/internal/logging"
	"sideways-trend/internal/models"
	"sideways-trend/internal/prices"
	"sideways-trend/internal/trend"
	"sideways-trend/pkg/utils"
)

var errStoreDisabled = fmt.Errorf("%w: store is disabled", errors.ErrConfigInvalid)

// addAnalysisCommands adds the sideways trend search commands.
func addAnalysisCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newAnalyzeCmd(app))
	rootCmd.AddCommand(newScanCmd(app))
}

// addSearchFlags adds the flags shared by every command that runs a search.
func addSearchFlags(cmd *cobra.Command) {
	cmd.Flags().Float64P("max-pct-change", "p", 0, "maximum spread between high and low close, in percent (default from config)")
	cmd.Flags().Bool("naive", false, "use the O(n^2) reference search")
}

// addFileFlags adds the flags that describe a price file.
func addFileFlags(cmd *cobra.Command) {
	cmd.Flags().String("date-column", "", "header of the date column (default from config)")
	cmd.Flags().String("close-column", "", "header of the closing price column (default from config)")
	cmd.Flags().String("date-format", "", "Go layout of the date column (default from config)")
}

// searchSettings resolves the threshold and algorithm from flags and config.
func searchSettings(cmd *cobra.Command, app *App) (float64, trend.Algorithm, error) {
	maxPct := app.Config.Analysis.MaxPctChange
	if cmd.Flags().Changed("max-pct-change") {
		maxPct, _ = cmd.Flags().GetFloat64("max-pct-change")
	}
	if math.IsNaN(maxPct) || math.IsInf(maxPct, 0) || maxPct < 0 {
		return 0, "", errors.NewValidationError("max-pct-change", maxPct, "must be a finite, non-negative percentage")
	}

	alg := app.Config.Algorithm()
	if naive, _ := cmd.Flags().GetBool("naive"); naive {
		alg = trend.Naive
	}
	return maxPct, alg, nil
}

// fileOptions builds loader options from config and flag overrides.
func fileOptions(cmd *cobra.Command, app *App) prices.Options {
	opts := prices.Options{
		DateColumn:  app.Config.Data.DateColumn,
		CloseColumn: app.Config.Data.CloseColumn,
		DateLayout:  app.Config.Data.DateFormat,
		Scale:       app.Config.Data.PriceScale,
	}
	if v, _ := cmd.Flags().GetString("date-column"); v != "" {
		opts.DateColumn = v
	}
	if v, _ := cmd.Flags().GetString("close-column"); v != "" {
		opts.CloseColumn = v
	}
	if v, _ := cmd.Flags().GetString("date-format"); v != "" {
		opts.DateLayout = v
	}
	if v, _ := cmd.Flags().GetString("symbol"); v != "" {
		opts.Symbol = v
	}
	return opts
}

// commandContext returns a context carrying the app logger tagged with op.
func commandContext(app *App, op string) context.Context {
	return logging.WithLogger(context.Background(), logging.WithOperation(app.Logger, op))
}

// analyzeSeries runs the search over the whole series, logging through the
// logger carried by ctx.
func analyzeSeries(ctx context.Context, series *models.PriceSeries, alg trend.Algorithm, maxPct float64) *models.Analysis {
	logger := logging.WithSymbol(logging.FromContext(ctx), series.Symbol)
	logger.Debug().Int("prices", series.Len()).Str("algorithm", string(alg)).Float64("max_pct_change", maxPct).Msg("Searching")

	start := time.Now()
	r := trend.Find(alg, maxPct, series.Prices())
	analysis := models.NewAnalysis(series, r, alg, maxPct)

	logging.LogAnalysis(logger, series.Symbol, string(alg), analysis.Days, analysis.SpreadPct, time.Since(start))
	return analysis
}

// saveAnalysis persists the analysis and, when given, the series it came from.
func saveAnalysis(ctx context.Context, app *App, series *models.PriceSeries, analysis *models.Analysis) error {
	s, err := app.openStore()
	if err != nil {
		return err
	}
	if series != nil {
		if err := s.SaveSeries(ctx, series); err != nil {
			return errors.Wrapf(err, "saving %s", series.Symbol)
		}
	}
	return s.SaveAnalysis(ctx, analysis)
}

func newAnalyzeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <file.csv>",
		Short: "Find the longest sideways trend in a price file",
		Long: `Load closing prices from a CSV file and report the longest span of trading
days whose highest close is within --max-pct-change percent of its lowest close.`,
		Example: `  sideways analyze AAPL.csv
  sideways analyze AAPL.csv --max-pct-change 10
  sideways analyze prices.csv --naive --date-format 2006-01-02 --save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(commandContext(app, "analyze"), 60*time.Second)
			defer cancel()

			maxPct, alg, err := searchSettings(cmd, app)
			if err != nil {
				return err
			}

			series, err := prices.Load(args[0], fileOptions(cmd, app))
			if err != nil {
				return err
			}
			app.Logger.Debug().Str("file", args[0]).Int("prices", series.Len()).Msg("Prices loaded")

			analysis := analyzeSeries(ctx, series, alg, maxPct)

			if save, _ := cmd.Flags().GetBool("save"); save {
				if err := saveAnalysis(ctx, app, series, analysis); err != nil {
					return errors.Wrap(err, "saving analysis")
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
	addFileFlags(cmd)
	cmd.Flags().String("symbol", "", "symbol to record (default: file name)")
	cmd.Flags().Bool("save", false, "store the price series and the result")

	return cmd
}

// displayAnalysis prints a result the way the report has always read.
func displayAnalysis(output *Output, a *models.Analysis, dateLayout string) {
	output.Printf("Longest sideways trend is from %s to %s (%d trading days)\n",
		utils.FormatDate(a.StartDate, dateLayout),
		utils.FormatDate(a.EndDate, dateLayout),
		a.Days)
	output.Printf("Price range is %s to %s, a %s change\n",
		utils.FormatMinor(a.Low, a.Scale),
		utils.FormatMinor(a.High, a.Scale),
		utils.FormatPercent(a.SpreadPct))
}

// scanResult is one row of a scan.
type scanResult struct {
	File     string           `json:"file"`
	Analysis *models.Analysis `json:"analysis,omitempty"`
	Error    string           `json:"error,omitempty"`
}

func newScanCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <file.csv>...",
		Short: "Find sideways trends in several price files concurrently",
		Long: `Analyse every given price file in parallel and print one row per file,
in the order the files were given. A file that fails to load is reported in
its row and makes the command exit with an error after all files finish.`,
		Example: `  sideways scan data/*.csv
  sideways scan AAPL.csv MSFT.csv --max-pct-change 8 --jobs 2`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			maxPct, alg, err := searchSettings(cmd, app)
			if err != nil {
				return err
			}
			jobs, _ := cmd.Flags().GetInt("jobs")
			if jobs <= 0 {
				jobs = runtime.NumCPU()
			}
			save, _ := cmd.Flags().GetBool("save")
			opts := fileOptions(cmd, app)

			results := make([]scanResult, len(args))
			g, ctx := errgroup.WithContext(commandContext(app, "scan"))
			g.SetLimit(jobs)

			if save {
				// Open once so workers share one store.
				if _, err := app.openStore(); err != nil {
					return err
				}
			}

			for i, file := range args {
				i, file := i, file
				results[i].File = file
				g.Go(func() error {
					series, err := prices.Load(file, opts)
					if err != nil {
						app.Logger.Warn().Err(err).Str("file", file).Msg("Skipping file")
						results[i].Error = err.Error()
						return nil
					}
					analysis := analyzeSeries(ctx, series, alg, maxPct)
					results[i].Analysis = analysis
					if save {
						// A storage failure aborts the remaining files.
						return saveAnalysis(ctx, app, series, analysis)
					}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return errors.Wrap(err, "scan aborted")
			}

			if output.IsJSON() {
				if err := output.JSON(results); err != nil {
					return err
				}
			} else {
				displayScan(output, results, app.Config.Data.DateFormat)
			}

			failed := 0
			for _, r := range results {
				if r.Error != "" {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(results))
			}
			return nil
		},
	}

	addSearchFlags(cmd)
	addFileFlags(cmd)
	cmd.Flags().IntP("jobs", "j", 0, "files analysed in parallel (default: number of CPUs)")
	cmd.Flags().Bool("save", false, "store every price series and result")

	return cmd
}

func displayScan(output *Output, results []scanResult, dateLayout string) {
	t := NewTable(output, "File", "Symbol", "From", "To", "Days", "Low", "High", "Change")
	t.AlignRight(5, 6, 7, 8)
	for _, r := range results {
		if r.Analysis == nil {
			t.AddRow(r.File, "-", "error: "+r.Error, "", "", "", "", "")
			continue
		}
		a := r.Analysis
		t.AddRow(r.File,
			a.Symbol,
			utils.FormatDate(a.StartDate, dateLayout),
			utils.FormatDate(a.EndDate, dateLayout),
			fmt.Sprintf("%d", a.Days),
			utils.FormatMinor(a.Low, a.Scale),
			utils.FormatMinor(a.High, a.Scale),
			utils.FormatPercent(a.SpreadPct))
	}
	t.Render()
}
