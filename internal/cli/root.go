// Package cli provides the command-line interface for the sideways trend analyser.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"sideways-trend/internal/config"
	"sideways-trend/internal/logging"
	"sideways-trend/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-10-14"
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Store  store.DataStore

	ownsStore bool
}

// NewRootCmd creates the root command for the CLI. Fields left nil in app are
// filled in from the config directory before a command runs.
func NewRootCmd(app *App) *cobra.Command {
	if app == nil {
		app = &App{}
	}

	rootCmd := &cobra.Command{
		Use:   "sideways",
		Short: "Find the longest sideways trend in closing prices",
		Long: `sideways finds the longest run of trading days during which a security's
closing price stayed inside a percentage corridor: the highest close is at most
--max-pct-change percent above the lowest close.

Price files are CSV with a header row; the Date and Close columns are used.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.Config == nil {
				configDir, _ := cmd.Flags().GetString("config")
				cfg, err := config.Load(configDir)
				if err != nil {
					return err
				}
				app.Config = cfg
				app.Logger = logging.NewLoggerWithConfig(logging.LogConfig{
					Level:      cfg.Logging.Level,
					Console:    true,
					File:       cfg.Logging.File,
					FilePath:   cfg.LogPath(),
					MaxSize:    cfg.Logging.MaxSize,
					MaxBackups: cfg.Logging.MaxBackups,
					MaxAge:     cfg.Logging.MaxAge,
				})
			}

			// Handle debug flag
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.closeStore()
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/sideways-trend)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addCoreCommands(rootCmd, app)
	addAnalysisCommands(rootCmd, app)
	addStoreCommands(rootCmd, app)

	return rootCmd
}

// openStore returns the configured data store, opening it on first use.
func (app *App) openStore() (store.DataStore, error) {
	if app.Store != nil {
		return app.Store, nil
	}
	if !app.Config.Store.Enabled {
		return nil, errStoreDisabled
	}
	s, err := store.NewSQLiteStore(app.Config.StorePath())
	if err != nil {
		return nil, err
	}
	app.Logger.Debug().Str("path", app.Config.StorePath()).Msg("SQLite store initialized")
	app.Store = s
	app.ownsStore = true
	return s, nil
}

func (app *App) closeStore() error {
	if !app.ownsStore || app.Store == nil {
		return nil
	}
	err := app.Store.Close()
	app.Store = nil
	app.ownsStore = false
	return err
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("sideways v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": app.Config.Dir})
			} else {
				output.Println(app.Config.Dir)
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("Configuration is valid")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Analysis")
	output.Printf("  Max change:   %.2f%%\n", cfg.Analysis.MaxPctChange)
	output.Printf("  Algorithm:    %s\n", cfg.Algorithm())
	output.Println()

	output.Bold("Data")
	output.Printf("  Date column:  %s\n", cfg.Data.DateColumn)
	output.Printf("  Close column: %s\n", cfg.Data.CloseColumn)
	output.Printf("  Date format:  %s\n", cfg.Data.DateFormat)
	output.Printf("  Price scale:  %d\n", cfg.Data.PriceScale)
	output.Println()

	output.Bold("Store")
	output.Printf("  Enabled:      %v\n", cfg.Store.Enabled)
	output.Printf("  Path:         %s\n", cfg.StorePath())
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:        %s\n", cfg.Logging.Level)
	output.Printf("  File:         %v\n", cfg.Logging.File)
}
