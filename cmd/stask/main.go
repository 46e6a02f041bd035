package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/tgienger/stask/internal/app"
	"github.com/tgienger/stask/internal/config"
	"github.com/tgienger/stask/internal/db"
	"github.com/tgienger/stask/internal/logging"
	"github.com/tgienger/stask/internal/store"
	"github.com/tgienger/stask/internal/ui"
)

// Version information set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configPath string
	dbPath     string
	logLevel   string
	inMemory   bool
)

var rootCmd = &cobra.Command{
	Use:           "stask",
	Short:         "A small offline task tracker for the terminal",
	Version:       versionString(),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "stask "+versionString())
	},
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "config file (default $STASK_CONFIG or $XDG_CONFIG_HOME/stask/config.toml)")
	rootCmd.Flags().StringVar(&dbPath, "db", "", "database file, overrides db_path")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "debug, info, warn, error or off, overrides log_level")
	rootCmd.Flags().BoolVar(&inMemory, "memory", false, "keep tasks in memory only, nothing is saved")
	rootCmd.AddCommand(versionCmd)
}

func versionString() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	logger, err := logging.New(settings.LogLevel, settings.LogFile)
	if err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	defer logger.Close()
	slog.SetDefault(logger.Logger)

	var (
		tasks store.TaskStore
		prefs store.Settings
	)
	if inMemory {
		mem := store.NewMemory()
		tasks, prefs = mem, mem
	} else {
		path := settings.DBPath
		if path == "" {
			if path, err = db.DefaultPath(); err != nil {
				return fmt.Errorf("resolve database path: %w", err)
			}
		}
		database, err := db.Open(path, logger.Logger)
		if err != nil {
			return fmt.Errorf("initialize database: %w", err)
		}
		defer database.Close()
		tasks, prefs = database, database
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	session := app.New(tasks, app.Options{
		Filter:         settings.Filter,
		Sort:           settings.Sort,
		SearchDebounce: settings.SearchDebounce,
		MaxSelection:   settings.MaxSelection,
		MaxBulk:        settings.MaxBulk,
		Settings:       prefs,
		Logger:         logger.Logger,
	})
	if err := session.Start(ctx); err != nil {
		return err
	}
	defer session.Close()

	logger.Info("stask started", slog.String("version", version), slog.Bool("memory", inMemory))

	p := tea.NewProgram(ui.NewApp(ctx, session), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run application: %w", err)
	}
	return nil
}

// loadSettings reads the config file and applies command line overrides
func loadSettings() (config.Settings, error) {
	path := configPath
	if path == "" {
		var err error
		if path, err = config.Path(); err != nil {
			return config.Settings{}, fmt.Errorf("resolve config path: %w", err)
		}
	}
	cfg, err := config.LoadOrCreate(path)
	if err != nil {
		return config.Settings{}, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	settings, err := cfg.Parse()
	if err != nil {
		return config.Settings{}, fmt.Errorf("load config: %w", err)
	}
	if dbPath != "" {
		settings.DBPath = dbPath
	}
	return settings, nil
}
