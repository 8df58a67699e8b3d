package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/docassist/docassist/internal/api"
	"github.com/docassist/docassist/internal/auth"
	"github.com/docassist/docassist/internal/config"
	"github.com/docassist/docassist/internal/constants"
	"github.com/docassist/docassist/internal/events"
	"github.com/docassist/docassist/internal/logging"
	"github.com/docassist/docassist/internal/state"
	"github.com/docassist/docassist/internal/storage"
)

// environment is everything a command needs, built once per invocation
// in the root PersistentPreRunE.
type environment struct {
	configPath string
	cfg        *config.Config
	prefs      *config.Preferences
	logger     *logging.Logger
	bus        *events.EventBus
	client     *api.Client
	session    *auth.Session

	store *storage.Store // opened on first use
}

var currentEnv *environment

func loadConfig() (*config.Config, string, error) {
	configPath := cfgFile
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}
	cfg, err := config.LoadConfigCSV(configPath)
	if err != nil {
		return nil, configPath, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.MergeWithFlagsAndTokenFile(sessionToken, tokenFile, apiBaseURL, "", "", 0)
	return cfg, configPath, nil
}

func loadEnvironment(cmd *cobra.Command) (*environment, error) {
	cfg, configPath, err := loadConfig()
	if err != nil {
		return nil, err
	}

	prefs, err := config.LoadPreferences("")
	if err != nil {
		return nil, err
	}
	if outputFormat != "" {
		prefs.Output = outputFormat
	}
	if err := prefs.Validate(); err != nil {
		return nil, fmt.Errorf("invalid preferences: %w", err)
	}

	bus := events.NewEventBus(constants.EventBusDefaultBuffer)

	opts := logging.Options{Out: cmd.ErrOrStderr(), EventBus: bus}
	if logToFile || cfg.LogToFile {
		if err := config.EnsureLogDirectory(); err == nil {
			opts.FilePath = config.DefaultLogFile()
		}
	}
	log := logging.NewLogger(opts)

	client, err := api.NewClient(cfg, log)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	return &environment{
		configPath: configPath,
		cfg:        cfg,
		prefs:      prefs,
		logger:     log,
		bus:        bus,
		client:     client,
		session:    auth.NewSession(client, config.GetDefaultTokenPath(), bus, log),
	}, nil
}

// Store opens the local database.
func (e *environment) Store() (*storage.Store, error) {
	if e.store != nil {
		return e.store, nil
	}
	st, err := storage.Open(e.cfg.ResolveStorePath(), e.logger)
	if err != nil {
		return nil, err
	}
	e.store = st
	return st, nil
}

// Selection loads the persisted selection into a fresh model.
func (e *environment) Selection(cmd *cobra.Command) (*state.SelectionModel, *storage.Store, error) {
	st, err := e.Store()
	if err != nil {
		return nil, nil, err
	}
	entries, err := st.LoadSelection(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	sel := state.NewSelectionModel(e.bus)
	sel.ReplaceAll(entries)
	return sel, st, nil
}

func (e *environment) close() {
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			e.logger.Warn().Err(err).Msg("Failed to close local store")
		}
		e.store = nil
	}
	e.bus.Close()
	_ = e.logger.Close()
}

func closeEnvironment() {
	if currentEnv != nil {
		currentEnv.close()
		currentEnv = nil
	}
}

func env() (*environment, error) {
	if currentEnv == nil {
		return nil, fmt.Errorf("command environment not initialized")
	}
	return currentEnv, nil
}

func stdout(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
