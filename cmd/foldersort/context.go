package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"foldersort/internal/config"
	"foldersort/internal/history"
	"foldersort/internal/logging"
	"foldersort/internal/manifest"
	"foldersort/internal/notifications"
)

const workerLockFile = "worker.lock"

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil {
			if level := strings.ToLower(strings.TrimSpace(*c.logLevelFlag)); level != "" {
				cfg.Logging.Level = level
				if err := cfg.Validate(); err != nil {
					c.configErr = err
					return
				}
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// configPath is the --config value, blank when the default applies.
func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = fmt.Errorf("create logger: %w", err)
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) appDataDir() (string, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	return manifest.EnsureAppDataDir(cfg.Paths.AppDataDir)
}

func (c *commandContext) manifestPath() (string, error) {
	dir, err := c.appDataDir()
	if err != nil {
		return "", err
	}
	return manifest.ExpectedPath(dir), nil
}

// openHistory returns nil when history is disabled. Open failures are logged
// and also yield nil: history never blocks a run.
func (c *commandContext) openHistory(logger *slog.Logger) *history.Store {
	cfg := c.configValue()
	if cfg == nil || !cfg.History.Enabled {
		return nil
	}
	dir, err := c.appDataDir()
	if err != nil {
		return nil
	}
	store, err := history.Open(filepath.Join(dir, history.FileName))
	if err != nil {
		logging.WarnWithContext(logger, "run history unavailable", "history_open_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run will not be recorded"),
			logging.String(logging.FieldErrorHint, "delete the history database to reset it"),
		)
		return nil
	}
	sweepAbandoned(store, logger)
	return store
}

// sweepAbandoned fails running rows whose process is gone so an interrupted
// run does not stay "running" forever.
func sweepAbandoned(store *history.Store, logger *slog.Logger) {
	n, err := store.MarkAbandoned(context.Background())
	if err != nil {
		logger.Debug("abandoned run sweep failed", logging.Error(err))
		return
	}
	if n > 0 {
		logger.Info("marked interrupted runs as failed", logging.Int("runs", int(n)))
	}
}

func (c *commandContext) notifier(logger *slog.Logger) *notifications.Tracked {
	return notifications.NewTracked(notifications.Multi(
		notifications.NewService(c.configValue()),
		notifications.NewLogService(logger),
	))
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
