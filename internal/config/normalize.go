package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeWorker(); err != nil {
		return err
	}
	c.normalizeOrganize()
	c.normalizeLogging()
	c.normalizeNotifications()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.AppDataDir) == "" {
		if value, ok := os.LookupEnv("FOLDERSORT_APP_DATA_DIR"); ok {
			c.Paths.AppDataDir = strings.TrimSpace(value)
		}
	}
	var err error
	if c.Paths.AppDataDir, err = expandPath(strings.TrimSpace(c.Paths.AppDataDir)); err != nil {
		return fmt.Errorf("paths.app_data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeWorker() error {
	if value, ok := os.LookupEnv("FOLDERSORT_WORKER_BINARY"); ok && strings.TrimSpace(value) != "" {
		c.Worker.Binary = value
	}
	c.Worker.Binary = strings.TrimSpace(c.Worker.Binary)
	if c.Worker.Binary == "" {
		c.Worker.Binary = defaultWorkerBinary
	}
	// Bare names stay as-is so exec.LookPath can search PATH.
	if strings.ContainsAny(c.Worker.Binary, `/\`) || strings.HasPrefix(c.Worker.Binary, "~") {
		expanded, err := expandPath(c.Worker.Binary)
		if err != nil {
			return fmt.Errorf("worker.binary: %w", err)
		}
		c.Worker.Binary = expanded
	}
	return nil
}

func (c *Config) normalizeOrganize() {
	c.Organize.Operation = strings.ToLower(strings.TrimSpace(c.Organize.Operation))
	if c.Organize.Operation == "" {
		c.Organize.Operation = defaultOrganizeOperation
	}
	if c.Organize.CollisionAttempts == 0 {
		c.Organize.CollisionAttempts = defaultCollisionAttempts
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("FOLDERSORT_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout == 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}
