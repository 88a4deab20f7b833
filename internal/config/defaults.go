package config

const (
	defaultWorkerBinary          = "Organize_Folder"
	defaultWorkerMinFiles        = 5
	defaultOrganizeOperation     = "move"
	defaultCollisionAttempts     = 10000
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultNotifyRequestTimeout  = 10
	defaultConfigRelativePath    = "~/.config/foldersort/config.toml"
	defaultProjectConfigFilename = "foldersort.toml"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Worker: Worker{
			Binary:           defaultWorkerBinary,
			MinFiles:         defaultWorkerMinFiles,
			CrossProcessLock: true,
		},
		Organize: Organize{
			Operation:         defaultOrganizeOperation,
			CollisionAttempts: defaultCollisionAttempts,
			VerifyCopies:      true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Progress:       true,
			Completion:     true,
			Errors:         true,
		},
		History: History{
			Enabled: true,
		},
	}
}
