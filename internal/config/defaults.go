package config

const (
	defaultDataDir          = "~/.local/share/recallhub/data"
	defaultLogDir           = "~/.local/share/recallhub/logs"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultPollInterval     = 3600
	defaultFetchTimeout     = 120
	defaultItemTimeout      = 15
	defaultRunRetentionDays = 90
	defaultResultLimit      = 20
	defaultMinNameScore     = 0.15
	defaultNotifyTimeout    = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Ingest: Ingest{
			PollInterval:     defaultPollInterval,
			FetchTimeout:     defaultFetchTimeout,
			ItemTimeout:      defaultItemTimeout,
			RunRetentionDays: defaultRunRetentionDays,
		},
		Matching: Matching{
			ResultLimit:  defaultResultLimit,
			MinNameScore: defaultMinNameScore,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Runs:           true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
