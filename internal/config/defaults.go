package config

const (
	defaultConfigPath    = "~/.config/awstail/config.toml"
	projectConfigName    = "awstail.toml"
	defaultRegion        = "us-east-1"
	defaultSince         = "5m"
	defaultTimeout       = "30s"
	defaultPageSize      = 100
	maxPageSize          = 10000
	defaultRetryBackoff  = "1s"
	defaultCheckpointDir = "~/.local/share/awstail"
	defaultLogFormat     = "console"
	defaultLogLevel      = "warn"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Tail: Tail{
			Since:    defaultSince,
			Timeout:  defaultTimeout,
			PageSize: defaultPageSize,
		},
		Retry: Retry{
			Backoff: defaultRetryBackoff,
		},
		Checkpoint: Checkpoint{
			Dir: defaultCheckpointDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
