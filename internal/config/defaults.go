package config

const (
	defaultConfigPath     = "~/.config/nexscan/config.toml"
	defaultBucket         = "unidata-nexrad-level2"
	defaultRegion         = "us-east-1"
	defaultRequestTimeout = 60
	defaultMaxRetries     = 3
	defaultDataDir        = "~/nexrad"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// defaultSkipSuffixes lists file name endings the downstream reader cannot open.
// The archive's _MDM objects are maintenance metadata, not radar volumes.
var defaultSkipSuffixes = []string{"MDM"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Archive: Archive{
			Bucket:         defaultBucket,
			Region:         defaultRegion,
			RequestTimeout: defaultRequestTimeout,
			MaxRetries:     defaultMaxRetries,
		},
		Local: Local{
			DataDir:      defaultDataDir,
			SkipSuffixes: append([]string(nil), defaultSkipSuffixes...),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
