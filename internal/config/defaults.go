package config

const (
	defaultConfigPath         = "~/.config/delivery/config.toml"
	defaultOutputDir          = "~/Videos/delivery"
	defaultLogDir             = "~/.local/share/delivery/logs"
	defaultHistoryDB          = "~/.local/share/delivery/history.db"
	defaultResolution         = "native"
	defaultFrameExtension     = "png"
	defaultPollIntervalMS     = 200
	defaultSafetyMargin       = 1.2
	defaultBytesPerPixel      = 4
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultNtfyRequestTimeout = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Encoding: Encoding{
			Resolution:     defaultResolution,
			FrameExtension: defaultFrameExtension,
			PollIntervalMS: defaultPollIntervalMS,
			SafetyMargin:   defaultSafetyMargin,
			BytesPerPixel:  defaultBytesPerPixel,
		},
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			HistoryDB: defaultHistoryDB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyRequestTimeout,
		},
	}
}
