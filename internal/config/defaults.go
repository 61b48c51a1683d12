package config

const (
	defaultDataDir     = "~/.local/share/ludex"
	defaultLogDir      = "~/.local/share/ludex/logs"
	defaultIGDBBaseURL = "https://api.igdb.com/v4"
	defaultLogFormat   = "console"
	defaultLogLevel    = "info"
	defaultGroupLimit  = 50
	defaultGameLimit   = 200
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		IGDB: IGDB{
			BaseURL: defaultIGDBBaseURL,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Dedupe: Dedupe{
			GroupLimit: defaultGroupLimit,
		},
		Covers: Covers{
			GameLimit: defaultGameLimit,
		},
	}
}
