package config

const (
	defaultDataDir         = "~/.local/share/steamgog"
	defaultLogDir          = "~/.local/share/steamgog/logs"
	defaultDumpDir         = "~/.local/share/steamgog/dumps"
	defaultSteamBaseURL    = "https://api.steampowered.com"
	defaultGOGDBBaseURL    = "https://www.gogdb.org"
	defaultRequestTimeout  = 30
	defaultDownloadTimeout = 1800
	defaultMinSubstringLen = 6
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			DumpDir: defaultDumpDir,
		},
		Steam: Steam{
			BaseURL: defaultSteamBaseURL,
		},
		GOGDB: GOGDB{
			BaseURL:         defaultGOGDBBaseURL,
			RequestTimeout:  defaultRequestTimeout,
			DownloadTimeout: defaultDownloadTimeout,
		},
		Matching: Matching{
			MinSubstringLen: defaultMinSubstringLen,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
