package config

const (
	defaultDataDir          = "data"
	defaultStoreDir         = "tts"
	defaultLogDir           = "~/.local/share/sori/logs"
	defaultExtension        = ".mp3"
	defaultTTSCommand       = "edge-tts"
	defaultVoice            = "ko-KR-SunHiNeural"
	defaultConcurrency      = 5
	defaultSynthesisTimeout = 60
	defaultMergeBaseURL     = "https://raw.githubusercontent.com"
	defaultMergeTimeout     = 10
	defaultMergeConcurrency = 4
	defaultNotifyTimeout    = 10
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			StoreDir:   defaultStoreDir,
			LogDir:     defaultLogDir,
			LedgerPath: defaultLedgerPath(),
		},
		Store: Store{
			Extension: defaultExtension,
		},
		TTS: TTS{
			Command:        defaultTTSCommand,
			Voice:          defaultVoice,
			Concurrency:    defaultConcurrency,
			TimeoutSeconds: defaultSynthesisTimeout,
		},
		Merge: Merge{
			Branches:       []string{"master", "main"},
			BaseURL:        defaultMergeBaseURL,
			RequestTimeout: defaultMergeTimeout,
			Concurrency:    defaultMergeConcurrency,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Sync:           true,
			Merge:          true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
