package config

const (
	defaultSegmentLength         = 60.0
	defaultSegmentOverlap        = 10.0
	defaultMinConfidence         = 0.5
	defaultTimeThreshold         = 60.0
	defaultMaxDuplicates         = 2
	defaultMaxConcurrentSegments = 4

	defaultPrimaryProvider = "acrcloud"

	defaultACRCloudHost           = "identify-eu-west-1.acrcloud.com"
	defaultACRCloudTimeoutSec     = 15
	defaultACRCloudRequestsPerWin = 12
	defaultACRCloudWindowSeconds  = 60

	defaultAudDEndpoint       = "https://api.audd.io/"
	defaultAudDTimeoutSec     = 15
	defaultAudDRequestsPerWin = 10
	defaultAudDWindowSeconds  = 60

	defaultCacheBackend    = "sqlite"
	defaultCacheDir        = "~/.cache/tracklist"
	defaultCacheTTLSeconds = 86400

	defaultRetryMaxAttempts = 3
	defaultRetryBaseDelayMs = 500
	defaultRetryMaxDelayMs  = 8000

	defaultLogFormat = "console"
	defaultLogLevel  = "info"

	defaultOutputDir = "."
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Identification: Identification{
			SegmentLength:         defaultSegmentLength,
			SegmentOverlap:        defaultSegmentOverlap,
			MinConfidence:         defaultMinConfidence,
			TimeThreshold:         defaultTimeThreshold,
			MaxDuplicates:         defaultMaxDuplicates,
			MaxConcurrentSegments: defaultMaxConcurrentSegments,
		},
		Providers: Providers{
			Primary:         defaultPrimaryProvider,
			FallbackEnabled: true,
			Fallback:        []string{"audd"},
			ACRCloud: ACRCloud{
				Host:              defaultACRCloudHost,
				TimeoutSeconds:    defaultACRCloudTimeoutSec,
				RequestsPerWindow: defaultACRCloudRequestsPerWin,
				WindowSeconds:     defaultACRCloudWindowSeconds,
			},
			AudD: AudD{
				Endpoint:          defaultAudDEndpoint,
				TimeoutSeconds:    defaultAudDTimeoutSec,
				RequestsPerWindow: defaultAudDRequestsPerWin,
				WindowSeconds:     defaultAudDWindowSeconds,
			},
		},
		Cache: Cache{
			Enabled:    true,
			Backend:    defaultCacheBackend,
			Dir:        defaultCacheDir,
			TTLSeconds: defaultCacheTTLSeconds,
		},
		Retry: Retry{
			MaxAttempts: defaultRetryMaxAttempts,
			BaseDelayMs: defaultRetryBaseDelayMs,
			MaxDelayMs:  defaultRetryMaxDelayMs,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Output: Output{
			Dir:     defaultOutputDir,
			Formats: []string{"json"},
		},
	}
}
