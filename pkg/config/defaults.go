package config

// Default values.
const (
	DefaultLanguage             = "python"
	DefaultOutputDir            = "out"
	DefaultOutputPrefix         = "out"
	DefaultBatchSize            = 1000
	DefaultMaxTokens            = 2000
	DefaultMode                 = "lcs"
	DefaultRevisionCacheEntries = 4096
	DefaultHost                 = "127.0.0.1"
	DefaultPort                 = 8080
	DefaultMaxBodySize          = "1MiB"
)
