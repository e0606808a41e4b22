package config

const (
	defaultConfigFilename = "solproof.conf"
	defaultLogFilename    = "solverify.log"
	defaultDataDirname    = "data"
	defaultLogDirname     = "logs"
	verdictsDirname       = "verdicts"

	defaultLogLevel     = "info"
	defaultSigCacheSize = 32 // MiB
)
