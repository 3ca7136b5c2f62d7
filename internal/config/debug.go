package config

import "os"

// IsDebug is read before the config is parsed, so logging can be set up first.
func IsDebug() bool {
	v := os.Getenv("RISKMON_DEBUG")
	return v == "1" || v == "true"
}

// IsJSONLog reports LOG_FORMAT=json, also read before config parsing.
func IsJSONLog() bool {
	return os.Getenv("LOG_FORMAT") == "json"
}
