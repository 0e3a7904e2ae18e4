package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment variable names.
const (
	EnvHome         = "KASWALLET_HOME"
	EnvNetwork      = "KASWALLET_NETWORK"
	EnvNodeURL      = "KASWALLET_NODE_URL"
	EnvLogLevel     = "KASWALLET_LOG_LEVEL"
	EnvStorage      = "KASWALLET_STORAGE"
	EnvPlatformFee  = "KASWALLET_PLATFORM_FEE"
	EnvPassword     = "KASWALLET_PASSWORD" // #nosec G101 -- false positive, this is a const name not a credential
	EnvOutputFormat = "KASWALLET_OUTPUT_FORMAT"
)

// ApplyEnvironment applies environment variable overrides to the configuration.
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = v
	}

	if v := os.Getenv(EnvNetwork); v != "" {
		cfg.Network = strings.ToLower(strings.TrimSpace(v))
	}

	if v := os.Getenv(EnvNodeURL); v != "" {
		cfg.Node.URL = SanitizeURL(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	if v := os.Getenv(EnvStorage); v != "" {
		cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(v))
	}

	if v := os.Getenv(EnvPlatformFee); v != "" {
		cfg.PlatformFee.Enabled = parseBool(v)
	}

	if v := os.Getenv(EnvOutputFormat); v != "" {
		cfg.Output.DefaultFormat = strings.ToLower(v)
	}
}

// parseBool parses a boolean string value.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}

// SanitizeURL trims whitespace, control characters and trailing slashes
// left over from copy-paste.
func SanitizeURL(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f || r == ' ' {
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
	return strings.TrimRight(cleaned, "/")
}
