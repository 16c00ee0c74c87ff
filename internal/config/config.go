// Package config reads the collector's environment-style settings.
// Unlike the teacher's gcfg-based ingest config, this collector has no
// indexer backend to describe, so its surface is a handful of
// environment variables read straight into a flat struct.
package config

import (
	"os"
	"strconv"
)

// Config holds every externally tunable setting, defaulted per spec
// §6 when the corresponding environment variable is unset or empty.
type Config struct {
	UDPPort    int
	TLSPort    int
	LogDir     string
	CertFile   string
	KeyFile    string
	EnableUDP  bool
	EnableTLS  bool
}

// FromEnv builds a Config from the process environment, applying
// defaults for anything unset.
func FromEnv() Config {
	return Config{
		UDPPort:   envInt("SYSLOG_UDP_PORT", 514),
		TLSPort:   envInt("SYSLOG_TLS_PORT", 6514),
		LogDir:    envString("SYSLOG_LOG_DIR", "logs"),
		CertFile:  envString("SYSLOG_CERT_FILE", "cert.pem"),
		KeyFile:   envString("SYSLOG_KEY_FILE", "key.pem"),
		EnableUDP: envBool("SYSLOG_ENABLE_UDP", true),
		EnableTLS: envBool("SYSLOG_ENABLE_TLS", true),
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
