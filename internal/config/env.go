// Package config reads settings from the environment, after loading any
// .env files found in the working directory.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Goofygiraffe06/otpgate/internal/logging"
	"github.com/joho/godotenv"
)

// dotenvFiles are loaded in order. Variables already set win.
var dotenvFiles = []string{".env.local", ".env"}

func init() {
	loaded := 0
	for _, f := range dotenvFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			logging.WarnLog("Config: could not load %s: %v", f, err)
			continue
		}
		loaded++
	}
	if loaded == 0 {
		logging.DebugLog("Config: no .env file, using process environment")
	}
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// MustGetEnv returns the variable or panics when it is unset.
func MustGetEnv(key string) string {
	v, ok := lookup(key)
	if !ok {
		logging.ErrorLog("Config: missing required variable %s", key)
		panic("config: missing required environment variable: " + key)
	}
	return v
}

// GetEnv returns the variable, or fallback when it is unset or blank.
func GetEnv(key, fallback string) string {
	if v, ok := lookup(key); ok {
		return v
	}
	return fallback
}

// MustParseDuration reads a positive duration, falling back to fallback.
// A malformed value is a configuration bug and panics.
func MustParseDuration(key, fallback string) time.Duration {
	val := GetEnv(key, fallback)
	d, err := time.ParseDuration(val)
	if err == nil && d <= 0 {
		err = strconv.ErrRange
	}
	if err != nil {
		logging.ErrorLog("Config: invalid duration %s=%q: %v", key, val, err)
		panic("config: invalid duration in " + key + ": " + err.Error())
	}
	return d
}

// positiveInt reads a positive integer; anything else yields def.
func positiveInt(key string, def int) int {
	v, ok := lookup(key)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		logging.WarnLog("Config: ignoring %s=%q, using %d", key, v, def)
		return def
	}
	return i
}
