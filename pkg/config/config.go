// Package config handles graphtx configuration via environment variables.
//
// The mutation buffer itself takes no configuration — it is a plain value
// owned by one transaction. Config carries settings for the ambient
// behavior around it: cursor pooling (an enabled flag and a max size) and
// commit-time debug logging. pkg/txstate does not import this package:
// its augmenting cursors always use their sync.Pool free lists, and
// commit logging is on only for a TxState whose DebugCommitLog field the
// caller sets.
//
// Configuration is loaded from environment variables using LoadFromEnv()
// and can be validated with Validate() before use.
//
// Example Usage:
//
//	cfg := config.LoadFromEnv()
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("invalid config: %v", err)
//	}
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds graphtx's environment-derived settings.
type Config struct {
	// CursorPoolEnabled is the cursor-pooling flag. pkg/txstate does not
	// read it: its augmenting cursors (pkg/txstate/cursor.go) are always
	// drawn from a sync.Pool free list.
	CursorPoolEnabled bool

	// CursorPoolMaxSize is the cursor-pool size limit; 0 means no cap and
	// Validate rejects negative values. Nothing enforces it: the cursor
	// pools in pkg/txstate are sync.Pool instances with no size limit.
	CursorPoolMaxSize int

	// DebugCommitLog is the commit-logging flag, for a caller to copy onto
	// TxState.DebugCommitLog; txstate.New does not read it.
	DebugCommitLog bool
}

// LoadFromEnv loads configuration from environment variables, applying
// defaults for anything unset.
//
// Environment Variables:
//   - GRAPHTX_CURSOR_POOL_ENABLED (default true)
//   - GRAPHTX_CURSOR_POOL_MAX_SIZE (default 0, meaning uncapped)
//   - GRAPHTX_DEBUG_COMMIT_LOG (default false)
func LoadFromEnv() *Config {
	return &Config{
		CursorPoolEnabled: getEnvBool("GRAPHTX_CURSOR_POOL_ENABLED", true),
		CursorPoolMaxSize: getEnvInt("GRAPHTX_CURSOR_POOL_MAX_SIZE", 0),
		DebugCommitLog:    getEnvBool("GRAPHTX_DEBUG_COMMIT_LOG", false),
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.CursorPoolMaxSize < 0 {
		return fmt.Errorf("cursor pool max size must be >= 0, got %d", c.CursorPoolMaxSize)
	}
	return nil
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		val = strings.ToLower(val)
		return val == "true" || val == "1" || val == "yes" || val == "on"
	}
	return defaultVal
}
