package config

import (
	"os"
	"strconv"
)

// FailurePolicy decides what a route handler does when the ledger cannot
// reach storage: permit the call (fail-open) or deny it (fail-closed). The
// ledger itself always propagates the error either way.
type FailurePolicy string

const (
	FailOpen   FailurePolicy = "fail-open"
	FailClosed FailurePolicy = "fail-closed"
)

type QuotaConfig struct {
	// DefaultDailyLimit applies when an api_type has no global limit row yet.
	DefaultDailyLimit int
	FailurePolicy     FailurePolicy
}

func NewQuotaConfig() *QuotaConfig {
	cfg := &QuotaConfig{
		DefaultDailyLimit: 200,
		FailurePolicy:     FailClosed,
	}

	if v := os.Getenv("DEFAULT_DAILY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DefaultDailyLimit = n
		}
	}

	if FailurePolicy(os.Getenv("LIMIT_FAILURE_POLICY")) == FailOpen {
		cfg.FailurePolicy = FailOpen
	}

	return cfg
}
