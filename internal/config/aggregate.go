package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// ReportConfig holds configuration for the report command.
type ReportConfig struct {
	Config
	Since      string
	Pool       string
	StoreStats bool
}

// LoadReport loads the shared settings plus the report filters.
func LoadReport(cfgFile string, flags *pflag.FlagSet) (ReportConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return ReportConfig{}, err
	}
	base, err := Load(cfgFile, flags)
	if err != nil {
		return ReportConfig{}, err
	}

	cfg := ReportConfig{
		Config:     base,
		Since:      v.GetString("since"),
		Pool:       v.GetString("pool"),
		StoreStats: v.GetBool("store-stats"),
	}
	if cfg.StoreStats && cfg.PGDSN == "" {
		return ReportConfig{}, fmt.Errorf("pg-dsn is required to store stats")
	}
	return cfg, nil
}

// ParseTimestamp parses a timestamp value (unix seconds or RFC3339).
func ParseTimestamp(input string) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, nil
	}

	if isNumeric(input) {
		val, err := strconv.ParseInt(input, 10, 64)
		if err != nil {
			return time.Time{}, err
		}
		return time.Unix(val, 0).UTC(), nil
	}

	tm, err := time.Parse(time.RFC3339, input)
	if err != nil {
		return time.Time{}, err
	}
	return tm.UTC(), nil
}

func isNumeric(input string) bool {
	for _, r := range input {
		if r < '0' || r > '9' {
			return false
		}
	}
	return input != ""
}
