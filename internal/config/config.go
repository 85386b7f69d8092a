package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// RewriteRule rewrites a building-name fragment that carries a recognized
// prefix. Rules are evaluated in order, first match wins, and a fragment
// matching no rule passes through unchanged. Template must contain a single
// %s placeholder receiving the fragment with the prefix stripped.
type RewriteRule struct {
	Prefix   string `yaml:"prefix" json:"prefix"`
	Template string `yaml:"template" json:"template"`
}

// Slot is the clock time of one numbered period, in compact HHMMSS form as
// it appears in the calendar output (e.g. "080000").
type Slot struct {
	Start string `yaml:"start" json:"start"`
	End   string `yaml:"end" json:"end"`
}

// Config is the top-level application configuration.
type Config struct {
	// AnchorDate is the date of Monday of week 1 in YYYYMMDD form, the
	// zero-point for all recurrence arithmetic.
	AnchorDate string `yaml:"anchor_date" json:"anchor_date"`

	// AlarmMinutes is the reminder lead time; 0 disables reminders.
	AlarmMinutes int `yaml:"alarm_minutes" json:"alarm_minutes"`

	// Timezone is the IANA name written into the calendar header. The
	// calendar uses a standard-offset-only zone, so TZOffset/TZName pin
	// the fixed offset instead of a DST-aware location.
	Timezone string `yaml:"timezone" json:"timezone"`
	TZOffset string `yaml:"tz_offset" json:"tz_offset"`
	TZName   string `yaml:"tz_name" json:"tz_name"`

	CalendarName  string `yaml:"calendar_name" json:"calendar_name"`
	CalendarColor string `yaml:"calendar_color" json:"calendar_color"`

	// FetchURL is the rendered timetable page captured by the fetch
	// command. Login and navigation are outside this tool; the page must
	// be reachable as-is.
	FetchURL        string `yaml:"fetch_url" json:"fetch_url"`
	FetchTimeoutSec int    `yaml:"fetch_timeout_sec" json:"fetch_timeout_sec"`
	WaitSelector    string `yaml:"wait_selector" json:"wait_selector"`

	// HolidayFile points at a YAML holiday dataset; empty means no
	// holidays are excluded.
	HolidayFile string `yaml:"holiday_file" json:"holiday_file"`

	// BuildingRewrites feed the extractor's building-name normalization.
	BuildingRewrites []RewriteRule `yaml:"building_rewrites" json:"building_rewrites"`

	// Periods maps period numbers 1..10 to clock times. Empty means the
	// standard ten-slot table.
	Periods map[int]Slot `yaml:"periods" json:"periods"`

	LogLevel string `yaml:"log_level" json:"log_level"`
}

// DefaultPeriods is the standard ten-slot clock table shared across all
// weekdays.
func DefaultPeriods() map[int]Slot {
	return map[int]Slot{
		1:  {Start: "080000", End: "084000"},
		2:  {Start: "085000", End: "093000"},
		3:  {Start: "100000", End: "104000"},
		4:  {Start: "105000", End: "113000"},
		5:  {Start: "133000", End: "141000"},
		6:  {Start: "142000", End: "150000"},
		7:  {Start: "153000", End: "161000"},
		8:  {Start: "162000", End: "170000"},
		9:  {Start: "180000", End: "184000"},
		10: {Start: "185000", End: "193000"},
	}
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		AlarmMinutes:    30,
		Timezone:        "Asia/Shanghai",
		TZOffset:        "+0800",
		TZName:          "CST",
		CalendarName:    "课表",
		CalendarColor:   "#FF2968",
		FetchTimeoutSec: 30,
		WaitSelector:    ".divOneClass",
		BuildingRewrites: []RewriteRule{
			{Prefix: "济-", Template: "山东体育学院%s"},
		},
		Periods:  DefaultPeriods(),
		LogLevel: "info",
	}
}

// Normalize fills missing/zero values with defaults so partially-filled
// configs still behave correctly. AnchorDate is deliberately left empty when
// unset: it has no safe default and is validated by Anchor().
func (c *Config) Normalize() {
	if c.Timezone == "" {
		c.Timezone = "Asia/Shanghai"
	}
	if c.TZOffset == "" {
		c.TZOffset = "+0800"
	}
	if c.TZName == "" {
		c.TZName = "CST"
	}
	if c.CalendarName == "" {
		c.CalendarName = "课表"
	}
	if c.CalendarColor == "" {
		c.CalendarColor = "#FF2968"
	}
	if c.FetchTimeoutSec <= 0 {
		c.FetchTimeoutSec = 30
	}
	if c.WaitSelector == "" {
		c.WaitSelector = ".divOneClass"
	}
	if c.BuildingRewrites == nil {
		c.BuildingRewrites = []RewriteRule{{Prefix: "济-", Template: "山东体育学院%s"}}
	}
	if len(c.Periods) == 0 {
		c.Periods = DefaultPeriods()
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Anchor parses AnchorDate into a date in the given location. An
// unparseable anchor date aborts the run before any processing.
func (c *Config) Anchor(loc *time.Location) (time.Time, error) {
	if c.AnchorDate == "" {
		return time.Time{}, errors.New("config: anchor_date is not set (expected YYYYMMDD, e.g. 20230904)")
	}
	t, err := time.ParseInLocation("20060102", c.AnchorDate, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("config: invalid anchor_date %q (expected YYYYMMDD): %w", c.AnchorDate, err)
	}
	return t, nil
}

// Location builds the fixed standard-offset zone used for all local
// timestamps, from TZName and TZOffset ("+0800" style).
func (c *Config) Location() (*time.Location, error) {
	off := c.TZOffset
	if len(off) != 5 || (off[0] != '+' && off[0] != '-') {
		return nil, fmt.Errorf("config: invalid tz_offset %q (expected like +0800)", off)
	}
	hh, err1 := strconv.Atoi(off[1:3])
	mm, err2 := strconv.Atoi(off[3:5])
	if err1 != nil || err2 != nil {
		return nil, fmt.Errorf("config: invalid tz_offset %q (expected like +0800)", off)
	}
	sec := hh*3600 + mm*60
	if off[0] == '-' {
		sec = -sec
	}
	return time.FixedZone(c.TZName, sec), nil
}

// Load loads configuration from the given YAML path. If the file does not
// exist, a default config is written there (0600) and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600 perms,
// creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".coursecal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
