// Package main provides the CLI entrypoint for coursecal: fetch the
// rendered timetable page, convert it into normalized course records, and
// generate a holiday-aware recurring-event calendar from them.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"coursecal/internal/config"
	"coursecal/internal/fetch"
	"coursecal/internal/holiday"
	"coursecal/internal/ical"
	appLog "coursecal/internal/log"
	"coursecal/internal/model"
	"coursecal/internal/schedule"
	"coursecal/internal/timetable"
)

const (
	defaultConfigPath = "coursecal.yaml"
	defaultHTMLPath   = "raw_table.html"
	defaultJSONPath   = "courses.json"
)

var (
	configPath string

	fetchURL string
	fetchOut string

	convertIn   string
	convertJSON string
	convertText string

	icsIn       string
	icsOut      string
	icsAnchor   string
	icsAlarm    int
	icsHolidays string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "coursecal",
		Short:         "Convert a rendered course timetable into a recurring-event calendar",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "path to config file")

	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Capture the rendered timetable page HTML",
		RunE:  runFetch,
	}
	fetchCmd.Flags().StringVar(&fetchURL, "url", "", "timetable page URL (overrides config)")
	fetchCmd.Flags().StringVar(&fetchOut, "out", defaultHTMLPath, "where to save the captured HTML")

	convertCmd := &cobra.Command{
		Use:   "convert",
		Short: "Parse captured HTML into normalized course records",
		RunE:  runConvert,
	}
	convertCmd.Flags().StringVar(&convertIn, "in", defaultHTMLPath, "captured timetable HTML file")
	convertCmd.Flags().StringVar(&convertJSON, "json", defaultJSONPath, "structured record output file")
	convertCmd.Flags().StringVar(&convertText, "text", "", "optional plain-text timetable output file")

	icsCmd := &cobra.Command{
		Use:   "ics",
		Short: "Generate a calendar file from course records",
		RunE:  runICS,
	}
	icsCmd.Flags().StringVar(&icsIn, "in", defaultJSONPath, "structured record input file")
	icsCmd.Flags().StringVar(&icsOut, "out", "", "calendar output file (default 课表-<UTC stamp>.ics)")
	icsCmd.Flags().StringVar(&icsAnchor, "anchor", "", "Monday of week 1, YYYYMMDD (overrides config)")
	icsCmd.Flags().IntVar(&icsAlarm, "alarm", -1, "reminder lead minutes, 0 disables (overrides config)")
	icsCmd.Flags().StringVar(&icsHolidays, "holidays", "", "holiday dataset file (overrides config)")

	rootCmd.AddCommand(fetchCmd, convertCmd, icsCmd)
	return rootCmd
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", configPath, err)
	}
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))
	return cfg, nil
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	url := fetchURL
	if url == "" {
		url = cfg.FetchURL
	}
	if url == "" {
		return fmt.Errorf("no timetable URL: pass --url or set fetch_url in %s", configPath)
	}

	appLog.Info("capturing timetable page", "url", url, "out", fetchOut)
	_, err = fetch.TimetableHTML(context.Background(), fetch.Options{
		URL:          url,
		OutputPath:   fetchOut,
		WaitSelector: cfg.WaitSelector,
		Timeout:      time.Duration(cfg.FetchTimeoutSec) * time.Second,
	})
	if err != nil {
		return err
	}
	appLog.Info("timetable page saved", "path", fetchOut)
	return nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	f, err := os.Open(convertIn)
	if err != nil {
		return fmt.Errorf("open timetable HTML: %w", err)
	}
	defer f.Close()

	rules := make([]timetable.RewriteRule, 0, len(cfg.BuildingRewrites))
	for _, r := range cfg.BuildingRewrites {
		rules = append(rules, timetable.RewriteRule{Prefix: r.Prefix, Template: r.Template})
	}

	raw, err := timetable.NewExtractor(rules).ExtractHTML(f)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return fmt.Errorf("no session cells found in %s", convertIn)
	}

	repo := schedule.New(timetable.Merge(raw))
	appLog.Info("parsed timetable", "cell_count", len(raw), "course_count", repo.Len())

	fmt.Print(repo.DisplayText())

	if err := schedule.WriteRecords(convertJSON, repo.Records()); err != nil {
		return err
	}
	appLog.Info("course records saved", "path", convertJSON)

	if convertText != "" {
		if err := os.WriteFile(convertText, []byte(repo.DisplayText()), 0o644); err != nil {
			return fmt.Errorf("write text timetable: %w", err)
		}
		appLog.Info("text timetable saved", "path", convertText)
	}
	return nil
}

func runICS(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if icsAnchor != "" {
		cfg.AnchorDate = icsAnchor
	}
	if icsAlarm >= 0 {
		cfg.AlarmMinutes = icsAlarm
	}
	if icsHolidays != "" {
		cfg.HolidayFile = icsHolidays
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	// The anchor date is validated before anything else runs.
	anchor, err := cfg.Anchor(loc)
	if err != nil {
		return err
	}

	records, err := schedule.ReadRecords(icsIn)
	if err != nil {
		return fmt.Errorf("read course records: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("no courses in %s, nothing to generate", icsIn)
	}

	sessions := make([]model.CourseSession, 0, len(records))
	for _, rec := range records {
		s, err := rec.Session()
		if err != nil {
			return err
		}
		sessions = append(sessions, s)
	}

	oracle := holiday.None()
	if cfg.HolidayFile != "" {
		oracle, err = holiday.Load(cfg.HolidayFile)
		if err != nil {
			return err
		}
	} else {
		appLog.Info("no holiday dataset configured, no dates will be excluded")
	}

	periods := make(map[int]ical.Slot, len(cfg.Periods))
	for n, s := range cfg.Periods {
		periods[n] = ical.Slot{Start: s.Start, End: s.End}
	}

	emitter := ical.New(ical.Options{
		TZID:          cfg.Timezone,
		TZOffset:      cfg.TZOffset,
		TZName:        cfg.TZName,
		CalendarName:  cfg.CalendarName,
		CalendarColor: cfg.CalendarColor,
		Periods:       periods,
		AlarmMinutes:  cfg.AlarmMinutes,
	})

	out := icsOut
	if out == "" {
		out = emitter.DefaultFilename()
	}
	return emitter.WriteFile(out, sessions, anchor, oracle)
}
