package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"icsconv/internal/config"
	apperr "icsconv/internal/errors"
	"icsconv/internal/format"
	"icsconv/internal/ics"
	appLog "icsconv/internal/log"
	"icsconv/internal/pipeline"
)

const version = "1.4.0"

// flagConfig holds CLI flag values. Only flags given on the command line
// override the configuration (see applyFlags).
type flagConfig struct {
	configPath  string
	writeConfig bool

	format         string
	encoding       string
	timezone       string
	allDayFormat   string
	dateTimeFormat string
	showTimezone   bool

	printHeader bool
	disableSort bool

	disableSplitSummary bool
	extendSummaryHead   bool
	addSummaryHeads     string

	showTeams          bool
	descriptionLines   int
	removeTailCR       bool
	registrationNumber bool

	disableRecurrenceID  bool
	showHidden           bool
	disableExDateFix     bool
	disableNaiveAwareFix bool
	unbounded            string

	debugUID string
	logLevel string
	cacheDir string
}

func main() {
	os.Exit(run())
}

func run() int {
	flags := parseFlags()
	if flag.NArg() != 3 {
		flag.Usage()
		return 1
	}
	rangeArg, input, output := flag.Arg(0), flag.Arg(1), flag.Arg(2)

	conf, err := config.Load(flags.configPath)
	if err != nil {
		logFailure("failed to load config", err, "config_path", flags.configPath)
		return 1
	}
	applyFlags(conf, flags)
	conf.Normalize()
	if err := conf.Validate(); err != nil {
		logFailure("invalid options", err)
		return 1
	}

	level, ok := appLog.ParseLevel(conf.LogLevel)
	if !ok {
		appLog.Warn("unknown log level; using info", "log_level", conf.LogLevel)
	}
	if conf.DebugUID != "" {
		level = appLog.LevelDebug
	}
	appLog.SetLevel(level)

	if flags.writeConfig {
		if flags.configPath == "" {
			logFailure("failed to save config", apperr.Configurationf("-write-config needs -config"))
			return 1
		}
		if err := conf.Save(flags.configPath); err != nil {
			logFailure("failed to save config", err, "config_path", flags.configPath)
			return 1
		}
		appLog.Info("config saved", "config_path", flags.configPath)
	}

	opts, err := pipeline.FromConfig(conf)
	if err != nil {
		logFailure("invalid options", err)
		return 1
	}
	tr, err := pipeline.ParseTimeRange(rangeArg, input, output)
	if err != nil {
		logFailure("invalid time range", err, "range", rangeArg)
		return 1
	}

	appLog.Info("icsconv starting",
		"version", version,
		"format", opts.Profile.Name,
		"encoding", opts.Profile.Encoding,
		"allday_format", opts.Row.Policy.AllDay,
		"datetime_format", opts.Row.Policy.Date,
		"range", tr,
		"input", input,
		"output", output,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loader := ics.NewLoader(conf.CacheDir, time.Duration(conf.HTTPTimeoutSeconds)*time.Second)
	data, err := loader.Load(ctx, input)
	if err != nil {
		logFailure("failed to read input", err, "input", input)
		return 1
	}

	res, err := pipeline.Convert(data, tr, opts)
	if err != nil {
		logFailure("conversion failed", err, "input", input)
		return 1
	}
	if err := pipeline.Write(output, res, opts.Profile.Encoding); err != nil {
		logFailure("failed to write output", err, "output", output)
		return 1
	}

	summary := []any{
		"rows", len(res.Rows),
		"overrides_matched", res.Report.Matched,
		"overrides_unmatched", len(res.Report.Unmatched),
		"overrides_dangling", len(res.Report.Dangling),
	}
	if res.Report.Failed() > 0 {
		appLog.Warn("some overrides were not applied", summary...)
	}
	appLog.Info("icsconv done", summary...)
	return 0
}

// logFailure logs err with its kind and, when known, the offending UID.
func logFailure(msg string, err error, kv ...any) {
	kv = append(kv, "kind", apperr.KindOf(err))
	if e, ok := apperr.As(err); ok && e.UID() != "" {
		kv = append(kv, "uid", e.UID())
	}
	appLog.Error(msg, err, kv...)
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "", "Path to config file (created with defaults when missing)")
	flag.BoolVar(&cfg.writeConfig, "write-config", false, "Save the effective configuration to -config")

	flag.StringVar(&cfg.format, "format", "", "Output format: "+strings.Join(format.ProfileNames(), ", "))
	flag.StringVar(&cfg.encoding, "encoding", "", "Output encoding: utf_8, utf_8_sig, shift_jis")
	flag.StringVar(&cfg.timezone, "timezone", "", "Zone override (VTIMEZONE TZID or IANA name)")
	flag.StringVar(&cfg.allDayFormat, "allday-format", "", "All-day rendering: today, nextday, addtime, todayremtime, nextdayremtime")
	flag.StringVar(&cfg.dateTimeFormat, "datetime-format", "", "Date layout: slash_ymd, basic, extended")
	flag.BoolVar(&cfg.showTimezone, "show-timezone", false, "Append the UTC offset to times")

	flag.BoolVar(&cfg.printHeader, "print-header", false, "Write the header row")
	flag.BoolVar(&cfg.disableSort, "disable-sort", false, "Keep declaration order")

	flag.BoolVar(&cfg.disableSplitSummary, "disable-split-summary", false, "Do not split \"label:summary\"")
	flag.BoolVar(&cfg.extendSummaryHead, "extend-summary-head", false, "Add the extended summary labels")
	flag.StringVar(&cfg.addSummaryHeads, "add-summary-heads", "", "Extra summary labels, comma or colon separated")

	flag.BoolVar(&cfg.showTeams, "show-teams-information", false, "Keep meeting-join footers in descriptions")
	flag.IntVar(&cfg.descriptionLines, "description-max-lines", 0, "Keep at most N description lines (0 keeps all)")
	flag.BoolVar(&cfg.removeTailCR, "remove-tail-cr", false, "Strip trailing whitespace from every field")
	flag.BoolVar(&cfg.registrationNumber, "registration-number", false, "Copy the summary's registration number into the description")

	flag.BoolVar(&cfg.disableRecurrenceID, "disable-recurrence-id", false, "Emit RECURRENCE-ID events as ordinary rows")
	flag.BoolVar(&cfg.showHidden, "show-hidden-schedules", false, "Keep replaced occurrences, prefixed with \"Hidden: \"")
	flag.BoolVar(&cfg.disableExDateFix, "disable-exdate-fix", false, "Do not repair date-only EXDATE lines")
	flag.BoolVar(&cfg.disableNaiveAwareFix, "disable-naive-aware-fix", false, "Do not promote floating DTSTART when UNTIL is UTC")
	flag.StringVar(&cfg.unbounded, "unbounded", "", "Rules without COUNT/UNTIL: reject or truncate")

	flag.StringVar(&cfg.debugUID, "debug-uid", "", "Process only this UID and log every stage")
	flag.StringVar(&cfg.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.StringVar(&cfg.cacheDir, "cache-dir", "", "Cache directory for http(s) input")

	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, "usage: %s [flags] RANGE INPUT OUTPUT\n\n", os.Args[0])
		fmt.Fprintln(out, "RANGE:  0 | all | YYYYMM | guess | guessin")
		fmt.Fprintln(out, "INPUT:  file, - (stdin) or http(s) URL")
		fmt.Fprintln(out, "OUTPUT: file or - (stdout)")
		fmt.Fprintln(out)
		flag.PrintDefaults()
	}

	flag.Parse()

	return cfg
}

// applyFlags copies explicitly set flags over conf.
func applyFlags(conf *config.Config, f flagConfig) {
	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "format":
			conf.Format = f.format
			if conf.Format != format.CustomProfile {
				conf.Columns = nil
			}
		case "encoding":
			conf.Encoding = f.encoding
		case "timezone":
			conf.Timezone = f.timezone
		case "allday-format":
			conf.AllDayFormat = f.allDayFormat
		case "datetime-format":
			conf.DateTimeFormat = f.dateTimeFormat
		case "show-timezone":
			conf.ShowTimezone = f.showTimezone
		case "print-header":
			conf.PrintHeader = f.printHeader
		case "disable-sort":
			conf.DisableSort = f.disableSort
		case "disable-split-summary":
			conf.DisableSplitSummary = f.disableSplitSummary
		case "extend-summary-head":
			conf.ExtendSummaryHead = f.extendSummaryHead
		case "add-summary-heads":
			conf.AddSummaryHeads = f.addSummaryHeads
		case "show-teams-information":
			conf.ShowTeamsInformation = f.showTeams
		case "description-max-lines":
			conf.DescriptionMaxLines = f.descriptionLines
		case "remove-tail-cr":
			conf.RemoveTailCR = f.removeTailCR
		case "registration-number":
			conf.RegistrationNumber = f.registrationNumber
		case "disable-recurrence-id":
			conf.DisableRecurrenceID = f.disableRecurrenceID
		case "show-hidden-schedules":
			conf.ShowHiddenSchedules = f.showHidden
		case "disable-exdate-fix":
			conf.DisableExDateFix = f.disableExDateFix
		case "disable-naive-aware-fix":
			conf.DisableNaiveAwareFix = f.disableNaiveAwareFix
		case "unbounded":
			conf.Recurrence.Unbounded = f.unbounded
		case "debug-uid":
			conf.DebugUID = f.debugUID
		case "log-level":
			conf.LogLevel = f.logLevel
		case "cache-dir":
			conf.CacheDir = f.cacheDir
		}
	})
}
