package config

import (
	"errors"
	"io/fs"
	"os"
	"reflect"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"icsconv/internal/atomicfile"
	apperr "icsconv/internal/errors"
)

const (
	defaultFormat             = "simple"
	defaultLogLevel           = "info"
	defaultUnbounded          = "reject"
	defaultMaxOccurrences     = 5000
	defaultHTTPTimeoutSeconds = 15
)

// ColumnConfig is one column of the custom format.
type ColumnConfig struct {
	// Field is a column name such as "DTSTART:DAY" or "ATTENDEE:CN:RSVP:TRUE".
	Field string `yaml:"field" validate:"required"`
	// Header defaults to Field.
	Header string `yaml:"header,omitempty"`
}

// RecurrenceConfig controls RRULE expansion.
type RecurrenceConfig struct {
	// Unbounded decides what happens to rules with neither COUNT nor UNTIL:
	//   - "reject" (default): abort the run
	//   - "truncate": keep the first MaxOccurrences occurrences
	Unbounded string `yaml:"unbounded" env:"ICSCONV_UNBOUNDED" validate:"oneof=reject truncate"`

	MaxOccurrences int `yaml:"max_occurrences" env:"ICSCONV_MAX_OCCURRENCES" validate:"gt=0"`
}

// Config is the conversion configuration. Empty format-related values mean
// "use the format's default".
type Config struct {
	// Format is the output profile: simple, garoon, outlookclassic, cmpouga,
	// omitdescription, debug1 or custom.
	Format string `yaml:"format" env:"ICSCONV_FORMAT" validate:"oneof=simple garoon outlookclassic cmpouga omitdescription debug1 custom"`

	// Columns defines the custom format.
	Columns []ColumnConfig `yaml:"columns,omitempty" validate:"dive"`

	Encoding       string `yaml:"encoding,omitempty" env:"ICSCONV_ENCODING" validate:"omitempty,oneof=utf_8 utf_8_sig shift_jis"`
	Timezone       string `yaml:"timezone,omitempty" env:"ICSCONV_TIMEZONE"`
	AllDayFormat   string `yaml:"allday_format,omitempty" env:"ICSCONV_ALLDAY_FORMAT" validate:"omitempty,oneof=today nextday addtime todayremtime nextdayremtime"`
	DateTimeFormat string `yaml:"datetime_format,omitempty" env:"ICSCONV_DATETIME_FORMAT" validate:"omitempty,oneof=slash_ymd basic extended"`
	ShowTimezone   bool   `yaml:"show_timezone" env:"ICSCONV_SHOW_TIMEZONE"`

	PrintHeader bool `yaml:"print_header" env:"ICSCONV_PRINT_HEADER"`
	DisableSort bool `yaml:"disable_sort" env:"ICSCONV_DISABLE_SORT"`

	DisableSplitSummary bool `yaml:"disable_split_summary" env:"ICSCONV_DISABLE_SPLIT_SUMMARY"`
	ExtendSummaryHead   bool `yaml:"extend_summary_head" env:"ICSCONV_EXTEND_SUMMARY_HEAD"`
	// AddSummaryHeads is a comma or colon separated list of extra labels.
	AddSummaryHeads string `yaml:"add_summary_heads,omitempty" env:"ICSCONV_ADD_SUMMARY_HEADS"`

	ShowTeamsInformation bool `yaml:"show_teams_information" env:"ICSCONV_SHOW_TEAMS_INFORMATION"`
	// DescriptionMaxLines truncates descriptions; 0 keeps every line.
	DescriptionMaxLines int  `yaml:"description_max_lines" env:"ICSCONV_DESCRIPTION_MAX_LINES" validate:"gte=0"`
	RemoveTailCR        bool `yaml:"remove_tail_cr" env:"ICSCONV_REMOVE_TAIL_CR"`
	RegistrationNumber  bool `yaml:"registration_number" env:"ICSCONV_REGISTRATION_NUMBER"`

	DisableRecurrenceID  bool `yaml:"disable_recurrence_id" env:"ICSCONV_DISABLE_RECURRENCE_ID"`
	ShowHiddenSchedules  bool `yaml:"show_hidden_schedules" env:"ICSCONV_SHOW_HIDDEN_SCHEDULES"`
	DisableExDateFix     bool `yaml:"disable_exdate_fix" env:"ICSCONV_DISABLE_EXDATE_FIX"`
	DisableNaiveAwareFix bool `yaml:"disable_naive_aware_fix" env:"ICSCONV_DISABLE_NAIVE_AWARE_FIX"`

	Recurrence RecurrenceConfig `yaml:"recurrence"`

	// DebugUID restricts processing to one UID and logs every stage for it.
	DebugUID string `yaml:"debug_uid,omitempty" env:"ICSCONV_DEBUG_UID"`
	LogLevel string `yaml:"log_level" env:"ICSCONV_LOG_LEVEL" validate:"oneof=debug info warn warning error"`

	// CacheDir holds conditional-GET caches of remote calendars; empty
	// disables caching.
	CacheDir           string `yaml:"cache_dir,omitempty" env:"ICSCONV_CACHE_DIR"`
	HTTPTimeoutSeconds int    `yaml:"http_timeout_seconds" env:"ICSCONV_HTTP_TIMEOUT_SECONDS" validate:"gt=0"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Format:   defaultFormat,
		LogLevel: defaultLogLevel,
		Recurrence: RecurrenceConfig{
			Unbounded:      defaultUnbounded,
			MaxOccurrences: defaultMaxOccurrences,
		},
		HTTPTimeoutSeconds: defaultHTTPTimeoutSeconds,
	}
}

// Normalize fills in zero values and canonicalizes spellings so that
// partially filled files behave like complete ones.
func (c *Config) Normalize() {
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	if c.Format == "" {
		c.Format = defaultFormat
	}
	c.Encoding = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(c.Encoding)), "-", "_")
	c.AllDayFormat = strings.ToLower(strings.TrimSpace(c.AllDayFormat))
	c.DateTimeFormat = strings.ToLower(strings.TrimSpace(c.DateTimeFormat))

	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}

	c.Recurrence.Unbounded = strings.ToLower(strings.TrimSpace(c.Recurrence.Unbounded))
	if c.Recurrence.Unbounded == "" {
		c.Recurrence.Unbounded = defaultUnbounded
	}
	if c.Recurrence.MaxOccurrences <= 0 {
		c.Recurrence.MaxOccurrences = defaultMaxOccurrences
	}
	if c.HTTPTimeoutSeconds <= 0 {
		c.HTTPTimeoutSeconds = defaultHTTPTimeoutSeconds
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report yaml key names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		tag := fld.Tag.Get("yaml")
		if tag == "-" || tag == "" {
			return fld.Name
		}
		name, _, _ := strings.Cut(tag, ",")
		return name
	})
	return v
}

// Validate checks field values and cross-field rules. Failures are
// configuration errors naming the first offending key.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return apperr.Configurationf("config %s: invalid value %v (rule %s)", fe.Namespace(), fe.Value(), fe.Tag())
		}
		return apperr.Wrap(err, apperr.KindConfiguration, "config validation")
	}

	switch {
	case c.Format == "custom" && len(c.Columns) == 0:
		return apperr.Configurationf("format custom needs columns")
	case c.Format != "custom" && len(c.Columns) > 0:
		return apperr.Configurationf("columns are only used by format custom, not %q", c.Format)
	}
	return nil
}

// Load builds the configuration from defaults, the YAML file at path and
// ICSCONV_* environment variables, in that order.
//
// Behavior:
//   - path "" skips the file
//   - a missing file is created with the defaults (0600)
//   - the result is normalized and validated
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			if err := Save(path, cfg); err != nil {
				return nil, apperr.Wrapf(err, apperr.KindConfiguration, "create default config %s", path)
			}
		case err != nil:
			return nil, apperr.Wrapf(err, apperr.KindConfiguration, "read config %s", path)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, apperr.Wrapf(err, apperr.KindConfiguration, "parse config %s", path)
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, apperr.Wrap(err, apperr.KindConfiguration, "parse env")
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg as YAML to path atomically with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return atomicfile.Write(path, data, 0o600)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
