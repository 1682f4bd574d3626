package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/jing2uo/pricepanel/model"
)

const (
	DefaultPath      = "config/settings.yaml"
	DefaultInterval  = "1d"
	DefaultCalendar  = "B"
	DefaultFillLimit = 5
	envPrefix        = "PRICEPANEL"
)

// Settings is the ingest configuration. It is loaded once and passed by value.
type Settings struct {
	Tickers   []string       `yaml:"tickers"     validate:"required,min=1,dive,required"`
	Start     string         `yaml:"start"       validate:"omitempty,datetime=2006-01-02"`
	End       string         `yaml:"end"         validate:"omitempty,datetime=2006-01-02"`
	Interval  string         `yaml:"interval"    validate:"required"`
	Calendar  string         `yaml:"calendar"`
	FillLimit *int           `yaml:"ffill_limit" validate:"required,min=0"`
	Paths     PathsConfig    `yaml:"paths"`
	Columns   []string       `yaml:"columns"`
	Provider  ProviderConfig `yaml:"provider"`
	Exchange  ExchangeConfig `yaml:"exchange"`
	Workers   int            `yaml:"workers"     validate:"min=0"`
	LogLevel  string         `yaml:"log_level"   validate:"omitempty,oneof=debug info warn warning error"`
}

type PathsConfig struct {
	Raw       string `yaml:"raw"       validate:"required"`
	Processed string `yaml:"processed" validate:"required"`
	Database  string `yaml:"database"`
}

type ProviderConfig struct {
	Name    string        `yaml:"name"     validate:"omitempty,oneof=yahoo csv tdx"`
	BaseURL string        `yaml:"base_url" validate:"omitempty,url"`
	Dir     string        `yaml:"dir"      validate:"required_if=Name csv,required_if=Name tdx"`
	RPS     float64       `yaml:"rps"      validate:"min=0"`
	Timeout time.Duration `yaml:"timeout"  validate:"min=0"`
}

type ExchangeConfig struct {
	SessionsDir string `yaml:"sessions_dir"`
}

// envOverlay lists the settings that can be overridden from the environment,
// e.g. PRICEPANEL_LOG_LEVEL or PRICEPANEL_PATHS_DATABASE.
type envOverlay struct {
	Tickers   []string      `envconfig:"TICKERS"`
	Start     string        `envconfig:"START"`
	End       string        `envconfig:"END"`
	Calendar  string        `envconfig:"CALENDAR"`
	FillLimit *int          `envconfig:"FFILL_LIMIT"`
	Workers   int           `envconfig:"WORKERS"`
	LogLevel  string        `envconfig:"LOG_LEVEL"`
	Raw       string        `envconfig:"PATHS_RAW"`
	Processed string        `envconfig:"PATHS_PROCESSED"`
	Database  string        `envconfig:"PATHS_DATABASE"`
	Provider  string        `envconfig:"PROVIDER_NAME"`
	BaseURL   string        `envconfig:"PROVIDER_BASE_URL"`
	Dir       string        `envconfig:"PROVIDER_DIR"`
	RPS       float64       `envconfig:"PROVIDER_RPS"`
	Timeout   time.Duration `envconfig:"PROVIDER_TIMEOUT"`
	Sessions  string        `envconfig:"EXCHANGE_SESSIONS_DIR"`
}

// Load reads the YAML file at path, applies the environment overlay and
// defaults, then validates the result.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config: %w", err)
	}

	var env envOverlay
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return Settings{}, fmt.Errorf("failed to load config from env: %w", err)
	}
	s = merge(s, env)
	s.applyDefaults()

	if err := s.validate(); err != nil {
		return Settings{}, fmt.Errorf("config validation failed: %w", err)
	}
	return s, nil
}

// merge overrides file settings with any set environment value.
func merge(s Settings, env envOverlay) Settings {
	if len(env.Tickers) > 0 {
		s.Tickers = env.Tickers
	}
	setString(&s.Start, env.Start)
	setString(&s.End, env.End)
	setString(&s.Calendar, env.Calendar)
	setString(&s.LogLevel, env.LogLevel)
	setString(&s.Paths.Raw, env.Raw)
	setString(&s.Paths.Processed, env.Processed)
	setString(&s.Paths.Database, env.Database)
	setString(&s.Provider.Name, env.Provider)
	setString(&s.Provider.BaseURL, env.BaseURL)
	setString(&s.Provider.Dir, env.Dir)
	setString(&s.Exchange.SessionsDir, env.Sessions)
	if env.FillLimit != nil {
		s.FillLimit = env.FillLimit
	}
	if env.Workers != 0 {
		s.Workers = env.Workers
	}
	if env.RPS != 0 {
		s.Provider.RPS = env.RPS
	}
	if env.Timeout != 0 {
		s.Provider.Timeout = env.Timeout
	}
	return s
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func (s *Settings) applyDefaults() {
	if s.Interval == "" {
		s.Interval = DefaultInterval
	}
	if s.Calendar == "" {
		s.Calendar = DefaultCalendar
	}
	if s.FillLimit == nil {
		n := DefaultFillLimit
		s.FillLimit = &n
	}
	if s.Workers == 0 {
		s.Workers = runtime.NumCPU()
	}
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}
	if s.Provider.Name == "" {
		s.Provider.Name = "yahoo"
	}
	if s.Provider.RPS == 0 {
		s.Provider.RPS = 2
	}
	if s.Provider.Timeout == 0 {
		s.Provider.Timeout = 30 * time.Second
	}
	for i, c := range s.Columns {
		s.Columns[i] = strings.ToLower(strings.TrimSpace(c))
	}
}

var validate = validator.New()

func (s Settings) validate() error {
	if err := validate.Struct(s); err != nil {
		return err
	}

	seen := make(map[string]bool, len(s.Tickers))
	for _, t := range s.Tickers {
		if seen[t] {
			return fmt.Errorf("duplicate ticker %q", t)
		}
		seen[t] = true
	}

	start, end, err := s.DateRange()
	if err != nil {
		return err
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return fmt.Errorf("end %s is before start %s", s.End, s.Start)
	}

	if len(s.Columns) > 0 && len(model.ParseFields(s.Columns)) == 0 {
		return fmt.Errorf("columns %v select no known field", s.Columns)
	}
	return nil
}

// DateRange parses start and end. Unset bounds are zero.
func (s Settings) DateRange() (start, end time.Time, err error) {
	if s.Start != "" {
		if start, err = time.Parse(model.DateLayout, s.Start); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start %q: %w", s.Start, err)
		}
	}
	if s.End != "" {
		if end, err = time.Parse(model.DateLayout, s.End); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end %q: %w", s.End, err)
		}
	}
	return start, end, nil
}

func (s Settings) Limit() int {
	if s.FillLimit == nil {
		return DefaultFillLimit
	}
	return *s.FillLimit
}

func (s Settings) CalendarPolicy() model.CalendarPolicy {
	return model.ParseCalendarPolicy(s.Calendar)
}

func (s Settings) Fields() []model.Field {
	return model.ParseFields(s.Columns)
}
