// Package config holds the declarative layout configuration consumed by
// every pipeline stage.
//
// Detection thresholds, day-name vocabularies, rasterization settings and
// calendar settings all live here so new document families can be supported
// by editing a YAML file rather than the detection code.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// maxPageSegMode is the highest Tesseract page segmentation mode
const maxPageSegMode = 13

// Config is the full value-set read by the pipeline. It is passed by value
// and never mutated by the stages.
type Config struct {
	Box      BoxConfig      `yaml:"box"`
	Document DocumentConfig `yaml:"document"`
	Layout   LayoutConfig   `yaml:"layout"`
	Extract  ExtractConfig  `yaml:"extract"`
	Calendar CalendarConfig `yaml:"calendar"`
}

// BoxConfig controls table cell detection
type BoxConfig struct {
	MinWidth      int     `yaml:"min_width"`
	MinHeight     int     `yaml:"min_height"`
	MinAreaPDF    int     `yaml:"min_area_pdf"`
	MinAreaImage  int     `yaml:"min_area_image"`
	MaxArea       int     `yaml:"max_area"`
	MinAspect     float64 `yaml:"min_aspect"`
	MaxAspect     float64 `yaml:"max_aspect"`
	IoUThreshold  float64 `yaml:"iou_threshold"`
	KernelDivisor int     `yaml:"kernel_divisor"`
	WallPasses    int     `yaml:"wall_passes"` // 3x3 wall thickening iterations
}

// DocumentConfig controls validation, rasterization and page merging
type DocumentConfig struct {
	DPI                  float64  `yaml:"dpi"`
	MaxPages             int      `yaml:"max_pages"`
	VerticalLineMinLen   int      `yaml:"vertical_line_min_length"`
	MinVerticalLines     int      `yaml:"min_vertical_lines"`
	HeaderSearchFraction float64  `yaml:"header_search_fraction"`
	RuleDensity          float64  `yaml:"rule_density"` // Fraction of width that must be dark for a horizontal rule
	RuleOffset           int      `yaml:"rule_offset"`  // Pixels skipped below the header rule when cropping page two
	HeaderPadding        int      `yaml:"header_padding"`
	AnchorSearchFraction float64  `yaml:"anchor_search_fraction"`
	KeywordPadding       int      `yaml:"keyword_padding"`
	AnchorWords          []string `yaml:"anchor_words"`
	PageSegMode          int      `yaml:"page_seg_mode"` // Tesseract mode for the whole-page anchor search
}

// LayoutConfig controls day/time classification
type LayoutConfig struct {
	// Locales maps a locale name to its seven day names, Monday first.
	Locales          map[string][]string `yaml:"locales"`
	DayMatchDistance int                 `yaml:"day_match_distance"`
	StopAfterDays    int                 `yaml:"stop_after_days"`
	ColumnTolerance  int                 `yaml:"column_tolerance"`
	ColumnExtension  int                 `yaml:"column_extension"`
}

// ExtractConfig controls the OCR worker pool
type ExtractConfig struct {
	Workers     int    `yaml:"workers"`
	CropPad     int    `yaml:"crop_pad"`
	Languages   string `yaml:"languages"`     // Tesseract languages, e.g. "eng+fra"
	PageSegMode int    `yaml:"page_seg_mode"` // Tesseract mode for cell crops
}

// CalendarConfig controls feed generation
type CalendarConfig struct {
	Weeks           int               `yaml:"weeks"`
	DefaultTimezone string            `yaml:"default_timezone"`
	Timezones       map[string]string `yaml:"timezones"`
	UIDDomain       string            `yaml:"uid_domain"`
	ProductID       string            `yaml:"product_id"`
}

// Default returns the configuration used for browser-exported university
// schedules.
func Default() Config {
	return Config{
		Box: BoxConfig{
			MinWidth:      50,
			MinHeight:     20,
			MinAreaPDF:    20000,
			MinAreaImage:  2000,
			MaxArea:       800000,
			MinAspect:     0.2,
			MaxAspect:     10.0,
			IoUThreshold:  0.1,
			KernelDivisor: 80,
			WallPasses:    2,
		},
		Document: DocumentConfig{
			DPI:                  300,
			MaxPages:             2,
			VerticalLineMinLen:   100,
			MinVerticalLines:     3,
			HeaderSearchFraction: 0.3,
			RuleDensity:          0.3,
			RuleOffset:           5,
			HeaderPadding:        10,
			AnchorSearchFraction: 0.25,
			KeywordPadding:       100,
			AnchorWords:          []string{"THURSDAY", "JEUDI"},
			PageSegMode:          11,
		},
		Layout: LayoutConfig{
			Locales: map[string][]string{
				"en": {"MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY", "SUNDAY"},
				"fr": {"LUNDI", "MARDI", "MERCREDI", "JEUDI", "VENDREDI", "SAMEDI", "DIMANCHE"},
			},
			DayMatchDistance: 1,
			StopAfterDays:    5,
			ColumnTolerance:  10,
			ColumnExtension:  20,
		},
		Extract: ExtractConfig{
			Workers:     8,
			CropPad:     2,
			Languages:   "eng",
			PageSegMode: 6,
		},
		Calendar: CalendarConfig{
			Weeks:           19,
			DefaultTimezone: "KSA",
			Timezones: map[string]string{
				"KSA": "Asia/Riyadh",
				"ALG": "Africa/Algiers",
			},
			UIDDomain: "university.edu",
			ProductID: "-//University Schedule//",
		},
	}
}

// Load reads a YAML layout file over the defaults. Keys missing from the
// file keep their default value.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// FromEnv overlays TIMETABLE_* environment variables (after loading a .env
// file when present) on top of cfg.
func FromEnv(cfg Config) (Config, error) {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	cfg.Document.DPI = getEnvAsFloat("TIMETABLE_DPI", cfg.Document.DPI)
	cfg.Document.MaxPages = getEnvAsInt("TIMETABLE_MAX_PAGES", cfg.Document.MaxPages)
	cfg.Extract.Workers = getEnvAsInt("TIMETABLE_WORKERS", cfg.Extract.Workers)
	cfg.Extract.Languages = getEnv("TIMETABLE_OCR_LANGUAGES", cfg.Extract.Languages)
	cfg.Extract.PageSegMode = getEnvAsInt("TIMETABLE_PAGE_SEG_MODE", cfg.Extract.PageSegMode)
	cfg.Calendar.Weeks = getEnvAsInt("TIMETABLE_WEEKS", cfg.Calendar.Weeks)
	cfg.Calendar.DefaultTimezone = getEnv("TIMETABLE_DEFAULT_TIMEZONE", cfg.Calendar.DefaultTimezone)
	cfg.Calendar.UIDDomain = getEnv("TIMETABLE_UID_DOMAIN", cfg.Calendar.UIDDomain)
	if words := getEnv("TIMETABLE_ANCHOR_WORDS", ""); words != "" {
		cfg.Document.AnchorWords = strings.Split(words, ",")
	}

	return cfg, cfg.Validate()
}

// Validate reports inconsistent settings
func (c Config) Validate() error {
	var errs []error
	if c.Box.MinWidth <= 0 || c.Box.MinHeight <= 0 {
		errs = append(errs, errors.New("box min width/height must be positive"))
	}
	if c.Box.MaxArea <= c.Box.MinAreaImage || c.Box.MaxArea <= c.Box.MinAreaPDF {
		errs = append(errs, errors.New("box max area must exceed the min areas"))
	}
	if c.Box.MinAspect <= 0 || c.Box.MaxAspect <= c.Box.MinAspect {
		errs = append(errs, errors.New("box aspect window is empty"))
	}
	if c.Box.IoUThreshold < 0 || c.Box.IoUThreshold > 1 {
		errs = append(errs, fmt.Errorf("iou threshold %v outside [0, 1]", c.Box.IoUThreshold))
	}
	if c.Box.KernelDivisor <= 0 {
		errs = append(errs, errors.New("kernel divisor must be positive"))
	}
	if c.Document.DPI <= 0 {
		errs = append(errs, errors.New("dpi must be positive"))
	}
	if c.Document.MaxPages < 1 {
		errs = append(errs, errors.New("max pages must be at least 1"))
	}
	if len(c.Document.AnchorWords) == 0 {
		errs = append(errs, errors.New("at least one anchor word is required"))
	}
	for name, days := range c.Layout.Locales {
		if len(days) != 7 {
			errs = append(errs, fmt.Errorf("locale %q must list 7 day names, got %d", name, len(days)))
		}
	}
	if len(c.Layout.Locales) == 0 {
		errs = append(errs, errors.New("at least one locale is required"))
	}
	if c.Extract.Workers < 1 {
		errs = append(errs, errors.New("workers must be at least 1"))
	}
	for _, mode := range []int{c.Document.PageSegMode, c.Extract.PageSegMode} {
		if mode < 0 || mode > maxPageSegMode {
			errs = append(errs, fmt.Errorf("page segmentation mode %d outside [0, %d]", mode, maxPageSegMode))
		}
	}
	if c.Calendar.Weeks < 1 {
		errs = append(errs, errors.New("weeks must be at least 1"))
	}
	if _, ok := c.Calendar.Timezones[c.Calendar.DefaultTimezone]; !ok {
		errs = append(errs, fmt.Errorf("default timezone %q is not in the timezone map", c.Calendar.DefaultTimezone))
	}
	return errors.Join(errs...)
}

// Weekday returns the weekday index (0 = Monday) for a day label in any
// configured locale.
func (l LayoutConfig) Weekday(label string) (int, bool) {
	label = strings.ToUpper(strings.TrimSpace(label))
	for _, locale := range l.LocaleNames() {
		for i, d := range l.Locales[locale] {
			if strings.ToUpper(d) == label {
				return i, true
			}
		}
	}
	return 0, false
}

// DayNames returns every configured day name across all locales
func (l LayoutConfig) DayNames() []string {
	var names []string
	for _, locale := range l.LocaleNames() {
		names = append(names, l.Locales[locale]...)
	}
	return names
}

// LocaleNames returns the configured locale names in sorted order
func (l LayoutConfig) LocaleNames() []string {
	names := make([]string, 0, len(l.Locales))
	for name := range l.Locales {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}
