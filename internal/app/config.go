package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/cellgrid/internal/engine"
)

// Defaults applied when neither a flag nor the config file sets a value.
const (
	DefaultSheet     = "Sheet1"
	DefaultLogFormat = "text"
	DefaultLogLevel  = "warn"
	DefaultExtension = ".cell"
)

// Cell is one script to evaluate and the cell it is evaluated in.
type Cell struct {
	Ref  string
	Path string
}

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	WorkbookPath string // optional .xlsx file to read from
	Sheet        string
	Cells        []Cell

	CommentMarker string
	VerboseErrors bool
	FailOnError   bool

	LogFormat string
	LogLevel  string
}

// NewConfig fills defaults and validates cfg.
func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.Cells) == 0 {
		return nil, errors.New("at least one cell script is required")
	}
	if cfg.Sheet == "" {
		cfg.Sheet = DefaultSheet
	}
	if cfg.CommentMarker == "" {
		cfg.CommentMarker = engine.DefaultCommentMarker
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = DefaultLogFormat
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(cfg.Cells))
	for _, c := range cfg.Cells {
		if c.Ref == "" || c.Path == "" {
			return nil, fmt.Errorf("cell %q has an empty reference or path", c.Ref+"="+c.Path)
		}
		key := strings.ToUpper(c.Ref)
		if seen[key] {
			return nil, fmt.Errorf("cell %s is given more than once", c.Ref)
		}
		seen[key] = true
	}
	return &cfg, nil
}

// FileConfig is the optional HCL config file:
//
//	workbook       = "book.xlsx"
//	sheet          = "Data"
//	comment_marker = "#"
//	verbose_errors = true
//	fail_on_error  = false
//	log {
//	  level  = "debug"
//	  format = "json"
//	}
type FileConfig struct {
	Workbook      *string        `hcl:"workbook,optional"`
	Sheet         *string        `hcl:"sheet,optional"`
	CommentMarker *string        `hcl:"comment_marker,optional"`
	VerboseErrors *bool          `hcl:"verbose_errors,optional"`
	FailOnError   *bool          `hcl:"fail_on_error,optional"`
	Log           *fileLogConfig `hcl:"log,block"`
}

type fileLogConfig struct {
	Level  *string `hcl:"level,optional"`
	Format *string `hcl:"format,optional"`
}

// LoadFile parses and decodes an HCL config file.
func LoadFile(path string) (*FileConfig, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, diags)
	}
	var fc FileConfig
	if diags := gohcl.DecodeBody(f.Body, nil, &fc); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode config file %s: %w", path, diags)
	}
	return &fc, nil
}

// Apply copies every value set in the file into cfg.
func (fc *FileConfig) Apply(cfg *Config) {
	if fc == nil {
		return
	}
	setString(&cfg.WorkbookPath, fc.Workbook)
	setString(&cfg.Sheet, fc.Sheet)
	setString(&cfg.CommentMarker, fc.CommentMarker)
	if fc.VerboseErrors != nil {
		cfg.VerboseErrors = *fc.VerboseErrors
	}
	if fc.FailOnError != nil {
		cfg.FailOnError = *fc.FailOnError
	}
	if fc.Log != nil {
		setString(&cfg.LogLevel, fc.Log.Level)
		setString(&cfg.LogFormat, fc.Log.Format)
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
