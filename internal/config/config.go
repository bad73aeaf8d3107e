package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the monitoring host keeps the queue list.
const DefaultPath = "/usr/lib64/nagios/plugins/wmq_queues_list.conf"

// Field names shared by every supported file format.
const (
	FieldWarning  = "warning_depth"
	FieldCritical = "critical_depth"
)

// QueueThreshold holds the depth bounds for one monitored queue.
type QueueThreshold struct {
	// Queue is the queue name, or a generic name ending in '*'.
	Queue string

	// Warning is the depth at which the queue becomes WARNING.
	Warning int

	// Critical is the depth at which the queue becomes CRITICAL.
	Critical int
}

// IsGeneric reports whether Queue is a generic name such as "APP.*".
func (q QueueThreshold) IsGeneric() bool {
	return strings.HasSuffix(q.Queue, "*")
}

// Config is the parsed queue list.
type Config struct {
	// Queues holds the valid entries in file order.
	Queues []QueueThreshold

	// Skipped collects one *ParseError per entry left out of Queues.
	// Nil when every entry parsed.
	Skipped *multierror.Error
}

// ParseError describes a queue entry excluded because a threshold is
// missing, not an integer, or negative.
type ParseError struct {
	Queue string
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("queue %q: %s: %v", e.Queue, e.Field, e.Err)
	}
	return fmt.Sprintf("queue %q: %s=%q: %v", e.Queue, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var (
	errMissing  = errors.New("missing")
	errNegative = errors.New("must not be negative")
)

// section is one queue entry before validation, common to YAML and INI.
type section struct {
	name   string
	fields map[string]string
}

// Load reads the queue list at path. Files ending in .yaml or .yml are parsed
// as YAML, anything else as INI (the historical .conf format).
//
// Only an unreadable or syntactically broken file is an error. Malformed
// entries are skipped and reported through Config.Skipped.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	var sections []section
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		sections, err = parseYAML(data)
	default:
		sections, err = parseINI(data)
	}
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return build(sections), nil
}

// build validates each section, keeping file order.
func build(sections []section) *Config {
	cfg := &Config{}
	seen := make(map[string]bool, len(sections))
	for _, s := range sections {
		if seen[s.name] {
			cfg.Skipped = multierror.Append(cfg.Skipped,
				&ParseError{Queue: s.name, Field: "section", Err: errors.New("duplicate entry")})
			continue
		}
		seen[s.name] = true

		qt, err := parseSection(s)
		if err != nil {
			cfg.Skipped = multierror.Append(cfg.Skipped, err)
			continue
		}
		cfg.Queues = append(cfg.Queues, qt)
	}
	return cfg
}

func parseSection(s section) (QueueThreshold, error) {
	warning, err := parseDepth(s, FieldWarning)
	if err != nil {
		return QueueThreshold{}, err
	}
	critical, err := parseDepth(s, FieldCritical)
	if err != nil {
		return QueueThreshold{}, err
	}
	return QueueThreshold{Queue: s.name, Warning: warning, Critical: critical}, nil
}

func parseDepth(s section, field string) (int, error) {
	raw, ok := s.fields[field]
	if !ok {
		return 0, &ParseError{Queue: s.name, Field: field, Err: errMissing}
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &ParseError{Queue: s.name, Field: field, Value: raw, Err: err}
	}
	if v < 0 {
		return 0, &ParseError{Queue: s.name, Field: field, Value: raw, Err: errNegative}
	}
	return v, nil
}

// parseYAML reads a top-level mapping of queue name to field mapping:
//
//	APP.ORDERS:
//	  warning_depth: 100
//	  critical_depth: 500
//
// The document is walked as a yaml.Node so entry order is preserved.
func parseYAML(data []byte) ([]section, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse yaml: line %d: top level must be a mapping of queue names", root.Line)
	}

	sections := make([]section, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		s := section{name: key.Value, fields: make(map[string]string)}
		// A non-mapping value leaves fields empty; build reports it as missing.
		if val.Kind == yaml.MappingNode {
			for j := 0; j+1 < len(val.Content); j += 2 {
				s.fields[strings.ToLower(val.Content[j].Value)] = val.Content[j+1].Value
			}
		}
		sections = append(sections, s)
	}
	return sections, nil
}

// parseINI reads [QUEUE] sections. Keys from the DEFAULT section are
// inherited by every queue section unless overridden.
func parseINI(data []byte) ([]section, error) {
	f, err := ini.LoadSources(ini.LoadOptions{InsensitiveKeys: true}, data)
	if err != nil {
		return nil, fmt.Errorf("parse ini: %w", err)
	}

	defaults := f.Section(ini.DefaultSection).KeysHash()

	var sections []section
	for _, sec := range f.Sections() {
		if sec.Name() == ini.DefaultSection {
			continue
		}
		fields := make(map[string]string, len(defaults)+2)
		for k, v := range defaults {
			fields[k] = v
		}
		for k, v := range sec.KeysHash() {
			fields[k] = v
		}
		sections = append(sections, section{name: sec.Name(), fields: fields})
	}
	return sections, nil
}
