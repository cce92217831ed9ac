package config

import (
	_ "embed"
	"fmt"
	"os"

	"pubtagger/internal/models"

	"golang.org/x/net/idna"
	"gopkg.in/yaml.v2"
)

//go:embed tagging.yaml
var defaultTable []byte

// Entry is the value side of the augment mapping.
type Entry struct {
	Shortname string `yaml:"shortname"`
	Tag       string `yaml:"tag"`
}

// Mapping is an ordered domain -> Entry table. Setting an existing domain
// replaces its value but keeps its original position.
type Mapping struct {
	order      []string
	entries    map[string]Entry
	duplicates []string
}

// Set stores e under domain and reports whether an earlier value was replaced.
func (m *Mapping) Set(domain string, e Entry) bool {
	if m.entries == nil {
		m.entries = make(map[string]Entry)
	}
	_, replaced := m.entries[domain]
	if replaced {
		m.duplicates = append(m.duplicates, domain)
	} else {
		m.order = append(m.order, domain)
	}
	m.entries[domain] = e
	return replaced
}

func (m *Mapping) Get(domain string) (Entry, bool) {
	e, ok := m.entries[domain]
	return e, ok
}

func (m *Mapping) Len() int { return len(m.order) }

// Duplicates lists every domain that was set more than once, once per extra Set.
func (m *Mapping) Duplicates() []string { return m.duplicates }

// Entries returns the mapping flattened in iteration order.
func (m *Mapping) Entries() []models.Augment {
	out := make([]models.Augment, 0, len(m.order))
	for _, domain := range m.order {
		e := m.entries[domain]
		out = append(out, models.Augment{Domain: domain, Shortname: e.Shortname, Tag: e.Tag})
	}
	return out
}

// UnmarshalYAML decodes the mapping in document order. Repeated keys are
// kept and folded through Set rather than rejected.
func (m *Mapping) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw yaml.MapSlice
	if err := unmarshal(&raw); err != nil {
		return err
	}
	for _, item := range raw {
		domain, ok := item.Key.(string)
		if !ok {
			return fmt.Errorf("augment key %v is not a string", item.Key)
		}
		m.Set(domain, entryFromYAML(item.Value))
	}
	return nil
}

// entryFromYAML reads shortname and tag from a decoded value. Inside a
// MapSlice yaml.v2 decodes nested mappings as MapSlice as well.
func entryFromYAML(v interface{}) Entry {
	var e Entry
	set := func(key, val interface{}) {
		switch key {
		case "shortname":
			e.Shortname = scalar(val)
		case "tag":
			e.Tag = scalar(val)
		}
	}
	switch fields := v.(type) {
	case yaml.MapSlice:
		for _, item := range fields {
			set(item.Key, item.Value)
		}
	case map[interface{}]interface{}:
		for k, val := range fields {
			set(k, val)
		}
	}
	return e
}

func scalar(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

type Table struct {
	Blacklist []string `yaml:"blacklist"`
	Augment   Mapping  `yaml:"augment"`
}

func ParseTable(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse tagging table: %w", err)
	}
	return &t, nil
}

func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTable(data)
}

// DefaultTable parses the table compiled into the binary.
func DefaultTable() (*Table, error) {
	return ParseTable(defaultTable)
}

// Lint reports suspicious table contents. Nothing is rejected: entries with
// missing fields are still applied as they are.
func (t *Table) Lint() []string {
	var warnings []string

	blacklisted := make(map[string]bool, len(t.Blacklist))
	for _, domain := range t.Blacklist {
		if blacklisted[domain] {
			warnings = append(warnings, fmt.Sprintf("blacklist: %q listed twice", domain))
		}
		blacklisted[domain] = true
		if w := checkDomain(domain); w != "" {
			warnings = append(warnings, "blacklist: "+w)
		}
	}

	for _, domain := range t.Augment.Duplicates() {
		e, _ := t.Augment.Get(domain)
		warnings = append(warnings, fmt.Sprintf("augment: %q defined more than once, using shortname %q tag %q", domain, e.Shortname, e.Tag))
	}

	for _, a := range t.Augment.Entries() {
		if a.Shortname == "" {
			warnings = append(warnings, fmt.Sprintf("augment: %q has no shortname", a.Domain))
		}
		if a.Tag == "" {
			warnings = append(warnings, fmt.Sprintf("augment: %q has no tag", a.Domain))
		}
		if blacklisted[a.Domain] {
			warnings = append(warnings, fmt.Sprintf("augment: %q is blacklisted and will never match", a.Domain))
		}
		if w := checkDomain(a.Domain); w != "" {
			warnings = append(warnings, "augment: "+w)
		}
	}
	return warnings
}

// checkDomain reports a domain that is not already in IDNA lookup form.
// Matching against stored articles is exact, so such a domain is kept as is.
func checkDomain(domain string) string {
	ascii, err := idna.Lookup.ToASCII(domain)
	if err != nil {
		return fmt.Sprintf("%q is not a valid host name: %v", domain, err)
	}
	if ascii != domain {
		return fmt.Sprintf("%q is not canonical, stored articles likely use %q", domain, ascii)
	}
	return ""
}
