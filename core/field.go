package core

import (
	"strings"
	"unicode"

	"github.com/iancoleman/strcase"
)

// FieldInfo represents metadata about a backend record field
type FieldInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	ReadOnly    bool   `json:"read_only"`
	WriteOnly   bool   `json:"write_only"`
	Filterable  bool   `json:"filterable"`
	// Delimiter marks a field the UI edits as one delimited string
	// while the backend expects a sequence
	Delimiter string `json:"delimiter,omitempty"`
}

// IsDelimitedList reports whether the field is sent to the backend as a sequence
func (fi FieldInfo) IsDelimitedList() bool {
	return fi.Delimiter != ""
}

// FieldConfig holds configuration for a field
type FieldConfig struct {
	DisplayName string
	ReadOnly    bool
	WriteOnly   bool
	Filterable  bool
	Delimiter   string
}

// Apply applies the configuration to a FieldInfo
func (fc *FieldConfig) Apply(info *FieldInfo) {
	if fc.DisplayName != "" {
		info.DisplayName = fc.DisplayName
	}
	info.ReadOnly = fc.ReadOnly
	info.WriteOnly = fc.WriteOnly
	info.Filterable = fc.Filterable
	if fc.Delimiter != "" {
		info.Delimiter = fc.Delimiter
	}
}

// FieldBuilder provides fluent API for configuring fields
type FieldBuilder struct {
	config *FieldConfig
}

// NewFieldBuilder creates a new FieldBuilder
func NewFieldBuilder() *FieldBuilder {
	return &FieldBuilder{
		config: &FieldConfig{},
	}
}

// DisplayName sets the display name for the field
func (fb *FieldBuilder) DisplayName(name string) *FieldBuilder {
	fb.config.DisplayName = name
	return fb
}

// ReadOnly marks the field as read-only
func (fb *FieldBuilder) ReadOnly(readOnly bool) *FieldBuilder {
	fb.config.ReadOnly = readOnly
	return fb
}

// WriteOnly marks a field that is sent but never displayed (passwords)
func (fb *FieldBuilder) WriteOnly(writeOnly bool) *FieldBuilder {
	fb.config.WriteOnly = writeOnly
	return fb
}

// Filterable marks the field as usable in list filters
func (fb *FieldBuilder) Filterable(filterable bool) *FieldBuilder {
	fb.config.Filterable = filterable
	return fb
}

// DelimitedList marks the field as a sep-joined string on the UI side
func (fb *FieldBuilder) DelimitedList(sep string) *FieldBuilder {
	fb.config.Delimiter = sep
	return fb
}

// Build returns the final FieldConfig
func (fb *FieldBuilder) Build() *FieldConfig {
	return fb.config
}

func newFieldInfo(name string, configure func(*FieldBuilder)) FieldInfo {
	info := FieldInfo{
		Name:        name,
		DisplayName: generateFieldLabel(name),
	}
	if configure != nil {
		builder := NewFieldBuilder()
		configure(builder)
		builder.Build().Apply(&info)
	}
	return info
}

// generateFieldLabel turns backend field names ("country_name", "Email") into labels
func generateFieldLabel(name string) string {
	words := strings.Fields(strcase.ToDelimited(name, ' '))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// Helper functions for generating names
func generateDisplayName(name string) string {
	// Convert CamelCase to "Display Name"
	result := ""
	for i, r := range name {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result += " "
		}
		result += string(r)
	}
	return result
}

func generatePluralName(name string) string {
	displayName := generateDisplayName(name)
	return pluralize(displayName)
}

// Basic pluralization - can be enhanced later
func pluralize(word string) string {
	if strings.HasSuffix(word, "y") {
		return strings.TrimSuffix(word, "y") + "ies"
	}
	if strings.HasSuffix(word, "s") || strings.HasSuffix(word, "x") ||
		strings.HasSuffix(word, "z") || strings.HasSuffix(word, "ch") ||
		strings.HasSuffix(word, "sh") {
		return word + "es"
	}
	return word + "s"
}
