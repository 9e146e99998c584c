package extraction

import (
	"fmt"
	"sort"

	pdferrors "github.com/a3tai/mcp-pdf-model/internal/pdf/errors"
)

// FieldType represents the type of a form field
type FieldType string

const (
	FieldTypeText      FieldType = "text"
	FieldTypeCheckbox  FieldType = "checkbox"
	FieldTypeRadio     FieldType = "radio"
	FieldTypeSelect    FieldType = "select"
	FieldTypeButton    FieldType = "button"
	FieldTypeSignature FieldType = "signature"
	FieldTypeUnknown   FieldType = "unknown"
)

// Field is one AcroForm field
type Field struct {
	Name  string    `json:"name" yaml:"name"`
	Value string    `json:"value" yaml:"value"`
	Rect  []int     `json:"rect" yaml:"rect"`
	Label string    `json:"label,omitempty" yaml:"label,omitempty"`
	Type  FieldType `json:"type" yaml:"type"`
}

// Fields maps field names to fields
type Fields map[string]*Field

// SetValue sets the value of the field called name. When no field has that
// name, the single field whose label equals name is updated instead.
func (f Fields) SetValue(name, value string) error {
	field, err := f.Resolve(name)
	if err != nil {
		return err
	}
	field.Value = value
	return nil
}

// Resolve returns the field called name, or the single field labelled name
func (f Fields) Resolve(name string) (*Field, error) {
	if field, ok := f[name]; ok {
		return field, nil
	}

	var matches []*Field
	for _, field := range f {
		if field.Label != "" && field.Label == name {
			matches = append(matches, field)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeFieldNotFound,
			fmt.Sprintf("unable to set field value: field name %q not found in the document", name)).WithField(name)
	default:
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeAmbiguousField,
			fmt.Sprintf("unable to set field value: ambiguous field name %q: matched %d fields", name, len(matches))).WithField(name)
	}
}

// Values returns the flat name to value mapping used for write-back
func (f Fields) Values() map[string]string {
	out := make(map[string]string, len(f))
	for name, field := range f {
		out[name] = field.Value
	}
	return out
}

// Names returns the field names in sorted order
func (f Fields) Names() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of f
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for name, field := range f {
		c := *field
		c.Rect = append([]int(nil), field.Rect...)
		if c.Rect == nil {
			c.Rect = []int{}
		}
		out[name] = &c
	}
	return out
}
