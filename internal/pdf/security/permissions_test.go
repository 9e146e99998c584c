package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPermissions(t *testing.T) {
	tests := []struct {
		name        string
		p           int32
		allowed     []string
		fillForms   bool
		restricted  bool
		description string
	}{
		{
			name:        "all bits set",
			p:           -1,
			allowed:     []string{"print", "modify", "copy", "annotate", "fill_forms", "extract", "assemble", "print_high_quality"},
			fillForms:   true,
			description: "all operations allowed",
		},
		{
			name:        "print only",
			p:           int32(-4092) &^ int32(PermPrintHighQuality),
			allowed:     []string{"print"},
			restricted:  true,
			description: "denied: modify, copy, annotate, fill_forms, extract, assemble, print_high_quality",
		},
		{
			name:       "fill forms without annotate",
			p:          int32(PermFillForms | PermExtract),
			allowed:    []string{"fill_forms", "extract"},
			fillForms:  true,
			restricted: true,
		},
		{
			name:       "annotate implies filling",
			p:          int32(PermAnnotate),
			allowed:    []string{"annotate"},
			fillForms:  true,
			restricted: true,
		},
		{
			name:       "nothing",
			p:          0,
			restricted: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPermissions(tt.p)
			assert.Equal(t, tt.allowed, p.Allowed())
			assert.Equal(t, tt.fillForms, p.CanFillForms())
			assert.Equal(t, tt.restricted, p.Restricted())
			assert.Len(t, p.Denied(), 8-len(tt.allowed))
			if tt.description != "" {
				assert.Equal(t, tt.description, p.String())
			}
		})
	}
}

func TestFullPermissions(t *testing.T) {
	p := FullPermissions()
	assert.False(t, p.Restricted())
	assert.True(t, p.Has(PermAssemble))
	assert.Empty(t, p.Denied())
}
