package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pdferrors "github.com/a3tai/mcp-pdf-model/internal/pdf/errors"
)

func sampleFields() Fields {
	return Fields{
		"first_name": {Name: "first_name", Value: "Alice", Label: "First name", Rect: []int{72, 700, 300, 720}, Type: FieldTypeText},
		"last_name":  {Name: "last_name", Value: "", Label: "Last name", Rect: []int{72, 670, 300, 690}, Type: FieldTypeText},
		"phone_home": {Name: "phone_home", Label: "Phone", Rect: []int{}, Type: FieldTypeText},
		"phone_work": {Name: "phone_work", Label: "Phone", Rect: []int{}, Type: FieldTypeText},
		"notes":      {Name: "notes", Rect: []int{}, Type: FieldTypeText},
	}
}

func TestFields_SetValue(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		wantField string
		wantType  pdferrors.ErrorType
	}{
		{name: "exact name", key: "first_name", wantField: "first_name"},
		{name: "unique label", key: "Last name", wantField: "last_name"},
		{name: "ambiguous label", key: "Phone", wantType: pdferrors.ErrorTypeAmbiguousField},
		{name: "unknown", key: "email", wantType: pdferrors.ErrorTypeFieldNotFound},
		{name: "empty label never matches", key: "", wantType: pdferrors.ErrorTypeFieldNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := sampleFields()
			before := fields.Clone()

			err := fields.SetValue(tt.key, "new")
			if tt.wantField == "" {
				require.Error(t, err)
				assert.True(t, pdferrors.IsType(err, tt.wantType), "got %v", err)
				assert.Equal(t, before, fields, "failed set must not modify fields")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "new", fields[tt.wantField].Value)
			for name, f := range fields {
				if name != tt.wantField {
					assert.Equal(t, before[name].Value, f.Value, name)
				}
			}
		})
	}
}

func TestFields_SetValueMessages(t *testing.T) {
	fields := sampleFields()

	err := fields.SetValue("email", "x")
	assert.Contains(t, err.Error(), `field name "email" not found in the document`)

	err = fields.SetValue("Phone", "x")
	assert.Contains(t, err.Error(), `ambiguous field name "Phone": matched 2 fields`)
}

func TestFields_ValuesAndNames(t *testing.T) {
	fields := sampleFields()

	assert.Equal(t, []string{"first_name", "last_name", "notes", "phone_home", "phone_work"}, fields.Names())
	values := fields.Values()
	assert.Len(t, values, 5)
	assert.Equal(t, "Alice", values["first_name"])
	assert.Equal(t, "", values["notes"])
}

func TestFields_Clone(t *testing.T) {
	fields := sampleFields()
	c := fields.Clone()

	c["first_name"].Value = "Bob"
	c["first_name"].Rect[0] = 0

	assert.Equal(t, "Alice", fields["first_name"].Value)
	assert.Equal(t, 72, fields["first_name"].Rect[0])
	assert.Nil(t, Fields(nil).Clone())
}
