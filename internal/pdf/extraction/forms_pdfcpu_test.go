package extraction

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-model/internal/logging"
	"github.com/a3tai/mcp-pdf-model/internal/pdftest"
)

func formDocument(fields ...pdftest.Field) []byte {
	return pdftest.Document(pdftest.Spec{
		Pages:  []pdftest.Page{pdftest.TextPage("Application form")},
		Fields: fields,
	})
}

// hierarchicalForm builds a form whose only field keeps its widget in /Kids
func hierarchicalForm() []byte {
	b := &pdftest.Builder{}
	catalog := b.Reserve()
	pages := b.Reserve()
	page := b.Reserve()
	parent := b.Reserve()
	widget := b.Add(fmt.Sprintf("<< /Type /Annot /Subtype /Widget /Parent %s /Rect [100.4 200.6 250 220] /P %s >>",
		pdftest.Ref(parent), pdftest.Ref(page)))
	b.Set(parent, fmt.Sprintf("<< /FT /Tx /T (address) /TU (Street address) /Kids [%s] >>", pdftest.Ref(widget)))
	content := b.AddStream("", []byte("BT ET"))
	b.Set(page, fmt.Sprintf("<< /Type /Page /Parent %s /MediaBox [0 0 612 792] /Contents %s /Annots [%s] >>",
		pdftest.Ref(pages), pdftest.Ref(content), pdftest.Ref(widget)))
	b.Set(pages, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count 1 >>", pdftest.Ref(page)))
	form := b.Add(fmt.Sprintf("<< /Fields [%s] >>", pdftest.Ref(parent)))
	b.Set(catalog, fmt.Sprintf("<< /Type /Catalog /Pages %s /AcroForm %s >>", pdftest.Ref(pages), pdftest.Ref(form)))
	return b.Bytes(catalog)
}

func TestFieldExtractor_ExtractFields(t *testing.T) {
	data := formDocument(
		pdftest.Field{Name: "first_name", Label: "First name", Value: "Alice"},
		pdftest.Field{Name: "last_name", Label: "Last name"},
		pdftest.Field{Name: "city", Value: "Caf\xe9", Rect: "[10.7 20.2 110.9 40]"},
		pdftest.Field{Name: "motto", RawValue: "<FEFF03A9006D006500670061>"},
		pdftest.Field{Name: "agree", Type: "Btn", RawValue: "/Yes"},
	)

	fields, err := NewFieldExtractor(logging.Discard()).ExtractFields(bytes.NewReader(data), false)
	require.NoError(t, err)
	require.Len(t, fields, 5)

	tests := []struct {
		name  string
		value string
		label string
		rect  []int
		typ   FieldType
	}{
		{name: "first_name", value: "Alice", label: "First name", rect: []int{72, 700, 300, 720}, typ: FieldTypeText},
		{name: "last_name", value: "", label: "Last name", rect: []int{72, 670, 300, 690}, typ: FieldTypeText},
		{name: "city", value: "Café", rect: []int{10, 20, 110, 40}, typ: FieldTypeText},
		{name: "motto", value: "Ωmega", rect: []int{72, 610, 300, 630}, typ: FieldTypeText},
		{name: "agree", value: "Yes", rect: []int{72, 580, 300, 600}, typ: FieldTypeCheckbox},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := fields[tt.name]
			require.True(t, ok)
			assert.Equal(t, tt.name, f.Name)
			assert.Equal(t, tt.value, f.Value)
			assert.Equal(t, tt.label, f.Label)
			assert.Equal(t, tt.rect, f.Rect)
			assert.Equal(t, tt.typ, f.Type)
		})
	}
}

func TestFieldExtractor_ReplaceAbsentValue(t *testing.T) {
	data := formDocument(
		pdftest.Field{Name: "first_name", Value: "Alice"},
		pdftest.Field{Name: "last_name"},
	)

	fields, err := NewFieldExtractor(nil).ExtractFields(bytes.NewReader(data), true)
	require.NoError(t, err)
	assert.Equal(t, "Alice", fields["first_name"].Value)
	assert.Equal(t, "last_name", fields["last_name"].Value)
}

func TestFieldExtractor_NoForm(t *testing.T) {
	t.Run("no AcroForm", func(t *testing.T) {
		data := pdftest.Document(pdftest.Spec{Pages: []pdftest.Page{pdftest.TextPage("plain")}})
		fields, err := NewFieldExtractor(logging.Discard()).ExtractFields(bytes.NewReader(data), false)
		require.NoError(t, err)
		assert.Nil(t, fields)
	})

	t.Run("empty field array", func(t *testing.T) {
		data := pdftest.Document(pdftest.Spec{
			Pages:  []pdftest.Page{pdftest.TextPage("plain")},
			Fields: []pdftest.Field{},
		})
		fields, err := NewFieldExtractor(logging.Discard()).ExtractFields(bytes.NewReader(data), false)
		require.NoError(t, err)
		assert.NotNil(t, fields)
		assert.Empty(t, fields)
	})
}

func TestFieldExtractor_KidsRect(t *testing.T) {
	fields, err := NewFieldExtractor(logging.Discard()).ExtractFields(bytes.NewReader(hierarchicalForm()), false)
	require.NoError(t, err)
	require.Contains(t, fields, "address")

	f := fields["address"]
	assert.Equal(t, []int{100, 200, 250, 220}, f.Rect)
	assert.Equal(t, "Street address", f.Label)
	assert.Equal(t, FieldTypeText, f.Type)
}

func TestFieldExtractor_InvalidDocument(t *testing.T) {
	_, err := NewFieldExtractor(logging.Discard()).ExtractFields(bytes.NewReader([]byte("not a pdf")), false)
	assert.Error(t, err)
}
