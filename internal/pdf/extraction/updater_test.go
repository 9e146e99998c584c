package extraction

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-model/internal/logging"
	pdferrors "github.com/a3tai/mcp-pdf-model/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-model/internal/pdftest"
)

func needAppearances(t *testing.T, data []byte) bool {
	t.Helper()
	ctx, err := readContext(bytes.NewReader(data))
	require.NoError(t, err)
	root, err := ctx.Catalog()
	require.NoError(t, err)
	formObj, found := root.Find("AcroForm")
	require.True(t, found, "AcroForm missing")
	form, err := ctx.DereferenceDict(formObj)
	require.NoError(t, err)
	v, found := form.Find("NeedAppearances")
	if !found {
		return false
	}
	b, ok := v.(types.Boolean)
	return ok && b.Value()
}

func TestFieldUpdater_WriteValues(t *testing.T) {
	src := formDocument(
		pdftest.Field{Name: "first_name", Label: "First name", Value: "Alice"},
		pdftest.Field{Name: "city"},
		pdftest.Field{Name: "motto"},
		pdftest.Field{Name: "untouched", Value: "keep"},
	)

	var out bytes.Buffer
	res, err := NewFieldUpdater(logging.Discard()).WriteValues(bytes.NewReader(src), &out, map[string]string{
		"first_name": "Bob (jr)",
		"city":       "Zürich",
		"motto":      "Ωmega",
		"unknown":    "ignored",
	})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Updated)
	require.Len(t, res.Pages, 1)
	assert.ElementsMatch(t, []string{"first_name", "city", "motto"}, res.Pages[0].Updated)
	assert.Empty(t, res.Failed())
	assert.True(t, needAppearances(t, out.Bytes()))

	fields, err := NewFieldExtractor(logging.Discard()).ExtractFields(bytes.NewReader(out.Bytes()), false)
	require.NoError(t, err)
	assert.Equal(t, "Bob (jr)", fields["first_name"].Value)
	assert.Equal(t, "First name", fields["first_name"].Label)
	assert.Equal(t, "Zürich", fields["city"].Value)
	assert.Equal(t, "Ωmega", fields["motto"].Value)
	assert.Equal(t, "keep", fields["untouched"].Value)
}

func TestFieldUpdater_CreatesAcroForm(t *testing.T) {
	src := pdftest.Document(pdftest.Spec{Pages: []pdftest.Page{pdftest.TextPage("plain")}})

	var out bytes.Buffer
	res, err := NewFieldUpdater(logging.Discard()).WriteValues(bytes.NewReader(src), &out, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Updated)
	assert.True(t, needAppearances(t, out.Bytes()))

	fields, err := NewFieldExtractor(logging.Discard()).ExtractFields(bytes.NewReader(out.Bytes()), false)
	require.NoError(t, err)
	assert.NotNil(t, fields)
	assert.Empty(t, fields)
}

func TestFieldUpdater_HierarchicalField(t *testing.T) {
	var out bytes.Buffer
	res, err := NewFieldUpdater(logging.Discard()).WriteValues(bytes.NewReader(hierarchicalForm()), &out,
		map[string]string{"address": "1 Main St"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)

	fields, err := NewFieldExtractor(logging.Discard()).ExtractFields(bytes.NewReader(out.Bytes()), false)
	require.NoError(t, err)
	assert.Equal(t, "1 Main St", fields["address"].Value)
}

// unnamedParentForm builds a form whose only root field has no /T and keeps
// its widget in /Kids
func unnamedParentForm() []byte {
	b := &pdftest.Builder{}
	catalog := b.Reserve()
	pages := b.Reserve()
	page := b.Reserve()
	parent := b.Reserve()
	widget := b.Add(fmt.Sprintf("<< /Type /Annot /Subtype /Widget /Parent %s /Rect [10 10 100 30] /P %s >>",
		pdftest.Ref(parent), pdftest.Ref(page)))
	b.Set(parent, fmt.Sprintf("<< /FT /Tx /Kids [%s] >>", pdftest.Ref(widget)))
	content := b.AddStream("", []byte("BT ET"))
	b.Set(page, fmt.Sprintf("<< /Type /Page /Parent %s /MediaBox [0 0 612 792] /Contents %s /Annots [%s] >>",
		pdftest.Ref(pages), pdftest.Ref(content), pdftest.Ref(widget)))
	b.Set(pages, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count 1 >>", pdftest.Ref(page)))
	form := b.Add(fmt.Sprintf("<< /Fields [%s] >>", pdftest.Ref(parent)))
	b.Set(catalog, fmt.Sprintf("<< /Type /Catalog /Pages %s /AcroForm %s >>", pdftest.Ref(pages), pdftest.Ref(form)))
	return b.Bytes(catalog)
}

func TestFieldUpdater_UnnamedFields(t *testing.T) {
	tests := []struct {
		name  string
		src   []byte
		field string
	}{
		{
			name:  "widget with empty name",
			src:   formDocument(pdftest.Field{Name: "first_name"}, pdftest.Field{}),
			field: "field_1",
		},
		{
			name:  "parent without name",
			src:   unnamedParentForm(),
			field: "field_0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := NewFieldExtractor(logging.Discard())
			before, err := extractor.ExtractFields(bytes.NewReader(tt.src), false)
			require.NoError(t, err)
			require.Contains(t, before, tt.field)

			var out bytes.Buffer
			res, err := NewFieldUpdater(logging.Discard()).WriteValues(bytes.NewReader(tt.src), &out,
				map[string]string{tt.field: "written"})
			require.NoError(t, err)
			assert.Equal(t, 1, res.Updated)
			assert.True(t, res.Wrote(tt.field))

			after, err := extractor.ExtractFields(bytes.NewReader(out.Bytes()), false)
			require.NoError(t, err)
			require.Contains(t, after, tt.field)
			assert.Equal(t, "written", after[tt.field].Value)
		})
	}
}

func TestFieldUpdater_PageFailureIsPassedThrough(t *testing.T) {
	src := pdftest.Document(pdftest.Spec{
		Pages: []pdftest.Page{
			pdftest.TextPage("first"),
			{Content: "BT ET", Annots: "42"},
		},
		Fields: []pdftest.Field{{Name: "first_name"}},
	})

	var out bytes.Buffer
	res, err := NewFieldUpdater(logging.Discard()).WriteValues(bytes.NewReader(src), &out,
		map[string]string{"first_name": "Bob"})
	require.NoError(t, err)

	require.Len(t, res.Pages, 2)
	assert.Equal(t, []string{"first_name"}, res.Pages[0].Updated)
	failed := res.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, 2, failed[0].Page)
	assert.True(t, pdferrors.IsType(failed[0].Err, pdferrors.ErrorTypePageWrite))

	fields, err := NewFieldExtractor(logging.Discard()).ExtractFields(bytes.NewReader(out.Bytes()), false)
	require.NoError(t, err)
	assert.Equal(t, "Bob", fields["first_name"].Value)
}

func TestFieldUpdater_InvalidDocument(t *testing.T) {
	var out bytes.Buffer
	_, err := NewFieldUpdater(logging.Discard()).WriteValues(bytes.NewReader([]byte("%PDF-1.7\ngarbage")), &out, nil)
	assert.Error(t, err)
	assert.Zero(t, out.Len())
}
