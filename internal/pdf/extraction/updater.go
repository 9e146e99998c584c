package extraction

import (
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/a3tai/mcp-pdf-model/internal/logging"
	pdferrors "github.com/a3tai/mcp-pdf-model/internal/pdf/errors"
)

// PageResult reports the write-back outcome of one page
type PageResult struct {
	Page    int      `json:"page"`
	Updated []string `json:"updated,omitempty"`
	Err     error    `json:"-"`
}

// WriteResult aggregates the page results of a write-back
type WriteResult struct {
	Pages   []PageResult `json:"pages"`
	Updated int          `json:"updated"`
}

// Failed returns the pages that were passed through unchanged because of
// an error
func (r *WriteResult) Failed() []PageResult {
	var out []PageResult
	for _, p := range r.Pages {
		if p.Err != nil {
			out = append(out, p)
		}
	}
	return out
}

// Wrote reports whether the field called name was updated on some page
func (r *WriteResult) Wrote(name string) bool {
	for _, p := range r.Pages {
		for _, n := range p.Updated {
			if n == name {
				return true
			}
		}
	}
	return false
}

// FieldUpdater writes field values back into a PDF
type FieldUpdater struct {
	logger *logging.Logger
}

// NewFieldUpdater creates a new field updater
func NewFieldUpdater(logger *logging.Logger) *FieldUpdater {
	return &FieldUpdater{logger: logging.OrDefault(logger)}
}

// WriteValues copies the document in src to dst with the given field
// values applied and the appearance regeneration flag set. Reading or
// writing the document as a whole fails the call; a page that cannot be
// updated is written unchanged and reported in the result.
func (u *FieldUpdater) WriteValues(src io.ReadSeeker, dst io.Writer, values map[string]string) (*WriteResult, error) {
	ctx, err := readContext(src)
	if err != nil {
		return nil, err
	}
	if err := setNeedAppearances(ctx); err != nil {
		return nil, fmt.Errorf("failed to update AcroForm: %w", err)
	}

	unnamed := unnamedFields(ctx)
	result := &WriteResult{}
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		pr := PageResult{Page: pageNr}
		if len(values) > 0 {
			u.logger.Debugf("updating form field values for page %d", pageNr)
			pr.Updated, pr.Err = u.updatePage(ctx, pageNr, values, unnamed)
		}
		if pr.Err != nil {
			u.logger.Warnf("%v", pr.Err)
		}
		result.Updated += len(pr.Updated)
		result.Pages = append(result.Pages, pr)
	}

	if err := api.WriteContext(ctx, dst); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return result, nil
}

// setNeedAppearances marks the AcroForm so viewers regenerate field
// appearances, creating an empty AcroForm when the catalog has none
func setNeedAppearances(ctx *model.Context) error {
	rootDict, err := ctx.Catalog()
	if err != nil {
		return err
	}

	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		form := types.Dict{"Fields": types.Array{}, "NeedAppearances": types.Boolean(true)}
		ref, err := ctx.IndRefForNewObject(form)
		if err != nil {
			return err
		}
		rootDict["AcroForm"] = *ref
		return nil
	}

	form, err := ctx.DereferenceDict(acroFormObj)
	if err != nil {
		return err
	}
	if form == nil {
		return fmt.Errorf("AcroForm is not a dictionary")
	}
	form["NeedAppearances"] = types.Boolean(true)
	return nil
}

// unnamedFields maps the object numbers of root fields without a /T to the
// names extraction reports for them
func unnamedFields(ctx *model.Context) map[int]string {
	out := make(map[int]string)
	rootDict, err := ctx.Catalog()
	if err != nil {
		return out
	}
	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		return out
	}
	form, err := ctx.DereferenceDict(acroFormObj)
	if err != nil || form == nil {
		return out
	}
	fieldsObj, found := form.Find("Fields")
	if !found {
		return out
	}
	fields, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return out
	}
	for i, obj := range fields {
		ref, ok := obj.(types.IndirectRef)
		if !ok {
			continue
		}
		d, err := ctx.DereferenceDict(ref)
		if err != nil || d == nil {
			continue
		}
		if tObj, found := d.Find("T"); found {
			if name, _ := textValue(ctx, tObj); name != "" {
				continue
			}
		}
		out[ref.ObjectNumber.Value()] = unnamedFieldName(i)
	}
	return out
}

type fieldChange struct {
	dict  types.Dict
	name  string
	value types.Object
}

// updatePage assigns values to the fields whose widgets sit on pageNr. The
// page is resolved completely before anything is modified.
func (u *FieldUpdater) updatePage(ctx *model.Context, pageNr int, values map[string]string, unnamed map[int]string) (updated []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			updated = nil
			err = pdferrors.NewPDFErrorWithContext(pdferrors.ErrorTypePageWrite, "field update failed", fmt.Sprint(r)).WithPage(pageNr)
		}
	}()
	pageErr := func(msg string, cause error) error {
		return pdferrors.WrapError(pdferrors.ErrorTypePageWrite, msg, cause).WithPage(pageNr)
	}

	pageDict, _, _, err := ctx.PageDict(pageNr, false)
	if err != nil {
		return nil, pageErr("failed to read page", err)
	}
	if pageDict == nil {
		return nil, pageErr("page not found", nil)
	}
	annotsObj, found := pageDict.Find("Annots")
	if !found {
		return nil, nil
	}
	annots, err := ctx.DereferenceArray(annotsObj)
	if err != nil {
		return nil, pageErr("failed to read annotations", err)
	}

	var plan []fieldChange
	seen := make(map[string]bool)
	for _, annotObj := range annots {
		annot, err := ctx.DereferenceDict(annotObj)
		if err != nil {
			return nil, pageErr("failed to read annotation", err)
		}
		if annot == nil || !isWidget(ctx, annot) {
			continue
		}
		field, name, err := terminalField(ctx, annotObj, unnamed)
		if err != nil {
			return nil, pageErr("failed to resolve field", err)
		}
		value, ok := values[name]
		if field == nil || !ok || seen[name] {
			continue
		}
		obj, err := encodeText(value)
		if err != nil {
			return nil, pdferrors.WrapError(pdferrors.ErrorTypePageWrite, "failed to encode value", err).WithPage(pageNr).WithField(name)
		}
		seen[name] = true
		plan = append(plan, fieldChange{dict: field, name: name, value: obj})
	}

	for _, c := range plan {
		c.dict["V"] = c.value
		updated = append(updated, c.name)
	}
	return updated, nil
}

func isWidget(ctx *model.Context, annot types.Dict) bool {
	obj, found := annot.Find("Subtype")
	if !found {
		return false
	}
	name, err := ctx.DereferenceName(obj, model.V10, nil)
	return err == nil && name == "Widget"
}

// terminalField walks from a widget to the field dictionary carrying a
// non-empty /T. A root field without one resolves through unnamed.
func terminalField(ctx *model.Context, widgetObj types.Object, unnamed map[int]string) (types.Dict, string, error) {
	obj := widgetObj
	for depth := 0; depth < 32; depth++ {
		d, err := ctx.DereferenceDict(obj)
		if err != nil {
			return nil, "", err
		}
		if d == nil {
			return nil, "", nil
		}
		if tObj, found := d.Find("T"); found {
			name, err := textValue(ctx, tObj)
			if err != nil {
				return nil, "", err
			}
			if name != "" {
				return d, name, nil
			}
		}
		parentObj, found := d.Find("Parent")
		if !found {
			if ref, ok := obj.(types.IndirectRef); ok {
				if name, ok := unnamed[ref.ObjectNumber.Value()]; ok {
					return d, name, nil
				}
			}
			return nil, "", nil
		}
		obj = parentObj
	}
	return nil, "", nil
}
