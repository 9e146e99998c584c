package extraction

import (
	"fmt"
	"io"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/a3tai/mcp-pdf-model/internal/logging"
	docmodel "github.com/a3tai/mcp-pdf-model/internal/pdf/model"
)

// readContext reads a PDF into a pdfcpu context in relaxed validation mode
func readContext(rs io.ReadSeeker) (*model.Context, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(rs, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}
	return ctx, nil
}

// FieldExtractor reads AcroForm fields using the pdfcpu library
type FieldExtractor struct {
	logger *logging.Logger
}

// NewFieldExtractor creates a new field extractor
func NewFieldExtractor(logger *logging.Logger) *FieldExtractor {
	return &FieldExtractor{logger: logging.OrDefault(logger)}
}

// ExtractFields reads the fields of the document in rs. A document without
// an AcroForm yields nil Fields and no error. With replaceAbsentValue,
// fields lacking a value take their own name as value.
func (fe *FieldExtractor) ExtractFields(rs io.ReadSeeker, replaceAbsentValue bool) (Fields, error) {
	ctx, err := readContext(rs)
	if err != nil {
		return nil, err
	}
	return fe.ExtractFieldsFromContext(ctx, replaceAbsentValue)
}

// ExtractFieldsFromContext extracts fields from an already read context
func (fe *FieldExtractor) ExtractFieldsFromContext(ctx *model.Context, replaceAbsentValue bool) (Fields, error) {
	rootDict, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}

	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		fe.logger.Infof("document does not have any input fields")
		return nil, nil
	}
	acroFormDict, err := ctx.DereferenceDict(acroFormObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference AcroForm: %w", err)
	}
	if acroFormDict == nil {
		return nil, nil
	}

	fieldsObj, found := acroFormDict.Find("Fields")
	if !found {
		fe.logger.Infof("AcroForm has no Fields array")
		return nil, nil
	}
	fieldsArray, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference Fields array: %w", err)
	}

	fields := make(Fields, len(fieldsArray))
	for i, fieldRef := range fieldsArray {
		field, err := fe.processField(ctx, fieldRef, i, replaceAbsentValue)
		if err != nil {
			fe.logger.Debugf("skipping field %d: %v", i, err)
			continue
		}
		if field != nil {
			fields[field.Name] = field
		}
	}
	return fields, nil
}

// processField processes a single field dictionary
func (fe *FieldExtractor) processField(ctx *model.Context, fieldObj types.Object, index int, replaceAbsentValue bool) (*Field, error) {
	fieldDict, err := ctx.DereferenceDict(fieldObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference field: %w", err)
	}
	if fieldDict == nil {
		return nil, nil
	}

	field := &Field{Rect: []int{}}
	if nameObj, found := fieldDict.Find("T"); found {
		field.Name = fe.text(ctx, nameObj, "name")
	}
	if field.Name == "" {
		field.Name = unnamedFieldName(index)
	}

	field.Type = fe.fieldType(ctx, fieldDict, 0)

	if valueObj, found := fieldDict.Find("V"); found {
		field.Value = fe.value(ctx, valueObj)
	} else if replaceAbsentValue {
		field.Value = field.Name
	}

	if labelObj, found := fieldDict.Find("TU"); found {
		field.Label = fe.text(ctx, labelObj, "label")
	}

	field.Rect = fe.rect(ctx, fieldDict)
	return field, nil
}

// unnamedFieldName names the root field at index of the AcroForm Fields
// array when it carries no /T
func unnamedFieldName(index int) string {
	return fmt.Sprintf("field_%d", index)
}

// text dereferences a string, hex string or name. Undecodable bytes are
// kept raw.
func (fe *FieldExtractor) text(ctx *model.Context, obj types.Object, what string) string {
	s, err := textValue(ctx, obj)
	if err != nil {
		fe.logger.Debugf("field %s: %v", what, err)
	}
	return s
}

func textValue(ctx *model.Context, obj types.Object) (string, error) {
	o, err := ctx.Dereference(obj)
	if err != nil {
		return "", err
	}
	switch v := o.(type) {
	case types.StringLiteral:
		b, err := types.Unescape(v.Value())
		if err != nil {
			return v.Value(), err
		}
		return decodeText(b)
	case types.HexLiteral:
		b, err := v.Bytes()
		if err != nil {
			return v.Value(), err
		}
		return decodeText(b)
	case types.Name:
		return v.Value(), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("unexpected text object %T", o)
	}
}

// value renders a field value. Arrays of strings (multi-select choices)
// are joined.
func (fe *FieldExtractor) value(ctx *model.Context, obj types.Object) string {
	o, err := ctx.Dereference(obj)
	if err != nil {
		fe.logger.Debugf("field value: %v", err)
		return ""
	}
	if arr, ok := o.(types.Array); ok {
		parts := make([]string, 0, len(arr))
		for _, item := range arr {
			parts = append(parts, fe.text(ctx, item, "value"))
		}
		return strings.Join(parts, ", ")
	}
	return fe.text(ctx, o, "value")
}

// fieldType determines the field type from the FT entry
func (fe *FieldExtractor) fieldType(ctx *model.Context, fieldDict types.Dict, depth int) FieldType {
	ftObj, found := fieldDict.Find("FT")
	if !found {
		if parentObj, found := fieldDict.Find("Parent"); found && depth < 32 {
			if parentDict, err := ctx.DereferenceDict(parentObj); err == nil && parentDict != nil {
				return fe.fieldType(ctx, parentDict, depth+1)
			}
		}
		return FieldTypeUnknown
	}

	ftName, err := ctx.DereferenceName(ftObj, model.V10, nil)
	if err != nil {
		return FieldTypeUnknown
	}

	switch ftName {
	case "Btn":
		if flagsObj, found := fieldDict.Find("Ff"); found {
			if flags, err := ctx.DereferenceInteger(flagsObj); err == nil && flags != nil {
				flagValue := *flags
				if (flagValue & (1 << 15)) != 0 { // Bit 16: Radio
					return FieldTypeRadio
				} else if (flagValue & (1 << 16)) != 0 { // Bit 17: Pushbutton
					return FieldTypeButton
				}
			}
		}
		return FieldTypeCheckbox
	case "Tx":
		return FieldTypeText
	case "Ch":
		return FieldTypeSelect
	case "Sig":
		return FieldTypeSignature
	default:
		return FieldTypeUnknown
	}
}

// rect reads the widget rectangle of a field, falling back to its first
// kid for fields with separate widget annotations
func (fe *FieldExtractor) rect(ctx *model.Context, fieldDict types.Dict) []int {
	if rectObj, found := fieldDict.Find("Rect"); found {
		if r := parseRect(ctx, rectObj); r != nil {
			return docmodel.Normalize(r)
		}
	}

	if kidsObj, found := fieldDict.Find("Kids"); found {
		if kidsArray, err := ctx.DereferenceArray(kidsObj); err == nil && len(kidsArray) > 0 {
			if widgetDict, err := ctx.DereferenceDict(kidsArray[0]); err == nil && widgetDict != nil {
				if rectObj, found := widgetDict.Find("Rect"); found {
					return docmodel.Normalize(parseRect(ctx, rectObj))
				}
			}
		}
	}
	return []int{}
}

func parseRect(ctx *model.Context, rectObj types.Object) []float64 {
	rectArray, err := ctx.DereferenceArray(rectObj)
	if err != nil || len(rectArray) != 4 {
		return nil
	}
	coords := make([]float64, 4)
	for i, coord := range rectArray {
		if f, err := ctx.DereferenceNumber(coord); err == nil {
			coords[i] = f
		}
	}
	return coords
}
