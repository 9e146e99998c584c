package pdf

import (
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	pdferrors "github.com/a3tai/mcp-pdf-model/internal/pdf/errors"
)

// Validator checks that a file can be opened as a document
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a validator rejecting files above maxFileSize bytes
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{maxFileSize: maxFileSize}
}

// ValidateFile checks existence, extension and size of the file, then
// parses its header and cross reference table
func (v *Validator) ValidateFile(filePath string) error {
	if filePath == "" {
		return invalid(filePath, "path cannot be empty")
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return invalid(filePath, "file does not exist")
	}
	if err != nil {
		return pdferrors.WrapError(pdferrors.ErrorTypeInvalidDocument, "cannot access file", err).WithFile(filePath)
	}
	if err := v.ValidateFileInfo(filePath, info); err != nil {
		return err
	}

	f, r, err := pdf.Open(filePath)
	if err != nil {
		return pdferrors.WrapError(pdferrors.ErrorTypeInvalidDocument, "invalid PDF file", err).WithFile(filePath)
	}
	defer f.Close()
	if r.NumPage() == 0 {
		return invalid(filePath, "document has no pages")
	}
	return nil
}

// ValidateFileInfo performs the checks that need no parsing
func (v *Validator) ValidateFileInfo(filePath string, info os.FileInfo) error {
	switch {
	case info.IsDir():
		return invalid(filePath, "path is a directory, not a file")
	case !strings.HasSuffix(strings.ToLower(filePath), ".pdf"):
		return invalid(filePath, "file is not a PDF")
	case info.Size() == 0:
		return invalid(filePath, "file is empty")
	case v.maxFileSize > 0 && info.Size() > v.maxFileSize:
		return invalid(filePath, fmt.Sprintf("file too large: %d bytes (max: %d bytes)", info.Size(), v.maxFileSize))
	}
	return nil
}

// IsValidPDF reports whether ValidateFile accepts the file
func (v *Validator) IsValidPDF(filePath string) bool {
	return v.ValidateFile(filePath) == nil
}

func invalid(filePath, msg string) error {
	return pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidDocument, msg).WithFile(filePath)
}
