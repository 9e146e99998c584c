package pdf

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/ledongthuc/pdf"

	"github.com/a3tai/mcp-pdf-model/internal/logging"
	"github.com/a3tai/mcp-pdf-model/internal/pdf/convert"
	pdferrors "github.com/a3tai/mcp-pdf-model/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-model/internal/pdf/extraction"
	"github.com/a3tai/mcp-pdf-model/internal/pdf/imagewriter"
	"github.com/a3tai/mcp-pdf-model/internal/pdf/layout"
	"github.com/a3tai/mcp-pdf-model/internal/pdf/model"
	"github.com/a3tai/mcp-pdf-model/internal/pdf/security"
)

// SessionConfig configures a Session
type SessionConfig struct {
	MaxFileSize int64
	// Directory confines the documents the session may open or write
	Directory string
	// Codec and StripControl configure the XML dump
	Codec        string
	StripControl bool
	// ImageDir enables image export during conversion when set
	ImageDir     string
	LayoutParams layout.Params
	Logger       *logging.Logger
}

// handle is an open document file
type handle struct {
	path   string
	file   *os.File
	reader *pdf.Reader
}

// Session tracks the active document together with its cached field
// mapping and converted model. Switching the active document drops both
// caches. A Session is safe for concurrent use; operations are serialized.
type Session struct {
	mu sync.Mutex

	cfg       SessionConfig
	logger    *logging.Logger
	validator *Validator
	paths     *security.PathValidator
	analyzer  *layout.Analyzer
	converter *convert.Converter
	extractor *extraction.FieldExtractor
	updater   *extraction.FieldUpdater

	handles map[string]*handle
	active  *handle
	fields  extraction.Fields
	doc     *model.Document
}

// NewSession creates a session without an active document
func NewSession(cfg SessionConfig) (*Session, error) {
	logger := logging.OrDefault(cfg.Logger)
	if cfg.LayoutParams == (layout.Params{}) {
		cfg.LayoutParams = layout.DefaultParams()
	}
	if err := cfg.LayoutParams.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout parameters: %w", err)
	}

	paths, err := security.NewPathValidator(cfg.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}
	// image export is wired per conversion since it needs the document
	conv, err := convert.New(convert.Options{Codec: cfg.Codec, StripControl: cfg.StripControl, Logger: logger})
	if err != nil {
		return nil, err
	}

	return &Session{
		cfg:       cfg,
		logger:    logger,
		validator: NewValidator(cfg.MaxFileSize),
		paths:     paths,
		analyzer:  layout.NewAnalyzer(cfg.LayoutParams, logger),
		converter: conv,
		extractor: extraction.NewFieldExtractor(logger),
		updater:   extraction.NewFieldUpdater(logger),
		handles:   make(map[string]*handle),
	}, nil
}

// Directory returns the directory documents are confined to
func (s *Session) Directory() string {
	return s.paths.Root()
}

// ActivePath returns the path of the active document, empty when none
func (s *Session) ActivePath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return ""
	}
	return s.active.path
}

// Document returns the model of the last conversion of the active
// document, nil when it has not been converted
func (s *Session) Document() *model.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// SwitchTo makes path the active document. An empty path keeps the current
// one and fails when there is none.
func (s *Session) SwitchTo(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.switchTo(path)
	return err
}

func (s *Session) switchTo(path string) (*handle, error) {
	if path == "" {
		if s.active == nil {
			return nil, pdferrors.ErrNoActiveDocument
		}
		return s.active, nil
	}

	abs, err := s.paths.Resolve(path)
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeInvalidDocument, "security validation failed", err).WithFile(path)
	}
	if s.active != nil && s.active.path == abs {
		return s.active, nil
	}
	if err := s.validator.ValidateFile(abs); err != nil {
		return nil, err
	}

	if s.active != nil {
		if err := s.closeHandle(s.active); err != nil {
			s.logger.Warnf("failed to close %s: %v", s.active.path, err)
		}
	}
	s.active, s.fields, s.doc = nil, nil, nil

	h, err := s.open(abs)
	if err != nil {
		return nil, err
	}
	s.active = h
	s.logger.Debugf("PDF %q is now active", abs)
	return h, nil
}

func (s *Session) open(path string) (*handle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeInvalidDocument, "failed to open file", err).WithFile(path)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeInvalidDocument, "failed to stat file", err).WithFile(path)
	}
	r, err := pdf.NewReader(f, info.Size())
	if err != nil {
		f.Close()
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeInvalidDocument, "invalid PDF file", err).WithFile(path)
	}
	h := &handle{path: path, file: f, reader: r}
	s.handles[path] = h
	return h, nil
}

func (s *Session) closeHandle(h *handle) error {
	delete(s.handles, h.path)
	if err := h.file.Close(); err != nil {
		return err
	}
	s.logger.Debugf("PDF %q closed", h.path)
	return nil
}

// rewind positions the handle for a reader that consumes the file from
// the start
func (h *handle) rewind() (io.ReadSeeker, error) {
	if _, err := h.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind %s: %w", h.path, err)
	}
	return h.file, nil
}

// PageCount returns the number of pages of source, or of the active
// document when source is empty
func (s *Session) PageCount(source string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, err := s.switchTo(source)
	if err != nil {
		return 0, err
	}
	return h.reader.NumPage(), nil
}

// Convert builds the content model and XML dump of source, or of the
// active document when source is empty, replacing the cached model
func (s *Session) Convert(source string) (*model.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.convert(source)
}

func (s *Session) convert(source string) (*model.Document, error) {
	h, err := s.switchTo(source)
	if err != nil {
		return nil, err
	}

	conv := s.converter
	if s.cfg.ImageDir != "" {
		rs, err := h.rewind()
		if err != nil {
			return nil, err
		}
		w, err := imagewriter.New(s.cfg.ImageDir, rs)
		if err != nil {
			return nil, err
		}
		conv, err = convert.New(convert.Options{
			Codec:        s.cfg.Codec,
			StripControl: s.cfg.StripControl,
			ImageWriter:  w,
			Logger:       s.logger,
		})
		if err != nil {
			return nil, err
		}
	}

	run, err := conv.Begin()
	if err != nil {
		return nil, err
	}
	if err := s.analyzer.Walk(h.reader, run.RenderPage); err != nil {
		return nil, fmt.Errorf("failed to convert %s: %w", h.path, err)
	}
	doc, err := run.Close()
	if err != nil {
		return nil, err
	}
	s.doc = doc
	s.logger.Infof("converted %s: %d pages", h.path, doc.PageCount())
	return doc, nil
}

// DumpXML returns the XML dump of source, converting it when the active
// document has no cached model
func (s *Session) DumpXML(source string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.switchTo(source); err != nil {
		return "", err
	}
	if s.doc == nil {
		if _, err := s.convert(""); err != nil {
			return "", err
		}
	}
	return s.doc.DumpXML()
}

// Page returns one page of the content model of source, converting the
// document when the active document has no cached model
func (s *Session) Page(source string, id int) (*model.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.switchTo(source); err != nil {
		return nil, err
	}
	if s.doc == nil {
		if _, err := s.convert(""); err != nil {
			return nil, err
		}
	}
	page, ok := s.doc.Page(id)
	if !ok {
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeInvalidDocument,
			fmt.Sprintf("page %d not found, document has %d pages", id, s.doc.PageCount())).WithPage(id)
	}
	return page, nil
}

// GetFields returns the form fields of source. With an empty source and a
// cached mapping for the active document the cache is returned as is.
// A document without a form yields nil and no error.
func (s *Session) GetFields(source string, replaceAbsentValue bool) (extraction.Fields, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getFields(source, replaceAbsentValue)
}

func (s *Session) getFields(source string, replaceAbsentValue bool) (extraction.Fields, error) {
	if source == "" && s.fields != nil {
		return s.fields, nil
	}
	h, err := s.switchTo(source)
	if err != nil {
		return nil, err
	}
	rs, err := h.rewind()
	if err != nil {
		return nil, err
	}

	fields, err := s.extractor.ExtractFields(rs, replaceAbsentValue)
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeInvalidDocument, "failed to read form fields", err).WithFile(h.path)
	}
	if fields == nil {
		s.logger.Infof("PDF %q does not have any input fields", h.path)
	}
	if len(fields) > 0 {
		s.fields = fields
	} else {
		s.fields = nil
	}
	return fields, nil
}

// SetFieldValue sets a field of the active document by name or unique
// label, loading the fields first when needed. With save the document is
// written back in place.
func (s *Session) SetFieldValue(name, value string, save bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fields == nil {
		if _, err := s.getFields("", false); err != nil {
			return err
		}
		if s.fields == nil {
			return pdferrors.ErrNoFormFields
		}
	}
	field, err := s.fields.Resolve(name)
	if err != nil {
		return err
	}
	field.Value = value
	if !save {
		return nil
	}
	result, err := s.updateFieldValues("", "", nil)
	if err != nil {
		return err
	}
	if !result.Wrote(field.Name) {
		return pdferrors.NewPDFError(pdferrors.ErrorTypePageWrite,
			fmt.Sprintf("field %q has no widget that could be written", field.Name)).WithField(field.Name)
	}
	return nil
}

// UpdateFieldValues writes source with values applied to target. Values
// default to the cached field mapping, source and target to the active
// document. The target is replaced atomically.
func (s *Session) UpdateFieldValues(source, target string, values map[string]string) (*extraction.WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateFieldValues(source, target, values)
}

func (s *Session) updateFieldValues(source, target string, values map[string]string) (*extraction.WriteResult, error) {
	h, err := s.switchTo(source)
	if err != nil {
		return nil, err
	}
	if values == nil && s.fields != nil {
		values = s.fields.Values()
	}

	dst := h.path
	if target != "" {
		if dst, err = s.paths.Resolve(target); err != nil {
			return nil, pdferrors.WrapError(pdferrors.ErrorTypeInvalidDocument, "security validation failed", err).WithFile(target)
		}
	}
	if err := s.paths.ValidateTarget(dst); err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeInvalidDocument, "invalid target", err).WithFile(dst)
	}

	rs, err := h.rewind()
	if err != nil {
		return nil, err
	}
	result, err := s.writeAtomic(dst, func(w io.Writer) (*extraction.WriteResult, error) {
		return s.updater.WriteValues(rs, w, values)
	})
	if err != nil {
		return nil, err
	}

	if dst == h.path {
		// the open handle still reads the replaced file
		if err := s.closeHandle(h); err != nil {
			s.logger.Warnf("failed to close %s: %v", h.path, err)
		}
		reopened, err := s.open(dst)
		if err != nil {
			s.active, s.fields, s.doc = nil, nil, nil
			return nil, err
		}
		s.active = reopened
	}
	s.logger.Infof("wrote %d field values to %s", result.Updated, dst)
	return result, nil
}

// writeAtomic writes through a temporary file in the target directory and
// renames it over dst on success
func (s *Session) writeAtomic(dst string, write func(io.Writer) (*extraction.WriteResult, error)) (*extraction.WriteResult, error) {
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	result, err := write(tmp)
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close temporary file: %w", cerr)
	}
	if err != nil {
		return nil, err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return nil, fmt.Errorf("failed to replace %s: %w", dst, err)
	}
	return result, nil
}

// CloseAll closes every open document and resets the session state
func (s *Session) CloseAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, h := range s.handles {
		if err := s.closeHandle(h); err != nil {
			errs = append(errs, fmt.Errorf("failed to close %s: %w", h.path, err))
		}
	}
	s.active, s.fields, s.doc = nil, nil, nil
	return errors.Join(errs...)
}
