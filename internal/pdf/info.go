package pdf

import (
	"strings"

	"github.com/ledongthuc/pdf"

	pdferrors "github.com/a3tai/mcp-pdf-model/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-model/internal/pdf/security"
)

// Info returns file statistics and document metadata of source, or of the
// active document when source is empty
func (s *Session) Info(source string) (*DocumentInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := s.switchTo(source)
	if err != nil {
		return nil, err
	}
	stat, err := h.file.Stat()
	if err != nil {
		return nil, pdferrors.WrapError(pdferrors.ErrorTypeInvalidDocument, "cannot access file", err).WithFile(h.path)
	}

	info := &DocumentInfo{
		Path:         h.path,
		Size:         stat.Size(),
		ModifiedTime: stat.ModTime().Format(timeLayout),
		Pages:        h.reader.NumPage(),
		FillForms:    true,
	}
	if err := readMetadata(h.reader, info); err != nil {
		s.logger.Debugf("metadata of %s: %v", h.path, err)
	}
	return info, nil
}

// readMetadata copies the information dictionary. The reader panics on
// some malformed objects; metadata is optional so that is reported as an
// error only.
func readMetadata(r *pdf.Reader, info *DocumentInfo) (err error) {
	defer pdferrors.RecoverPage(0, &err)

	trailer := r.Trailer()
	if trailer.IsNull() {
		return nil
	}
	if encrypt := trailer.Key("Encrypt"); !encrypt.IsNull() {
		info.Encrypted = true
		perms := security.NewPermissions(int32(encrypt.Key("P").Int64()))
		info.Denied = perms.Denied()
		info.FillForms = perms.CanFillForms()
	}
	info.HasFields = trailer.Key("Root").Key("AcroForm").Key("Fields").Len() > 0

	dict := trailer.Key("Info")
	if dict.IsNull() {
		return nil
	}
	text := func(key string) string {
		return strings.TrimSpace(dict.Key(key).Text())
	}
	info.Title = text("Title")
	info.Author = text("Author")
	info.Subject = text("Subject")
	info.Keywords = text("Keywords")
	info.Creator = text("Creator")
	info.Producer = text("Producer")
	info.CreatedDate = text("CreationDate")
	return nil
}
