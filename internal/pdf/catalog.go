package pdf

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ListDocuments walks the session directory for document files whose name
// matches query. Hidden directories are skipped and at most limit files
// are returned when limit is positive.
func (s *Session) ListDocuments(query string, limit int) ([]FileInfo, error) {
	root, err := filepath.Abs(s.paths.Root())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory path: %w", err)
	}
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("directory not accessible: %w", err)
	}
	query = strings.ToLower(strings.TrimSpace(query))

	files := []FileInfo{}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if limit > 0 && len(files) >= limit {
			return filepath.SkipAll
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".pdf") || !matchesQuery(d.Name(), query) {
			return nil
		}
		if ok, err := s.paths.Contains(path); err != nil || !ok {
			return nil
		}

		info, err := d.Info()
		if err != nil || s.validator.ValidateFileInfo(path, info) != nil {
			return nil
		}
		files = append(files, FileInfo{
			Path:         path,
			Name:         info.Name(),
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format(timeLayout),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory: %w", err)
	}
	return files, nil
}

// matchesQuery matches a lowercase query against a file name: as a
// substring, or word by word with every query word inside some name word
func matchesQuery(filename, query string) bool {
	if query == "" {
		return true
	}
	name := strings.TrimSuffix(strings.ToLower(filename), ".pdf")
	if strings.Contains(name, query) {
		return true
	}

	words := splitWords(name)
	for _, q := range splitWords(query) {
		found := false
		for _, w := range words {
			if strings.Contains(w, q) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func splitWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return strings.ContainsRune(" _-.()[]", r)
	})
}
