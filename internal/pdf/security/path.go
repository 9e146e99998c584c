// Package security confines the documents a session may open or write to
// one directory tree.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator checks document paths against a configured root directory
type PathValidator struct {
	root string
}

// NewPathValidator creates a validator rooted at dir. The directory does
// not have to exist yet; until it does, every path is accepted.
func NewPathValidator(dir string) (*PathValidator, error) {
	if dir == "" {
		return nil, fmt.Errorf("configured directory cannot be empty")
	}
	return &PathValidator{root: dir}, nil
}

// Root returns the configured directory
func (v *PathValidator) Root() string {
	return v.root
}

// Resolve turns path into a clean absolute path inside the root. Relative
// paths are taken relative to the root. NUL bytes are dropped.
func (v *PathValidator) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(v.root, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	if err := v.ValidatePath(abs); err != nil {
		return "", err
	}
	return abs, nil
}

// ValidatePath fails when path lies outside the root
func (v *PathValidator) ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}
	ok, err := v.Contains(path)
	if err != nil {
		return fmt.Errorf("path validation failed: %w", err)
	}
	if !ok {
		return fmt.Errorf("path is outside configured directory: %s", path)
	}
	return nil
}

// ValidateTarget checks a path about to be written: it must be inside the
// root and its parent must be an existing directory
func (v *PathValidator) ValidateTarget(path string) error {
	if err := v.ValidatePath(path); err != nil {
		return err
	}
	parent := filepath.Dir(path)
	info, err := os.Stat(parent)
	if err != nil {
		return fmt.Errorf("cannot access target directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("target parent is not a directory: %s", parent)
	}
	// the parent may be a symlink leading out of the root
	return v.ValidatePath(parent)
}

// Contains reports whether path is the root or lies below it. Symlinks of
// both the path and the root are resolved; the lexical and the resolved
// path must both be inside.
func (v *PathValidator) Contains(path string) (bool, error) {
	if _, err := os.Stat(v.root); os.IsNotExist(err) {
		return true, nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve path: %w", err)
	}
	root, err := filepath.Abs(v.root)
	if err != nil {
		return false, fmt.Errorf("failed to resolve configured directory: %w", err)
	}
	abs, root = filepath.Clean(abs), filepath.Clean(root)

	real := abs
	if info, err := os.Lstat(abs); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if resolved, err := filepath.EvalSymlinks(abs); err == nil {
			real = resolved
		}
	}
	realRoot := root
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		realRoot = resolved
	}

	inside := func(p string) bool {
		return under(p, root) || under(p, realRoot)
	}
	return inside(abs) && inside(real), nil
}

func under(path, dir string) bool {
	if path == dir {
		return true
	}
	if !strings.HasSuffix(dir, string(filepath.Separator)) {
		dir += string(filepath.Separator)
	}
	return strings.HasPrefix(path, dir)
}
