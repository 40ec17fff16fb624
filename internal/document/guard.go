package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/a3tai/mcp-pdf-annotator/internal/errors"
)

// Guard restricts opened documents to one directory and a maximum size
type Guard struct {
	root        string
	maxFileSize int64
}

// NewGuard creates a guard for root. A non-positive maxFileSize disables the size check.
func NewGuard(root string, maxFileSize int64) (*Guard, error) {
	if root == "" {
		return nil, fmt.Errorf("document directory cannot be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve document directory: %w", err)
	}
	return &Guard{root: filepath.Clean(abs), maxFileSize: maxFileSize}, nil
}

// Root returns the guarded directory
func (g *Guard) Root() string { return g.root }

// Resolve turns path (absolute or relative to the root) into a checked absolute
// path of an existing regular file inside the root.
func (g *Guard) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if strings.TrimSpace(path) == "" {
		return "", errors.New(errors.ErrorTypeInvalidInput, "path cannot be empty")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(g.root, path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrap(errors.ErrorTypeInvalidInput, "failed to resolve path", err)
	}
	abs = filepath.Clean(abs)

	if !g.within(abs) {
		return "", errors.New(errors.ErrorTypeInvalidInput, "path is outside the document directory").WithFile(path)
	}

	// the real location must be inside the root as well
	target := abs
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		target = resolved
	}
	if target != abs && !g.within(target) {
		return "", errors.New(errors.ErrorTypeInvalidInput, "path is outside the document directory").WithFile(path)
	}

	info, err := os.Stat(target)
	if os.IsNotExist(err) {
		return "", errors.New(errors.ErrorTypeLoadFailed, "file does not exist").WithFile(path)
	}
	if err != nil {
		return "", errors.Wrap(errors.ErrorTypeLoadFailed, "cannot access file", err).WithFile(path)
	}
	if info.IsDir() {
		return "", errors.New(errors.ErrorTypeInvalidInput, "path is a directory, not a file").WithFile(path)
	}
	if g.maxFileSize > 0 && info.Size() > g.maxFileSize {
		return "", errors.New(errors.ErrorTypeLoadFailed,
			fmt.Sprintf("file too large: %d bytes (max: %d bytes)", info.Size(), g.maxFileSize)).WithFile(path)
	}
	return abs, nil
}

func (g *Guard) within(path string) bool {
	roots := []string{g.root}
	if resolved, err := filepath.EvalSymlinks(g.root); err == nil && resolved != g.root {
		roots = append(roots, resolved)
	}
	for _, root := range roots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
