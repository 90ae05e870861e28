// Package namespace manages the per-namespace working directories under
// <root>/.docetl/<namespace>. Every dataset that a provider resolves is
// written here before it is handed back.
package namespace

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/ajitpratap0/wrangler/pkg/errors"
)

const (
	// BaseDir is the directory under the root that holds all namespaces
	BaseDir = ".docetl"
	// DocumentsDir holds files saved through SaveDocuments
	DocumentsDir = "documents"
	// DefaultFilename replaces empty materialized file names
	DefaultFilename = "dataset.json"
)

// Store roots namespace directories at Root.
type Store struct {
	Root string
}

// New returns a Store rooted at root.
func New(root string) *Store {
	return &Store{Root: root}
}

// Dir returns <root>/.docetl/<ns>.
func (s *Store) Dir(ns string) string {
	return filepath.Join(s.Root, BaseDir, ns)
}

// Subdir returns <root>/.docetl/<ns>/<sub>.
func (s *Store) Subdir(ns, sub string) string {
	return filepath.Join(s.Dir(ns), sub)
}

// Validate rejects namespaces that would escape the namespace root.
func Validate(ns string) error {
	if ns == "" {
		return errors.New(errors.ErrorTypeInvalidArgument, "namespace is required")
	}
	if ns == "." || ns == ".." || strings.ContainsAny(ns, `/\`+"\x00") {
		return errors.Newf(errors.ErrorTypeInvalidArgument, "invalid namespace %q", ns)
	}
	return nil
}

// Ensure creates the namespace directory if it is missing and reports
// whether it already existed.
func (s *Store) Ensure(ns string) (bool, error) {
	if err := Validate(ns); err != nil {
		return false, err
	}
	dir := s.Dir(ns)
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return false, errors.Newf(errors.ErrorTypeFile, "namespace path %s is not a directory", dir)
		}
		return true, nil
	}
	if !os.IsNotExist(err) {
		return false, errors.Wrap(err, errors.ErrorTypeFile, "Failed to check namespace")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, errors.Wrap(err, errors.ErrorTypeFile, "Failed to create namespace")
	}
	return false, nil
}

// Materialize writes content to <ns>/<sub>/<base(filename)> and returns the
// absolute path. Directories are created as needed and the file is replaced
// atomically.
func (s *Store) Materialize(ns, sub, filename string, content []byte) (string, error) {
	if err := Validate(ns); err != nil {
		return "", err
	}
	dir := s.Subdir(ns, sub)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeFile, "Failed to create namespace directory").
			WithDetail("dir", dir)
	}

	target := filepath.Join(dir, baseName(filename))
	if err := WriteFileAtomic(target, content); err != nil {
		return "", err
	}

	abs, err := filepath.Abs(target)
	if err != nil {
		return target, nil
	}
	return abs, nil
}

// Document is a file passed to SaveDocuments.
type Document struct {
	Name    string
	Content []byte
}

// SavedDocument reports where a Document was written.
type SavedDocument struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// SaveDocuments writes each document under <ns>/documents with a sanitized
// file name.
func (s *Store) SaveDocuments(ns string, docs []Document) ([]SavedDocument, error) {
	saved := make([]SavedDocument, 0, len(docs))
	for _, doc := range docs {
		path, err := s.Materialize(ns, DocumentsDir, SanitizeFilename(doc.Name), doc.Content)
		if err != nil {
			return saved, err
		}
		saved = append(saved, SavedDocument{Name: doc.Name, Path: path})
	}
	return saved, nil
}

// SanitizeFilename keeps letters, digits, '.' and '-' and replaces every
// other character with '_'.
func SanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '-' {
			return r
		}
		return '_'
	}, name)
}

// WriteFileAtomic writes content to a temporary file next to path and
// renames it into place.
func WriteFileAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "Failed to create temporary file").
			WithDetail("path", path)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Wrap(err, errors.ErrorTypeFile, "Failed to write file").WithDetail("path", path)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrap(err, errors.ErrorTypeFile, "Failed to write file").WithDetail("path", path)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrap(err, errors.ErrorTypeFile, "Failed to set file mode").WithDetail("path", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrap(err, errors.ErrorTypeFile, "Failed to move file into place").WithDetail("path", path)
	}
	return nil
}

// ReadFile reads a local dataset path. A missing path is a not_found error.
func ReadFile(path string) (string, []byte, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	info, err := os.Stat(abs)
	if os.IsNotExist(err) {
		return "", nil, errors.New(errors.ErrorTypeNotFound, "Dataset not found").WithDetail("path", path)
	}
	if err != nil {
		return "", nil, errors.Wrap(err, errors.ErrorTypeFile, "Failed to read dataset").WithDetail("path", path)
	}
	if info.IsDir() {
		return "", nil, errors.New(errors.ErrorTypeNotFound, "Dataset not found").WithDetail("path", path)
	}
	content, err := os.ReadFile(abs)
	if err != nil {
		return "", nil, errors.Wrap(err, errors.ErrorTypeFile, "Failed to read dataset").WithDetail("path", path)
	}
	return abs, content, nil
}

func baseName(filename string) string {
	name := filepath.Base(filepath.Clean("/" + strings.ReplaceAll(filename, `\`, "/")))
	if name == "/" || name == "." || name == "" {
		return DefaultFilename
	}
	return name
}
