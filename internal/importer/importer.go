package importer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/encoding"

	"github.com/riconcilia/riconcilia/internal/model"
)

// Parser converts a raw statement export into a RawTable.
type Parser interface {
	Parse(r io.Reader) (model.RawTable, error)
	Format() string
	Extensions() []string
}

// Registry holds parsers keyed by file extension.
type Registry struct {
	parsers map[string]Parser
}

// FileInfo describes an importable file in a directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// Statement is the result of importing one bank statement file: the parsed
// table plus an advisory column mapping.
type Statement struct {
	FileName         string
	Extension        string
	Table            model.RawTable
	SuggestedMapping model.FieldMapping
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser for each of its extensions. Panics on duplicate
// extension.
func (r *Registry) Register(p Parser) {
	for _, ext := range p.Extensions() {
		key := strings.ToLower(ext)
		if _, ok := r.parsers[key]; ok {
			panic("duplicate parser extension: " + key)
		}
		r.parsers[key] = p
	}
}

// Get returns the parser for extension (with leading dot), or nil.
func (r *Registry) Get(ext string) Parser {
	return r.parsers[strings.ToLower(ext)]
}

// ForFile returns the parser for fileName's extension, or nil.
func (r *Registry) ForFile(fileName string) Parser {
	return r.Get(Extension(fileName))
}

// Extensions returns the registered extensions.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.parsers))
	for ext := range r.parsers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	return RegistryWithFallback(DefaultFallback)
}

// RegistryWithFallback is DefaultRegistry with a different legacy charset
// for statements that are not UTF-8. A nil fallback disables decoding.
func RegistryWithFallback(fallback encoding.Encoding) *Registry {
	r := NewRegistry()
	r.Register(&DelimitedParser{Fallback: fallback})
	return r
}

// Extension returns the lowercased extension of fileName with its leading
// dot, or "".
func Extension(fileName string) string {
	return strings.ToLower(filepath.Ext(fileName))
}

// ImportStatement parses a statement and infers a column mapping. Files
// with an extension no parser handles fail with model.ErrUnsupportedFormat
// before any parsing.
func ImportStatement(reg *Registry, fileName string, r io.Reader) (*Statement, error) {
	ext := Extension(fileName)
	p := reg.Get(ext)
	if p == nil {
		shown := ext
		if shown == "" {
			shown = "unknown"
		}
		return nil, fmt.Errorf("%w: %s (export the statement as CSV, TXT or TSV)", model.ErrUnsupportedFormat, shown)
	}

	table, err := p.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", fileName, err)
	}

	return &Statement{
		FileName:         fileName,
		Extension:        ext,
		Table:            table,
		SuggestedMapping: InferMapping(table.Headers),
	}, nil
}

// ImportStatementFile opens path and imports it.
func ImportStatementFile(reg *Registry, path string) (*Statement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening statement: %w", err)
	}
	defer f.Close()

	return ImportStatement(reg, filepath.Base(path), f)
}

// Scan returns files in dir whose extension is one of exts. A missing
// directory yields no files.
func Scan(dir string, exts ...string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading dir %s: %w", dir, err)
	}

	want := make(map[string]bool, len(exts))
	for _, ext := range exts {
		want[strings.ToLower(ext)] = true
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !want[Extension(e.Name())] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}
