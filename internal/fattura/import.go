package fattura

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/riconcilia/riconcilia/internal/importer"
	"github.com/riconcilia/riconcilia/internal/model"
)

const xmlExtension = ".xml"

// File is one candidate invoice document.
type File struct {
	Name string
	Data []byte
}

// FileIssue is a per-file failure or duplicate report.
type FileIssue struct {
	FileName string `json:"fileName"`
	Reason   string `json:"reason"`
	Err      error  `json:"-"`
}

func (i FileIssue) Error() string {
	return i.FileName + ": " + i.Reason
}

func (i FileIssue) Unwrap() error { return i.Err }

// ImportStats counts the outcome of a batch. TotalFiles covers only the
// .xml files considered.
type ImportStats struct {
	TotalFiles     int `json:"totalFiles"`
	ImportedFiles  int `json:"importedFiles"`
	ErrorFiles     int `json:"errorFiles"`
	DuplicateFiles int `json:"duplicateFiles"`
}

// ImportResult is the outcome of importing a batch of invoice files.
type ImportResult struct {
	Invoices   []model.Invoice `json:"invoices"`
	Errors     []FileIssue     `json:"errors"`
	Duplicates []FileIssue     `json:"duplicates"`
	Stats      ImportStats     `json:"stats"`
}

// Importer extracts invoices from batches of files.
type Importer struct {
	logger  *slog.Logger
	workers int
}

// NewImporter returns an Importer that parses with up to GOMAXPROCS
// workers. A nil logger discards output.
func NewImporter(logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Importer{logger: logger, workers: runtime.GOMAXPROCS(0)}
}

type extracted struct {
	invoice model.Invoice
	err     error
}

// Import extracts every .xml file in files as type t; other files are
// skipped. A failing file is reported and excluded without stopping the
// batch. Results keep input order, so the first of two identical invoices
// is the one ingested.
func (im *Importer) Import(files []File, t model.InvoiceType) (*ImportResult, error) {
	xmlFiles := make([]File, 0, len(files))
	for _, f := range files {
		if importer.Extension(f.Name) == xmlExtension {
			xmlFiles = append(xmlFiles, f)
		}
	}
	if len(xmlFiles) == 0 {
		return nil, model.ErrNoInvoiceFiles
	}

	results := im.extractAll(xmlFiles, t)

	res := &ImportResult{
		Invoices:   []model.Invoice{},
		Errors:     []FileIssue{},
		Duplicates: []FileIssue{},
	}
	seen := make(map[string]string, len(xmlFiles))
	for i, r := range results {
		name := xmlFiles[i].Name
		if r.err != nil {
			im.logger.Debug("invoice rejected", "file", name, "error", r.err)
			res.Errors = append(res.Errors, FileIssue{FileName: name, Reason: r.err.Error(), Err: r.err})
			continue
		}
		if first, ok := seen[r.invoice.ID]; ok {
			im.logger.Debug("duplicate invoice", "file", name, "first", first, "id", r.invoice.ID)
			res.Duplicates = append(res.Duplicates, FileIssue{
				FileName: name,
				Reason:   fmt.Sprintf("duplicate of %s", first),
				Err:      model.ErrDuplicateInvoice,
			})
			continue
		}
		seen[r.invoice.ID] = name
		res.Invoices = append(res.Invoices, r.invoice)
	}

	res.Stats = ImportStats{
		TotalFiles:     len(xmlFiles),
		ImportedFiles:  len(res.Invoices),
		ErrorFiles:     len(res.Errors),
		DuplicateFiles: len(res.Duplicates),
	}
	im.logger.Info("invoices imported",
		"type", string(t),
		"files", res.Stats.TotalFiles,
		"imported", res.Stats.ImportedFiles,
		"errors", res.Stats.ErrorFiles,
		"duplicates", res.Stats.DuplicateFiles,
	)
	return res, nil
}

// extractAll parses files on a bounded worker pool. Slot i of the result
// belongs to files[i].
func (im *Importer) extractAll(files []File, t model.InvoiceType) []extracted {
	results := make([]extracted, len(files))
	jobs := make(chan int)

	workers := min(max(im.workers, 1), len(files))
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				inv, err := Extract(files[i].Data, files[i].Name, t)
				results[i] = extracted{invoice: inv, err: err}
			}
		}()
	}
	for i := range files {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

// ImportDir imports every .xml file directly inside dir.
func (im *Importer) ImportDir(dir string, t model.InvoiceType) (*ImportResult, error) {
	infos, err := importer.Scan(dir, xmlExtension)
	if err != nil {
		return nil, err
	}
	return im.ImportPaths(pathsOf(infos), t)
}

// ImportPaths reads and imports the given files.
func (im *Importer) ImportPaths(paths []string, t model.InvoiceType) (*ImportResult, error) {
	files := make([]File, 0, len(paths))
	for _, p := range paths {
		if importer.Extension(p) != xmlExtension {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading invoice %s: %w", p, err)
		}
		files = append(files, File{Name: filepath.Base(p), Data: data})
	}
	return im.Import(files, t)
}

// ImportSources imports a mix of directories and files. Directories
// contribute the .xml files directly inside them, in name order.
func (im *Importer) ImportSources(sources []string, t model.InvoiceType) (*ImportResult, error) {
	paths, err := ExpandPaths(sources)
	if err != nil {
		return nil, err
	}
	return im.ImportPaths(paths, t)
}

// ExpandPaths replaces each directory in sources with its .xml files.
// Other paths are kept as given.
func ExpandPaths(sources []string) ([]string, error) {
	var out []string
	for _, src := range sources {
		info, err := os.Stat(src)
		if err != nil {
			return nil, fmt.Errorf("reading invoices: %w", err)
		}
		if !info.IsDir() {
			out = append(out, src)
			continue
		}
		infos, err := importer.Scan(src, xmlExtension)
		if err != nil {
			return nil, err
		}
		out = append(out, pathsOf(infos)...)
	}
	return out, nil
}

func pathsOf(infos []importer.FileInfo) []string {
	out := make([]string, len(infos))
	for i, fi := range infos {
		out[i] = fi.Path
	}
	return out
}
