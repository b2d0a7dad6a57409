package fattura

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riconcilia/riconcilia/internal/model"
)

func TestImportDir_Testdata(t *testing.T) {
	res, err := NewImporter(nil).ImportDir("../../testdata/fatture", model.InvoiceIssued)
	require.NoError(t, err)

	assert.Equal(t, ImportStats{TotalFiles: 4, ImportedFiles: 2, ErrorFiles: 1, DuplicateFiles: 1}, res.Stats)

	require.Len(t, res.Invoices, 2)
	assert.Equal(t, "IT01234567890_00001.xml", res.Invoices[0].FileName)
	assert.Equal(t, "IT05555555555_00007.xml", res.Invoices[1].FileName)

	require.Len(t, res.Duplicates, 1)
	assert.Equal(t, "IT01234567890_00001_copia.xml", res.Duplicates[0].FileName)
	assert.ErrorIs(t, res.Duplicates[0], model.ErrDuplicateInvoice)
	assert.Contains(t, res.Duplicates[0].Reason, "IT01234567890_00001.xml")

	require.Len(t, res.Errors, 1)
	assert.Equal(t, "senza_numero.xml", res.Errors[0].FileName)
	assert.ErrorIs(t, res.Errors[0], model.ErrMissingInvoiceNumber)
}

func TestImport_SkipsNonXML(t *testing.T) {
	files := []File{
		{Name: "readme.txt", Data: []byte("hello")},
		{Name: "a.XML", Data: invoiceXML("", datiGenerali("1", "2025-01-10", "10.00"))},
	}
	res, err := NewImporter(nil).Import(files, model.InvoiceReceived)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Stats.TotalFiles)
	assert.Equal(t, 1, res.Stats.ImportedFiles)
	assert.Equal(t, model.InvoiceReceived, res.Invoices[0].Type)
}

func TestImport_NoXMLFiles(t *testing.T) {
	_, err := NewImporter(nil).Import([]File{{Name: "a.csv"}}, model.InvoiceIssued)
	assert.ErrorIs(t, err, model.ErrNoInvoiceFiles)

	_, err = NewImporter(nil).Import(nil, model.InvoiceIssued)
	assert.ErrorIs(t, err, model.ErrNoInvoiceFiles)
}

func TestImport_BadFileDoesNotAbortBatch(t *testing.T) {
	files := []File{
		{Name: "broken.xml", Data: []byte("<FatturaElettronica>")},
		{Name: "ok.xml", Data: invoiceXML("", datiGenerali("9", "2025-01-10", "10.00"))},
		{Name: "zero.xml", Data: invoiceXML("", datiGenerali("10", "2025-01-10", "0"))},
	}
	res, err := NewImporter(nil).Import(files, model.InvoiceIssued)
	require.NoError(t, err)

	require.Len(t, res.Invoices, 1)
	assert.Equal(t, "9", res.Invoices[0].Number)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, "broken.xml", res.Errors[0].FileName)
	assert.ErrorIs(t, res.Errors[0], model.ErrMalformedXML)
	assert.Equal(t, "zero.xml", res.Errors[1].FileName)
	assert.ErrorIs(t, res.Errors[1], model.ErrInvalidAmount)
}

func TestImport_KeepsInputOrderUnderConcurrency(t *testing.T) {
	var files []File
	for i := range 40 {
		n := string(rune('A'+i%26)) + string(rune('0'+i/26))
		files = append(files, File{Name: n + ".xml", Data: invoiceXML("", datiGenerali(n, "2025-01-10", "10.00"))})
	}
	im := NewImporter(nil)
	im.workers = 4

	res, err := im.Import(files, model.InvoiceIssued)
	require.NoError(t, err)
	require.Len(t, res.Invoices, len(files))
	for i, inv := range res.Invoices {
		assert.Equal(t, files[i].Name, inv.FileName)
	}
}

func TestImportPaths(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "f.xml")
	require.NoError(t, os.WriteFile(p, invoiceXML("", datiGenerali("5", "2025-01-10", "10.00")), 0o644))
	other := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(other, []byte("x"), 0o644))

	res, err := NewImporter(nil).ImportPaths([]string{p, other}, model.InvoiceIssued)
	require.NoError(t, err)
	require.Len(t, res.Invoices, 1)
	assert.Equal(t, "f.xml", res.Invoices[0].FileName)
}

func TestImportDir_Missing(t *testing.T) {
	_, err := NewImporter(nil).ImportDir(filepath.Join(t.TempDir(), "none"), model.InvoiceIssued)
	assert.ErrorIs(t, err, model.ErrNoInvoiceFiles)
}

func TestImportSources_DirectoriesAndFiles(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"a", "b"} {
		require.NoError(t, os.Mkdir(filepath.Join(root, d), 0o755))
	}
	write := func(rel, number string) string {
		p := filepath.Join(root, rel)
		require.NoError(t, os.WriteFile(p, invoiceXML("", datiGenerali(number, "2025-01-10", "10.00")), 0o644))
		return p
	}
	write("a/2.xml", "2")
	write("a/1.xml", "1")
	write("b/3.xml", "3")
	loose := write("4.xml", "4")

	paths, err := ExpandPaths([]string{filepath.Join(root, "a"), loose, filepath.Join(root, "b")})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a", "1.xml"),
		filepath.Join(root, "a", "2.xml"),
		loose,
		filepath.Join(root, "b", "3.xml"),
	}, paths)

	res, err := NewImporter(nil).ImportSources([]string{filepath.Join(root, "a"), filepath.Join(root, "b")}, model.InvoiceIssued)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Stats.ImportedFiles)
}

func TestExpandPaths_Missing(t *testing.T) {
	_, err := ExpandPaths([]string{filepath.Join(t.TempDir(), "none")})
	assert.ErrorIs(t, err, os.ErrNotExist)
}
