package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riconcilia/riconcilia/internal/model"
)

func TestImportStatement_Testdata(t *testing.T) {
	st, err := ImportStatementFile(DefaultRegistry(), "../../testdata/estratto_conto.csv")
	require.NoError(t, err)

	assert.Equal(t, "estratto_conto.csv", st.FileName)
	assert.Equal(t, ".csv", st.Extension)
	assert.Equal(t, ';', st.Table.Delimiter)
	assert.Len(t, st.Table.Headers, 8)
	assert.Len(t, st.Table.Records, 5)

	col, ok := st.SuggestedMapping.Column(model.FieldBookingDate)
	require.True(t, ok)
	assert.Equal(t, "Data contabile", col)
}

func TestImportStatement_UnsupportedFormat(t *testing.T) {
	for _, name := range []string{"estratto.xlsx", "estratto.pdf", "estratto"} {
		_, err := ImportStatement(DefaultRegistry(), name, strings.NewReader("a;b\n1;2\n"))
		require.Error(t, err, name)
		assert.ErrorIs(t, err, model.ErrUnsupportedFormat)
	}
}

func TestImportStatement_CaseInsensitiveExtension(t *testing.T) {
	st, err := ImportStatement(DefaultRegistry(), "EXPORT.TSV", strings.NewReader("Data\tImporto\n2025-01-02\t10\n"))
	require.NoError(t, err)
	assert.Equal(t, ".tsv", st.Extension)
	assert.Equal(t, '\t', st.Table.Delimiter)
}

func TestImportStatement_InsufficientData(t *testing.T) {
	_, err := ImportStatement(DefaultRegistry(), "a.csv", strings.NewReader("solo intestazione\n\n\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInsufficientData)
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Get(".csv"))
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(&DelimitedParser{})
	p := r.Get(".txt")
	require.NotNil(t, p)
	assert.Equal(t, "delimited", p.Format())
	assert.Equal(t, []string{".csv", ".tsv", ".txt"}, r.Extensions())
}

func TestRegistry_CaseInsensitive(t *testing.T) {
	r := DefaultRegistry()
	assert.NotNil(t, r.Get(".CSV"))
	assert.NotNil(t, r.ForFile("movimenti.Txt"))
	assert.Nil(t, r.ForFile("movimenti.xml"))
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(&DelimitedParser{})
	assert.Panics(t, func() { r.Register(&DelimitedParser{}) })
}

func TestScan_FiltersExtensions(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.xml"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "B.XML"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "note.txt"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub.xml"), 0o755))

	files, err := Scan(dir, ".xml")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "B.XML", files[0].Name)
	assert.Equal(t, "a.xml", files[1].Name)
	assert.Equal(t, int64(1), files[1].Size)
}

func TestScan_MissingDir(t *testing.T) {
	files, err := Scan(filepath.Join(t.TempDir(), "nope"), ".xml")
	require.NoError(t, err)
	assert.Nil(t, files)
}
