package excel

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"qcview/domain/sheet"
	"qcview/internal"
	"qcview/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func quietReader(cfg ExcelConfig) *DataReader {
	return NewDataReader(cfg, internal.NewLoggerTo(io.Discard, internal.LogLevelError))
}

func buildWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"제품명", "날짜", "인장강도", "연신율", "모듈러스"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"ProdA", "25.07.22", 31.5, 410, "N/A"}))
	// sparse row: B3 and the trailing cells are left empty
	require.NoError(t, f.SetCellValue("Sheet1", "A3", "ProdB"))
	require.NoError(t, f.SetCellValue("Sheet1", "C3", 29.75))

	_, err := f.NewSheet("Ignored")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Ignored", "A1", "second sheet"))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestReadXLSXFirstSheetOnly(t *testing.T) {
	reader := quietReader(DefaultExcelConfig())
	ds, err := reader.Read(context.Background(), "results.xlsx", bytes.NewReader(buildWorkbook(t)))
	require.NoError(t, err)

	require.Equal(t, 3, ds.Len())
	assert.Equal(t, []string{"제품명", "날짜", "인장강도", "연신율", "모듈러스"}, ds.Header())

	row := ds.Rows[1]
	assert.Equal(t, sheet.String("ProdA"), row[0])
	assert.Equal(t, sheet.String("25.07.22"), row[1])
	assert.Equal(t, sheet.Number(31.5), row[2])
	assert.Equal(t, sheet.Number(410), row[3])
	assert.Equal(t, sheet.String("N/A"), row[4])

	sparse := ds.Rows[2]
	require.Len(t, sparse, 3)
	assert.True(t, sparse[1].IsAbsent())
	assert.Equal(t, sheet.Number(29.75), sparse[2])
}

func TestReadCSV(t *testing.T) {
	content := "\xef\xbb\xbf제품,날짜,인장강도\nA,25.07.22,12.5\nB,,abc\n2024\n"
	ds, err := quietReader(DefaultExcelConfig()).Read(context.Background(), "r.CSV", strings.NewReader(content))
	require.NoError(t, err)

	require.Equal(t, 4, ds.Len())
	assert.Equal(t, []string{"제품", "날짜", "인장강도"}, ds.Header())
	assert.Equal(t, sheet.Number(12.5), ds.Rows[1][2])
	assert.True(t, ds.Rows[2][1].IsAbsent())
	assert.Equal(t, sheet.String("abc"), ds.Rows[2][2])
	assert.Equal(t, sheet.Row{sheet.Number(2024)}, ds.Rows[3])
}

func TestReadRejectsUnknownAndEmpty(t *testing.T) {
	reader := quietReader(DefaultExcelConfig())

	_, err := reader.Read(context.Background(), "notes.xlsx", strings.NewReader(""))
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, err = reader.Read(context.Background(), "image.png", bytes.NewReader([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}))
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestReadMalformedWorkbook(t *testing.T) {
	_, err := quietReader(DefaultExcelConfig()).Read(context.Background(), "broken.xlsx", strings.NewReader("definitely not a zip archive"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeParseError, errors.GetCode(err))
}

func TestReadEnforcesSizeLimit(t *testing.T) {
	cfg := DefaultExcelConfig()
	cfg.MaxBytes = 8
	_, err := quietReader(cfg).Read(context.Background(), "big.csv", strings.NewReader("a,b,c,d,e,f\n"))
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestReadHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := quietReader(DefaultExcelConfig()).Read(ctx, "a.csv", strings.NewReader("a\n"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "results.xlsx")
	require.NoError(t, os.WriteFile(path, buildWorkbook(t), 0o644))

	ds, err := quietReader(DefaultExcelConfig()).ReadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Len())

	_, err = quietReader(DefaultExcelConfig()).ReadFile(context.Background(), filepath.Join(dir, "missing.xlsx"))
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatXLSX, DetectFormat("a.XLSM", nil))
	assert.Equal(t, FormatXLS, DetectFormat("legacy.xls", nil))
	assert.Equal(t, FormatCSV, DetectFormat("export", []byte("제품,날짜\nA,25.07.22\nB,25.07.23\n")))
	assert.Equal(t, FormatUnknown, DetectFormat("blob", []byte{0x00, 0x01, 0x02}))
}

func TestCheckUpload(t *testing.T) {
	assert.NoError(t, CheckUpload("qc.xlsx", 10, 100))
	assert.NoError(t, CheckUpload("QC.CSV", 10, 0))

	err := CheckUpload("notes.txt", 10, 100)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	err = CheckUpload("big.xls", 3*1024*1024, 1024*1024)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds the 1 MB limit")
}
