package excel

import (
	"fmt"
	"path/filepath"
	"strings"

	"qcview/internal/errors"
)

// Format identifies a supported workbook encoding
type Format string

const (
	FormatXLSX    Format = "xlsx"
	FormatXLS     Format = "xls"
	FormatCSV     Format = "csv"
	FormatUnknown Format = ""
)

var extensionFormats = map[string]Format{
	".xlsx": FormatXLSX,
	".xlsm": FormatXLSX,
	".xltx": FormatXLSX,
	".xltm": FormatXLSX,
	".xls":  FormatXLS,
	".csv":  FormatCSV,
}

// FormatForExtension maps a file extension (with dot, any case) to a format
func FormatForExtension(ext string) Format {
	return extensionFormats[strings.ToLower(ext)]
}

// SupportedExtensions lists every accepted extension
func SupportedExtensions() []string {
	return []string{".xlsx", ".xlsm", ".xltx", ".xltm", ".xls", ".csv"}
}

// CheckUpload validates an uploaded file's name and declared size before
// it is decoded. A limit of 0 disables the size check.
func CheckUpload(filename string, size, limit int64) error {
	if FormatForExtension(filepath.Ext(filename)) == FormatUnknown {
		return errors.InvalidInput(fmt.Sprintf("only %s files are allowed",
			strings.Join(SupportedExtensions(), ", ")))
	}
	if limit > 0 && size > limit {
		return errors.InvalidInput(fmt.Sprintf("file size (%.1f MB) exceeds the %.0f MB limit",
			float64(size)/(1024*1024), float64(limit)/(1024*1024)))
	}
	return nil
}
