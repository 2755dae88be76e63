package excel

// ExcelConfig holds configuration for workbook decoding
type ExcelConfig struct {
	// MaxBytes caps how much of an upload is read; 0 disables the cap
	MaxBytes int64 `json:"max_bytes"`
	// FormattedValues reads xlsx cells as Excel displays them instead of
	// their stored raw values
	FormattedValues bool `json:"formatted_values"`
	// Charset is passed to the legacy .xls decoder
	Charset string `json:"charset"`
}

// DefaultExcelConfig returns sensible defaults for workbook processing
func DefaultExcelConfig() ExcelConfig {
	return ExcelConfig{
		MaxBytes: 50 * 1024 * 1024,
		Charset:  "utf-8",
	}
}
