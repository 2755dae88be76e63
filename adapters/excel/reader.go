package excel

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"qcview/domain/sheet"
	"qcview/internal"
	"qcview/internal/errors"

	"github.com/extrame/xls"
	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"
)

// DataReader decodes the first sheet of an uploaded workbook into a Dataset
type DataReader struct {
	config ExcelConfig
	logger *internal.Logger
}

// NewDataReader creates a reader for xlsx, xls and csv workbooks
func NewDataReader(config ExcelConfig, logger *internal.Logger) *DataReader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DataReader{config: config, logger: logger.WithComponent("DataReader")}
}

// ReadFile opens path and decodes it
func (r *DataReader) ReadFile(ctx context.Context, path string) (*sheet.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("workbook " + path)
		}
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()
	return r.Read(ctx, filepath.Base(path), f)
}

// Read consumes src and decodes the first sheet. name is only used to pick
// the decoder; when its extension is unknown the content is sniffed.
// Header cells are taken literally and empty cells become absent.
func (r *DataReader) Read(ctx context.Context, name string, src io.Reader) (*sheet.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	startTime := time.Now()
	data, err := r.readAll(src)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.InvalidInput("workbook is empty")
	}

	format := DetectFormat(name, data)
	r.logger.Debug("decoding %s as %s (%d bytes)", name, format, len(data))

	var ds *sheet.Dataset
	switch format {
	case FormatXLSX:
		ds, err = r.decodeXLSX(data)
	case FormatXLS:
		ds, err = r.decodeXLS(data)
	case FormatCSV:
		ds, err = r.decodeCSV(data)
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unsupported workbook format: %s", name))
	}
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.logger.Info("%s decoded in %.2fms (%d rows, %d columns)",
		name, float64(time.Since(startTime).Nanoseconds())/1e6, ds.Len(), ds.Width())
	return ds, nil
}

func (r *DataReader) readAll(src io.Reader) ([]byte, error) {
	if r.config.MaxBytes <= 0 {
		data, err := io.ReadAll(src)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read workbook")
		}
		return data, nil
	}
	data, err := io.ReadAll(io.LimitReader(src, r.config.MaxBytes+1))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read workbook")
	}
	if int64(len(data)) > r.config.MaxBytes {
		return nil, errors.InvalidInput(fmt.Sprintf("workbook exceeds the %d byte limit", r.config.MaxBytes))
	}
	return data, nil
}

// DetectFormat picks a decoder from the file extension, falling back to
// content sniffing
func DetectFormat(name string, data []byte) Format {
	if f := FormatForExtension(filepath.Ext(name)); f != FormatUnknown {
		return f
	}
	mtype := mimetype.Detect(data)
	for m := mtype; m != nil; m = m.Parent() {
		if f := FormatForExtension(m.Extension()); f != FormatUnknown {
			return f
		}
	}
	return FormatUnknown
}

// decodeXLSX reads the first sheet with excelize
func (r *DataReader) decodeXLSX(data []byte) (*sheet.Dataset, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.ParseError("xlsx", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.ParseError("xlsx", fmt.Errorf("workbook has no sheets"))
	}
	name := sheets[0]

	opts := excelize.Options{RawCellValue: !r.config.FormattedValues}
	rows, err := f.GetRows(name, opts)
	if err != nil {
		return nil, errors.ParseError("xlsx", fmt.Errorf("sheet %q: %w", name, err))
	}

	ds := &sheet.Dataset{Rows: make([]sheet.Row, len(rows))}
	for i, raw := range rows {
		row := make(sheet.Row, len(raw))
		for j, value := range raw {
			if value == "" {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return nil, errors.ParseError("xlsx", err)
			}
			cellType, err := f.GetCellType(name, axis)
			if err != nil {
				return nil, errors.ParseError("xlsx", err)
			}
			row[j] = xlsxCell(cellType, value)
		}
		ds.Rows[i] = trimTrailing(row)
	}
	return ds, nil
}

// xlsxCell classifies a stored value. Cells without an explicit type are
// numeric in OOXML.
func xlsxCell(cellType excelize.CellType, value string) sheet.Cell {
	switch cellType {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return sheet.Number(v)
		}
	case excelize.CellTypeBool:
		switch value {
		case "1":
			return sheet.String("TRUE")
		case "0":
			return sheet.String("FALSE")
		}
	}
	return sheet.String(value)
}

// decodeXLS reads the first sheet of a legacy BIFF workbook
func (r *DataReader) decodeXLS(data []byte) (*sheet.Dataset, error) {
	charset := r.config.Charset
	if charset == "" {
		charset = "utf-8"
	}
	wb, err := xls.OpenReader(bytes.NewReader(data), charset)
	if err != nil {
		return nil, errors.ParseError("xls", err)
	}
	if wb.NumSheets() == 0 {
		return nil, errors.ParseError("xls", fmt.Errorf("workbook has no sheets"))
	}
	ws := wb.GetSheet(0)
	if ws == nil {
		return nil, errors.ParseError("xls", fmt.Errorf("first sheet unreadable"))
	}

	ds := &sheet.Dataset{}
	for i := 0; i <= int(ws.MaxRow); i++ {
		xr := ws.Row(i)
		if xr == nil {
			ds.Rows = append(ds.Rows, sheet.Row{})
			continue
		}
		row := make(sheet.Row, 0, xr.LastCol())
		for j := 0; j < xr.LastCol(); j++ {
			value := xr.Col(j)
			if i == 0 {
				row = append(row, headerCell(value))
				continue
			}
			row = append(row, inferCell(value))
		}
		ds.Rows = append(ds.Rows, trimTrailing(row))
	}
	return ds, nil
}

// decodeCSV reads comma separated text, inferring numeric cells
func (r *DataReader) decodeCSV(data []byte) (*sheet.Dataset, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.ParseError("csv", err)
	}

	ds := &sheet.Dataset{Rows: make([]sheet.Row, len(records))}
	for i, record := range records {
		row := make(sheet.Row, len(record))
		for j, value := range record {
			if i == 0 {
				row[j] = headerCell(value)
				continue
			}
			row[j] = inferCell(value)
		}
		ds.Rows[i] = trimTrailing(row)
	}
	return ds, nil
}

// headerCell keeps header names literal, never coerced to numbers
func headerCell(value string) sheet.Cell {
	if value == "" {
		return sheet.Absent()
	}
	return sheet.String(value)
}

// inferCell turns untyped text into a number when it parses as a finite one
func inferCell(value string) sheet.Cell {
	if value == "" {
		return sheet.Absent()
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return sheet.Number(v)
	}
	return sheet.String(value)
}

func trimTrailing(row sheet.Row) sheet.Row {
	end := len(row)
	for end > 0 && row[end-1].IsAbsent() {
		end--
	}
	return row[:end]
}
