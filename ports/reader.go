package ports

import (
	"context"
	"io"

	"qcview/domain/sheet"
)

// WorkbookReader decodes an uploaded workbook into its first-sheet dataset
type WorkbookReader interface {
	Read(ctx context.Context, name string, src io.Reader) (*sheet.Dataset, error)
}
