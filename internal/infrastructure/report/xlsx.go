package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/drivehub/internal/application/port"
	"github.com/garyjia/drivehub/internal/domain/entity"
)

const sheetName = "Files"

var headers = []string{"ID", "Name", "Size (bytes)", "Created", "MIME type", "MD5", "Link"}

// XLSXReporter renders object listings as Excel workbooks.
// Implements port.ListingReporter.
type XLSXReporter struct {
	logger *zap.Logger
}

// NewXLSXReporter creates a new reporter
func NewXLSXReporter(logger *zap.Logger) *XLSXReporter {
	return &XLSXReporter{logger: logger}
}

// Render writes one header row and one row per object, followed by a total
func (r *XLSXReporter) Render(title string, objects []*entity.StoredObject) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetCellValue(sheetName, "A1", title); err != nil {
		return nil, fmt.Errorf("failed to write title: %w", err)
	}
	if err := f.SetSheetRow(sheetName, "A2", &headers); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	var total int64
	for i, obj := range objects {
		created := ""
		if !obj.CreatedTime.IsZero() {
			created = obj.CreatedTime.UTC().Format(time.RFC3339)
		}
		row := []interface{}{obj.ID, obj.Name, obj.Size, created, obj.MimeType, obj.MD5Checksum, obj.WebViewLink}

		cell, err := excelize.CoordinatesToCellName(1, i+3)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i, err)
		}
		total += obj.Size
	}

	totalRow := len(objects) + 3
	if err := f.SetCellValue(sheetName, fmt.Sprintf("B%d", totalRow), "Total"); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(sheetName, fmt.Sprintf("C%d", totalRow), total); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	r.logger.Debug("Listing report rendered",
		zap.String("title", title),
		zap.Int("rows", len(objects)))

	return buf.Bytes(), nil
}

// ContentType returns the MIME type of rendered reports
func (r *XLSXReporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Extension returns the file extension of rendered reports
func (r *XLSXReporter) Extension() string {
	return ".xlsx"
}

var _ port.ListingReporter = (*XLSXReporter)(nil)
