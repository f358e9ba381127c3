package booking

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Bookings"

var exportHeader = []any{"ID", "Room", "Date", "Start", "End", "Professor", "Course", "Notes", "Created"}

// Export renders the bookings matching f as an xlsx workbook.
func (s *Service) Export(ctx context.Context, f Filters) ([]byte, error) {
	bookings, err := s.List(ctx, f)
	if err != nil {
		return nil, err
	}

	x := excelize.NewFile()
	defer x.Close()

	if err := x.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("error naming sheet: %w", err)
	}
	if err := x.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return nil, fmt.Errorf("error writing header: %w", err)
	}
	if style, err := x.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	}); err == nil {
		_ = x.SetCellStyle(exportSheet, "A1", "I1", style)
	}

	for i, b := range bookings {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []any{b.ID, b.RoomID, b.Date, b.StartTime, b.EndTime, b.ProfessorName, b.Course, b.Notes, b.CreatedAt.Format("2006-01-02 15:04:05")}
		if err := x.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("error writing booking %s: %w", b.ID, err)
		}
	}

	_ = x.SetColWidth(exportSheet, "A", "A", 45)
	_ = x.SetColWidth(exportSheet, "B", "H", 16)
	_ = x.SetColWidth(exportSheet, "I", "I", 20)

	buf, err := x.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("error writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}
