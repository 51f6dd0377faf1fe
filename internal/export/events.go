package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/Kerhoff/InSync/internal/models"
)

// EventsSheet is the worksheet name of the events workbook.
const EventsSheet = "Events"

var eventColumns = []struct {
	header string
	width  float64
	value  func(models.Event) any
}{
	{"Event ID", 10, func(e models.Event) any { return e.ID.String() }},
	{"Name", 28, func(e models.Event) any { return e.Name }},
	{"Start", 20, func(e models.Event) any { return e.StartTime.Wire() }},
	{"End", 20, func(e models.Event) any { return e.EndTime.Wire() }},
	{"Location", 24, func(e models.Event) any { return e.Location }},
	{"Description", 40, func(e models.Event) any { return e.Description }},
	{"Privacy", 14, func(e models.Event) any { return e.Privacy }},
	{"Repeat", 14, func(e models.Event) any { return e.RepeatRule }},
}

// EventsWorkbook renders events as an .xlsx workbook with one header row.
func EventsWorkbook(events []models.Event) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(EventsSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, col := range eventColumns {
		if err := setCell(f, i+1, 1, col.header); err != nil {
			return nil, err
		}
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(EventsSheet, name, name, col.width); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(eventColumns), 1)
	if err := f.SetCellStyle(EventsSheet, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}

	for r, e := range events {
		for c, col := range eventColumns {
			if err := setCell(f, c+1, r+2, col.value(e)); err != nil {
				return nil, err
			}
		}
	}

	if err := f.SetPanes(EventsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setCell(f *excelize.File, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(EventsSheet, cell, value); err != nil {
		return fmt.Errorf("failed to set cell %s: %w", cell, err)
	}
	return nil
}
