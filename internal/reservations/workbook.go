package reservations

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// sheetNameLimit is the longest sheet name Excel accepts.
const sheetNameLimit = 31

// SheetWriter writes tabular data sheet by sheet.
type SheetWriter interface {
	AddSheet(name string) error
	WriteHeader(columns []string) error
	WriteRow(row []any) error
	Save(w io.Writer) error
	Close() error
}

// Workbook is a SheetWriter backed by excelize.
type Workbook struct {
	file  *excelize.File
	sheet string
	row   int
}

func NewWorkbook() *Workbook {
	return &Workbook{file: excelize.NewFile()}
}

func (w *Workbook) AddSheet(name string) error {
	if len(name) > sheetNameLimit {
		name = name[:sheetNameLimit]
	}

	if w.sheet == "" {
		// A new file starts with Sheet1.
		if err := w.file.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}

	w.sheet = name
	w.row = 1
	return nil
}

// WriteHeader writes bold column titles and sizes the columns.
func (w *Workbook) WriteHeader(columns []string) error {
	if err := w.writeCells(toAny(columns)); err != nil {
		return err
	}

	style, err := w.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		first, _ := excelize.CoordinatesToCellName(1, w.row)
		last, _ := excelize.CoordinatesToCellName(len(columns), w.row)
		_ = w.file.SetCellStyle(w.sheet, first, last, style)
	}
	if len(columns) > 0 {
		lastCol, _ := excelize.ColumnNumberToName(len(columns))
		_ = w.file.SetColWidth(w.sheet, "A", lastCol, 18)
	}

	w.row++
	return nil
}

func (w *Workbook) WriteRow(row []any) error {
	if err := w.writeCells(row); err != nil {
		return err
	}
	w.row++
	return nil
}

func (w *Workbook) writeCells(values []any) error {
	if w.sheet == "" {
		return fmt.Errorf("no active sheet")
	}
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, w.row)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.sheet, cell, v); err != nil {
			return fmt.Errorf("set %s!%s: %w", w.sheet, cell, err)
		}
	}
	return nil
}

func (w *Workbook) Save(out io.Writer) error {
	return w.file.Write(out)
}

func (w *Workbook) Close() error {
	return w.file.Close()
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
