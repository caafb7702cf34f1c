package report

import (
	"github.com/xuri/excelize/v2"

	"github.com/frahmantamala/equipment-inventory/internal/equipment"
)

// statusFill is the row colour per equipment status.
var statusFill = map[string]string{
	string(equipment.StatusAvailable):           "C6EFCE",
	string(equipment.StatusAssigned):            "DDEBF7",
	string(equipment.StatusOnLoan):              "FFF2CC",
	string(equipment.StatusInMaintenance):       "FCE4D6",
	string(equipment.StatusPendingVendorReturn): "F8CBAD",
	string(equipment.StatusReturnedToVendor):    "D9D9D9",
	string(equipment.StatusInRenewal):           "E4DFEC",
}

// workbook writes a single-sheet table. Style errors only lose formatting,
// never data, so they are ignored.
type workbook struct {
	f      *excelize.File
	sheet  string
	next   int
	width  int
	styles map[string]int
}

func newWorkbook(sheet string) *workbook {
	f := excelize.NewFile()
	idx, _ := f.NewSheet(sheet)
	f.SetActiveSheet(idx)
	if sheet != "Sheet1" {
		_ = f.DeleteSheet("Sheet1")
	}
	return &workbook{f: f, sheet: sheet, next: 1, styles: map[string]int{}}
}

func (w *workbook) header(columns []string) {
	w.width = len(columns)
	values := make([]interface{}, len(columns))
	for i, c := range columns {
		values[i] = c
	}
	w.write(values)

	style, err := w.f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"305496"}, Pattern: 1},
	})
	if err == nil {
		w.styleRow(w.next-1, style)
	}
	_ = w.f.SetPanes(w.sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	for i := range columns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = w.f.SetColWidth(w.sheet, col, col, 18)
	}
}

// row appends values; status, when known, colours the whole row.
func (w *workbook) row(values []interface{}, status string) {
	w.write(values)
	if style, ok := w.fill(status); ok {
		w.styleRow(w.next-1, style)
	}
}

func (w *workbook) write(values []interface{}) {
	cell, _ := excelize.CoordinatesToCellName(1, w.next)
	_ = w.f.SetSheetRow(w.sheet, cell, &values)
	w.next++
}

func (w *workbook) fill(status string) (int, bool) {
	color, ok := statusFill[status]
	if !ok {
		return 0, false
	}
	if style, ok := w.styles[status]; ok {
		return style, true
	}
	style, err := w.f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
	})
	if err != nil {
		return 0, false
	}
	w.styles[status] = style
	return style, true
}

func (w *workbook) styleRow(row, style int) {
	if w.width == 0 {
		return
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(w.width, row)
	_ = w.f.SetCellStyle(w.sheet, first, last, style)
}

func (w *workbook) saveAs(path string) error {
	return w.f.SaveAs(path)
}

func (w *workbook) close() {
	_ = w.f.Close()
}
