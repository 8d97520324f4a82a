package export

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"storefront/internal/repository"
	"storefront/internal/schedule"
	"storefront/internal/store"

	"github.com/xuri/excelize/v2"
)

const (
	schedulesSheet = "Horarios"
	historySheet   = "Historial"
)

var scheduleColumns = []string{
	"Categoría", "Habilitada", "Días",
	"Turno 1", "Turno 1 activo", "Turno 1 inicio", "Turno 1 fin", "Turno 1 entrega",
	"Turno 2", "Turno 2 activo", "Turno 2 inicio", "Turno 2 fin", "Turno 2 entrega",
	"Resumen inicio", "Resumen fin", "Resumen entrega",
}

// sheetWriter appends rows to the sheets of one workbook.
type sheetWriter struct {
	file         *excelize.File
	currentSheet string
	currentRow   int
}

func newSheetWriter() *sheetWriter {
	return &sheetWriter{file: excelize.NewFile()}
}

func (w *sheetWriter) addSheet(name string) error {
	// Excel limits sheet names to 31 characters.
	if len(name) > 31 {
		name = name[:31]
	}

	if w.currentSheet == "" {
		if err := w.file.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("rename sheet %s: %w", name, err)
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}

	w.currentSheet = name
	w.currentRow = 1
	return nil
}

func (w *sheetWriter) writeHeader(columns []string) error {
	row := make([]any, len(columns))
	for i, c := range columns {
		row[i] = c
	}
	if err := w.writeRow(row); err != nil {
		return err
	}

	style, err := w.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, w.currentRow-1)
		endCell, _ := excelize.CoordinatesToCellName(len(columns), w.currentRow-1)
		_ = w.file.SetCellStyle(w.currentSheet, startCell, endCell, style)
	}
	return nil
}

func (w *sheetWriter) writeRow(row []any) error {
	if w.currentSheet == "" {
		return fmt.Errorf("no active sheet")
	}
	cell, err := excelize.CoordinatesToCellName(1, w.currentRow)
	if err != nil {
		return err
	}
	if err := w.file.SetSheetRow(w.currentSheet, cell, &row); err != nil {
		return err
	}
	w.currentRow++
	return nil
}

// WriteSchedules writes rec as a workbook with one row per category, followed by a
// history sheet when revisions are given.
func WriteSchedules(out io.Writer, rec store.ConfigRecord, revisions []repository.Revision) error {
	w := newSheetWriter()
	defer w.file.Close()

	if err := w.addSheet(schedulesSheet); err != nil {
		return err
	}
	if err := w.writeHeader(scheduleColumns); err != nil {
		return err
	}

	migrated := schedule.Migrate(rec.CategorySchedules)
	names := make([]string, 0, len(migrated))
	for name := range migrated {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := w.writeRow(scheduleRow(name, migrated[name])); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}

	if err := w.writeRow(nil); err != nil {
		return err
	}
	if err := w.writeRow([]any{"Horario general", rec.Open, rec.Close}); err != nil {
		return err
	}

	if len(revisions) > 0 {
		if err := w.addSheet(historySheet); err != nil {
			return err
		}
		if err := w.writeHeader([]string{"ID", "Revisión", "Origen", "Fecha"}); err != nil {
			return err
		}
		for _, r := range revisions {
			row := []any{r.ID, r.Revision, r.Origin, r.CreatedAt.Format(time.RFC3339)}
			if err := w.writeRow(row); err != nil {
				return err
			}
		}
	}

	return w.file.Write(out)
}

func scheduleRow(name string, cs schedule.CategorySchedule) []any {
	days := make([]string, 0, len(cs.DaysOfWeek))
	for _, d := range cs.DaysOfWeek {
		days = append(days, string(d))
	}

	row := []any{name, yesNo(cs.Enabled), strings.Join(days, ", ")}
	for i := 0; i < schedule.MaxShifts; i++ {
		if i >= len(cs.Shifts) {
			row = append(row, "", "", "", "", "")
			continue
		}
		s := cs.Shifts[i]
		row = append(row, s.Label, yesNo(s.Enabled), s.OrderStart, s.OrderEnd, s.DeliveryEnd)
	}

	if summary, ok := cs.LegacySummary(); ok {
		row = append(row, summary.OrderStart, summary.OrderEnd, summary.DeliveryEnd)
	} else {
		row = append(row, "", "", "")
	}
	return row
}

func yesNo(b bool) string {
	if b {
		return "sí"
	}
	return "no"
}
