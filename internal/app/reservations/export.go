package reservations

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/weddingpass/pass-api/internal/domain"
)

// utf8BOM makes spreadsheet apps detect UTF-8 (accented guest names).
const utf8BOM = "\uFEFF"

const exportTimeLayout = "2006-01-02 15:04"

var exportHeader = []string{
	"Code",
	"Guest Name",
	"Guests",
	"Accompanists",
	"Status",
	"Table",
	"Group",
	"Notes",
	"Created At",
	"Checked In At",
}

func exportRow(r domain.Reservation) []string {
	checkedIn := ""
	if r.CheckedInAt != nil {
		checkedIn = r.CheckedInAt.UTC().Format(exportTimeLayout)
	}
	return []string{
		r.Code,
		r.GuestName,
		strconv.Itoa(r.NumberOfGuests),
		strings.Join(r.AccompanistDisplayNames(), "; "),
		string(r.Status),
		deref(r.Table),
		deref(r.Group),
		deref(r.Notes),
		r.CreatedAt.UTC().Format(exportTimeLayout),
		checkedIn,
	}
}

// ReservationsToCSV renders reservations as RFC 4180 CSV with a UTF-8 byte order mark.
func ReservationsToCSV(rs []domain.Reservation) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(utf8BOM)

	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, r := range rs {
		if err := w.Write(exportRow(r)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteReservationsXLSX writes the same rows as ReservationsToCSV into a single-sheet workbook.
func WriteReservationsXLSX(out io.Writer, rs []domain.Reservation) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Reservations"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}
	if err := sw.SetRow("A1", toCells(exportHeader)); err != nil {
		return err
	}
	for i, r := range rs {
		cells := toCells(exportRow(r))
		// Keep the guest count numeric so the sheet can sum it.
		cells[2] = r.NumberOfGuests
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// ExportFilename names a download, e.g. "reservations-2026-06-01.csv".
func ExportFilename(now time.Time, ext string) string {
	return fmt.Sprintf("reservations-%s.%s", now.UTC().Format("2006-01-02"), ext)
}

func toCells(row []string) []interface{} {
	out := make([]interface{}, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
