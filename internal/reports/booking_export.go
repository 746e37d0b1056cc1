// Package reports renders booking exports as Excel workbooks.
package reports

import (
	"fmt"
	"io"

	"github.com/lagoonresort/reservation-backend/internal/models"
	"github.com/xuri/excelize/v2"
)

const bookingSheet = "Bookings"

var bookingHeader = []string{
	"Booking ID", "Room", "Customer", "Email", "Check-in", "Check-out",
	"Nights", "Total", "Status", "Refundable", "Created",
}

// WriteBookings writes one row per booking to a single-sheet workbook
func WriteBookings(w io.Writer, bookings []models.BookingDetails) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", bookingSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := writeRow(f, 1, toRow(bookingHeader)); err != nil {
		return err
	}

	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		endCell, _ := excelize.CoordinatesToCellName(len(bookingHeader), 1)
		_ = f.SetCellStyle(bookingSheet, "A1", endCell, style)
	}

	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return fmt.Errorf("create money style: %w", err)
	}

	for i, b := range bookings {
		row := i + 2
		values := []interface{}{
			b.ID,
			b.RoomName,
			b.CustomerName,
			b.CustomerEmail,
			b.CheckIn.Format(models.DateLayout),
			b.CheckOut.Format(models.DateLayout),
			b.Nights,
			float64(b.TotalPriceCents) / 100,
			string(b.Status),
			b.Refundable,
			b.CreatedAt.Format("2006-01-02 15:04"),
		}
		if err := writeRow(f, row, values); err != nil {
			return err
		}

		totalCell, _ := excelize.CoordinatesToCellName(8, row)
		_ = f.SetCellStyle(bookingSheet, totalCell, totalCell, moneyStyle)
	}

	if err := f.SetPanes(bookingSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(bookingSheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

func toRow(columns []string) []interface{} {
	row := make([]interface{}, len(columns))
	for i, c := range columns {
		row[i] = c
	}
	return row
}
