package reports

import (
	"fmt"
	"time"

	"logistiko-backend/models"

	"github.com/xuri/excelize/v2"
)

const dateFormat = "02/01/2006"

// ClientsWorkbook builds the client list export, one row per client
func ClientsWorkbook(clients []*models.Client) (*excelize.File, error) {
	f := excelize.NewFile()
	const sheet = "Clients"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Name", "AFM", "DOY", "Email", "Phone", "Active"}
	if err := writeHeader(f, sheet, headers); err != nil {
		return nil, err
	}

	for i, client := range clients {
		row := i + 2
		active := "no"
		if client.Active {
			active = "yes"
		}
		cells := []any{client.Name, client.AFM, client.DOY, client.Email, client.Phone, active}
		if err := writeRow(f, sheet, row, cells); err != nil {
			return nil, err
		}
	}

	setColumnWidths(f, sheet, map[string]float64{"A": 32, "B": 14, "C": 20, "D": 30, "E": 16, "F": 8})
	return f, nil
}

// ObligationRow is one line of the obligations summary, already joined with
// client and type names
type ObligationRow struct {
	ClientName  string
	AFM         string
	TypeName    string
	Deadline    time.Time
	Status      models.ObligationStatus
	CompletedBy string
	CompletedAt *time.Time
}

// ObligationsWorkbook builds the monthly obligations summary export
func ObligationsWorkbook(year, month int, rows []ObligationRow) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := fmt.Sprintf("%04d-%02d", year, month)
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Client", "AFM", "Obligation", "Deadline", "Status", "Completed by", "Completed at"}
	if err := writeHeader(f, sheet, headers); err != nil {
		return nil, err
	}

	for i, r := range rows {
		completedAt := ""
		if r.CompletedAt != nil {
			completedAt = r.CompletedAt.Format(dateFormat)
		}
		cells := []any{r.ClientName, r.AFM, r.TypeName, r.Deadline.Format(dateFormat), string(r.Status), r.CompletedBy, completedAt}
		if err := writeRow(f, sheet, i+2, cells); err != nil {
			return nil, err
		}
	}

	setColumnWidths(f, sheet, map[string]float64{"A": 32, "B": 14, "C": 26, "D": 12, "E": 12, "F": 22, "G": 12})
	return f, nil
}

func writeHeader(f *excelize.File, sheet string, headers []string) error {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"2F5496"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

func writeRow(f *excelize.File, sheet string, row int, cells []any) error {
	for i, value := range cells {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return err
		}
	}
	return nil
}

func setColumnWidths(f *excelize.File, sheet string, widths map[string]float64) {
	for col, width := range widths {
		f.SetColWidth(sheet, col, col, width)
	}
}
