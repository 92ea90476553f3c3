package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

const dateLayout = "2006-01-02"

var reportHeader = []string{
	"ID", "Name", "Manufacturer", "Location", "Nominal Pressure",
	"Inlet Diameter", "Outlet Diameter", "Last Inspection",
	"Next Due", "Lead Days", "Remaining Days", "Status",
}

// BuildPDF renders the inspection report as a PDF.
func BuildPDF(rows []Row, today time.Time) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Safety Valve Inspection Report")
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", today.Format(dateLayout)))
	pdf.Ln(8)

	widths := []float64{24, 38, 26, 26, 24, 20, 20, 24, 24, 16, 20, 18}
	pdf.SetFont("Arial", "B", 8)
	for i, header := range reportHeader {
		pdf.CellFormat(widths[i], 6, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, row := range rows {
		cells := rowCells(row)
		for i, cell := range cells {
			pdf.CellFormat(widths[i], 6, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildXLSX renders the inspection report as an Excel workbook.
func BuildXLSX(rows []Row, today time.Time) ([]byte, error) {
	f := excelize.NewFile()
	sheet := "valves"
	f.SetSheetName("Sheet1", sheet)

	_ = f.SetCellValue(sheet, "A1", "Safety Valve Inspection Report")
	_ = f.SetCellValue(sheet, "A2", "Generated")
	_ = f.SetCellValue(sheet, "B2", today.Format(dateLayout))

	headerRow := 4
	for i, header := range reportHeader {
		cell, err := excelize.CoordinatesToCellName(i+1, headerRow)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(sheet, cell, header)
	}
	for r, row := range rows {
		cells := rowCells(row)
		for c, value := range cells {
			cell, err := excelize.CoordinatesToCellName(c+1, headerRow+1+r)
			if err != nil {
				return nil, err
			}
			_ = f.SetCellValue(sheet, cell, value)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildCSV renders the inspection report as CSV.
func BuildCSV(rows []Row) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(reportHeader); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := writer.Write(rowCells(row)); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func rowCells(row Row) []string {
	return []string{
		row.ID,
		row.Name,
		row.Manufacturer,
		row.Location,
		row.NominalPressure,
		row.InletDiameter,
		row.OutletDiameter,
		row.LastInspection.Format(dateLayout),
		row.NextDue.Format(dateLayout),
		strconv.Itoa(row.LeadTimeDays),
		strconv.Itoa(row.RemainingDays),
		string(row.Status),
	}
}
