package storage

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ExportQuoteToExcel writes one quote request to an xlsx file under
// reports/ and returns its path. Attached to the owner notification.
func (s *PostgresStorage) ExportQuoteToExcel(ctx context.Context, rec QuoteRecord) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet("Soumission")
	if err != nil {
		return "", fmt.Errorf("failed to create sheet: %w", err)
	}

	rows := [][2]any{
		{"Référence", rec.Reference},
		{"Date", rec.CreatedAt.Format("2006-01-02 15:04")},
		{"Nom", rec.Name},
		{"Courriel", rec.Email},
		{"Téléphone", rec.Phone},
		{"Type de service", rec.ServiceType},
		{"Type de propriété", rec.PropertyType},
		{"Pièces / superficie", rec.RoomsOrSize},
		{"Étage", rec.FloorLevel},
		{"Services", strings.Join(rec.Services, ", ")},
		{"Objets spéciaux", strings.Join(rec.ComplexItems, ", ")},
		{"Départ", rec.OriginAddress},
		{"Arrivée", rec.DestinationAddress},
		{"Distance (km)", rec.DistanceKm},
		{"Prix avant taxes", rec.BasePrice},
		{"Taxes", rec.Tax},
		{"Total", rec.Total},
		{"Statut", rec.Status},
	}

	for i, row := range rows {
		f.SetCellValue("Soumission", fmt.Sprintf("A%d", i+1), row[0])
		f.SetCellValue("Soumission", fmt.Sprintf("B%d", i+1), row[1])
	}

	style, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	f.SetCellStyle("Soumission", "A1", fmt.Sprintf("A%d", len(rows)), style)

	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	filename := fmt.Sprintf("soumission_%s_%s.xlsx",
		rec.Reference,
		rec.CreatedAt.Format("20060102_1504"))
	filepath := fmt.Sprintf("reports/%s", filename)

	if err := os.MkdirAll("reports", 0755); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}

	if err := f.SaveAs(filepath); err != nil {
		return "", fmt.Errorf("failed to save Excel file: %w", err)
	}

	return filepath, nil
}
