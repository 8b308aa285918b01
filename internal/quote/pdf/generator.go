package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/Wrivard/demenagementboreal-sub000/internal/quote"
)

type Generator struct{}

func New() *Generator { return &Generator{} }

// Generate renders the customer-facing quote document: the line items, the
// tax-inclusive total and the display band.
func (g *Generator) Generate(reference string, req quote.Request, b quote.Breakdown) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Soumission de déménagement", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr("Soumission de déménagement"))
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, tr(fmt.Sprintf("No %s du %s", reference, time.Now().Format("02/01/2006"))))
	pdf.Ln(6)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Client : %s — %s", req.Name, req.Phone)))
	pdf.Ln(6)
	if req.OriginAddress != "" && req.DestinationAddress != "" {
		pdf.Cell(0, 6, tr(fmt.Sprintf("Trajet : %s -> %s", req.OriginAddress, req.DestinationAddress)))
		pdf.Ln(6)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(140, 7, tr("Élément"))
	pdf.Cell(30, 7, tr("Montant"))
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range b.Items {
		pdf.Cell(140, 6, tr(item.Label))
		pdf.Cell(30, 6, tr(fmt.Sprintf("%.2f $", item.Amount)))
		pdf.Ln(6)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 7, tr(fmt.Sprintf("Total estimé : %d $", b.Total)))
	pdf.Ln(6)

	r := quote.Range(b.Total)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, tr(fmt.Sprintf("Fourchette indicative : %d $ à %d $", r.Min, r.Max)))
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, 5, tr("Déménagement Boréal — estimation indicative, sans engagement"))
	pdf.Ln(5)
	pdf.Cell(0, 5, tr(fmt.Sprintf("Généré le %s", time.Now().Format(time.RFC3339))))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("quote pdf output: %w", err)
	}
	return buf.Bytes(), nil
}
