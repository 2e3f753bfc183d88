package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/nurpe/greenpact-settlement/internal/model"
)

const fontName = "Helvetica"

// Generator renders the crop supply agreement of a contract. It only uses
// the core PDF fonts, so text outside cp1252 is transliterated away.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(doc model.AgreementDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, 18)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	contract := doc.Contract

	pdf.SetFont(fontName, "B", 16)
	pdf.CellFormat(0, 10, "Crop Supply Agreement", "", 1, "C", false, 0, "")
	pdf.SetFont(fontName, "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Contract %s", contract.ID), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Date of agreement: %s", formatDate(contract.CreatedAt)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	section(pdf, "1. Parties")
	line(pdf, tr, fmt.Sprintf("Grower: %s", contract.GrowerID))
	line(pdf, tr, fmt.Sprintf("Buyer: %s", contract.BuyerID))
	pdf.Ln(2)

	section(pdf, "2. Crop and order details")
	headers := []string{"Crop", "Quantity", "Unit price", "Total value"}
	widths := []float64{70, 30, 35, 39}
	drawTableRow(pdf, headers, widths, true)
	crop := "-"
	if contract.CropID != nil {
		crop = contract.CropID.String()
	}
	drawTableRow(pdf, []string{
		crop,
		contract.Quantity.StringFixed(3),
		contract.UnitPrice.StringFixed(2),
		contract.TotalValue.StringFixed(2),
	}, widths, false)
	pdf.Ln(2)
	line(pdf, tr, fmt.Sprintf("Delivery date: %s", formatDate(contract.DeliveryDate)))
	line(pdf, tr, fmt.Sprintf("Delivery address: %s", safeValue(contract.DeliveryAddress)))
	pdf.Ln(2)

	section(pdf, "3. Agreement terms")
	if len(contract.Terms) == 0 {
		line(pdf, tr, "No additional terms specified.")
	}
	for i, term := range contract.Terms {
		line(pdf, tr, fmt.Sprintf("%d. %s", i+1, term))
	}
	pdf.Ln(2)

	section(pdf, "4. Payment terms")
	line(pdf, tr, fmt.Sprintf("Total payable amount is %s.", contract.TotalValue.StringFixed(2)))
	line(pdf, tr, "Payments are recorded as milestones and may not exceed the remaining balance.")
	line(pdf, tr, "The contract is fulfilled once it is fully paid and the crop is delivered.")
	pdf.Ln(2)

	section(pdf, "5. Status")
	line(pdf, tr, fmt.Sprintf("Current status: %s", contract.Status))
	if contract.ActivatedAt != nil {
		line(pdf, tr, fmt.Sprintf("Activated on: %s", formatDate(*contract.ActivatedAt)))
	}
	if contract.CancelReason != nil {
		line(pdf, tr, fmt.Sprintf("Cancelled for cause: %s", *contract.CancelReason))
	}
	pdf.Ln(4)

	section(pdf, "6. Signatures")
	signatureBlock(pdf, "Grower", contract.GrowerID.String(), contract.CreatedAt)
	signatureBlock(pdf, "Buyer", contract.BuyerID.String(), contract.CreatedAt)

	pdf.SetY(-24)
	pdf.SetFont(fontName, "I", 8)
	pdf.CellFormat(0, 5, fmt.Sprintf("Issued %s", doc.IssuedAt.UTC().Format(time.RFC3339)), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont(fontName, "B", 12)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
}

func line(pdf *gofpdf.Fpdf, tr func(string) string, text string) {
	pdf.SetFont(fontName, "", 10)
	pdf.MultiCell(0, 5, tr(text), "", "L", false)
}

func drawTableRow(pdf *gofpdf.Fpdf, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, col := range cols {
		align := "L"
		if i > 0 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 8, col, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func signatureBlock(pdf *gofpdf.Fpdf, label, party string, date time.Time) {
	pdf.SetFont(fontName, "B", 10)
	pdf.CellFormat(0, 6, label+":", "", 1, "L", false, 0, "")
	pdf.SetFont(fontName, "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("  %s  ______________________  %s", party, formatDate(date)), "", 1, "L", false, 0, "")
	pdf.Ln(2)
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}
