package excel

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/nurpe/greenpact-settlement/internal/model"
)

const (
	contractsSheet = "Contracts"
	paymentsSheet  = "Payments"
	progressSheet  = "Progress"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate builds the settlement workbook: one row per contract with its
// derived figures, then the raw payment and progress logs.
func (g *Generator) Generate(export model.SettlementExport) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", contractsSheet); err != nil {
		return nil, err
	}
	g.writeContracts(file, export)

	if _, err := file.NewSheet(paymentsSheet); err != nil {
		return nil, err
	}
	g.writePayments(file, export.Payments)

	if _, err := file.NewSheet(progressSheet); err != nil {
		return nil, err
	}
	g.writeProgress(file, export.Progress)

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeContracts(file *excelize.File, export model.SettlementExport) {
	set := setter(file, contractsSheet)

	set("A1", "Generated at")
	set("B1", formatDateTime(export.GeneratedAt))
	set("A2", "Contracts")
	set("B2", len(export.Contracts))

	tableRow := 4
	writeHeader(set, tableRow, []string{
		"Contract",
		"Status",
		"Grower",
		"Buyer",
		"Delivery date",
		"Total value",
		"Paid to date",
		"Remaining",
		"Payment %",
		"Highest progress",
		"Progress %",
		"Overall %",
	})

	for i, report := range export.Contracts {
		row := tableRow + 1 + i
		contract := report.Contract
		summary := report.Summary
		set(cell("A", row), contract.ID.String())
		set(cell("B", row), string(contract.Status))
		set(cell("C", row), contract.GrowerID.String())
		set(cell("D", row), contract.BuyerID.String())
		set(cell("E", row), formatDate(contract.DeliveryDate))
		set(cell("F", row), summary.TotalValue.InexactFloat64())
		set(cell("G", row), summary.PaidToDate.InexactFloat64())
		set(cell("H", row), summary.RemainingBalance.InexactFloat64())
		set(cell("I", row), summary.PaymentCompletion)
		set(cell("J", row), formatProgress(summary.HighestProgress))
		set(cell("K", row), summary.ProgressCompletion)
		set(cell("L", row), summary.OverallCompletion)
	}

	_ = file.SetColWidth(contractsSheet, "A", "D", 38)
	_ = file.SetColWidth(contractsSheet, "E", "L", 16)
}

func (g *Generator) writePayments(file *excelize.File, payments []model.PaymentEntry) {
	set := setter(file, paymentsSheet)
	writeHeader(set, 1, []string{"Contract", "#", "Occurred on", "Amount", "Reference", "Receipt", "Description", "Recorded by"})

	for i, entry := range payments {
		row := 2 + i
		set(cell("A", row), entry.ContractID.String())
		set(cell("B", row), entry.Position)
		set(cell("C", row), formatDate(entry.OccurredOn))
		set(cell("D", row), entry.Amount.InexactFloat64())
		set(cell("E", row), formatString(entry.ReferenceNumber))
		set(cell("F", row), formatString(entry.Receipt))
		set(cell("G", row), entry.Description)
		set(cell("H", row), formatUUID(entry.RecordedBy))
	}

	_ = file.SetColWidth(paymentsSheet, "A", "A", 38)
	_ = file.SetColWidth(paymentsSheet, "C", "F", 18)
	_ = file.SetColWidth(paymentsSheet, "G", "G", 40)
	_ = file.SetColWidth(paymentsSheet, "H", "H", 38)
}

func (g *Generator) writeProgress(file *excelize.File, progress []model.ProgressEntry) {
	set := setter(file, progressSheet)
	writeHeader(set, 1, []string{"Contract", "#", "Observed on", "Status", "Percent", "Notes", "Image", "Recorded by"})

	for i, entry := range progress {
		row := 2 + i
		set(cell("A", row), entry.ContractID.String())
		set(cell("B", row), entry.Position)
		set(cell("C", row), formatDate(entry.ObservedOn))
		set(cell("D", row), string(entry.Status))
		set(cell("E", row), entry.Status.Percent())
		set(cell("F", row), entry.Notes)
		set(cell("G", row), formatString(entry.Image))
		set(cell("H", row), formatUUID(entry.RecordedBy))
	}

	_ = file.SetColWidth(progressSheet, "A", "A", 38)
	_ = file.SetColWidth(progressSheet, "C", "E", 18)
	_ = file.SetColWidth(progressSheet, "F", "F", 40)
	_ = file.SetColWidth(progressSheet, "G", "H", 38)
}

func setter(file *excelize.File, sheet string) func(string, interface{}) {
	return func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}
}

func writeHeader(set func(string, interface{}), row int, headers []string) {
	for i, header := range headers {
		name, _ := excelize.CoordinatesToCellName(i+1, row)
		set(name, header)
	}
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func formatProgress(status *model.ProgressStatus) string {
	if status == nil {
		return ""
	}
	return string(*status)
}

func formatUUID(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}
