package infra

// pdf.go — end-of-day close report generation using go-pdf/fpdf.
// Renders a thermal receipt-style summary of a closed cash session:
//   - Till and business date header
//   - Opening balance
//   - Totals per entry kind (sales, deposits, withdrawals, expenses)
//   - Expected cash vs counted cash
//   - Bold variance line, labeled surplus/shortage
//
// The output file is saved to storagePath/close_{till}_{date}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"

	"github.com/conektaolatam-netizen/conektao-sub000/internal/model"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/money"
)

// CloseReportData carries everything the PDF needs; the worker assembles it
// so this function stays free of repository access.
type CloseReportData struct {
	Session      *model.CashSession
	SumsByKind   map[string]money.Money
	ExpectedCash money.Money
	ClosedByName string
}

var kindLabels = []struct{ kind, label string }{
	{model.EntryCashSale, "Cash sales"},
	{model.EntryCardSale, "Card sales"},
	{model.EntryManualDeposit, "Deposits"},
	{model.EntryManualWithdrawal, "Withdrawals"},
	{model.EntryCashExpense, "Expenses"},
}

// GenerateCloseReportPDF writes the close summary for a session and returns
// the absolute path to the generated file.
func GenerateCloseReportPDF(data CloseReportData, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	s := data.Session
	fileName := fmt.Sprintf("close_%d_%s.pdf", s.Till, s.BusinessDate)
	filePath := filepath.Join(storagePath, fileName)

	// 74mm × 140mm — thermal receipt paper with room for the totals block
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 74, Ht: 140},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 7, "Cash Session Close", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Till %d — %s", s.Till, s.BusinessDate), "", 1, "C", false, 0, "")
	pdf.Ln(2)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	labelW := contentW * 0.58
	amountW := contentW * 0.42

	row := func(label, amount string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 8)
		pdf.CellFormat(labelW, 5, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(amountW, 5, amount, "", 1, "R", false, 0, "")
	}

	row("Opening balance", "$"+s.OpeningBalance.String(), false)
	for _, kl := range kindLabels {
		if sum, ok := data.SumsByKind[kl.kind]; ok && !sum.IsZero() {
			row(kl.label, "$"+sum.String(), false)
		}
	}

	pdf.Ln(1)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(1)

	row("Expected cash", "$"+data.ExpectedCash.String(), false)
	if s.CountedCash != nil {
		row("Counted cash", "$"+s.CountedCash.String(), false)
	}

	if s.Variance != nil {
		label := "Variance (surplus)"
		if s.Variance.IsNegative() {
			label = "Variance (shortage)"
		}
		pdf.Ln(1)
		row(label, "$"+s.Variance.String(), true)
	}

	pdf.Ln(3)
	pdf.SetFont("Helvetica", "I", 7)
	closedAt := ""
	if s.ClosedAt != nil {
		closedAt = s.ClosedAt.Format("02/01/2006 15:04")
	}
	pdf.CellFormat(contentW, 4, fmt.Sprintf("Closed by %s at %s", data.ClosedByName, closedAt), "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}

	return filePath, nil
}
