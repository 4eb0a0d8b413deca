package notification

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/powerfitness/gymd/internal/domain"
)

// ReceiptRenderer produces PDF payment receipts for members.
type ReceiptRenderer struct {
	gymName string
}

func NewReceiptRenderer(gymName string) *ReceiptRenderer {
	if gymName == "" {
		gymName = "PowerFitness"
	}
	return &ReceiptRenderer{gymName: gymName}
}

// Render builds a single-page receipt for the member's current plan and
// payment state. The returned bytes are a complete PDF document.
func (r *ReceiptRenderer) Render(m *domain.Member) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Receipt - %s", m.Name), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, r.gymName, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, "Membership Payment Receipt", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Issued: %s", time.Now().Format("02 Jan 2006")), "", 1, "R", false, 0, "")
	pdf.Ln(4)

	status := "Paid"
	if m.Due > 0 {
		status = "Pending"
	}

	rows := [][2]string{
		{"Member", m.Name},
		{"Phone", m.Phone},
		{"Email", m.Email},
		{"Sex", m.Sex},
		{"Plan", string(m.Duration)},
		{"Amount Paid", fmt.Sprintf("%.2f", m.AmountPaid)},
		{"Amount Due", fmt.Sprintf("%.2f", m.Due)},
		{"Status", status},
		{"Joined", m.CreatedAt.Format("02 Jan 2006")},
		{"Valid Until", m.ExpiryDate.Format("02 Jan 2006")},
	}

	pdf.SetFont("Helvetica", "", 11)
	for _, row := range rows {
		if row[0] == "Email" && row[1] == "" {
			continue
		}
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(50, 9, row[0], "B", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 9, row[1], "B", 1, "L", false, 0, "")
	}

	pdf.Ln(10)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(0, 6, "Thank you for training with us.", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering receipt pdf: %w", err)
	}
	return buf.Bytes(), nil
}
