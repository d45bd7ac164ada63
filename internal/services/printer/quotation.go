package printer

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"
)

// LineItem is one priced row of a quotation
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit,omitempty"`
	Rate        float64 `json:"rate"`
	Amount      float64 `json:"amount"`
}

// Quotation is everything printed on a quotation PDF
type Quotation struct {
	QuotationNo   string     `json:"quotationNo"`
	Date          time.Time  `json:"date"`
	ClientName    string     `json:"clientName"`
	ProductName   string     `json:"productName"`
	Items         []LineItem `json:"items"`
	Subtotal      float64    `json:"subtotal"`
	MarginPercent float64    `json:"marginPercent"`
	MarginAmount  float64    `json:"marginAmount"`
	TaxPercent    float64    `json:"taxPercent"`
	TaxAmount     float64    `json:"taxAmount"`
	Total         float64    `json:"total"`
	Notes         string     `json:"notes,omitempty"`
	PreparedBy    string     `json:"preparedBy,omitempty"`
}

// QuotationPDF renders q as a one-page A4 quotation with a QR code of its
// number and total in the header
func QuotationPDF(q Quotation, company string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(140, 8, company, "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(140, 6, "QUOTATION", "", 1, "L", false, 0, "")

	qrContent := fmt.Sprintf("QUOTE:%s|%.2f", q.QuotationNo, q.Total)
	qrPng, err := qrcode.Encode(qrContent, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR: %w", err)
	}
	imgOptions := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	pdf.RegisterImageOptionsReader("qr", imgOptions, bytes.NewReader(qrPng))
	pdf.ImageOptions("qr", 165, 12, 30, 30, false, imgOptions, 0, "")

	pdf.Ln(4)
	date := q.Date
	if date.IsZero() {
		date = time.Now()
	}
	pdf.SetFont("Arial", "", 10)
	meta := [][2]string{
		{"Quotation No", q.QuotationNo},
		{"Date", date.Format("02-Jan-2006")},
		{"Client", q.ClientName},
		{"Product", q.ProductName},
	}
	for _, m := range meta {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(32, 6, m[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(110, 6, m[1], "", 1, "L", false, 0, "")
	}
	pdf.SetY(50)

	// Items
	widths := []float64{10, 80, 25, 30, 35}
	headers := []string{"#", "Description", "Qty", "Rate", "Amount"}
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(51, 51, 51)
	pdf.SetTextColor(255, 255, 255)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Arial", "", 10)
	for i, item := range q.Items {
		qty := formatQty(item.Quantity)
		if item.Unit != "" {
			qty += " " + item.Unit
		}
		pdf.CellFormat(widths[0], 7, fmt.Sprintf("%d", i+1), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[1], 7, item.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 7, qty, "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, money(item.Rate), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 7, money(item.Amount), "1", 1, "R", false, 0, "")
	}

	// Totals
	pdf.Ln(2)
	totals := [][2]string{{"Subtotal", money(q.Subtotal)}}
	if q.MarginAmount != 0 {
		totals = append(totals, [2]string{fmt.Sprintf("Margin (%.2f%%)", q.MarginPercent), money(q.MarginAmount)})
	}
	if q.TaxAmount != 0 {
		totals = append(totals, [2]string{fmt.Sprintf("GST (%.2f%%)", q.TaxPercent), money(q.TaxAmount)})
	}
	totals = append(totals, [2]string{"Total", money(q.Total)})
	for i, t := range totals {
		style := ""
		if i == len(totals)-1 {
			style = "B"
		}
		pdf.SetFont("Arial", style, 10)
		pdf.CellFormat(145, 7, t[0], "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, t[1], "1", 1, "R", false, 0, "")
	}

	if q.Notes != "" {
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, "Notes", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(0, 5, q.Notes, "", "L", false)
	}

	pdf.SetY(-30)
	pdf.SetFont("Arial", "I", 8)
	footer := "This is a system generated quotation."
	if q.PreparedBy != "" {
		footer = "Prepared by " + q.PreparedBy + ". " + footer
	}
	pdf.CellFormat(0, 5, footer, "", 1, "C", false, 0, "")

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to render quotation: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func formatQty(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}
