package costing

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/indusops/opsdesk/internal/services/printer"
	"github.com/indusops/opsdesk/internal/workflow"
)

// BuildQuote prices the collected fields. Explicit line items win over
// quantity x unitCost. Margin applies to the subtotal, tax to subtotal plus
// margin.
func BuildQuote(no string, date time.Time, fields map[string]interface{}) (printer.Quotation, error) {
	q := printer.Quotation{
		QuotationNo:   no,
		Date:          date,
		ClientName:    text(fields, "clientName", "client", "customer"),
		ProductName:   text(fields, "productName", "product", "jobName"),
		MarginPercent: number(fields, "marginPercent", "margin"),
		TaxPercent:    number(fields, "taxPercent", "gstPercent", "tax"),
		Notes:         text(fields, "notes", "remarks"),
	}

	q.Items = lineItems(fields)
	if len(q.Items) == 0 {
		qty := number(fields, "quantity", "qty")
		rate := number(fields, "unitCost", "rate", "costPerUnit")
		if qty > 0 && rate > 0 {
			desc := q.ProductName
			if dims := text(fields, "dimensions"); dims != "" {
				desc += " (" + dims + ")"
			}
			q.Items = []printer.LineItem{{
				Description: desc,
				Quantity:    qty,
				Unit:        text(fields, "unit"),
				Rate:        rate,
				Amount:      round2(qty * rate),
			}}
		}
	}
	if len(q.Items) == 0 {
		return q, fmt.Errorf("%w: quotation needs line items or quantity and unit cost", workflow.ErrInvalid)
	}

	for _, it := range q.Items {
		q.Subtotal += it.Amount
	}
	q.Subtotal = round2(q.Subtotal)
	q.MarginAmount = round2(q.Subtotal * q.MarginPercent / 100)
	q.TaxAmount = round2((q.Subtotal + q.MarginAmount) * q.TaxPercent / 100)
	q.Total = round2(q.Subtotal + q.MarginAmount + q.TaxAmount)
	return q, nil
}

func lineItems(fields map[string]interface{}) []printer.LineItem {
	var raw []interface{}
	for _, key := range []string{"lineItems", "items"} {
		if list, ok := fields[key].([]interface{}); ok {
			raw = list
			break
		}
	}
	var items []printer.LineItem
	for _, r := range raw {
		m, ok := r.(map[string]interface{})
		if !ok {
			continue
		}
		it := printer.LineItem{
			Description: text(m, "description", "name", "item"),
			Quantity:    number(m, "quantity", "qty"),
			Unit:        text(m, "unit"),
			Rate:        number(m, "rate", "unitCost", "price"),
			Amount:      number(m, "amount", "total"),
		}
		if it.Amount == 0 {
			it.Amount = round2(it.Quantity * it.Rate)
		}
		if it.Amount == 0 && it.Description == "" {
			continue
		}
		items = append(items, it)
	}
	return items
}

func text(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// number reads a numeric field that may arrive as a number or a string
// such as "1,200" or "12%"
func number(m map[string]interface{}, keys ...string) float64 {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			return v
		case json.Number:
			if f, err := v.Float64(); err == nil {
				return f
			}
		case string:
			s := strings.NewReplacer(",", "", "%", "", "₹", "").Replace(strings.TrimSpace(v))
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f
			}
		}
	}
	return 0
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
