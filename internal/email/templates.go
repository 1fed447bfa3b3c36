package email

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/shopspring/decimal"
)

// OrderItem represents an item in an order for email purposes
type OrderItem struct {
	Name     string
	Options  string
	Quantity int
	Price    decimal.Decimal
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderConfirmation is the data rendered into the confirmation email
type OrderConfirmation struct {
	OrderID       string
	CustomerName  string
	Items         []OrderItem
	Total         decimal.Decimal
	ShipTo        string
	PaymentMethod string
}

// ShortID is the first eight characters of the order id
func (c OrderConfirmation) ShortID() string {
	if len(c.OrderID) > 8 {
		return c.OrderID[:8]
	}
	return c.OrderID
}

var confirmationTemplate = template.Must(template.New("confirmation").Funcs(template.FuncMap{
	"money": formatMoney,
}).Parse(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: #111827; padding: 30px; border-radius: 10px 10px 0 0; border-bottom: 3px solid #ec4899;">
		<h1 style="color: #ec4899; margin: 0; font-size: 24px;">Thank you for your order</h1>
	</div>

	<div style="background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		<p style="margin-top: 0;">Hi {{.CustomerName}}, we have received your order and are getting it ready.</p>

		<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">Order number</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; font-family: monospace;">{{.OrderID}}</p>
		</div>

		<table style="width: 100%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background: #f8f9fa;">
					<th style="padding: 12px; text-align: left;">Item</th>
					<th style="padding: 12px; text-align: center;">Qty</th>
					<th style="padding: 12px; text-align: right;">Price</th>
					<th style="padding: 12px; text-align: right;">Subtotal</th>
				</tr>
			</thead>
			<tbody>
			{{- range .Items}}
				<tr>
					<td style="padding: 12px; border-bottom: 1px solid #eee;">{{.Name}}{{if .Options}}<br><span style="font-size: 12px; color: #666;">{{.Options}}</span>{{end}}</td>
					<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: center;">{{.Quantity}}</td>
					<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">{{money .Price}}</td>
					<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">{{money .Subtotal}}</td>
				</tr>
			{{- end}}
			</tbody>
		</table>

		<div style="text-align: right; padding: 20px; background: #f8f9fa; border-radius: 5px;">
			<span style="font-size: 14px; color: #666;">Total</span>
			<span style="font-size: 24px; font-weight: bold; color: #ec4899; margin-left: 10px;">{{money .Total}}</span>
		</div>

		<p>Shipping to: {{.ShipTo}}<br>Payment: {{.PaymentMethod}}</p>

		<hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">

		<p style="font-size: 12px; color: #999; margin-bottom: 0;">
			This is an automated message. Contact support if you have any questions about your order.
		</p>
	</div>
</body>
</html>`))

// BuildOrderConfirmationBody builds the HTML body for order confirmation email
func BuildOrderConfirmationBody(c OrderConfirmation) (string, error) {
	var b strings.Builder
	if err := confirmationTemplate.Execute(&b, c); err != nil {
		return "", fmt.Errorf("render confirmation: %w", err)
	}
	return b.String(), nil
}

// formatMoney formats an amount in dollars with comma separators
func formatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")

	var result strings.Builder
	remainder := len(whole) % 3
	if remainder > 0 {
		result.WriteString(whole[:remainder])
	}
	for i := remainder; i < len(whole); i += 3 {
		if result.Len() > 0 {
			result.WriteString(",")
		}
		result.WriteString(whole[i : i+3])
	}
	return sign + "$" + result.String() + "." + frac
}
