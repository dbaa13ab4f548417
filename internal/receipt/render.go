package receipt

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// receiptView is the flattened, pre-formatted view model handed to the
// template. Keeping formatting out of the template keeps it dumb and keeps
// every interpolated value on the auto-escaping path.
type receiptView struct {
	Vendor          string
	Location        string
	TicketNumber    string
	ConfidenceColor string
	ConfidenceText  string
	ConfidencePct   int
	Date            string
	PaymentMethod   string
	MerchantID      string
	Items           []itemLine
	Subtotal        string
	VATLabel        string
	VAT             string
	Total           string
	TransactionID   string
	Filename        string
	Bars            string
	BarcodeData     string
	Divider         string
}

type itemLine struct {
	Left  string
	Right string
}

const fakeBars = "▌▌ ▌▌▌  ▌ ▌▌ ▌▌▌ ▌  ▌▌ ▌▌  ▌▌▌ ▌ ▌  ▌"

var receiptTmpl = template.Must(template.New("receipt").Parse(`<div class="receipt-container">
  <div class="receipt-paper">
    <div class="receipt-header">
      <div class="company-info">
        <h4>{{.Vendor}}</h4>
        <p class="receipt-subtitle">{{.Location}}</p>
      </div>
      <div class="receipt-number">{{.TicketNumber}}</div>
    </div>
    <div class="confidence-badge bg-{{.ConfidenceColor}}">AI Confidence: {{.ConfidenceText}} ({{.ConfidencePct}}%)</div>
    <div class="receipt-divider"><span>{{.Divider}}</span></div>
    <div class="receipt-details">
      <div class="receipt-row"><span class="item-label">DATE</span><span class="item-value">{{.Date}}</span></div>
      <div class="receipt-row"><span class="item-label">PAYMENT</span><span class="item-value">{{.PaymentMethod}}</span></div>
      <div class="receipt-row"><span class="item-label">MERCHANT ID</span><span class="item-value">{{.MerchantID}}</span></div>
      <div class="receipt-divider"><span>{{.Divider}}</span></div>
      <div class="receipt-row heading"><span class="item-label">ITEM</span><span class="item-value">QTY  x  PRICE</span></div>
{{- range .Items}}
      <div class="receipt-row item"><pre>{{.Left}}    {{.Right}}</pre></div>
{{- end}}
      <div class="receipt-divider"><span>{{.Divider}}</span></div>
      <div class="receipt-row"><span class="item-label">SOUS-TOTAL</span><span class="item-value">{{.Subtotal}}</span></div>
      <div class="receipt-row"><span class="item-label">{{.VATLabel}}</span><span class="item-value">{{.VAT}}</span></div>
      <div class="receipt-total"><span class="total-label">TOTAL TTC</span><span class="total-amount">{{.Total}}</span></div>
      <div class="receipt-divider"><span>{{.Divider}}</span></div>
      <div class="receipt-row"><span class="item-label">TRANSACTION</span><span class="item-value">{{.TransactionID}}</span></div>
      <div class="receipt-row"><span class="item-label">FICHIER</span><span class="item-value">{{.Filename}}</span></div>
    </div>
    <div class="receipt-footer">
      <pre class="barcode">{{.Bars}}</pre>
      <p class="barcode-label">{{.BarcodeData}}</p>
      <p>Conservez ce ticket pour votre comptabilité</p>
      <p>Merci de votre visite • See you soon</p>
    </div>
  </div>
</div>
`))

// Render produces the paper-ticket HTML for a normalized receipt. All text
// fields go through template escaping.
func Render(r NormalizedReceipt) (string, error) {
	lines := make([]itemLine, 0, len(r.Items))
	for _, it := range r.Items {
		qty := fmt.Sprintf("%3.0f", it.Qty)
		if it.Qty != math.Trunc(it.Qty) {
			qty = fmt.Sprintf("%3.2f", it.Qty)
		}
		lines = append(lines, itemLine{
			Left:  pad(strings.ToUpper(it.Label), 18),
			Right: qty + " x " + FormatCurrency(it.UnitPrice, r.Currency),
		})
	}

	view := receiptView{
		Vendor:          strings.ToUpper(r.Vendor),
		Location:        r.Location,
		TicketNumber:    r.TicketNumber,
		ConfidenceColor: TierFor(r.Confidence).Color(),
		ConfidenceText:  TierFor(r.Confidence).Label(),
		ConfidencePct:   int(math.Round(r.Confidence * 100)),
		Date:            FormatDate(r.Date),
		PaymentMethod:   r.PaymentMethod,
		MerchantID:      r.MerchantID,
		Items:           lines,
		Subtotal:        FormatCurrency(r.Subtotal, r.Currency),
		VATLabel:        fmt.Sprintf("TVA (%g%%)", r.VATRatePercent),
		VAT:             FormatCurrency(r.VAT, r.Currency),
		Total:           FormatCurrency(r.TotalTTC, r.Currency),
		TransactionID:   r.TransactionID,
		Filename:        r.Filename,
		Bars:            fakeBars,
		BarcodeData:     strings.ToUpper(fmt.Sprintf("%s %g", r.TransactionID, r.TotalTTC)),
		Divider:         strings.Repeat("-", 38),
	}

	var b strings.Builder
	if err := receiptTmpl.Execute(&b, view); err != nil {
		return "", fmt.Errorf("failed to render receipt: %w", err)
	}
	return b.String(), nil
}

// pad truncates or right-pads a string to n characters.
func pad(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes) + strings.Repeat(" ", n-len(runes))
}
