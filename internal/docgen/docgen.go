// Package docgen renders kitchen order tickets and bills as printable HTML.
// Generation is pure: output depends only on the inputs, the config and the
// injected clock.
package docgen

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spicepos/terminal/internal/cart"
	"github.com/spicepos/terminal/internal/enum"
)

// Config is the formatting slice of the KOT/bill configs the generator needs.
type Config struct {
	PaperSize  string
	FormatType string
}

// KOTMeta carries the header fields of a kitchen order ticket.
type KOTMeta struct {
	Number     string
	OrderType  string
	TableName  string
	Additional bool
	// Department is set when this document is one of a per-department batch.
	Department string
}

// BillMeta carries the header fields of a bill.
type BillMeta struct {
	BillNumber     string
	OrderType      string
	TableName      string
	RestaurantName string
}

// paperStyle is the physical layout for a thermal paper width. Fixed lookup;
// the @page size and body width must agree or the printed output is clipped.
type paperStyle struct {
	FontSize int
	Padding  int
	Width    string
}

var paperStyles = map[string]paperStyle{
	enum.PaperSize58:  {FontSize: 10, Padding: 6, Width: "58mm"},
	enum.PaperSize80:  {FontSize: 12, Padding: 10, Width: "80mm"},
	enum.PaperSize112: {FontSize: 14, Padding: 12, Width: "112mm"},
}

func styleFor(paperSize string) paperStyle {
	if s, ok := paperStyles[paperSize]; ok {
		return s
	}
	return paperStyles[enum.PaperSize80]
}

// Generator renders documents. Now defaults to time.Now and exists so tests
// can fix the clock.
type Generator struct {
	Now func() time.Time
}

func New() *Generator {
	return &Generator{Now: time.Now}
}

func (g *Generator) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

// --- KOT ---

type kotItemView struct {
	Name       string
	Quantity   int
	Department string
}

type kotGroupView struct {
	Department string
	Items      []kotItemView
}

type kotView struct {
	Style      paperStyle
	Number     string
	Date       string
	Time       string
	OrderType  string
	TableName  string
	Department string
	Additional bool
	ShowDept   bool
	Compact    bool
	Groups     []kotGroupView
	Items      []kotItemView
}

var kotTmpl = template.Must(template.New("kot").Parse(`<!DOCTYPE html>
<html>
<head>
<title>KOT - {{.Number}}</title>
<style>
@media print { @page { margin: 0; size: {{.Style.Width}} auto; } }
body { width: {{.Style.Width}}; font-family: 'Courier New', monospace; font-size: {{.Style.FontSize}}px; margin: 0; padding: {{.Style.Padding}}px; }
.header { text-align: center; border-bottom: 2px dashed #000; padding-bottom: 10px; margin-bottom: 10px; }
.title { font-size: {{.Style.FontSize}}px; font-weight: bold; }
.additional { background: #000; color: #fff; padding: 5px; margin: 5px 0; text-align: center; }
.info-row { display: flex; justify-content: space-between; margin: 3px 0; }
.items { border-top: 2px dashed #000; border-bottom: 2px dashed #000; padding: 10px 0; margin: 10px 0; }
.dept { font-weight: bold; margin-top: 8px; text-decoration: underline; }
.item { margin: 5px 0; }
.item-name { font-weight: bold; }
.footer { text-align: center; margin-top: 10px; }
</style>
</head>
<body>
<div class="header">
<div class="title">KITCHEN ORDER TICKET</div>
{{- if .Department}}
<div style="font-weight: bold; margin-top: 5px;">[{{.Department}}]</div>
{{- end}}
</div>
{{- if .Additional}}
<div class="additional">*** ADDITIONAL ITEMS ***</div>
{{- end}}
{{- if not .Compact}}
<div class="info">
<div class="info-row"><span>KOT No:</span><span><strong>{{.Number}}</strong></span></div>
<div class="info-row"><span>Date:</span><span>{{.Date}}</span></div>
<div class="info-row"><span>Time:</span><span>{{.Time}}</span></div>
<div class="info-row"><span>Type:</span><span><strong>{{.OrderType}}</strong></span></div>
{{- if .TableName}}
<div class="info-row"><span>Table:</span><span><strong>{{.TableName}}</strong></span></div>
{{- end}}
</div>
{{- end}}
<div class="items">
{{- if .Groups}}
{{- range .Groups}}
<div class="dept">{{.Department}}</div>
{{- range .Items}}
<div class="item"><span class="item-name">{{.Name}}</span> x {{.Quantity}}</div>
{{- end}}
{{- end}}
{{- else}}
{{- range .Items}}
<div class="item">
<div class="item-name">{{.Name}}</div>
<div class="info-row"><span>Qty: {{.Quantity}}</span>{{if $.ShowDept}}<span>[{{.Department}}]</span>{{end}}</div>
</div>
{{- end}}
{{- end}}
</div>
<div class="footer">*** Please prepare this order ***</div>
</body>
</html>
`))

// GenerateKOT renders one kitchen order ticket. When cfg.FormatType is
// "grouped" the items are bucketed by department in first-seen order; when
// meta.Department is set the document covers a single department batch and
// per-item tags are dropped.
func (g *Generator) GenerateKOT(items []cart.Line, meta KOTMeta, cfg Config) (string, error) {
	now := g.now()
	view := kotView{
		Style:      styleFor(cfg.PaperSize),
		Number:     meta.Number,
		Date:       now.Format("02/01/2006"),
		Time:       now.Format("15:04:05"),
		OrderType:  strings.ToUpper(meta.OrderType),
		TableName:  meta.TableName,
		Department: meta.Department,
		Additional: meta.Additional,
		Compact:    cfg.FormatType == enum.KOTFormatCompact,
		ShowDept:   cfg.FormatType == enum.KOTFormatDetailed && meta.Department == "",
	}

	if cfg.FormatType == enum.KOTFormatGrouped && meta.Department == "" {
		for _, group := range GroupByDepartment(items) {
			gv := kotGroupView{Department: group.Department}
			for _, l := range group.Items {
				gv.Items = append(gv.Items, kotItemView{Name: l.Name, Quantity: l.Quantity, Department: l.Department})
			}
			view.Groups = append(view.Groups, gv)
		}
	} else {
		for _, l := range items {
			view.Items = append(view.Items, kotItemView{Name: l.Name, Quantity: l.Quantity, Department: l.Department})
		}
	}

	var b strings.Builder
	if err := kotTmpl.Execute(&b, view); err != nil {
		return "", fmt.Errorf("render kot: %w", err)
	}
	return b.String(), nil
}

// --- Bill ---

type billItemView struct {
	Name      string
	Quantity  int
	UnitPrice string
	LineTotal string
}

type billView struct {
	Style          paperStyle
	RestaurantName string
	BillNumber     string
	Date           string
	OrderType      string
	TableName      string
	Compact        bool
	Items          []billItemView
	Subtotal       string
	TaxLabel       string
	Tax            string
	Total          string
}

var billTmpl = template.Must(template.New("bill").Parse(`<!DOCTYPE html>
<html>
<head>
<title>Bill - {{.BillNumber}}</title>
<style>
@media print { @page { margin: 0; size: {{.Style.Width}} auto; } }
body { width: {{.Style.Width}}; font-family: 'Courier New', monospace; font-size: {{.Style.FontSize}}px; margin: 0; padding: {{.Style.Padding}}px; }
.header { text-align: center; border-bottom: 2px dashed #000; padding-bottom: 10px; margin-bottom: 10px; }
.title { font-weight: bold; }
.info-row { display: flex; justify-content: space-between; margin: 3px 0; }
.items { border-top: 2px dashed #000; padding: 10px 0; }
.item-row { display: flex; justify-content: space-between; margin: 5px 0; }
.totals { border-top: 2px dashed #000; border-bottom: 2px dashed #000; padding: 10px 0; margin: 10px 0; }
.grand-total { font-weight: bold; }
.footer { text-align: center; margin-top: 15px; }
</style>
</head>
<body>
<div class="header">
<div class="title">{{.RestaurantName}}</div>
<div>Tax Invoice</div>
</div>
{{- if not .Compact}}
<div class="info">
<div class="info-row"><span>Bill No:</span><span>{{.BillNumber}}</span></div>
<div class="info-row"><span>Date:</span><span>{{.Date}}</span></div>
<div class="info-row"><span>Type:</span><span>{{.OrderType}}</span></div>
{{- if .TableName}}
<div class="info-row"><span>Table:</span><span>{{.TableName}}</span></div>
{{- end}}
</div>
{{- end}}
<div class="items">
{{- range .Items}}
<div class="item-row">
<div>{{.Name}}{{if not $.Compact}}<div>{{.Quantity}} x Rs.{{.UnitPrice}}</div>{{else}} x{{.Quantity}}{{end}}</div>
<div>Rs.{{.LineTotal}}</div>
</div>
{{- end}}
</div>
<div class="totals">
<div class="info-row"><span>Subtotal:</span><span>Rs.{{.Subtotal}}</span></div>
<div class="info-row"><span>{{.TaxLabel}}:</span><span>Rs.{{.Tax}}</span></div>
<div class="info-row grand-total"><span>TOTAL:</span><span>Rs.{{.Total}}</span></div>
</div>
<div class="footer">
<div>Thank you for dining with us!</div>
<div>Please visit again</div>
</div>
</body>
</html>
`))

// GenerateBill renders a bill over the combined item view and its totals.
// The tax line is labeled with the rate the totals were priced at.
func (g *Generator) GenerateBill(items []cart.Line, totals cart.Totals, meta BillMeta, cfg Config) (string, error) {
	name := meta.RestaurantName
	if name == "" {
		name = "RESTAURANT POS"
	}
	rate := totals.TaxRate
	if rate.IsZero() {
		rate = cart.DefaultTaxRate
	}
	view := billView{
		Style:          styleFor(cfg.PaperSize),
		RestaurantName: name,
		BillNumber:     meta.BillNumber,
		Date:           g.now().Format("02/01/2006 15:04:05"),
		OrderType:      strings.ToUpper(meta.OrderType),
		TableName:      meta.TableName,
		Compact:        cfg.FormatType == enum.BillFormatCompact,
		Subtotal:       totals.Subtotal.StringFixed(2),
		TaxLabel:       fmt.Sprintf("GST (%s%%)", rate.String()),
		Tax:            totals.Tax.StringFixed(2),
		Total:          totals.Total.StringFixed(2),
	}
	for _, l := range items {
		lineTotal := l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		view.Items = append(view.Items, billItemView{
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.Price.StringFixed(2),
			LineTotal: lineTotal.StringFixed(2),
		})
	}

	var b strings.Builder
	if err := billTmpl.Execute(&b, view); err != nil {
		return "", fmt.Errorf("render bill: %w", err)
	}
	return b.String(), nil
}

// --- Department grouping ---

// DepartmentGroup is one department's slice of an item list.
type DepartmentGroup struct {
	Department string
	Items      []cart.Line
}

// GroupByDepartment buckets items by department, preserving the first-seen
// order of department strings so output is stable for a given input order.
func GroupByDepartment(items []cart.Line) []DepartmentGroup {
	var groups []DepartmentGroup
	idx := make(map[string]int)
	for _, l := range items {
		i, ok := idx[l.Department]
		if !ok {
			i = len(groups)
			idx[l.Department] = i
			groups = append(groups, DepartmentGroup{Department: l.Department})
		}
		groups[i].Items = append(groups[i].Items, l)
	}
	return groups
}
