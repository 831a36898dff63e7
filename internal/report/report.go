package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"sjsage522/couponradar/internal/crawler"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Header is the column order of every rendered result set
var Header = []string{
	"Title",
	"Original",
	"Deal Price",
	"Coupon",
	"Final Price",
	"Discount Rate",
	"Coupon Text",
	"URL",
}

// CSVFilename is the suggested download name for exported results
const CSVFilename = "coupon_results.csv"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var printer = message.NewPrinter(language.English)

// Row is a deal rendered for display
type Row struct {
	Title        string `json:"title"`
	Original     string `json:"original"`
	DealPrice    string `json:"deal_price"`
	Coupon       string `json:"coupon"`
	FinalPrice   string `json:"final_price"`
	DiscountRate string `json:"discount_rate"`
	CouponText   string `json:"coupon_text"`
	URL          string `json:"url"`
}

// NewRow renders an evaluated deal. Absent values and a zero coupon render empty.
func NewRow(deal crawler.EvaluatedDeal) Row {
	row := Row{
		Title:        deal.Title,
		Original:     FormatOptionalMoney(deal.Original),
		DealPrice:    FormatMoney(deal.DealPrice),
		FinalPrice:   FormatMoney(deal.FinalPrice),
		DiscountRate: FormatRate(deal.DiscountRate),
		CouponText:   deal.CouponText,
		URL:          deal.URL,
	}
	if deal.CouponValue.IsPositive() {
		row.Coupon = FormatMoney(deal.CouponValue)
	}
	return row
}

// Rows renders every deal in order
func Rows(deals []crawler.EvaluatedDeal) []Row {
	rows := make([]Row, 0, len(deals))
	for _, deal := range deals {
		rows = append(rows, NewRow(deal))
	}
	return rows
}

// Fields returns the row values in Header order
func (r Row) Fields() []string {
	return []string{
		r.Title,
		r.Original,
		r.DealPrice,
		r.Coupon,
		r.FinalPrice,
		r.DiscountRate,
		r.CouponText,
		r.URL,
	}
}

// FormatMoney renders an amount as "$1,234.56"
func FormatMoney(amount decimal.Decimal) string {
	amount = amount.Round(2)

	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	_, cents, _ := strings.Cut(amount.StringFixed(2), ".")
	return sign + "$" + printer.Sprintf("%d", amount.IntPart()) + "." + cents
}

// FormatOptionalMoney renders an optional amount, or "" when absent
func FormatOptionalMoney(amount decimal.NullDecimal) string {
	if !amount.Valid {
		return ""
	}
	return FormatMoney(amount.Decimal)
}

// FormatRate renders a discount rate as "30.0%", or "" when absent
func FormatRate(rate decimal.NullDecimal) string {
	if !rate.Valid {
		return ""
	}
	return rate.Decimal.StringFixed(1) + "%"
}

// WriteCSV writes a UTF-8 BOM, the header and one record per deal
func WriteCSV(w io.Writer, deals []crawler.EvaluatedDeal) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return err
	}
	for _, row := range Rows(deals) {
		if err := writer.Write(row.Fields()); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteTable writes the deals as an aligned text table for terminals
func WriteTable(w io.Writer, deals []crawler.EvaluatedDeal) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(Header[:len(Header)-2], "\t")+"\tURL")
	for _, row := range Rows(deals) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			truncate(row.Title, 48),
			row.Original,
			row.DealPrice,
			row.Coupon,
			row.FinalPrice,
			row.DiscountRate,
			row.URL,
		)
	}
	return tw.Flush()
}

// truncate shortens s to at most n runes
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
