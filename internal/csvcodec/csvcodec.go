// Package csvcodec converts orders to and from the CSV interchange format.
//
// The format is fixed: one header row, one row per order, fields quoted
// RFC 4180 style when they contain a comma, a double quote or a newline.
// Decoding is line-based and tolerant: rows with too few fields are skipped
// rather than failing the import.
package csvcodec

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/marcus/ordr/internal/models"
)

// Header is the fixed CSV column list
var Header = []string{
	"Order Number", "Party Name", "Order Date", "Order Status",
	"Expected Delivery", "Delivered", "Contact", "Image URLs",
}

// minFields is the number of leading columns a row needs to be accepted
const minFields = 6

var (
	ErrEmptyOrMalformedCSV = errors.New("CSV must have at least a header and one data row")
	ErrNoValidRecords      = errors.New("no valid orders found in CSV")
)

// SkippedRow describes a data row that was dropped during decode
type SkippedRow struct {
	Line   int // 1-based line number in the input, header is line 1
	Fields int
	Text   string
}

// Result is a decoded batch
type Result struct {
	Orders  []models.Order
	Skipped []SkippedRow
}

// Encode renders orders as CSV text, header first, rows joined by "\n".
func Encode(orders []models.Order) string {
	var sb strings.Builder
	sb.WriteString(strings.Join(Header, ","))
	for _, o := range orders {
		sb.WriteByte('\n')
		writeRow(&sb, []string{
			o.OrderNumber, o.PartyName, o.OrderDate, o.OrderStatus,
			o.ExpectedDelivery, o.Delivered, o.Contact, o.ImageURLs,
		})
	}
	return sb.String()
}

func writeRow(sb *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(Escape(f))
	}
}

// Escape quotes a single field if it contains a comma, quote or newline.
func Escape(v string) string {
	if !strings.ContainsAny(v, ",\"\n") {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

// Decode parses CSV text into orders with freshly generated ids. The first
// line is the header and is not validated.
func Decode(text string) (*Result, error) {
	text = strings.TrimSpace(text)
	lines := strings.Split(text, "\n")
	if text == "" || len(lines) < 2 {
		return &Result{}, ErrEmptyOrMalformedCSV
	}

	res := &Result{}
	for i, line := range lines[1:] {
		line = strings.TrimSuffix(line, "\r")
		values := SplitLine(line)
		if len(values) < minFields {
			row := SkippedRow{Line: i + 2, Fields: len(values), Text: line}
			res.Skipped = append(res.Skipped, row)
			slog.Warn("csv: skipping invalid line", "line", row.Line, "fields", row.Fields)
			continue
		}
		res.Orders = append(res.Orders, rowToOrder(values))
	}

	if len(res.Orders) == 0 {
		return res, fmt.Errorf("%w (%d rows skipped)", ErrNoValidRecords, len(res.Skipped))
	}
	return res, nil
}

func rowToOrder(values []string) models.Order {
	at := func(i int) string {
		if i < len(values) {
			return values[i]
		}
		return ""
	}
	return models.Normalize(models.Order{
		ID:               models.NewOrderID(),
		OrderNumber:      at(0),
		PartyName:        at(1),
		OrderDate:        at(2),
		OrderStatus:      at(3),
		ExpectedDelivery: at(4),
		Delivered:        at(5),
		Contact:          at(6),
		ImageURLs:        at(7),
	})
}

// SplitLine splits one CSV line on unquoted commas. A doubled quote inside
// a quoted section is a literal quote; other quotes toggle quoting.
func SplitLine(line string) []string {
	var (
		values   []string
		current  strings.Builder
		inQuotes bool
	)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				current.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case c == ',' && !inQuotes:
			values = append(values, current.String())
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}
	return append(values, current.String())
}
