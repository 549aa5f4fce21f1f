package csvcodec

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/marcus/ordr/internal/models"
)

func sampleOrders() []models.Order {
	return []models.Order{
		{
			ID: "ord-1", OrderNumber: "IJD101", PartyName: "Tawfik", OrderDate: "2024-09-17",
			OrderStatus: "Delivered", ExpectedDelivery: "2024-09-25", Delivered: "No",
			Contact: "1234567890", ImageURLs: "https://example.com/image1.jpg",
		},
		{
			ID: "ord-2", OrderNumber: "1002", PartyName: `He said, "hi"`, OrderDate: "2024-09-18",
			OrderStatus: "Cancelled", ExpectedDelivery: "", Delivered: "Yes",
			Contact: "", ImageURLs: "https://example.com/a.jpg,https://example.com/b.jpg",
		},
	}
}

func TestEncodeHeader(t *testing.T) {
	out := Encode(nil)
	want := "Order Number,Party Name,Order Date,Order Status,Expected Delivery,Delivered,Contact,Image URLs"
	if out != want {
		t.Fatalf("header: got %q, want %q", out, want)
	}
}

func TestEscape(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"", ""},
		{"a,b", `"a,b"`},
		{`say "x"`, `"say ""x"""`},
		{"line1\nline2", "\"line1\nline2\""},
	}
	for _, tc := range tests {
		if got := Escape(tc.in); got != tc.want {
			t.Errorf("Escape(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	orders := sampleOrders()
	res, err := Decode(Encode(orders))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(res.Orders) != len(orders) {
		t.Fatalf("decoded %d orders, want %d", len(res.Orders), len(orders))
	}
	for i, got := range res.Orders {
		want := orders[i]
		if got.ID == "" || got.ID == want.ID {
			t.Errorf("order %d: id not regenerated: %q", i, got.ID)
		}
		got.ID = want.ID
		if got != want {
			t.Errorf("order %d:\n got %+v\nwant %+v", i, got, want)
		}
	}
}

func TestRoundTripDefaultsEmptyStatusAndDelivered(t *testing.T) {
	o := models.Order{OrderNumber: "E1", PartyName: "Ann", OrderDate: "2025-01-01", Contact: "555"}
	res, err := Decode(Encode([]models.Order{o}))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got := res.Orders[0]
	if got.OrderStatus != models.StatusPending || got.Delivered != models.DeliveredNo {
		t.Errorf("defaults: got status %q delivered %q, want Pending/No", got.OrderStatus, got.Delivered)
	}
	got.ID, got.OrderStatus, got.Delivered = "", "", ""
	if got != o {
		t.Errorf("other fields changed:\n got %+v\nwant %+v", got, o)
	}
}

func TestQuotedCommaAndQuoteRoundTrip(t *testing.T) {
	o := models.Order{OrderNumber: "Q1", PartyName: `He said, "hi"`, OrderStatus: "Pending", Delivered: "No"}
	res, err := Decode(Encode([]models.Order{o}))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := res.Orders[0].PartyName; got != `He said, "hi"` {
		t.Fatalf("PartyName: got %q", got)
	}
}

func TestDecodeExampleRow(t *testing.T) {
	text := "Order Number,Party Name,Order Date,Order Status,Expected Delivery,Delivered,Contact,Image URLs\nA1,Bob,2024-01-01,Pending,,No,555,"
	res, err := Decode(text)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(res.Orders) != 1 {
		t.Fatalf("orders: got %d, want 1", len(res.Orders))
	}
	o := res.Orders[0]
	if o.OrderNumber != "A1" || o.Delivered != "No" || o.Contact != "555" {
		t.Errorf("decoded: %+v", o)
	}
}

func TestDecodeHeaderOnly(t *testing.T) {
	for _, in := range []string{"", "   \n", "Order Number,Party Name\n"} {
		res, err := Decode(in)
		if !errors.Is(err, ErrEmptyOrMalformedCSV) {
			t.Errorf("Decode(%q): got %v, want ErrEmptyOrMalformedCSV", in, err)
		}
		if res == nil || len(res.Orders) != 0 || len(res.Skipped) != 0 {
			t.Errorf("Decode(%q): result %+v, want empty non-nil", in, res)
		}
	}
}

func TestDecodeAllRowsShort(t *testing.T) {
	text := "h\na,b,c\nd,e,f,g,h"
	res, err := Decode(text)
	if !errors.Is(err, ErrNoValidRecords) {
		t.Fatalf("got %v, want ErrNoValidRecords", err)
	}
	if len(res.Skipped) != 2 {
		t.Errorf("skipped: got %d, want 2", len(res.Skipped))
	}
}

func TestDecodeSkipsShortRows(t *testing.T) {
	text := strings.Join([]string{
		"header",
		"A1,Bob,2024-01-01,Pending,,No",
		"too,short",
		"A2,Ann,2024-01-02,,,,,",
	}, "\r\n")
	res, err := Decode(text)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(res.Orders) != 2 {
		t.Fatalf("orders: got %d, want 2", len(res.Orders))
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Line != 3 {
		t.Errorf("skipped: %+v", res.Skipped)
	}

	// six fields: contact and image urls default to empty
	if res.Orders[0].Contact != "" || res.Orders[0].ImageURLs != "" {
		t.Errorf("optional fields not defaulted: %+v", res.Orders[0])
	}
	// empty status and delivered get the import defaults
	if res.Orders[1].OrderStatus != "Pending" || res.Orders[1].Delivered != "No" {
		t.Errorf("defaults not applied: %+v", res.Orders[1])
	}
	if res.Orders[0].Delivered != "No" {
		t.Errorf("trailing CR leaked into last field: %q", res.Orders[0].Delivered)
	}
}

func TestDecodeIDsUniqueInLargeBatch(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("header")
	for i := 0; i < 5000; i++ {
		fmt.Fprintf(&sb, "\nN%d,Party,2024-01-01,Pending,,No", i)
	}
	res, err := Decode(sb.String())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	seen := make(map[string]bool, len(res.Orders))
	for _, o := range res.Orders {
		if seen[o.ID] {
			t.Fatalf("duplicate id %s", o.ID)
		}
		seen[o.ID] = true
	}
}

func TestSplitLine(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{"", []string{""}},
		{`"a,b",c`, []string{"a,b", "c"}},
		{`"He said, ""hi""",x`, []string{`He said, "hi"`, "x"}},
		{`a,,`, []string{"a", "", ""}},
	}
	for _, tc := range tests {
		got := SplitLine(tc.in)
		if strings.Join(got, "|") != strings.Join(tc.want, "|") || len(got) != len(tc.want) {
			t.Errorf("SplitLine(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
