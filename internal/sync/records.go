package sync

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/marcus/ordr/internal/models"
)

// decodeRecord converts one remote record into an Order. Spreadsheet
// cells arrive as strings, numbers or booleans; all are kept as text.
// Records without an id get a fresh one and the import defaults apply.
func decodeRecord(raw json.RawMessage) (models.Order, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var rec map[string]any
	if err := dec.Decode(&rec); err != nil {
		return models.Order{}, err
	}
	if rec == nil {
		return models.Order{}, fmt.Errorf("record is not an object")
	}

	o := models.Order{
		ID:               text(rec["id"]),
		OrderNumber:      text(rec["orderNumber"]),
		PartyName:        text(rec["partyName"]),
		OrderDate:        text(rec["orderDate"]),
		OrderStatus:      text(rec["orderStatus"]),
		ExpectedDelivery: text(rec["expectedDelivery"]),
		Delivered:        text(rec["delivered"]),
		Contact:          text(rec["contact"]),
		ImageURLs:        text(rec["imageUrls"]),
	}
	if o.ID == "" {
		o.ID = models.NewOrderID()
	}
	return models.Normalize(o), nil
}

func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}
