package models

import (
	"time"
)

// Status values the UI offers for an order. Imported and remote records may
// carry any string; these are the known ones.
const (
	StatusPending    = "Pending"
	StatusProcessing = "Processing"
	StatusDelivered  = "Delivered"
	StatusCancelled  = "Cancelled"
	StatusOnHold     = "On Hold"
)

// Delivered flag values
const (
	DeliveredYes = "Yes"
	DeliveredNo  = "No"
)

// Defaults applied to records coming from an import source
const (
	DefaultOrderStatus = StatusPending
	DefaultDelivered   = DeliveredNo
)

// Order is the single tracked business record
type Order struct {
	ID               string `json:"id"`
	OrderNumber      string `json:"orderNumber"`
	PartyName        string `json:"partyName"`
	OrderDate        string `json:"orderDate"`
	OrderStatus      string `json:"orderStatus"`
	ExpectedDelivery string `json:"expectedDelivery"`
	Delivered        string `json:"delivered"`
	Contact          string `json:"contact"`
	ImageURLs        string `json:"imageUrls"`
}

// OrderFields is a partial set of order fields. Nil fields are left
// untouched by an update.
type OrderFields struct {
	OrderNumber      *string
	PartyName        *string
	OrderDate        *string
	OrderStatus      *string
	ExpectedDelivery *string
	Delivered        *string
	Contact          *string
	ImageURLs        *string
}

// FieldsFromOrder returns a field set with every field of o supplied.
func FieldsFromOrder(o Order) OrderFields {
	return OrderFields{
		OrderNumber:      &o.OrderNumber,
		PartyName:        &o.PartyName,
		OrderDate:        &o.OrderDate,
		OrderStatus:      &o.OrderStatus,
		ExpectedDelivery: &o.ExpectedDelivery,
		Delivered:        &o.Delivered,
		Contact:          &o.Contact,
		ImageURLs:        &o.ImageURLs,
	}
}

// IsEmpty reports whether no field is supplied.
func (f OrderFields) IsEmpty() bool {
	return f.OrderNumber == nil && f.PartyName == nil && f.OrderDate == nil &&
		f.OrderStatus == nil && f.ExpectedDelivery == nil && f.Delivered == nil &&
		f.Contact == nil && f.ImageURLs == nil
}

// Apply merges the supplied fields over o. ID and OrderNumber are never
// touched; callers that create orders set OrderNumber themselves.
func (f OrderFields) Apply(o *Order) {
	if f.PartyName != nil {
		o.PartyName = *f.PartyName
	}
	if f.OrderDate != nil {
		o.OrderDate = *f.OrderDate
	}
	if f.OrderStatus != nil {
		o.OrderStatus = *f.OrderStatus
	}
	if f.ExpectedDelivery != nil {
		o.ExpectedDelivery = *f.ExpectedDelivery
	}
	if f.Delivered != nil {
		o.Delivered = *f.Delivered
	}
	if f.Contact != nil {
		o.Contact = *f.Contact
	}
	if f.ImageURLs != nil {
		o.ImageURLs = *f.ImageURLs
	}
}

// Normalize applies the import defaulting rules: empty status becomes
// Pending, empty delivered flag becomes No.
func Normalize(o Order) Order {
	if o.OrderStatus == "" {
		o.OrderStatus = DefaultOrderStatus
	}
	if o.Delivered == "" {
		o.Delivered = DefaultDelivered
	}
	return o
}

// ConnectionStatus is the remote connection state of a sync session
type ConnectionStatus string

const (
	ConnDisconnected ConnectionStatus = "disconnected"
	ConnTesting      ConnectionStatus = "testing"
	ConnConnected    ConnectionStatus = "connected"
)

// Snapshot is the persisted local state blob
type Snapshot struct {
	Orders         []Order   `json:"orders"`
	RemoteEndpoint string    `json:"remoteEndpoint"`
	LastSaved      time.Time `json:"lastSaved"`
}

// Export is the JSON export document
type Export struct {
	Orders      []Order   `json:"orders"`
	ExportDate  time.Time `json:"exportDate"`
	TotalOrders int       `json:"totalOrders"`
}

// NewExport builds an export document for orders stamped with now.
func NewExport(orders []Order, now time.Time) Export {
	if orders == nil {
		orders = []Order{}
	}
	return Export{
		Orders:      orders,
		ExportDate:  now.UTC(),
		TotalOrders: len(orders),
	}
}

// Counts summarises an order list for the dashboard
type Counts struct {
	Total     int `json:"total"`
	Delivered int `json:"delivered"`
	Pending   int `json:"pending"`
	Cancelled int `json:"cancelled"`
}

// CountOrders tallies orders the way the dashboard shows them.
func CountOrders(orders []Order) Counts {
	c := Counts{Total: len(orders)}
	for _, o := range orders {
		if o.Delivered == DeliveredYes {
			c.Delivered++
		}
		switch o.OrderStatus {
		case StatusPending:
			c.Pending++
		case StatusCancelled:
			c.Cancelled++
		}
	}
	return c
}
