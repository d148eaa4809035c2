package streams

// Stream name constants
const (
	StreamOrderEvents     = "orders:events"
	StreamFulfillmentAcks = "orders:acks"
)

// Consumer group constants
const (
	GroupPrintShopBridge = "print-shop-bridge" // partner side
	GroupMemoriesAPI     = "memories-api"      // this service
)

// Schema version constant
const (
	SchemaVersionV1 = "v1"
)

// OrderEvent announces a paid order on the event stream so the partner
// bridge can mirror it into the print shop's systems
type OrderEvent struct {
	Slug        string `json:"slug"`
	ProductName string `json:"product_name"`
	MockupURL   string `json:"mockup_url"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

// FulfillmentAck is the partner's acknowledgement that an order was
// received (or rejected) by the print shop
type FulfillmentAck struct {
	Slug   string `json:"slug"`
	Status string `json:"status"` // acknowledged/failed
	Note   string `json:"note"`   // rejection reason if failed
}
