// Package fulfillment hands paid orders to the print-shop partner.
package fulfillment

// OrderSubmission is the payload sent to the print-shop webhook: enough
// to print and ship without another round-trip to this service
type OrderSubmission struct {
	Slug        string `json:"slug"`
	ProductName string `json:"product_name"`
	FullName    string `json:"full_name"`
	MockupURL   string `json:"mockup_url"`
	MemorialURL string `json:"memorial_url"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

// SubmissionReceipt is the print shop's synchronous response
type SubmissionReceipt struct {
	Reference string `json:"reference"`
	Accepted  bool   `json:"accepted"`
}
