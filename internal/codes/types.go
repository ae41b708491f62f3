package codes

import "time"

// Record is a single issued redemption code entry, keyed by the code
// itself in the backing store.
type Record struct {
	Email     string     `json:"email"`
	Amount    float64    `json:"amount"`
	PaymentID string     `json:"payment_id"`
	CreatedAt time.Time  `json:"created_at"`
	Used      bool       `json:"used"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}
