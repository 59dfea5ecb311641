package models

// CheckoutState tracks a purchase from intent to a recorded booking.
type CheckoutState string

const (
	CheckoutRequested CheckoutState = "requested"
	CheckoutPending   CheckoutState = "pending"
	CheckoutConfirmed CheckoutState = "confirmed"
	CheckoutAbandoned CheckoutState = "abandoned"
)

// CheckoutSession is the provider-hosted payment page handed to the client.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CheckoutEvent is a verified provider callback reduced to what booking needs.
type CheckoutEvent struct {
	EventID           string
	Type              string
	State             CheckoutState
	SessionID         string
	TourID            string
	UserID            string
	Price             float64
	PaymentStatusPaid bool
}

// Payload of queued e-mail tasks.
type EmailPayload struct {
	To   string `json:"to"`
	Name string `json:"name"`
	URL  string `json:"url"`
}
