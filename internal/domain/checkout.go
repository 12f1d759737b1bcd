package domain

// CheckoutRequest asks the gateway for a hosted payment page against an
// existing pending order. Method selects one of the configured payment
// page presentations (credit-card, bit, apple-pay, google-pay).
type CheckoutRequest struct {
	OrderID  int64  `json:"orderId"`
	Method   string `json:"method"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
}

// CheckoutSession is what the storefront needs to hand the customer
// over to the gateway. ProcessID/ProcessToken identify the session on
// the gateway side; the order id itself travels as a custom field and
// comes back in the webhook.
type CheckoutSession struct {
	OrderID      int64  `json:"orderId"`
	RedirectURL  string `json:"redirectUrl"`
	ProcessID    int64  `json:"processId"`
	ProcessToken string `json:"processToken"`
}
