package payfast

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// PaymentStatusComplete is the payment_status PayFast sends for a successful payment
const PaymentStatusComplete = "COMPLETE"

// Notification is the subset of an ITN (instant transaction notification)
// the reservation flow acts on
type Notification struct {
	BookingID     int64
	PaymentID     string // pf_payment_id
	PaymentStatus string
	AmountCents   int64
	Fields        map[string]string
}

// Succeeded reports whether PayFast collected the funds
func (n *Notification) Succeeded() bool {
	return n.PaymentStatus == PaymentStatusComplete
}

// FieldsFromForm flattens a posted form to one value per key
func FieldsFromForm(form url.Values) map[string]string {
	fields := make(map[string]string, len(form))
	for key, values := range form {
		if len(values) > 0 {
			fields[key] = values[0]
		}
	}
	return fields
}

// ParseNotification extracts the booking id, gateway id, status and amount.
// The signature is not checked here; call Verify first.
func ParseNotification(fields map[string]string) (*Notification, error) {
	rawID := strings.TrimSpace(fields["m_payment_id"])
	bookingID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || bookingID <= 0 {
		return nil, fmt.Errorf("invalid m_payment_id %q", rawID)
	}

	amount, err := ParseAmount(fields["amount_gross"])
	if err != nil {
		return nil, fmt.Errorf("invalid amount_gross: %w", err)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("amount_gross must be positive, got %q", fields["amount_gross"])
	}

	return &Notification{
		BookingID:     bookingID,
		PaymentID:     fields["pf_payment_id"],
		PaymentStatus: fields["payment_status"],
		AmountCents:   amount,
		Fields:        fields,
	}, nil
}
