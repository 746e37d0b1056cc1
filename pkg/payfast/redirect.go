package payfast

import (
	"net/url"
)

// Merchant holds the credentials and callback URLs of a PayFast merchant account
type Merchant struct {
	MerchantID  string
	MerchantKey string
	Passphrase  string
	ProcessURL  string
	ReturnURL   string
	CancelURL   string
	NotifyURL   string
}

// RedirectRequest describes one payment on the hosted page
type RedirectRequest struct {
	PaymentID   string // m_payment_id, echoed back in the notification
	AmountCents int64
	ItemName    string
	Email       string
	FirstName   string
	LastName    string
}

// Fields returns the signed form fields for the hosted payment page
func (m Merchant) Fields(req RedirectRequest) map[string]string {
	fields := map[string]string{
		"merchant_id":  m.MerchantID,
		"merchant_key": m.MerchantKey,
		"m_payment_id": req.PaymentID,
		"amount":       FormatAmount(req.AmountCents),
		"item_name":    req.ItemName,
	}

	optional := map[string]string{
		"return_url":    m.ReturnURL,
		"cancel_url":    m.CancelURL,
		"notify_url":    m.NotifyURL,
		"email_address": req.Email,
		"name_first":    req.FirstName,
		"name_last":     req.LastName,
	}
	for key, value := range optional {
		if value != "" {
			fields[key] = value
		}
	}

	fields[SignatureField] = Sign(fields, m.Passphrase)
	return fields
}

// RedirectURL returns the process URL with the signed fields as query string
func (m Merchant) RedirectURL(req RedirectRequest) (string, error) {
	u, err := url.Parse(m.ProcessURL)
	if err != nil {
		return "", err
	}

	query := url.Values{}
	for key, value := range m.Fields(req) {
		query.Set(key, value)
	}
	u.RawQuery = query.Encode()

	return u.String(), nil
}
