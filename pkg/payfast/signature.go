// Package payfast implements the PayFast signature scheme and the redirect
// fields for the hosted payment page.
package payfast

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// SignatureField is the name of the field carrying the signature
const SignatureField = "signature"

// ErrMissingSignature is returned when a notification carries no signature
var ErrMissingSignature = errors.New("missing signature")

// ErrInvalidSignature is returned when the signature does not match the fields
var ErrInvalidSignature = errors.New("invalid signature")

// SignatureInput renders the string that gets hashed: every field except the
// signature, sorted by key, as key=urlencode(value) joined with '&', then
// passphrase=urlencode(passphrase). With an empty passphrase the trailing '&'
// is dropped instead.
func SignatureInput(fields map[string]string, passphrase string) string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		if key == SignatureField {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(fields[key]))
		b.WriteByte('&')
	}

	if passphrase != "" {
		b.WriteString("passphrase=")
		b.WriteString(url.QueryEscape(passphrase))
		return b.String()
	}

	return strings.TrimSuffix(b.String(), "&")
}

// Sign returns the lowercase hex MD5 signature of fields
func Sign(fields map[string]string, passphrase string) string {
	sum := md5.Sum([]byte(SignatureInput(fields, passphrase)))
	return hex.EncodeToString(sum[:])
}

// Verify checks the signature field against the rest of fields
func Verify(fields map[string]string, passphrase string) error {
	received, ok := fields[SignatureField]
	if !ok || received == "" {
		return ErrMissingSignature
	}

	expected := Sign(fields, passphrase)
	if subtle.ConstantTimeCompare([]byte(strings.ToLower(received)), []byte(expected)) != 1 {
		return ErrInvalidSignature
	}
	return nil
}

// FormatAmount renders cents as the decimal amount PayFast expects ("4320.00")
func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// ParseAmount converts a decimal amount ("4320.00") to cents, rounding to the
// nearest cent
func ParseAmount(value string) (int64, error) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, fmt.Errorf("invalid amount %q", value)
	}
	return int64(math.Round(amount * 100)), nil
}
