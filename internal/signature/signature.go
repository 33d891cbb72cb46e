// Package signature builds and checks the canonical strings each payment
// provider signs. Field order and placeholder counts are part of every
// provider's external protocol, so the orderings below are data, not style.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"strings"
)

// Direction selects which of a provider's documented formulas applies:
// the one we sign outbound requests with, or the one we verify inbound
// responses against. The two differ in field order and placeholder count.
type Direction int

const (
	Request Direction = iota
	Response
)

// PayUFields are the named fields PayU includes in its hash formulas. Amount
// is a fixed-decimal string because the formula hashes the exact bytes sent.
type PayUFields struct {
	TxnID       string
	Amount      string
	ProductInfo string
	Firstname   string
	Email       string
	UDF         [5]string

	// Response-only
	Status string
}

// PayUCanonical returns the pipe-delimited canonical string for the given
// direction, including the secret salt. The request layout is
//
//	key|txnid|amount|productinfo|firstname|email|udf1..udf5||||salt
//
// with a run of three empty placeholders between udf5 and the salt; the
// response layout is its reverse with the gateway status inserted after the
// salt. Both are fixed by PayU's integration contract.
func PayUCanonical(dir Direction, f PayUFields, merchantKey, salt string) string {
	switch dir {
	case Request:
		fields := []string{
			merchantKey,
			f.TxnID,
			f.Amount,
			f.ProductInfo,
			f.Firstname,
			f.Email,
			f.UDF[0], f.UDF[1], f.UDF[2], f.UDF[3], f.UDF[4],
			"", "", "",
			salt,
		}
		return strings.Join(fields, "|")
	default:
		fields := []string{
			salt,
			f.Status,
			"", "", "",
			f.UDF[4], f.UDF[3], f.UDF[2], f.UDF[1], f.UDF[0],
			f.Email,
			f.Firstname,
			f.ProductInfo,
			f.Amount,
			f.TxnID,
			merchantKey,
		}
		return strings.Join(fields, "|")
	}
}

// PayUHash is the hex sha512 of the canonical string for one direction.
func PayUHash(dir Direction, f PayUFields, merchantKey, salt string) string {
	sum := sha512.Sum512([]byte(PayUCanonical(dir, f, merchantKey, salt)))
	return hex.EncodeToString(sum[:])
}

// VerifyPayUResponse recomputes the response hash from the callback's own
// fields and compares it against the hash the callback carried.
func VerifyPayUResponse(f PayUFields, receivedHash, merchantKey, salt string) bool {
	expected := PayUHash(Response, f, merchantKey, salt)
	return Equal(expected, strings.ToLower(receivedHash))
}

// RazorpayCheckoutSignature is HMAC-SHA256(secret, order_id|payment_id),
// hex encoded. This is the value Razorpay hands the browser after checkout.
func RazorpayCheckoutSignature(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyRazorpayCheckout checks the signature returned to the browser after
// a completed checkout.
func VerifyRazorpayCheckout(orderID, paymentID, receivedSig, secret string) bool {
	expected := RazorpayCheckoutSignature(orderID, paymentID, secret)
	return Equal(expected, receivedSig)
}

// VerifyRazorpayWebhook checks the X-Razorpay-Signature header against an
// HMAC-SHA256 of the raw request body.
func VerifyRazorpayWebhook(body []byte, receivedSig, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return Equal(expected, receivedSig)
}

// Equal compares two signature strings in constant time. Verification values
// are derived from a secret, so a byte-position-dependent comparison would
// leak through timing.
func Equal(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}
