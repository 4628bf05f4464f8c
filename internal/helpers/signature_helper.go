package helpers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// TicketSignature signs the QR payload for one order so venue staff can
// verify a pass offline against the shared secret.
func TicketSignature(orderID, ticketTypeID, buyerID uuid.UUID, secretKey string) string {
	data := fmt.Sprintf("%s:%s:%s", orderID.String(), ticketTypeID.String(), buyerID.String())
	h := hmac.New(sha256.New, []byte(secretKey))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

// TicketQRData builds the payload encoded into the pass QR image.
func TicketQRData(orderID, ticketTypeID, buyerID uuid.UUID, secretKey string) string {
	signature := TicketSignature(orderID, ticketTypeID, buyerID, secretKey)
	return fmt.Sprintf("order:%s;ticket:%s;signature:%s", orderID.String(), ticketTypeID.String(), signature)
}

// ParseTicketQRData extracts the order ID from a scanned payload.
func ParseTicketQRData(qrData string) (uuid.UUID, error) {
	parts := strings.Split(qrData, ";")
	if len(parts) != 3 || !strings.HasPrefix(parts[0], "order:") || !strings.HasPrefix(parts[2], "signature:") {
		return uuid.Nil, fmt.Errorf("invalid QR data format")
	}
	return uuid.Parse(strings.TrimPrefix(parts[0], "order:"))
}

// ValidateTicketQRData checks the payload signature against the order
// it claims to represent.
func ValidateTicketQRData(qrData string, orderID, ticketTypeID, buyerID uuid.UUID, secretKey string) bool {
	parts := strings.Split(qrData, ";")
	if len(parts) != 3 || !strings.HasPrefix(parts[2], "signature:") {
		return false
	}
	signature := strings.TrimPrefix(parts[2], "signature:")
	expected := TicketSignature(orderID, ticketTypeID, buyerID, secretKey)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyCallbackToken compares the payment provider's callback token in
// constant time.
func VerifyCallbackToken(got, want string) bool {
	if want == "" {
		return false
	}
	return hmac.Equal([]byte(got), []byte(want))
}
