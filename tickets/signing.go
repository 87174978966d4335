package tickets

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"hash"

	"hackconnect/models"
)

// Payload is the business data a ticket signature covers. Field order here
// is the order the QR body is written in.
type Payload struct {
	EventTitle    string  `json:"eventTitle"`
	EventID       string  `json:"eventId"`
	WalletAddress string  `json:"walletAddress"`
	TicketID      string  `json:"ticketId"`
	PurchasedAt   string  `json:"purchasedAt"`
	PriceBought   float64 `json:"priceBought"`
	TierName      string  `json:"tierName"`
	Status        string  `json:"status"`
}

// SignedPayload is what gets encoded into the QR image.
type SignedPayload struct {
	Payload
	Signature string `json:"signature"`
}

// canonical returns the signing input: compact JSON with keys sorted.
func (p Payload) canonical() ([]byte, error) {
	return json.Marshal(map[string]any{
		"eventTitle":    p.EventTitle,
		"eventId":       p.EventID,
		"walletAddress": p.WalletAddress,
		"ticketId":      p.TicketID,
		"purchasedAt":   p.PurchasedAt,
		"priceBought":   p.PriceBought,
		"tierName":      p.TierName,
		"status":        p.Status,
	})
}

// PayloadOf rebuilds the signed payload from a stored ticket. The status is
// always the one the ticket was issued with.
func PayloadOf(t models.Ticket) Payload {
	return Payload{
		EventTitle:    t.EventTitle,
		EventID:       t.EventID,
		WalletAddress: t.WalletAddress,
		TicketID:      t.ID,
		PurchasedAt:   t.PurchasedAt,
		PriceBought:   t.PriceBought,
		TierName:      t.TierName,
		Status:        models.TicketActive,
	}
}

// payloadFromSubmitted reads the business fields of a scanned QR body.
func payloadFromSubmitted(m map[string]any) Payload {
	return Payload{
		EventTitle:    models.AsString(m["eventTitle"]),
		EventID:       models.AsString(m["eventId"]),
		WalletAddress: models.AsString(m["walletAddress"]),
		TicketID:      models.AsString(m["ticketId"]),
		PurchasedAt:   models.AsString(m["purchasedAt"]),
		PriceBought:   models.AsFloat(m["priceBought"]),
		TierName:      models.AsString(m["tierName"]),
		Status:        models.TicketActive,
	}
}

// Signer produces hex SHA-256 signatures, keyed with HMAC when a key is set.
type Signer struct {
	key []byte
}

func NewSigner(key string) Signer {
	if key == "" {
		return Signer{}
	}
	return Signer{key: []byte(key)}
}

func (s Signer) newHash() hash.Hash {
	if s.key == nil {
		return sha256.New()
	}
	return hmac.New(sha256.New, s.key)
}

func (s Signer) Sign(p Payload) (string, error) {
	b, err := p.canonical()
	if err != nil {
		return "", err
	}
	h := s.newHash()
	h.Write(b)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Matches reports whether sig is the signature of p.
func (s Signer) Matches(p Payload, sig string) bool {
	want, err := s.Sign(p)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(want), []byte(sig))
}
