package models

import "time"

// Ticket statuses. active -> checkedIn is the only transition.
const (
	TicketActive    = "active"
	TicketCheckedIn = "checkedIn"
)

type Ticket struct {
	ID                string     `json:"ticketId"`
	EventID           string     `json:"eventId"`
	EventTitle        string     `json:"eventTitle"`
	WalletAddress     string     `json:"walletAddress"`
	TierName          string     `json:"tierName"`
	PriceBought       float64    `json:"priceBought"`
	PurchasedAt       string     `json:"purchasedAt"`
	PurchaseTimestamp time.Time  `json:"purchaseTimestamp"`
	Status            string     `json:"status"`
	Signature         string     `json:"signature"`
	QRCodeURL         string     `json:"qrCodeUrl"`
	QRCodePath        string     `json:"qrCodePath"`
	CheckedInAt       *time.Time `json:"checkedInAt,omitempty"`
}

// TicketFromDoc maps a stored ticket document. The document id wins over
// any ticketId field in the body.
func TicketFromDoc(id string, d Doc) Ticket {
	t := Ticket{
		ID:            id,
		EventID:       AsString(d["eventId"]),
		EventTitle:    AsString(d["eventTitle"]),
		WalletAddress: AsString(d["walletAddress"]),
		TierName:      AsString(d["tierName"]),
		PriceBought:   AsFloat(d["priceBought"]),
		PurchasedAt:   AsString(d["purchasedAt"]),
		Status:        AsString(d["status"]),
		Signature:     AsString(d["signature"]),
		QRCodeURL:     AsString(d["qrCodeUrl"]),
		QRCodePath:    AsString(d["qrCodePath"]),
	}
	if t.ID == "" {
		t.ID = AsString(d["ticketId"])
	}
	if ts, ok := AsTime(d["purchaseTimestamp"]); ok {
		t.PurchaseTimestamp = ts
	} else if ts, ok := AsTime(t.PurchasedAt); ok {
		t.PurchaseTimestamp = ts
	}
	if ts, ok := AsTime(d["checkedInAt"]); ok {
		t.CheckedInAt = &ts
	}
	return t
}

func TicketToDoc(t Ticket) Doc {
	d := Doc{
		"ticketId":          t.ID,
		"eventId":           t.EventID,
		"eventTitle":        t.EventTitle,
		"walletAddress":     t.WalletAddress,
		"tierName":          t.TierName,
		"priceBought":       t.PriceBought,
		"purchasedAt":       t.PurchasedAt,
		"purchaseTimestamp": t.PurchaseTimestamp,
		"status":            t.Status,
		"signature":         t.Signature,
		"qrCodeUrl":         t.QRCodeURL,
		"qrCodePath":        t.QRCodePath,
	}
	if t.CheckedInAt != nil {
		d["checkedInAt"] = *t.CheckedInAt
	}
	return d
}
