package events

import (
	"bytes"
	"encoding/json"

	"hackconnect/models"
)

// Tiers is the ticket tier list as sent by clients. Unlike the store mapper
// it is strict: a field of the wrong type or an unknown field is an error.
type Tiers []models.TicketTier

// tierInput accepts both spellings the frontend has used for the tier name
// and the sold counter.
type tierInput struct {
	TierName    string  `json:"tierName"`
	Name        string  `json:"name"`
	TicketCount int     `json:"ticketCount"`
	TicketsSold *int    `json:"ticketsSold"`
	TicketSold  *int    `json:"ticketSold"`
	Price       float64 `json:"price"`
	HackRewards int     `json:"hackRewards"`
}

func (in tierInput) tier() models.TicketTier {
	t := models.TicketTier{
		Name:        in.TierName,
		TicketCount: in.TicketCount,
		Price:       in.Price,
		HackRewards: in.HackRewards,
	}
	if t.Name == "" {
		t.Name = in.Name
	}
	switch {
	case in.TicketsSold != nil:
		t.TicketsSold = *in.TicketsSold
	case in.TicketSold != nil:
		t.TicketsSold = *in.TicketSold
	}
	return t
}

func (t *Tiers) UnmarshalJSON(b []byte) error {
	parsed, err := ParseTiers(b)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTiers decodes a JSON array of tiers.
func ParseTiers(b []byte) (Tiers, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()

	var raw []tierInput
	if err := dec.Decode(&raw); err != nil {
		return nil, models.Invalidf("Invalid ticketTiers JSON: %v", err)
	}
	if dec.More() {
		return nil, models.Invalidf("Invalid ticketTiers JSON: trailing data")
	}
	if raw == nil {
		return nil, nil
	}
	out := make(Tiers, 0, len(raw))
	for _, in := range raw {
		out = append(out, in.tier())
	}
	return out, nil
}
