package models

import "time"

// Event statuses used by the platform. Status is free text; these are the
// labels the frontend knows about.
const (
	EventUpcoming = "upcoming"
	EventActive   = "active"
	EventClosed   = "closed"
)

type Event struct {
	ID           string       `json:"event_id"`
	Link         string       `json:"event_link"`
	Title        string       `json:"event_title"`
	StartDate    time.Time    `json:"date_start"`
	EndDate      time.Time    `json:"date_end"`
	Description  string       `json:"description"`
	HostAddress  string       `json:"host_address"`
	ImageURL     string       `json:"image_url,omitempty"`
	ThumbnailURL string       `json:"thumbnail_url,omitempty"`
	Status       string       `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
	TicketTiers  []TicketTier `json:"ticket_tiers"`
}

// TicketTier is a priced category of tickets embedded in its event.
type TicketTier struct {
	Name        string  `json:"tierName" validate:"required"`
	TicketCount int     `json:"ticketCount" validate:"gte=0"`
	TicketsSold int     `json:"ticketsSold" validate:"gte=0,ltefield=TicketCount"`
	Price       float64 `json:"price" validate:"gte=0"`
	HackRewards int     `json:"hackRewards,omitempty"`
}

// Tier returns the tier with the given name.
func (e Event) Tier(name string) (TicketTier, bool) {
	for _, t := range e.TicketTiers {
		if t.Name == name {
			return t, true
		}
	}
	return TicketTier{}, false
}

// EventFromDoc maps a stored event document. now fills absent timestamps.
func EventFromDoc(id string, d Doc, now time.Time) Event {
	e := Event{
		ID:           id,
		Link:         AsString(first(d, "eventLink", "event_link")),
		Title:        AsString(first(d, "title", "event_title")),
		Description:  AsString(d["description"]),
		HostAddress:  AsString(first(d, "hostAddress", "host_address")),
		ImageURL:     AsString(d["imageUrl"]),
		ThumbnailURL: AsString(d["thumbnailUrl"]),
		Status:       AsString(d["status"]),
		CreatedAt:    TimeOr(d["createdAt"], now),
		TicketTiers:  []TicketTier{},
	}
	e.StartDate = TimeOr(first(d, "startDate", "date_start"), now)
	e.EndDate = TimeOr(first(d, "endDate", "date_end"), e.StartDate)
	for _, item := range AsList(first(d, "ticketTiers", "ticket_tiers")) {
		if td := AsDoc(item); td != nil {
			e.TicketTiers = append(e.TicketTiers, tierFromDoc(td))
		}
	}
	return e
}

func tierFromDoc(d Doc) TicketTier {
	return TicketTier{
		Name:        AsString(first(d, "tierName", "name")),
		TicketCount: AsInt(d["ticketCount"]),
		TicketsSold: AsInt(first(d, "ticketsSold", "ticketSold")),
		Price:       AsFloat(d["price"]),
		HackRewards: AsInt(d["hackRewards"]),
	}
}

// EventToDoc is the inverse of EventFromDoc. The id lives outside the body.
func EventToDoc(e Event) Doc {
	tiers := make([]any, 0, len(e.TicketTiers))
	for _, t := range e.TicketTiers {
		tiers = append(tiers, TierToDoc(t))
	}
	return Doc{
		"eventLink":    e.Link,
		"title":        e.Title,
		"startDate":    e.StartDate,
		"endDate":      e.EndDate,
		"description":  e.Description,
		"hostAddress":  e.HostAddress,
		"imageUrl":     e.ImageURL,
		"thumbnailUrl": e.ThumbnailURL,
		"status":       e.Status,
		"createdAt":    e.CreatedAt,
		"ticketTiers":  tiers,
	}
}

func TierToDoc(t TicketTier) Doc {
	return Doc{
		"tierName":    t.Name,
		"ticketCount": t.TicketCount,
		"ticketsSold": t.TicketsSold,
		"price":       t.Price,
		"hackRewards": t.HackRewards,
	}
}
