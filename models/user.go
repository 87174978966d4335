package models

import "time"

// Wallet is the profile of a wallet-identified user.
type Wallet struct {
	WalletAddress  string    `json:"walletAddress"`
	CreatedAt      time.Time `json:"createdAt"`
	EventsJoined   int       `json:"eventsJoined"`
	Reputation     int       `json:"reputation"`
	Username       string    `json:"username"`
	CompletedTasks []string  `json:"-"`
}

// DefaultUsername is the first six characters of the address and an ellipsis.
func DefaultUsername(address string) string {
	r := []rune(address)
	if len(r) > 6 {
		r = r[:6]
	}
	return string(r) + "..."
}

// NewWallet builds the profile stored on first sight of an address.
func NewWallet(address string, now time.Time) Wallet {
	return Wallet{
		WalletAddress:  address,
		CreatedAt:      now,
		Username:       DefaultUsername(address),
		CompletedTasks: []string{},
	}
}

// WalletFromDoc maps a stored wallet document; fallback supplies the address
// when the body does not carry one.
func WalletFromDoc(d Doc, fallback string, now time.Time) Wallet {
	w := Wallet{
		WalletAddress:  AsString(d["walletAddress"]),
		CreatedAt:      TimeOr(d["createdAt"], now),
		EventsJoined:   AsInt(d["eventsJoined"]),
		Reputation:     AsInt(d["reputation"]),
		Username:       AsString(d["username"]),
		CompletedTasks: []string{},
	}
	if w.WalletAddress == "" {
		w.WalletAddress = fallback
	}
	if w.Username == "" {
		w.Username = DefaultUsername(w.WalletAddress)
	}
	for _, v := range AsList(d["completedTasks"]) {
		if s := AsString(v); s != "" {
			w.CompletedTasks = append(w.CompletedTasks, s)
		}
	}
	return w
}

func WalletToDoc(w Wallet) Doc {
	tasks := make([]any, 0, len(w.CompletedTasks))
	for _, id := range w.CompletedTasks {
		tasks = append(tasks, id)
	}
	return Doc{
		"walletAddress":  w.WalletAddress,
		"createdAt":      w.CreatedAt,
		"eventsJoined":   w.EventsJoined,
		"reputation":     w.Reputation,
		"username":       w.Username,
		"completedTasks": tasks,
	}
}

// Task is a reward task a wallet can complete.
type Task struct {
	ID          string `json:"taskId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Reward      int    `json:"reward"`
	Completed   bool   `json:"completed"`
}

func TaskFromDoc(id string, d Doc) Task {
	return Task{
		ID:          id,
		Title:       AsString(d["title"]),
		Description: AsString(d["description"]),
		Reward:      AsInt(first(d, "reward", "hackRewards")),
	}
}
