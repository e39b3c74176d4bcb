package model

import "time"

// InterlockSeat is one company role held by a key person.
type InterlockSeat struct {
	CIK      string    `json:"cik"`
	Ticker   string    `json:"ticker,omitempty"`
	Role     string    `json:"role"`
	Active   bool      `json:"active"`
	LastSeen time.Time `json:"last_seen"`
}

// Interlock tracks one person's seats across profiled companies. Documents
// are keyed by canonical person name; upserts merge seats on (cik, role).
type Interlock struct {
	PersonName string          `json:"person_name"`
	Seats      []InterlockSeat `json:"seats"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// MergeSeat folds a seat into the interlock. An existing seat with the same
// (cik, role) is refreshed in place; otherwise the seat is appended.
func (i *Interlock) MergeSeat(seat InterlockSeat) {
	for idx, existing := range i.Seats {
		if existing.CIK == seat.CIK && existing.Role == seat.Role {
			if seat.LastSeen.After(existing.LastSeen) {
				i.Seats[idx].LastSeen = seat.LastSeen
				i.Seats[idx].Active = seat.Active
			}
			if seat.Ticker != "" {
				i.Seats[idx].Ticker = seat.Ticker
			}
			return
		}
	}
	i.Seats = append(i.Seats, seat)
}
