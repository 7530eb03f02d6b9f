package incident

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrDataUnavailable is returned when the record source cannot be reached or
// returns a payload that cannot be used.
var ErrDataUnavailable = errors.New("incident data unavailable")

// Record is one reported event as served by the upstream data API.
type Record struct {
	Category      string  `json:"Category"`
	EventType     string  `json:"Event Type"`
	Subdivision   string  `json:"Subdivision"`
	PoliceStation string  `json:"Police Station"`
	Complaint     *string `json:"Complaint"`
	Date          string  `json:"Date"`
	Latitude      float64 `json:"Latitude"`
	Longitude     float64 `json:"Longitude"`
}

// Source produces the full record set in one call.
type Source interface {
	ListIncidents(ctx context.Context) ([]Record, error)
}

// Store holds the unfiltered dataset for a session. It has no mutating methods.
type Store struct {
	records []Record
}

// Load pulls every record from src. Either the whole set is loaded or an error
// wrapping ErrDataUnavailable is returned; a store is never partially populated.
func Load(ctx context.Context, src Source) (*Store, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: no record source configured", ErrDataUnavailable)
	}
	records, err := src.ListIncidents(ctx)
	if err != nil {
		if errors.Is(err, ErrDataUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	for i, r := range records {
		if err := validate(r); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrDataUnavailable, i, err)
		}
	}
	return NewStore(records), nil
}

// NewStore wraps an already validated record slice. The slice is copied.
func NewStore(records []Record) *Store {
	out := make([]Record, len(records))
	copy(out, records)
	return &Store{records: out}
}

// All returns the full record set in load order. The returned slice is a copy.
func (s *Store) All() []Record {
	if s == nil {
		return nil
	}
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

func validate(r Record) error {
	if math.IsNaN(r.Latitude) || math.IsNaN(r.Longitude) || math.IsInf(r.Latitude, 0) || math.IsInf(r.Longitude, 0) {
		return errors.New("coordinates are not finite")
	}
	if r.Latitude < -90 || r.Latitude > 90 || r.Longitude < -180 || r.Longitude > 180 {
		return fmt.Errorf("coordinates out of range: %v,%v", r.Latitude, r.Longitude)
	}
	if strings.TrimSpace(r.Date) != "" && !IsISODate(r.Date) {
		return fmt.Errorf("date %q is not YYYY-MM-DD", r.Date)
	}
	return nil
}

// IsISODate reports whether s has the YYYY-MM-DD shape that keeps lexicographic
// comparison equal to chronological comparison.
func IsISODate(s string) bool {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return false
	}
	for i, c := range s {
		if i == 4 || i == 7 {
			continue
		}
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
