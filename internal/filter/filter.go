// Package filter composes the independent filter dimensions of the dashboard
// into one predicate over incident records.
package filter

import (
	"crimewatch/dashboard-go/internal/incident"
)

// AllEventTypes is the event-type sentinel that disables the event-type dimension.
const AllEventTypes = "all"

// State is the canonical "what is currently selected" value. Empty Categories or
// Subdivisions mean no restriction on that dimension. Empty DateFrom/DateTo mean
// no bound.
type State struct {
	EventType    string   `json:"event_type"`
	Categories   []string `json:"categories"`
	Subdivisions []string `json:"subdivisions"`
	DateFrom     string   `json:"date_from,omitempty"`
	DateTo       string   `json:"date_to,omitempty"`
}

// Default matches every record.
func Default() State {
	return State{
		EventType:    AllEventTypes,
		Categories:   []string{},
		Subdivisions: []string{},
	}
}

func (s State) Clone() State {
	out := s
	out.Categories = append([]string{}, s.Categories...)
	out.Subdivisions = append([]string{}, s.Subdivisions...)
	return out
}

// Equal compares two states dimension by dimension. Set order is ignored.
func (s State) Equal(o State) bool {
	return eventTypeOf(s) == eventTypeOf(o) &&
		s.DateFrom == o.DateFrom &&
		s.DateTo == o.DateTo &&
		sameSet(s.Categories, o.Categories) &&
		sameSet(s.Subdivisions, o.Subdivisions)
}

// Evaluate reports whether r passes every dimension of s.
func Evaluate(r incident.Record, s State) bool {
	if et := eventTypeOf(s); et != AllEventTypes && r.EventType != et {
		return false
	}
	if len(s.Categories) > 0 && !contains(s.Categories, r.Category) {
		return false
	}
	if len(s.Subdivisions) > 0 && !contains(s.Subdivisions, r.Subdivision) {
		return false
	}
	if s.DateFrom != "" && r.Date < s.DateFrom {
		return false
	}
	if s.DateTo != "" && r.Date > s.DateTo {
		return false
	}
	return true
}

// FilterAll returns the records passing s, in their original order. The input
// slice is not modified.
func FilterAll(records []incident.Record, s State) []incident.Record {
	out := make([]incident.Record, 0, len(records))
	for _, r := range records {
		if Evaluate(r, s) {
			out = append(out, r)
		}
	}
	return out
}

// A zero-value State has an empty event type; treat it like the sentinel.
func eventTypeOf(s State) string {
	if s.EventType == "" {
		return AllEventTypes
	}
	return s.EventType
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func sameSet(a, b []string) bool {
	as := make(map[string]struct{}, len(a))
	for _, v := range a {
		as[v] = struct{}{}
	}
	bs := make(map[string]struct{}, len(b))
	for _, v := range b {
		bs[v] = struct{}{}
	}
	if len(as) != len(bs) {
		return false
	}
	for v := range as {
		if _, ok := bs[v]; !ok {
			return false
		}
	}
	return true
}
