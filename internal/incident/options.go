package incident

import (
	"encoding/json"
	"fmt"
)

// FilterOptions are the values the dashboard offers for each filter dimension.
type FilterOptions struct {
	EventTypes   []string `json:"event_types"`
	Subdivisions []string `json:"subdivisions"`
	Categories   []string `json:"categories"`
}

// WithDefaults fills the category options the data API does not serve, and
// falls back to the known event types when none are served.
func (o FilterOptions) WithDefaults() FilterOptions {
	out := FilterOptions{
		EventTypes:   append([]string{}, o.EventTypes...),
		Subdivisions: append([]string{}, o.Subdivisions...),
		Categories:   NormalizeCategoryList(o.Categories),
	}
	if len(out.Categories) == 0 {
		out.Categories = AllCategories()
	}
	if len(out.EventTypes) == 0 {
		out.EventTypes = KnownEventTypes()
	}
	return out
}

// StationCount is one [station, count] pair of the analytics summary.
type StationCount struct {
	Station string
	Count   int
}

func (s *StationCount) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("station count: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("station count: expected 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &s.Station); err != nil {
		return fmt.Errorf("station count name: %w", err)
	}
	if err := json.Unmarshal(pair[1], &s.Count); err != nil {
		return fmt.Errorf("station count value: %w", err)
	}
	return nil
}

func (s StationCount) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{s.Station, s.Count})
}

// Analytics is consumed as served; the dashboard computes nothing from it.
type Analytics struct {
	TotalCases  int            `json:"total_cases"`
	TopStations []StationCount `json:"top_stations"`
}
