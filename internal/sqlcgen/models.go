package sqlcgen

import "time"

type Incident struct {
	ID            int64
	Category      string
	EventType     string
	Subdivision   string
	PoliceStation *string
	Complaint     *string
	OccurredOn    *time.Time
	Latitude      float64
	Longitude     float64
}
