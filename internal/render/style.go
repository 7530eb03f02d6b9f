package render

import (
	"fmt"
	"html"
	"strings"

	"crimewatch/dashboard-go/internal/incident"
)

// Palette is the colour pair configured per event type.
type Palette struct {
	FillColor string `json:"fillColor" yaml:"fill_color"`
	Color     string `json:"color" yaml:"color"`
}

// Style is the full circle-marker style of one record.
type Style struct {
	FillColor   string  `json:"fillColor"`
	Color       string  `json:"color"`
	Radius      float64 `json:"radius"`
	Weight      float64 `json:"weight"`
	Opacity     float64 `json:"opacity"`
	FillOpacity float64 `json:"fillOpacity"`
}

// StyleTable maps event types to palettes with an explicit fallback.
type StyleTable struct {
	entries  map[string]Palette
	fallback Palette
}

func NewStyleTable(entries map[string]Palette, fallback Palette) StyleTable {
	cp := make(map[string]Palette, len(entries))
	for k, v := range entries {
		cp[k] = v
	}
	return StyleTable{entries: cp, fallback: fallback}
}

// With returns a copy of t with entries overriding or extending its palettes.
// A nil fallback keeps the current one.
func (t StyleTable) With(entries map[string]Palette, fallback *Palette) StyleTable {
	merged := make(map[string]Palette, len(t.entries)+len(entries))
	for k, v := range t.entries {
		merged[k] = v
	}
	for k, v := range entries {
		merged[k] = v
	}
	fb := t.fallback
	if fallback != nil {
		fb = *fallback
	}
	return StyleTable{entries: merged, fallback: fb}
}

func DefaultStyles() StyleTable {
	return NewStyleTable(map[string]Palette{
		incident.EventFighting:   {FillColor: "#ff4d4d", Color: "#b30000"},
		incident.EventFamily:     {FillColor: "#ffad33", Color: "#cc7a00"},
		incident.EventRoad:       {FillColor: "#800000", Color: "#330000"},
		incident.EventFire:       {FillColor: "#ff8000", Color: "#b35900"},
		incident.EventWomanChild: {FillColor: "#ff66cc", Color: "#990066"},
		incident.EventTheft:      {FillColor: "#4d4d4d", Color: "#000000"},
		incident.EventProhibited: {FillColor: "#bf80ff", Color: "#5900b3"},
	}, Palette{FillColor: "#808080", Color: "#404040"})
}

// StyleFor returns the marker style of an event type, falling back to the
// default palette for unrecognised types.
func (t StyleTable) StyleFor(eventType string) Style {
	p, ok := t.entries[eventType]
	if !ok {
		p = t.fallback
	}
	return Style{
		FillColor:   p.FillColor,
		Color:       p.Color,
		Radius:      6,
		Weight:      1,
		Opacity:     1,
		FillOpacity: 0.8,
	}
}

const notAvailable = "N/A"

// PopupContent summarises a record. Absent fields read "N/A".
type PopupContent struct {
	Event         string `json:"event"`
	Subdivision   string `json:"subdivision"`
	PoliceStation string `json:"police_station"`
	Complaint     string `json:"complaint"`
	Date          string `json:"date"`
}

func Popup(r incident.Record) PopupContent {
	complaint := ""
	if r.Complaint != nil {
		complaint = *r.Complaint
	}
	return PopupContent{
		Event:         orNA(r.EventType),
		Subdivision:   orNA(r.Subdivision),
		PoliceStation: orNA(r.PoliceStation),
		Complaint:     orNA(complaint),
		Date:          orNA(r.Date),
	}
}

// HTML renders the popup body the map library binds to a marker.
func (p PopupContent) HTML() string {
	var sb strings.Builder
	rows := [][2]string{
		{"Event", p.Event},
		{"Subdivision", p.Subdivision},
		{"Police Station", p.PoliceStation},
		{"Complaint", p.Complaint},
		{"Date", p.Date},
	}
	for i, row := range rows {
		if i > 0 {
			sb.WriteString("<br>")
		}
		fmt.Fprintf(&sb, "<strong>%s:</strong> %s", row[0], html.EscapeString(row[1]))
	}
	return sb.String()
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}
