package incident

import (
	"sort"
	"strings"
)

const (
	CategoryTown  = "Town"
	CategoryRural = "Rural"
)

var allCategories = []string{
	CategoryRural,
	CategoryTown,
}

func AllCategories() []string {
	out := make([]string, len(allCategories))
	copy(out, allCategories)
	return out
}

func IsValidCategory(category string) bool {
	category = strings.TrimSpace(category)
	for _, c := range allCategories {
		if c == category {
			return true
		}
	}
	return false
}

// NormalizeCategoryList trims, dedupes and sorts categories, dropping values
// outside the taxonomy.
func NormalizeCategoryList(categories []string) []string {
	if len(categories) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(categories))
	out := make([]string, 0, len(categories))
	for _, raw := range categories {
		c := strings.TrimSpace(raw)
		if c == "" || !IsValidCategory(c) {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Event type labels produced by the upstream cleaner. The set is open-ended;
// these are the ones the dashboard has dedicated styles for.
const (
	EventFighting   = "Fighting / Threatening"
	EventFamily     = "Family Dispute"
	EventRoad       = "Road Accident"
	EventFire       = "Fire Accident"
	EventWomanChild = "Woman & Child Related"
	EventTheft      = "Theft / Robbery"
	EventCivil      = "Civil Dispute"
	EventPolice     = "Complaint Against Police"
	EventProhibited = "Prohibition Related"
	EventOthers     = "Others"
)

var knownEventTypes = []string{
	EventFighting,
	EventFamily,
	EventRoad,
	EventFire,
	EventWomanChild,
	EventTheft,
	EventCivil,
	EventPolice,
	EventProhibited,
	EventOthers,
}

func KnownEventTypes() []string {
	out := make([]string, len(knownEventTypes))
	copy(out, knownEventTypes)
	return out
}

// NormalizeNameList trims and dedupes free-form names (subdivisions, event
// types) while keeping the caller's order.
func NormalizeNameList(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, raw := range names {
		n := strings.TrimSpace(raw)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
