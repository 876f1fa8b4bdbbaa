package booking

import (
	"time"
)

const (
	// SlotDuration is the length of one bookable intake call.
	SlotDuration = 30 * time.Minute
	// SlotsPerDay is the number of candidates generated from OpeningHour.
	SlotsPerDay = 16
	// OpeningHour is the first candidate start in the business timezone.
	OpeningHour = 9
)

// BusyInterval is one existing calendar commitment.
type BusyInterval struct {
	Start time.Time
	End   time.Time
}

// TimeSlot is a bookable slot as returned to the site.
type TimeSlot struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Candidates returns the slot start times for day in loc: OpeningHour plus i*SlotDuration.
func Candidates(day time.Time, loc *time.Location) []time.Time {
	y, m, d := day.In(loc).Date()
	open := time.Date(y, m, d, OpeningHour, 0, 0, 0, loc)
	out := make([]time.Time, SlotsPerDay)
	for i := range out {
		out[i] = open.Add(time.Duration(i) * SlotDuration)
	}
	return out
}

// AvailableSlots returns the candidates of day that do not overlap any busy interval, in order.
// Slots and busy intervals are half-open, so an interval ending exactly at a slot start leaves it free.
func AvailableSlots(day time.Time, loc *time.Location, busy []BusyInterval) []time.Time {
	var free []time.Time
	for _, start := range Candidates(day, loc) {
		if !overlapsAny(start, start.Add(SlotDuration), busy) {
			free = append(free, start)
		}
	}
	return free
}

func overlapsAny(start, end time.Time, busy []BusyInterval) bool {
	for _, b := range busy {
		if start.Before(b.End) && b.Start.Before(end) {
			return true
		}
	}
	return false
}

// FormatSlot renders start as a TimeSlot: the UTC instant as value and the wall clock in loc as label.
func FormatSlot(start time.Time, loc *time.Location, locale string) TimeSlot {
	layout := "03:04 PM"
	if locale == "nl" {
		layout = "15:04"
	}
	return TimeSlot{
		Value: start.UTC().Format(time.RFC3339),
		Label: start.In(loc).Format(layout),
	}
}
