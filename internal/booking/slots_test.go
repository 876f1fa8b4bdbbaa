package booking

import (
	"testing"
	"time"
)

func amsterdam(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Amsterdam")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func at(loc *time.Location, hour, minute int) time.Time {
	return time.Date(2025, 6, 10, hour, minute, 0, 0, loc)
}

func TestAvailableSlotsWithoutBusyIntervals(t *testing.T) {
	loc := amsterdam(t)
	day := time.Date(2025, 6, 10, 0, 0, 0, 0, loc)

	slots := AvailableSlots(day, loc, nil)
	if len(slots) != 16 {
		t.Fatalf("expected 16 slots, got %d", len(slots))
	}
	if !slots[0].Equal(at(loc, 9, 0)) {
		t.Fatalf("expected first slot 09:00, got %s", slots[0].In(loc).Format("15:04"))
	}
	if !slots[15].Equal(at(loc, 16, 30)) {
		t.Fatalf("expected last slot 16:30, got %s", slots[15].In(loc).Format("15:04"))
	}
	for i := 1; i < len(slots); i++ {
		if got := slots[i].Sub(slots[i-1]); got != 30*time.Minute {
			t.Fatalf("expected 30m step at %d, got %s", i, got)
		}
	}
}

func TestAvailableSlotsExcludesSingleBusySlot(t *testing.T) {
	loc := amsterdam(t)
	day := time.Date(2025, 6, 10, 0, 0, 0, 0, loc)

	slots := AvailableSlots(day, loc, []BusyInterval{{Start: at(loc, 10, 0), End: at(loc, 10, 30)}})
	if len(slots) != 15 {
		t.Fatalf("expected 15 slots, got %d", len(slots))
	}
	for _, s := range slots {
		if s.Equal(at(loc, 10, 0)) {
			t.Fatal("10:00 slot should be excluded")
		}
	}
}

func TestAvailableSlotsBoundaries(t *testing.T) {
	loc := amsterdam(t)
	day := time.Date(2025, 6, 10, 0, 0, 0, 0, loc)

	cases := []struct {
		name     string
		busy     BusyInterval
		excluded []time.Time
	}{
		{"ends at slot start", BusyInterval{at(loc, 8, 0), at(loc, 9, 0)}, nil},
		{"starts at slot end", BusyInterval{at(loc, 17, 0), at(loc, 18, 0)}, nil},
		{"partial overlap spans two slots", BusyInterval{at(loc, 11, 15), at(loc, 11, 45)}, []time.Time{at(loc, 11, 0), at(loc, 11, 30)}},
		{"contains several slots", BusyInterval{at(loc, 13, 0), at(loc, 15, 0)}, []time.Time{at(loc, 13, 0), at(loc, 13, 30), at(loc, 14, 0), at(loc, 14, 30)}},
		{"busy in another zone", BusyInterval{at(loc, 12, 0).UTC(), at(loc, 12, 30).UTC()}, []time.Time{at(loc, 12, 0)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			slots := AvailableSlots(day, loc, []BusyInterval{tc.busy})
			if len(slots) != 16-len(tc.excluded) {
				t.Fatalf("expected %d slots, got %d", 16-len(tc.excluded), len(slots))
			}
			for _, s := range slots {
				for _, ex := range tc.excluded {
					if s.Equal(ex) {
						t.Fatalf("slot %s should be excluded", s.In(loc).Format("15:04"))
					}
				}
			}
		})
	}
}

func TestFormatSlot(t *testing.T) {
	loc := amsterdam(t)

	en := FormatSlot(at(loc, 9, 0), loc, "en")
	if en.Value != "2025-06-10T07:00:00Z" {
		t.Fatalf("expected UTC value, got %s", en.Value)
	}
	if en.Label != "09:00 AM" {
		t.Fatalf("expected en label 09:00 AM, got %s", en.Label)
	}
	if got := FormatSlot(at(loc, 14, 30), loc, "en").Label; got != "02:30 PM" {
		t.Fatalf("expected 02:30 PM, got %s", got)
	}
	if got := FormatSlot(at(loc, 14, 30), loc, "nl").Label; got != "14:30" {
		t.Fatalf("expected nl label 14:30, got %s", got)
	}
	// labels follow the business zone, not the zone of the instant
	if got := FormatSlot(at(loc, 9, 0).UTC(), loc, "nl").Label; got != "09:00" {
		t.Fatalf("expected 09:00 in business zone, got %s", got)
	}
}
