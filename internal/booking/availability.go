package booking

import (
	"fmt"
	"sort"
	"time"
)

// TimeSlot is a free interval inside a resource's opening hours.
type TimeSlot struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// parseClock accepts "15:04" and "15:04:05".
func parseClock(s string) (time.Duration, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q", s)
}

// CalculateAvailability returns the free slots of date between openStr and
// closeStr. Only active bookings block time; bookings may be unsorted and
// may overlap each other. A fully booked day yields nil.
func CalculateAvailability(date time.Time, openStr, closeStr string, bookings []*Booking) ([]TimeSlot, error) {
	openOff, err := parseClock(openStr)
	if err != nil {
		return nil, err
	}
	closeOff, err := parseClock(closeStr)
	if err != nil {
		return nil, err
	}
	if closeOff <= openOff {
		return nil, fmt.Errorf("closing time %s must be after opening time %s", closeStr, openStr)
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	open := day.Add(openOff)
	closing := day.Add(closeOff)

	busy := make([]Window, 0, len(bookings))
	for _, b := range bookings {
		if b == nil || !b.Status.IsActive() {
			continue
		}
		if !b.EndTime.After(open) || !b.StartTime.Before(closing) {
			continue
		}
		busy = append(busy, b.Window())
	}
	sort.Slice(busy, func(i, j int) bool { return busy[i].Start.Before(busy[j].Start) })

	var slots []TimeSlot
	cursor := open
	for _, w := range busy {
		if w.Start.After(cursor) {
			slots = append(slots, TimeSlot{StartTime: cursor, EndTime: w.Start})
		}
		if w.End.After(cursor) {
			cursor = w.End
		}
		if !cursor.Before(closing) {
			return slots, nil
		}
	}
	if cursor.Before(closing) {
		slots = append(slots, TimeSlot{StartTime: cursor, EndTime: closing})
	}
	return slots, nil
}
