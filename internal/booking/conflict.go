package booking

import "sort"

// Overlaps is the half-open interval predicate: [a,b) and [c,d) overlap iff
// a < d and c < b. Back-to-back windows do not overlap.
func Overlaps(x, y Window) bool {
	return x.Start.Before(y.End) && y.Start.Before(x.End)
}

// FindConflicts returns the active bookings of resourceID that overlap w,
// ordered by start time then id. Bookings whose id is in exclude are
// skipped; rescheduling passes the moved booking's id here.
func FindConflicts(resourceID string, w Window, existing []*Booking, exclude ...string) []*Booking {
	var out []*Booking
	for _, b := range existing {
		if b == nil || b.ResourceID != resourceID || !b.Status.IsActive() {
			continue
		}
		if excluded(b.ID, exclude) {
			continue
		}
		if Overlaps(w, b.Window()) {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

// HasConflict reports whether any active booking of resourceID overlaps w.
func HasConflict(resourceID string, w Window, existing []*Booking, exclude ...string) bool {
	return len(FindConflicts(resourceID, w, existing, exclude...)) > 0
}

// IDs extracts booking ids, preserving order.
func IDs(bookings []*Booking) []string {
	ids := make([]string, 0, len(bookings))
	for _, b := range bookings {
		ids = append(ids, b.ID)
	}
	return ids
}

func excluded(id string, exclude []string) bool {
	for _, e := range exclude {
		if e != "" && e == id {
			return true
		}
	}
	return false
}
