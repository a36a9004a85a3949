package core

import "time"

// RateWindow holds the admission timestamps recorded for one site.
//
// Stamps are kept in insertion order, which is also time order because they are
// only appended while the owning store holds the site's lock.
type RateWindow struct {
	Stamps []time.Time
}

// Prune drops every stamp that is no longer inside the trailing window ending at now.
// A stamp survives while now - stamp < window.
func (w *RateWindow) Prune(now time.Time, window time.Duration) {
	if w == nil || len(w.Stamps) == 0 {
		return
	}

	kept := w.Stamps[:0]
	for _, stamp := range w.Stamps {
		if now.Sub(stamp) < window {
			kept = append(kept, stamp)
		}
	}

	// Release references held past the new length.
	for i := len(kept); i < len(w.Stamps); i++ {
		w.Stamps[i] = time.Time{}
	}
	w.Stamps = kept
}

// Count returns the number of retained stamps.
func (w *RateWindow) Count() int {
	if w == nil {
		return 0
	}
	return len(w.Stamps)
}

// Newest returns the most recent stamp, or the zero time for an empty window.
func (w *RateWindow) Newest() time.Time {
	if w == nil || len(w.Stamps) == 0 {
		return time.Time{}
	}
	return w.Stamps[len(w.Stamps)-1]
}

// Oldest returns the earliest retained stamp, or the zero time for an empty window.
func (w *RateWindow) Oldest() time.Time {
	if w == nil || len(w.Stamps) == 0 {
		return time.Time{}
	}
	return w.Stamps[0]
}
