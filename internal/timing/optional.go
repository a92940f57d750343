package timing

import "time"

// OptDuration is a duration that may be absent, e.g. a segment that has never
// been completed has no best time.
type OptDuration struct {
	d     time.Duration
	valid bool
}

// None is the absent duration.
var None = OptDuration{}

// Some wraps a present duration.
func Some(d time.Duration) OptDuration {
	return OptDuration{d: d, valid: true}
}

// FromPtr converts a nullable persisted value.
func FromPtr(d *time.Duration) OptDuration {
	if d == nil {
		return None
	}
	return Some(*d)
}

// Get returns the duration and whether it is present.
func (o OptDuration) Get() (time.Duration, bool) {
	return o.d, o.valid
}

// Valid reports whether a value is present.
func (o OptDuration) Valid() bool {
	return o.valid
}

// Ptr converts to the nullable persisted form.
func (o OptDuration) Ptr() *time.Duration {
	if !o.valid {
		return nil
	}
	d := o.d
	return &d
}

// Less reports whether o is present and shorter than d.
func (o OptDuration) Less(d time.Duration) bool {
	return o.valid && o.d < d
}
