package timing

// Pace classifies a completed segment against the personal best.
type Pace int

const (
	// PaceAheadGaining is ahead of the PB split and faster than the PB segment.
	PaceAheadGaining Pace = iota
	// PaceAheadLosing is ahead of the PB split but slower than the PB segment.
	PaceAheadLosing
	// PaceBehindGaining is behind the PB split but faster than the PB segment.
	PaceBehindGaining
	// PaceBehindLosing is behind the PB split and slower than the PB segment.
	PaceBehindLosing
	// PaceBest is a new (or tied) best segment.
	PaceBest
)

func (p Pace) String() string {
	switch p {
	case PaceAheadGaining:
		return "ahead-gaining"
	case PaceAheadLosing:
		return "ahead-losing"
	case PaceBehindGaining:
		return "behind-gaining"
	case PaceBehindLosing:
		return "behind-losing"
	case PaceBest:
		return "best"
	default:
		return "unknown"
	}
}
