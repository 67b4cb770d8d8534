package session

// Signal buckets the visible satellite count for display
type Signal string

const (
	SignalNone      Signal = "no signal"
	SignalLow       Signal = "low signal"
	SignalAverage   Signal = "average signal"
	SignalGood      Signal = "good signal"
	SignalExcellent Signal = "excellent signal"
)

// SignalQuality maps a satellite count to a Signal
func SignalQuality(satellites int32) Signal {
	switch {
	case satellites <= 2:
		return SignalNone
	case satellites < 5:
		return SignalLow
	case satellites < 7:
		return SignalAverage
	case satellites < 9:
		return SignalGood
	default:
		return SignalExcellent
	}
}
