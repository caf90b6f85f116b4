package game

// State is the top-level mode of the Manager.
type State int

const (
	StatePlaying State = iota
	StatePaused
)

// Message represents an on-screen message that fades over time.
type Message struct {
	Text     string
	TimeLeft float64 // Seconds remaining
	MaxTime  float64 // Initial duration
}
