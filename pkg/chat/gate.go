package chat

import "strings"

// GateResult is the outcome of a dispatch gate check.
type GateResult struct {
	ShouldDispatch bool   // whether the event should reach the responder
	SkipReason     string // reason when ShouldDispatch is false
}

// CheckTag reports whether an event passes the listen-only tag gate.
// An empty tag disables the gate. A non-empty tag must appear somewhere
// in the event text; it is not stripped from the text on a match.
func CheckTag(ev Event, tag string) GateResult {
	if tag == "" {
		return GateResult{ShouldDispatch: true}
	}
	if !strings.Contains(ev.Text, tag) {
		return GateResult{
			ShouldDispatch: false,
			SkipReason:     "listen tag not present",
		}
	}
	return GateResult{ShouldDispatch: true}
}
