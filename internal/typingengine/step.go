// Package typingengine implements the pure per-keystroke state
// transition described by the tournament typing challenge: given a
// participant's current progress, a single typed byte, and the
// challenge text, it produces the participant's next progress.
package typingengine

import "time"

const backspace = 0x08

// State is the byte-indexed progress of a single participant against
// a challenge text. It carries no reference to the text itself so it
// can be recomputed deterministically from a stored value plus a
// replayed keystroke.
type State struct {
	CurrentPosition int
	CorrectPosition int
	TotalKeystrokes int
	CurrentSpeed    float64
	CurrentAccuracy float64
	StartedAt       time.Time
	EndedAt         time.Time
}

// Step applies a single input byte against challenge to state and
// returns the resulting state. It never sets EndedAt: reaching the end
// of the challenge (CorrectPosition == len(challenge)) is observable
// by the caller via the returned state, and it is the tournament
// manager's job to record the timestamp and terminate the session.
//
// Step is deterministic given its inputs and never mutates challenge.
func Step(state State, input byte, challenge []byte, now time.Time) State {
	if state.StartedAt.IsZero() {
		state.StartedAt = now
	}

	if input == backspace {
		if state.CurrentPosition > 0 {
			state.CurrentPosition--
		}
		if state.CorrectPosition > state.CurrentPosition {
			state.CorrectPosition = state.CurrentPosition
		}
		state.TotalKeystrokes++
		return recompute(state, now)
	}

	if state.CurrentPosition >= len(challenge) {
		return recompute(state, now)
	}

	expected := challenge[state.CurrentPosition]
	wasAtFrontier := state.CorrectPosition == state.CurrentPosition
	state.CurrentPosition++
	state.TotalKeystrokes++
	if wasAtFrontier && input == expected {
		state.CorrectPosition++
	}

	return recompute(state, now)
}

func recompute(state State, now time.Time) State {
	elapsed := now.Sub(state.StartedAt)
	if elapsed < time.Millisecond {
		elapsed = time.Millisecond
	}
	minutes := elapsed.Minutes()

	state.CurrentSpeed = round((float64(state.CorrectPosition) / 5.0) / minutes)

	if state.TotalKeystrokes > 0 {
		state.CurrentAccuracy = round(100 * float64(state.CorrectPosition) / float64(state.TotalKeystrokes))
	} else {
		state.CurrentAccuracy = 100
	}

	return state
}

func round(v float64) float64 {
	if v < 0 {
		return -round(-v)
	}
	return float64(int64(v + 0.5))
}

// Finished reports whether the participant has reached the end of
// challenge. The manager calls this after Step to decide whether to
// set EndedAt.
func Finished(state State, challenge []byte) bool {
	return state.CorrectPosition == len(challenge)
}
