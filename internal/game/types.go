// internal/game/types.go
//
// Core type definitions for a drawing round.
// Defines:
//   - Verdict: the judgement shown after a prediction (correct/uncertain/wrong).
//   - Display: every text field the page renders, as one snapshot.
//   - Trigger: what caused a prediction attempt.
//   - The thresholds that drive the ink gate and the verdict.

package game

const (
	// MinInk is the inclusive number of inked pixels needed before a sketch is
	// worth sending to the classifier.
	MinInk = 1500

	// CorrectThreshold is the minimum confidence for a matching label to count.
	CorrectThreshold = 0.35

	// UncertainThreshold: below this the classifier is considered unsure.
	UncertainThreshold = 0.25

	// Placeholder fills display fields that have no value yet.
	Placeholder = "–"
)

// User-visible messages.
const (
	MsgNotEnoughInk = "🤔 not enough drawn yet"
	MsgUnreachable  = "⚠️ server unreachable"
)

// Verdict is the outcome of comparing a prediction with the target word.
type Verdict string

const (
	VerdictNone      Verdict = ""
	VerdictCorrect   Verdict = "correct"
	VerdictUncertain Verdict = "uncertain"
	VerdictWrong     Verdict = "wrong"
)

// Label is the icon + text rendered after the predicted word.
func (v Verdict) Label() string {
	switch v {
	case VerdictCorrect:
		return "✅ correct!"
	case VerdictUncertain:
		return "🤔 uncertain"
	case VerdictWrong:
		return "❌ wrong"
	}
	return ""
}

// Trigger identifies the source of a prediction attempt.
type Trigger string

const (
	TriggerPointerUp Trigger = "pointer_up"
	TriggerButton    Trigger = "button"
)

// Display is the state of every on-screen text field.
type Display struct {
	Target     string   `json:"target"`     // word the user should draw
	Prediction string   `json:"prediction"` // "<label> <verdict>" or a status message
	Confidence string   `json:"confidence"` // "82%" / placeholder / ""
	Top        []string `json:"top"`        // "<label>: <pct>%" in classifier order
	Verdict    Verdict  `json:"verdict,omitempty"`
	Seq        uint64   `json:"seq"` // attempt that produced the current fields
}

// clone returns a copy safe to hand to other goroutines.
func (d Display) clone() Display {
	d.Top = append([]string{}, d.Top...)
	return d
}
