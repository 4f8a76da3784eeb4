// internal/game/verdict.go
//
// Verdict rules and rendering of a classifier result into display fields.
//
// Rules (first match wins):
//   1. prediction == target and confidence >= CorrectThreshold → correct
//   2. confidence < UncertainThreshold                           → uncertain
//   3. otherwise                                                 → wrong
//
// A NaN confidence fails both comparisons and is judged wrong.

package game

import (
	"fmt"
	"math"
	"strconv"

	"github.com/robalobadob/sketchguess/apps/go-server/internal/predict"
)

// Judge applies the verdict rules.
func Judge(target, prediction string, confidence float64) Verdict {
	switch {
	case prediction == target && confidence >= CorrectThreshold:
		return VerdictCorrect
	case confidence < UncertainThreshold:
		return VerdictUncertain
	default:
		return VerdictWrong
	}
}

// Percent renders a confidence as a rounded percentage ("82%").
// Halves round up, matching the page's previous client-side rendering.
func Percent(confidence float64) string {
	if math.IsNaN(confidence) || math.IsInf(confidence, 0) {
		return "?%"
	}
	v := math.Floor(confidence*100 + 0.5)
	if v < math.MinInt64 || v >= math.MaxInt64 {
		return strconv.FormatFloat(v, 'f', -1, 64) + "%"
	}
	return fmt.Sprintf("%d%%", int64(v))
}

// render projects a classifier result onto the display fields. The target
// label is left untouched.
func render(d *Display, target string, res *predict.Result) {
	conf := float64(res.Confidence)
	d.Verdict = Judge(target, string(res.Prediction), conf)
	d.Prediction = labelText(res.Prediction) + " " + d.Verdict.Label()
	d.Confidence = Percent(conf)

	d.Top = make([]string, 0, len(res.Top))
	for _, g := range res.Top {
		d.Top = append(d.Top, labelText(g.Label)+": "+Percent(float64(g.Confidence)))
	}
}

// labelText shows a missing label as "?".
func labelText(t predict.Text) string {
	if t == "" {
		return "?"
	}
	return string(t)
}
