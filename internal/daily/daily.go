// Package daily derives the "word of the day": every player who starts a daily
// round on the same UTC date is asked to draw the same word.
//
// Words come from a fixed rotation. The vocabulary is shuffled once with a
// salt-seeded ChaCha8 stream and then walked one word per day, so a word only
// comes back after every other word has had its day.
package daily

import (
	"crypto/sha256"
	"math/rand/v2"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// DayNumber counts whole UTC days since 1970-01-01 (negative before it).
func DayNumber(t time.Time) int64 {
	y, m, d := t.UTC().Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return midnight.Unix() / 86400
}

// Schedule maps UTC dates onto a shuffled vocabulary.
type Schedule struct {
	order []string
	now   func() time.Time
}

// NewSchedule shuffles a copy of vocab using salt as the seed. Equal salts
// produce equal schedules across processes.
func NewSchedule(vocab []string, salt string) *Schedule {
	order := append([]string(nil), vocab...)
	rng := rand.New(rand.NewChaCha8(sha256.Sum256([]byte(salt))))
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	return &Schedule{order: order, now: time.Now}
}

// WithClock replaces the clock used by Today.
func (s *Schedule) WithClock(now func() time.Time) *Schedule {
	s.now = now
	return s
}

// Len is the length of one full rotation in days.
func (s *Schedule) Len() int { return len(s.order) }

// On returns the word for the UTC date of t, or "" for an empty vocabulary.
func (s *Schedule) On(t time.Time) string {
	n := int64(len(s.order))
	if n == 0 {
		return ""
	}
	i := DayNumber(t) % n
	if i < 0 {
		i += n
	}
	return s.order[i]
}

// Today is On(now()). Its signature matches a session word picker.
func (s *Schedule) Today() string { return s.On(s.now()) }
