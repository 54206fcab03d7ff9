package booking

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidPeriod = errors.New("start time must be before end time")
	ErrInvalidAmount = errors.New("invalid amount")
)

type RentalPeriod struct {
	start time.Time
	end   time.Time
}

func NewRentalPeriod(start, end time.Time) (RentalPeriod, error) {
	if start.IsZero() || end.IsZero() || !start.Before(end) {
		return RentalPeriod{}, ErrInvalidPeriod
	}
	return RentalPeriod{start: start, end: end}, nil
}

func (p RentalPeriod) Start() time.Time {
	return p.start
}

func (p RentalPeriod) End() time.Time {
	return p.end
}

func (p RentalPeriod) Duration() time.Duration {
	return p.end.Sub(p.start)
}

// DurationHours is the elapsed time rounded up to whole hours, never less than 1.
func (p RentalPeriod) DurationHours() int {
	d := p.Duration()
	hours := int(d / time.Hour)
	if d%time.Hour != 0 {
		hours++
	}
	if hours < 1 {
		return 1
	}
	return hours
}

// Money is an amount in the currency's minor unit (paise for INR).
type Money struct {
	minor int64
}

func NewMoney(minor int64) (Money, error) {
	if minor < 0 {
		return Money{}, ErrInvalidAmount
	}
	return Money{minor: minor}, nil
}

func MustMoney(minor int64) Money {
	m, err := NewMoney(minor)
	if err != nil {
		panic(err)
	}
	return m
}

// ParseMoney reads a non-negative decimal with at most two fractional digits.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return Money{}, ErrInvalidAmount
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" || (hasFrac && (len(frac) == 0 || len(frac) > 2)) {
		return Money{}, ErrInvalidAmount
	}
	for len(frac) < 2 {
		frac += "0"
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil || cents < 0 {
		return Money{}, ErrInvalidAmount
	}
	if units > (1<<62)/100 {
		return Money{}, ErrInvalidAmount
	}
	return Money{minor: units*100 + cents}, nil
}

func (m Money) Minor() int64 {
	return m.minor
}

// Add fails with ErrInvalidAmount when the sum does not fit in int64.
func (m Money) Add(other Money) (Money, error) {
	if other.minor > math.MaxInt64-m.minor {
		return Money{}, ErrInvalidAmount
	}
	return Money{minor: m.minor + other.minor}, nil
}

// Times fails with ErrInvalidAmount on a negative factor or overflow.
func (m Money) Times(n int) (Money, error) {
	if n < 0 || (n > 0 && m.minor > math.MaxInt64/int64(n)) {
		return Money{}, ErrInvalidAmount
	}
	return Money{minor: m.minor * int64(n)}, nil
}

func (m Money) String() string {
	return fmt.Sprintf("%d.%02d", m.minor/100, m.minor%100)
}

func (m Money) IsZero() bool {
	return m.minor == 0
}

const MaxNotesLength = 2000

type Note struct {
	value string
}

func NewNote(value string) (Note, error) {
	value = strings.TrimSpace(value)
	if len([]rune(value)) > MaxNotesLength {
		return Note{}, ErrNotesTooLong
	}
	return Note{value: value}, nil
}

func (n Note) String() string {
	return n.value
}

func (n Note) IsEmpty() bool {
	return n.value == ""
}
