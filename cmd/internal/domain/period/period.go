package period

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"contatask/cmd/internal/domain/entity"
)

// Clock abstracts "today" so services never read the wall clock directly.
// Tests inject fixed clocks; production uses SystemClock.
type Clock interface {
	Today() time.Time
}

type SystemClock struct{}

func (SystemClock) Today() time.Time {
	return time.Now().UTC()
}

// FixedClock always returns the same day. Test helper.
type FixedClock struct {
	Day time.Time
}

func (f FixedClock) Today() time.Time {
	return f.Day
}

// Window is the resolved boundary of one obligation cycle.
type Window struct {
	Inicio time.Time
	Fim    time.Time
	Label  string
}

var ErrInvalidMonth = fmt.Errorf("month must be in range 1-12")

// For maps (year, month, cycle) to the period window and label:
// monthly "YYYY-MM" over the calendar month, quarterly "YYYY-T{1..4}" over
// the full quarter containing the month, annual "YYYY-Anual" over the year.
func For(year, month int, cycle entity.CycleType) (Window, error) {
	if month < 1 || month > 12 {
		return Window{}, ErrInvalidMonth
	}

	switch cycle {
	case entity.CycleTrimestral:
		quarter := (month-1)/3 + 1
		first := (quarter-1)*3 + 1
		return Window{
			Inicio: time.Date(year, time.Month(first), 1, 0, 0, 0, 0, time.UTC),
			Fim:    endOfMonth(year, first+2),
			Label:  fmt.Sprintf("%d-T%d", year, quarter),
		}, nil

	case entity.CycleAnual:
		return Window{
			Inicio: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
			Fim:    time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
			Label:  fmt.Sprintf("%d-Anual", year),
		}, nil

	default:
		return Window{
			Inicio: time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC),
			Fim:    endOfMonth(year, month),
			Label:  MonthlyLabel(year, month),
		}, nil
	}
}

// MonthlyLabel formats the "YYYY-MM" label.
func MonthlyLabel(year, month int) string {
	return fmt.Sprintf("%d-%02d", year, month)
}

// ParseMonthlyLabel recovers (year, month) from a "YYYY-MM" label.
func ParseMonthlyLabel(label string) (int, int, bool) {
	parts := strings.SplitN(label, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil || year < 1 {
		return 0, 0, false
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	return year, month, true
}

// QuarterFinalMonth maps the quarter encoded in a "YYYY-Tq" label to its
// closing month (T1 -> 3, T2 -> 6, T3 -> 9, T4 -> 12).
func QuarterFinalMonth(label string) (int, bool) {
	idx := strings.LastIndex(label, "-")
	if idx < 0 {
		return 0, false
	}
	q := label[idx+1:]
	switch q {
	case "T1":
		return 3, true
	case "T2":
		return 6, true
	case "T3":
		return 9, true
	case "T4":
		return 12, true
	}
	return 0, false
}

// ShouldShowTask decides whether an instance belongs in a listing filtered
// by a monthly period. Monthly and annual instances are always visible
// (annual ones render in their own always-on section); a quarterly instance
// is visible only when the requested month is the closing month of its
// quarter. Any label that does not parse hides the instance.
func ShouldShowTask(cycle entity.CycleType, requestedLabel, instanceLabel string) bool {
	switch cycle {
	case entity.CycleMensal, entity.CycleAnual:
		return true
	case entity.CycleTrimestral:
		if requestedLabel == "" || instanceLabel == "" {
			return false
		}
		_, month, ok := ParseMonthlyLabel(requestedLabel)
		if !ok {
			return false
		}
		final, ok := QuarterFinalMonth(instanceLabel)
		if !ok {
			return false
		}
		return month == final
	}
	return true
}

func endOfMonth(year, month int) time.Time {
	// Day zero of the following month normalizes to the last day of this one.
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC)
}
