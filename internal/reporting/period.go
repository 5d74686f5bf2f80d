package reporting

import (
	"fmt"
	"strings"
	"time"

	"clinic-pos/internal/apperror"
	"clinic-pos/internal/models"
)

// Period is the width of a revenue bucket.
type Period string

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
	Yearly  Period = "yearly"
)

// ParsePeriod accepts the four known periods. Anything else means daily.
func ParsePeriod(s string) Period {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case Weekly, Monthly, Yearly:
		return p
	default:
		return Daily
	}
}

// StatusAll selects every counted status.
const StatusAll = "ALL"

// ParseStatus maps the status filter onto the statuses to query.
// ALL means the counted statuses only; a named status is taken as is.
func ParseStatus(s string) ([]models.SaleStatus, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" || s == StatusAll {
		return models.CountedStatuses, nil
	}
	st := models.SaleStatus(s)
	if !st.Valid() {
		return nil, apperror.Validation("status must be ALL, PAID, UNPAID or TRANSFER")
	}
	return []models.SaleStatus{st}, nil
}

// BucketKey labels t (in local time) for the given period.
func BucketKey(t time.Time, p Period) string {
	t = t.Local()
	switch p {
	case Yearly:
		return fmt.Sprintf("%04d", t.Year())
	case Monthly:
		return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
	case Weekly:
		return fmt.Sprintf("%04d-W%02d", t.Year(), WeekOfYear(t))
	default:
		return t.Format("2006-01-02")
	}
}

// WeekOfYear numbers weeks from 1 with weeks starting on Sunday and week 1
// holding January 1st. It is not the ISO-8601 week.
func WeekOfYear(t time.Time) int {
	jan1 := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	return (t.YearDay() + int(jan1.Weekday()) + 6) / 7
}

// StartOfDay is local midnight of t's date.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay is the last millisecond of t's date.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// Window is an inclusive time range.
type Window struct {
	Start time.Time
	End   time.Time
}

func DayWindow(now time.Time) Window {
	return Window{Start: StartOfDay(now), End: EndOfDay(now)}
}

// WeekWindow runs from Sunday 00:00 to Saturday 23:59:59.999.
func WeekWindow(now time.Time) Window {
	start := StartOfDay(now).AddDate(0, 0, -int(now.Weekday()))
	return Window{Start: start, End: EndOfDay(start.AddDate(0, 0, 6))}
}

// MonthWindow covers the calendar month of now.
func MonthWindow(now time.Time) Window {
	y, m, _ := now.Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
	return Window{Start: start, End: EndOfDay(start.AddDate(0, 1, -1))}
}
