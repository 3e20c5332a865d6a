package helpers

import (
	"fmt"
	"time"

	"github.com/speexify/speexify/internal/pkg/apperrors"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04"

	// DefaultSessionMinutes is the assumed length of a session when the
	// caller supplies a duration of zero.
	DefaultSessionMinutes = 60
)

// CombineDateTime builds a local-time instant from a "2006-01-02" date and a
// "15:04" clock time.
func CombineDateTime(date, clock string) (time.Time, error) {
	t, err := time.ParseInLocation(dateTimeLayout, date+"T"+clock, time.Local)
	if err != nil {
		return time.Time{}, apperrors.NewCustomError(apperrors.ErrInvalidDateTime,
			fmt.Sprintf("invalid date/time %q %q", date, clock))
	}
	return t, nil
}

// ParseDate parses a "2006-01-02" date in local time.
func ParseDate(date string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, date, time.Local)
	if err != nil {
		return time.Time{}, apperrors.NewCustomError(apperrors.ErrInvalidDateTime,
			fmt.Sprintf("invalid date %q", date))
	}
	return t, nil
}

// FormatDate renders an instant's local date part as "2006-01-02".
func FormatDate(t time.Time) string {
	return t.Local().Format(dateLayout)
}

// FormatClock renders an instant's local clock part as "15:04".
func FormatClock(t time.Time) string {
	return t.Local().Format("15:04")
}

// ResolveEnd applies the end-instant policy: an explicit end time (combined
// with the session date) wins; otherwise a supplied duration in minutes is
// added to the start; otherwise the session is open-ended (nil).
func ResolveEnd(date string, startAt time.Time, endTime string, durationMinutes *int) (*time.Time, error) {
	if endTime != "" {
		end, err := CombineDateTime(date, endTime)
		if err != nil {
			return nil, err
		}
		return &end, nil
	}
	if durationMinutes != nil {
		minutes := *durationMinutes
		if minutes <= 0 {
			minutes = DefaultSessionMinutes
		}
		end := startAt.Add(time.Duration(minutes) * time.Minute)
		return &end, nil
	}
	return nil, nil
}
