package utils

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// Wire formats for matching schedule fields.
const (
	DateLayout     = "2006-01-02"
	ClockLayout    = "15:04"
	DateTimeLayout = "2006-01-02 15:04"
)

func ParseDate(s string, loc *time.Location) (datatypes.Date, error) {
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return datatypes.Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return datatypes.Date(t), nil
}

func ParseClock(s string) (datatypes.Time, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("parse time %q: %w", s, err)
	}
	return datatypes.NewTime(t.Hour(), t.Minute(), 0, 0), nil
}

func ParseDateTime(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateTimeLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse datetime %q: %w", s, err)
	}
	return t, nil
}

func FormatDate(d datatypes.Date) string {
	return time.Time(d).Format(DateLayout)
}

func FormatClock(t datatypes.Time) string {
	d := time.Duration(t)
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}

func FormatDateTime(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(DateTimeLayout)
}
