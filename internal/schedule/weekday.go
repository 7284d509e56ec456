package schedule

import (
	"strings"
	"time"
)

// Japanese labels are accepted as aliases of the English weekday names.
var weekdayAliases = map[time.Weekday]string{
	time.Sunday:    "日曜日",
	time.Monday:    "月曜日",
	time.Tuesday:   "火曜日",
	time.Wednesday: "水曜日",
	time.Thursday:  "木曜日",
	time.Friday:    "金曜日",
	time.Saturday:  "土曜日",
}

// ParseWeekday maps a day_of_week label to a weekday. Unknown labels report ok=false.
func ParseWeekday(label string) (time.Weekday, bool) {
	s := strings.TrimSpace(label)
	if s == "" {
		return 0, false
	}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if strings.EqualFold(s, wd.String()) || s == weekdayAliases[wd] {
			return wd, true
		}
	}
	return 0, false
}

// Matches reports whether the day's label names wd.
func (d Day) Matches(wd time.Weekday) bool {
	got, ok := ParseWeekday(d.DayOfWeek)
	return ok && got == wd
}
