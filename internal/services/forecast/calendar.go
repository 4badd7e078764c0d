package forecast

import "time"

// IsHoliday reports whether date is a public holiday for the configured
// country. The tables cover fixed-date holidays plus the movable US ones the
// sales data actually reacts to; an unknown country simply has no holidays.
func IsHoliday(country string, date time.Time) bool {
	m, d := date.Month(), date.Day()
	switch country {
	case "US":
		switch {
		case m == time.January && d == 1,
			m == time.July && d == 4,
			m == time.December && d == 25:
			return true
		case m == time.November && date.Weekday() == time.Thursday && d >= 22 && d <= 28:
			// Thanksgiving, fourth Thursday of November
			return true
		case m == time.September && date.Weekday() == time.Monday && d <= 7:
			// Labor Day, first Monday of September
			return true
		}
	case "GB":
		switch {
		case m == time.January && d == 1,
			m == time.December && (d == 25 || d == 26):
			return true
		}
	case "DE":
		switch {
		case m == time.January && d == 1,
			m == time.May && d == 1,
			m == time.October && d == 3,
			m == time.December && (d == 25 || d == 26):
			return true
		}
	case "VN":
		switch {
		case m == time.January && d == 1,
			m == time.April && d == 30,
			m == time.May && d == 1,
			m == time.September && d == 2:
			return true
		}
	}
	return false
}

// IsSpecialCommercialDate reports retail-heavy dates that are not public
// holidays: Black Friday, Cyber Monday, Singles' Day, Boxing Day.
func IsSpecialCommercialDate(date time.Time) bool {
	m, d := date.Month(), date.Day()
	switch {
	case m == time.November && d == 11:
		return true
	case m == time.December && d == 26:
		return true
	case m == time.November && date.Weekday() == time.Friday && d >= 23 && d <= 29:
		// day after the fourth Thursday
		return true
	case (m == time.November && date.Weekday() == time.Monday && d >= 26) ||
		(m == time.December && date.Weekday() == time.Monday && d <= 2):
		// Cyber Monday
		return true
	}
	return false
}
