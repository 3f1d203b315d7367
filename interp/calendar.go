package interp

// Calendar arithmetic over days-since-epoch: Howard Hinnant's
// civil_from_days / days_from_civil algorithms, used instead of a calendar
// library so the exact day-count representation matches what a Date
// literal carries (a plain day count, not a time.Time).

// Duration is a span of elapsed nanoseconds, the runtime value behind a
// duration-ns literal.
type Duration int64

// Date is a day count since the Unix epoch (1970-01-01), the runtime value
// behind a date-days literal.
type Date int32

// Moment is a point in time as nanoseconds since the Unix epoch.
type Moment int64

// TimeOfDay is nanoseconds since midnight.
type TimeOfDay int64

// Span is a calendar-relative offset: a whole number of months plus a whole
// number of days, applied month-first so "add 1 month" to Jan 31 clamps to
// Feb 28/29 before any day component is added.
type Span struct {
	Months, Days int32
}

func civilFromDays(z int32) (year, month, day int32) {
	zz := int64(z) + 719468
	var era int64
	if zz >= 0 {
		era = zz / 146097
	} else {
		era = (zz - 146096) / 146097
	}
	doe := uint64(zz - era*146097)
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
	y := int64(yoe) + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100)
	mp := (5*doy + 2) / 153
	d := doy - (153*mp+2)/5 + 1
	var m uint64
	if mp < 10 {
		m = mp + 3
	} else {
		m = mp - 9
	}
	if m <= 2 {
		y++
	}
	return int32(y), int32(m), int32(d)
}

func daysFromCivil(year, month, day int32) int32 {
	yp := int64(year)
	if month <= 2 {
		yp--
	}
	var era int64
	if yp >= 0 {
		era = yp / 400
	} else {
		era = (yp - 399) / 400
	}
	yoe := uint64(yp - era*400)
	var mp uint64
	if month > 2 {
		mp = uint64(month) - 3
	} else {
		mp = uint64(month) + 9
	}
	doy := (153*mp+2)/5 + uint64(day) - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return int32(era*146097 + int64(doe) - 719468)
}

// DaysInMonth returns the number of days in the given 1-indexed month of
// year, accounting for leap years in February.
func DaysInMonth(year, month int32) int32 {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	case 2:
		if (year%4 == 0 && year%100 != 0) || year%400 == 0 {
			return 29
		}
		return 28
	default:
		return 30
	}
}

// AddSpan applies a calendar-aware Span to a date: months first (clamping
// the day-of-month to the destination month's length), then days.
func (d Date) AddSpan(s Span) Date {
	year, month, day := civilFromDays(int32(d))

	totalMonths := int64(year)*12 + int64(month) - 1 + int64(s.Months)
	newYear := int32(totalMonths / 12)
	newMonth := int32(totalMonths%12) + 1
	if newMonth <= 0 {
		newMonth += 12
		newYear--
	}

	if day > DaysInMonth(newYear, newMonth) {
		day = DaysInMonth(newYear, newMonth)
	}

	result := daysFromCivil(newYear, newMonth, day)
	return Date(int64(result) + int64(s.Days))
}

// Year, Month, Day decompose a Date into its civil calendar components.
func (d Date) Year() int32  { y, _, _ := civilFromDays(int32(d)); return y }
func (d Date) Month() int32 { _, m, _ := civilFromDays(int32(d)); return m }
func (d Date) Day() int32   { _, _, day := civilFromDays(int32(d)); return day }
