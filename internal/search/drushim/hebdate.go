package drushim

import (
	"regexp"
	"strconv"
	"time"
)

// Drushim annotates listings with Hebrew relative times ("לפני 3 שעות",
// "לפני מספר דקות", "היום"). Parsing is best effort; an unrecognized text
// yields nil and the posting is kept without a date.
var (
	fewMinutesRe = regexp.MustCompile(`לפני\s*מספר\s*דקות?`)
	fewHoursRe   = regexp.MustCompile(`לפני\s*מספר\s*שעות?`)
	minutesRe    = regexp.MustCompile(`לפני\s*(\d+)\s*דקות?`)
	hoursRe      = regexp.MustCompile(`לפני\s*(\d+)\s*שעות?`)
	daysRe       = regexp.MustCompile(`לפני\s*(\d+)\s*ימים?`)
	weeksRe      = regexp.MustCompile(`לפני\s*(\d+)\s*שבועות?`)
	todayRe      = regexp.MustCompile(`היום`)
)

func parseRelativeDate(text string, now time.Time) *time.Time {
	if text == "" {
		return nil
	}
	if fewMinutesRe.MatchString(text) {
		t := now.Add(-5 * time.Minute)
		return &t
	}
	if fewHoursRe.MatchString(text) {
		t := now.Add(-2 * time.Hour)
		return &t
	}
	if m := minutesRe.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n < 7*24*60 {
			t := now.Add(-time.Duration(n) * time.Minute)
			return &t
		}
	}
	if m := hoursRe.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n < 48 {
			t := now.Add(-time.Duration(n) * time.Hour)
			return &t
		}
	}
	if m := daysRe.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		switch {
		case n == 0:
			t := now.Add(-2 * time.Hour)
			return &t
		case n <= 7:
			t := now.AddDate(0, 0, -n)
			return &t
		}
	}
	if m := weeksRe.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n <= 2 {
			t := now.AddDate(0, 0, -7*n)
			return &t
		}
	}
	if todayRe.MatchString(text) {
		t := now.Add(-2 * time.Hour)
		return &t
	}
	return nil
}
