package util

import "strings"

func CleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// OrUnknown returns the cleaned string, or fallback when it comes out empty.
func OrUnknown(s, fallback string) string {
	s = CleanText(s)
	if s == "" {
		return fallback
	}
	return s
}

// Truncate cuts s to at most n bytes on a rune boundary.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && (s[n]&0xC0) == 0x80 {
		n--
	}
	return s[:n]
}

// CompanyFromTitle extracts a company name from "Job Title - Company" style
// feed titles. Returns "" when the title has no such suffix.
func CompanyFromTitle(title string) string {
	if i := strings.LastIndex(title, " - "); i >= 0 {
		return CleanText(title[i+3:])
	}
	return ""
}
