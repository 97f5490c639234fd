package util

import (
	"strings"
	"testing"
)

func TestCanonicalizeURL(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "lowercases scheme and host",
			in:   "HTTPS://WWW.Example.com/Job/1",
			want: "https://www.example.com/Job/1",
		},
		{
			name: "strips fragment",
			in:   "https://example.com/job/1#apply",
			want: "https://example.com/job/1",
		},
		{
			name: "strips tracking params",
			in:   "https://example.com/job/1?utm_source=x&utm_medium=y&gclid=z&fbclid=w",
			want: "https://example.com/job/1",
		},
		{
			name: "keeps real params in sorted order",
			in:   "https://example.com/jobs?q=devops&b=2&a=1",
			want: "https://example.com/jobs?a=1&b=2&q=devops",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanonicalizeURL(tc.in); got != tc.want {
				t.Fatalf("CanonicalizeURL(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestDeriveExternalIDStable(t *testing.T) {
	a := DeriveExternalID("https://example.com/job/1?utm_source=feed", "", "", "")
	b := DeriveExternalID("https://example.com/job/1", "", "", "")
	if a != b {
		t.Fatal("tracking params changed the derived id")
	}
}

func TestDeriveExternalIDFallsBackToFields(t *testing.T) {
	a := DeriveExternalID("", "DevOps Engineer", "Acme", "Tel Aviv")
	b := DeriveExternalID("", "devops engineer", "ACME", "tel aviv")
	if a != b {
		t.Fatal("field-derived id is case sensitive")
	}
	c := DeriveExternalID("", "DevOps Engineer", "Other", "Tel Aviv")
	if a == c {
		t.Fatal("different company produced the same id")
	}
}

func TestCleanText(t *testing.T) {
	if got := CleanText("  DevOps  \n Engineer  "); got != "DevOps Engineer" {
		t.Fatalf("CleanText = %q", got)
	}
}

func TestTruncateRuneBoundary(t *testing.T) {
	s := "משרת דבאופס"
	got := Truncate(s, 7)
	if !strings.HasPrefix(s, got) {
		t.Fatalf("Truncate produced a non-prefix %q", got)
	}
	for _, r := range got {
		if r == '�' {
			t.Fatalf("Truncate split a rune: %q", got)
		}
	}
}

func TestCompanyFromTitle(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"DevOps Engineer - Acme Ltd", "Acme Ltd"},
		{"Site Reliability Engineer - Tel Aviv - CloudCo", "CloudCo"},
		{"DevOps Engineer", ""},
	}
	for _, tc := range cases {
		if got := CompanyFromTitle(tc.title); got != tc.want {
			t.Fatalf("CompanyFromTitle(%q) = %q, want %q", tc.title, got, tc.want)
		}
	}
}
