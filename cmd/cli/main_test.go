package main

import (
	"strings"
	"testing"
	"unicode/utf8"

	"client/internal/domain"
)

func TestSummarizeKeepsMultibyteRunesIntact(t *testing.T) {
	nepali := strings.Repeat("स्वागत छ! तपाईंको खातामा सफलतापूर्वक साइन इन भयो। ", 3)
	got := summarize(nepali)
	if !utf8.ValidString(got) {
		t.Fatalf("summarize() produced invalid UTF-8: %q", got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("summarize() = %q, want truncated with ellipsis", got)
	}
	if n := utf8.RuneCountInString(got); n != 60 {
		t.Fatalf("summarize() rune count = %d, want 60", n)
	}
}

func TestSummarizeShortContentUnchanged(t *testing.T) {
	if got := summarize("Fresh  momo \n daily"); got != "Fresh momo daily" {
		t.Fatalf("summarize() = %q, want whitespace collapsed only", got)
	}
}

func TestFilterHistory(t *testing.T) {
	items := []domain.GeneratedContent{
		{ID: "1", BusinessName: "Kathmandu Cafe", Content: "momo and coffee"},
		{ID: "2", BusinessName: "Pokhara Trek Shop", Content: "gear rental", Bookmarked: true},
		{ID: "3", BusinessName: "Thamel Books", Content: "coffee table books"},
	}

	got := filterHistory(items, "coffee", false)
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "3" {
		t.Fatalf("filterHistory(coffee) = %+v", got)
	}

	got = filterHistory(items, "", true)
	if len(got) != 1 || got[0].ID != "2" {
		t.Fatalf("filterHistory(bookmarked) = %+v", got)
	}
}
