package processing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/secwatch/cyber-alert-radar/backend/internal/processing"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "punctuation", input: "Breach!!!   confirmed", want: "Breach confirmed"},
		{name: "collapse whitespace", input: "foo\n\nbar\t baz", want: "foo bar baz"},
		{name: "remove urls", input: "Advisory at https://cert-in.org.in for details", want: "Advisory at for details"},
		{name: "html entities", input: "AT&amp;T breach &quot;confirmed&quot;", want: "AT T breach confirmed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, processing.CleanText(tt.input))
		})
	}
}

func TestExtractKeywords(t *testing.T) {
	text := "ransomware ransomware phishing phishing phishing banks and the threat"
	got := processing.ExtractKeywords(text, 3, 4)
	require.Equal(t, []string{"phishing", "ransomware", "banks"}, got)

	require.Nil(t, processing.ExtractKeywords("", 5, 3))
}

func TestExtractKeywordsSkipsStopwords(t *testing.T) {
	// "cyber", "security", and "data" carry no signal in this corpus.
	got := processing.ExtractKeywords("cyber security data ransomware", 5, 4)
	require.Equal(t, []string{"ransomware"}, got)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{name: "rfc3339", input: "2025-03-14T10:30:00Z", want: time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)},
		{name: "space separated", input: "2025-03-14 10:30:00", want: time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)},
		{name: "date only", input: "2025-03-14", want: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)},
		{name: "day month year", input: "14 Mar 2025", want: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)},
		{name: "long form", input: "March 14, 2025", want: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := processing.ParseDate(tt.input)
			require.True(t, tt.want.Equal(got), "got %v", got)
		})
	}

	require.True(t, processing.ParseDate("not a date").IsZero())
	require.True(t, processing.ParseDate("").IsZero())
}

func TestIsSecurityRelated(t *testing.T) {
	require.True(t, processing.IsSecurityRelated("Major data breach at telecom operator", "", "Reuters"))
	require.True(t, processing.IsSecurityRelated("Advisory issued", "phishing campaign targets banks", "Some Blog"))

	// Authority sources always pass, whatever the wording.
	require.True(t, processing.IsSecurityRelated("Quarterly bulletin published", "", "CERT-In"))

	require.False(t, processing.IsSecurityRelated("Cricket team wins series", "a famous victory", "Sports Daily"))
}

func TestBuildDocumentID(t *testing.T) {
	id1 := processing.BuildDocumentID("CERT-In", "Urgent advisory")
	id2 := processing.BuildDocumentID("CERT-In", "Urgent advisory")
	require.NotEmpty(t, id1)
	require.Equal(t, id1, id2)

	require.NotEqual(t, id1, processing.BuildDocumentID("CERT-In", "Different advisory"))
	require.Empty(t, processing.BuildDocumentID("", ""))
}

func TestExtractURLs(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "empty", input: "", want: nil},
		{name: "no urls", input: "hello world", want: nil},
		{name: "single url", input: "see https://cert-in.org.in now", want: []string{"https://cert-in.org.in"}},
		{name: "duplicates collapse", input: "https://a.example and https://a.example again", want: []string{"https://a.example"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, processing.ExtractURLs(tt.input))
		})
	}
}

func TestGenerateHeadline(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		maxWords int
		want     string
	}{
		{name: "empty", content: "", maxWords: 10, want: ""},
		{name: "first sentence", content: "Banks hit by ransomware. Customers advised to reset passwords.", maxWords: 10, want: "Banks hit by ransomware"},
		{name: "truncated", content: "A long running phishing campaign has been targeting customers of several banks", maxWords: 5, want: "A long running phishing campaign..."},
		{name: "no sentence end", content: "Breach confirmed by operator", maxWords: 10, want: "Breach confirmed by operator"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, processing.GenerateHeadline(tt.content, tt.maxWords))
		})
	}
}
