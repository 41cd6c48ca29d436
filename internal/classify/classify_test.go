package classify_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/secwatch/cyber-alert-radar/backend/internal/classify"
	"github.com/secwatch/cyber-alert-radar/backend/internal/models"
)

func record(source, headline, content string) models.NewsRecord {
	return models.NewsRecord{Source: source, Headline: headline, Content: content}
}

func TestPrioritySourceSingleHighKeyword(t *testing.T) {
	rec := record("CERT-In", "Urgent notice for banking networks", "")

	v := classify.Classify(rec)
	require.True(t, v.Critical)
	require.Equal(t, "High-priority source (CERT-In) with critical keyword: urgent", v.Reason)

	// The same text from an unclassified source matches no rule: one high
	// keyword alone is not enough without source trust.
	v = classify.Classify(record("Some Blog", rec.Headline, rec.Content))
	require.False(t, v.Critical)
	require.Empty(t, v.Reason)
}

func TestPrioritySourceTwoMediumKeywords(t *testing.T) {
	v := classify.Classify(record("NCIIPC", "Exploit delivering malware spotted", ""))
	require.True(t, v.Critical)
	require.Equal(t, "High-priority source (NCIIPC) with multiple medium-severity keywords: exploit, malware", v.Reason)

	// Only one medium keyword: no rule matches.
	v = classify.Classify(record("NCIIPC", "New malware sample analysed", ""))
	require.False(t, v.Critical)
}

func TestMediumPrioritySourceHighKeyword(t *testing.T) {
	v := classify.Classify(record("The Hindu", "Ransomware hits hospital chain", ""))
	require.True(t, v.Critical)
	require.Equal(t, "Medium-priority source (The Hindu) with high-severity keyword: ransomware", v.Reason)
}

func TestHighPlusMediumKeywords(t *testing.T) {
	v := classify.Classify(record("Random Portal", "Severe exploit discovered in router firmware", ""))
	require.True(t, v.Critical)
	require.Equal(t, "High and medium severity keywords: severe, exploit", v.Reason)
}

func TestThreeKeywordRule(t *testing.T) {
	// Three distinct low-severity keywords, nothing above.
	v := classify.Classify(record("Random Portal", "New patch advisory for cybersecurity teams", ""))
	require.True(t, v.Critical)
	require.Equal(t, "Multiple security keywords: patch, advisory, cybersecurity", v.Reason)

	// Two low keywords fall short.
	v = classify.Classify(record("Random Portal", "New patch advisory published", ""))
	require.False(t, v.Critical)
	require.Empty(t, v.Reason)
}

func TestRulePrecedence(t *testing.T) {
	// A priority source with a high keyword takes rule (a) even when later
	// rules would also match.
	v := classify.Classify(record("CERT-In", "Critical vulnerability under attack", ""))
	require.True(t, v.Critical)
	require.Equal(t, "High-priority source (CERT-In) with critical keyword: critical", v.Reason)
}

func TestClassifyIsDeterministic(t *testing.T) {
	rec := record("I4C", "Urgent warning about phishing campaign breach", "multiple attacks ongoing")
	first := classify.Classify(rec)
	for range 5 {
		require.Equal(t, first, classify.Classify(rec))
	}
}

func TestClassifyEmptyFields(t *testing.T) {
	v := classify.Classify(models.NewsRecord{})
	require.False(t, v.Critical)
	require.Empty(t, v.Reason)
	require.Zero(t, v.Score)
}

func TestScoreAddsSourceAndKeywordWeights(t *testing.T) {
	// ransomware (8) + attack (6), unlisted source contributes nothing.
	require.Equal(t, 14, classify.Score(record("Random Portal", "Ransomware attack on banks", "")))

	// CERT-In (10) + critical (10) + vulnerability (7).
	require.Equal(t, 27, classify.Score(record("CERT-In", "Critical vulnerability disclosed", "")))

	// Keywords count once regardless of occurrences.
	require.Equal(t, 8,
		classify.Score(record("Random Portal", "Ransomware everywhere", "ransomware ransomware ransomware")))
}

func TestScoreIndependentOfBooleanPath(t *testing.T) {
	// Not critical (single low keyword) but still scored.
	v := classify.Classify(record("CERT-In", "Routine patch released", ""))
	require.False(t, v.Critical)
	require.Equal(t, 13, v.Score) // CERT-In (10) + patch (3)
}
