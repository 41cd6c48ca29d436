// Package classify decides whether a news record is critical enough to alert
// on, and assigns it a numeric criticality score used for digest ranking.
// Classification is a pure function of the record: no I/O, no clock.
package classify

import (
	"fmt"
	"strings"

	"github.com/secwatch/cyber-alert-radar/backend/internal/models"
)

// Verdict is the classification outcome for a single record. Reason is
// non-empty exactly when Critical is true. Score is independent of the
// boolean decision and only meaningful as a relative ranking.
type Verdict struct {
	Critical bool
	Reason   string
	Score    int
}

// Keyword tiers for the boolean decision. Matching is case-insensitive
// substring search over headline + content; order is fixed so that reason
// strings are deterministic.
var (
	highKeywords = []string{
		"critical", "urgent", "emergency", "severe", "zero-day", "zero day",
		"ransomware", "remote code execution", "data breach", "national security",
	}

	mediumKeywords = []string{
		"vulnerability", "exploit", "breach", "attack", "compromise", "warning",
		"malware", "backdoor", "data leak", "hack", "phishing campaign",
	}

	lowKeywords = []string{
		"alert", "security update", "patch", "advisory", "update available",
		"security issue", "cybersecurity", "threat",
	}
)

// Government and authority outlets get weighted trust; major general news
// outlets a lesser weight. Membership is exact on the source name.
var (
	prioritySources = map[string]struct{}{
		"CERT-In": {}, "NCIIPC": {}, "I4C": {}, "NASSCOM": {},
	}

	mediumPrioritySources = map[string]struct{}{
		"The Economic Times": {}, "The Hindu": {}, "Times of India": {}, "India Today": {},
	}
)

// sourcePoints feeds the numeric score: higher for more authoritative
// sources, zero for anything unlisted.
var sourcePoints = map[string]int{
	"CERT-In":            10,
	"NCIIPC":             9,
	"I4C":                8,
	"NASSCOM":            7,
	"The Economic Times": 5,
	"The Hindu":          5,
	"Times of India":     5,
	"India Today":        5,
}

type weightedKeyword struct {
	keyword string
	weight  int
}

// keywordWeights is a finer-grained superset of the tier lists. Each keyword
// contributes its weight once if present anywhere in the combined text.
var keywordWeights = []weightedKeyword{
	{"critical", 10},
	{"urgent", 10},
	{"emergency", 10},
	{"severe", 9},
	{"zero-day", 9},
	{"zero day", 9},
	{"ransomware", 8},
	{"remote code execution", 8},
	{"data breach", 8},
	{"national security", 8},
	{"vulnerability", 7},
	{"exploit", 7},
	{"breach", 6},
	{"attack", 6},
	{"compromise", 6},
	{"warning", 5},
	{"malware", 5},
	{"backdoor", 5},
	{"data leak", 5},
	{"hack", 5},
	{"phishing campaign", 5},
	{"alert", 4},
	{"security update", 3},
	{"patch", 3},
	{"advisory", 3},
	{"update available", 2},
	{"security issue", 2},
	{"cybersecurity", 1},
	{"threat", 1},
}

// DigestThreshold is the minimum score for a record to qualify for digests.
const DigestThreshold = 10

// Classify evaluates a single record. Missing headline or content are
// treated as empty strings; the function never fails.
func Classify(rec models.NewsRecord) Verdict {
	combined := strings.ToLower(rec.Headline + " " + rec.Content)

	high := matches(combined, highKeywords)
	medium := matches(combined, mediumKeywords)
	low := matches(combined, lowKeywords)

	v := Verdict{Score: score(rec.Source, combined)}

	all := make([]string, 0, len(high)+len(medium)+len(low))
	all = append(all, high...)
	all = append(all, medium...)
	all = append(all, low...)

	_, priority := prioritySources[rec.Source]
	_, mediumPriority := mediumPrioritySources[rec.Source]

	// Rule precedence is fixed; the first match determines the reason.
	switch {
	case priority && len(high) >= 1:
		v.Critical = true
		v.Reason = fmt.Sprintf("High-priority source (%s) with critical keyword: %s", rec.Source, high[0])
	case priority && len(medium) >= 2:
		v.Critical = true
		v.Reason = fmt.Sprintf("High-priority source (%s) with multiple medium-severity keywords: %s", rec.Source, strings.Join(medium[:2], ", "))
	case mediumPriority && len(high) >= 1:
		v.Critical = true
		v.Reason = fmt.Sprintf("Medium-priority source (%s) with high-severity keyword: %s", rec.Source, high[0])
	case len(high) >= 1 && len(medium) >= 1:
		v.Critical = true
		v.Reason = fmt.Sprintf("High and medium severity keywords: %s, %s", high[0], medium[0])
	case len(all) >= 3:
		v.Critical = true
		v.Reason = fmt.Sprintf("Multiple security keywords: %s", strings.Join(all[:3], ", "))
	}

	return v
}

// Score computes only the numeric ranking for a record.
func Score(rec models.NewsRecord) int {
	combined := strings.ToLower(rec.Headline + " " + rec.Content)
	return score(rec.Source, combined)
}

func score(source, combined string) int {
	total := sourcePoints[source]
	for _, wk := range keywordWeights {
		if strings.Contains(combined, wk.keyword) {
			total += wk.weight
		}
	}
	return total
}

func matches(combined string, keywords []string) []string {
	var found []string
	for _, kw := range keywords {
		if strings.Contains(combined, kw) {
			found = append(found, kw)
		}
	}
	return found
}
