package processing

import (
	"crypto/sha1"
	"encoding/hex"
	"html"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"
)

var urlRegex = regexp.MustCompile(`https?://[^\s]+`)

var (
	whitespace  = regexp.MustCompile(`\s+`)
	punctuation = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
)

// securityTerms matches content that is plausibly about cybersecurity.
// Records matching none of these (and not from an authority source) are
// dropped before indexing and alerting.
var securityTerms = regexp.MustCompile(`(?i)cyber|hack|breach|malware|ransomware|phishing|vulnerabilit|exploit|attack|security|threat|virus|trojan|botnet|ddos|encryption|firewall|authentication|password|privacy|data leak|identity theft|zero-day|zero day|penetration test|intrusion|backdoor|spyware|worm|cybercrime|infosec|cryptography|cert-in|nciipc|i4c`)

var authoritySource = regexp.MustCompile(`(?i)CERT|NCIIPC|I4C`)

// stopwords are excluded from keyword extraction: common English words plus
// terms so ubiquitous in security coverage that they carry no signal.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "to": {}, "in": {}, "for": {},
	"of": {}, "and": {}, "on": {}, "with": {}, "from": {}, "that": {},
	"this": {}, "have": {}, "has": {}, "will": {}, "been": {}, "after": {},
	"cyber": {}, "security": {}, "cybersecurity": {}, "data": {},
	"system": {}, "network": {}, "information": {}, "protection": {},
	"company": {}, "government": {}, "report": {}, "according": {},
	"said": {}, "experts": {}, "researchers": {}, "officials": {},
	"organization": {}, "news": {}, "read": {}, "reported": {}, "story": {},
}

// dateLayouts are tried in order when parsing publication dates. Ingestion
// produces inconsistent formats, so a parse failure is expected and yields
// the zero time rather than an error.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"02/01/2006",
}

// IsSecurityRelated reports whether a record belongs in the pipeline at all.
// Anything from a recognized authority source passes regardless of wording.
func IsSecurityRelated(headline, content, source string) bool {
	if authoritySource.MatchString(source) {
		return true
	}
	return securityTerms.MatchString(headline) || securityTerms.MatchString(content)
}

// ParseDate parses a publication date in any of the tolerated layouts.
// Returns the zero time when nothing matches.
func ParseDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}

	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts
		}
	}

	return time.Time{}
}

// ExtractURLs extracts all HTTP(S) URLs from the input text, de-duplicated
// in order of first appearance.
func ExtractURLs(input string) []string {
	if input == "" {
		return nil
	}
	matches := urlRegex.FindAllString(input, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{})
	var urls []string
	for _, url := range matches {
		if _, ok := seen[url]; !ok {
			seen[url] = struct{}{}
			urls = append(urls, url)
		}
	}
	return urls
}

// RemoveURLs removes all URLs from the input text.
func RemoveURLs(input string) string {
	return urlRegex.ReplaceAllString(input, " ")
}

// CleanText strips HTML entities, URLs, and punctuation, and squeezes whitespace.
func CleanText(input string) string {
	if input == "" {
		return ""
	}
	decoded := html.UnescapeString(input)
	decoded = RemoveURLs(decoded)
	decoded = punctuation.ReplaceAllString(decoded, " ")
	decoded = whitespace.ReplaceAllString(decoded, " ")
	return strings.TrimSpace(decoded)
}

// ExtractKeywords returns the most frequent words that are not stop-words.
func ExtractKeywords(text string, limit, minLen int) []string {
	clean := strings.ToLower(CleanText(text))
	if clean == "" {
		return nil
	}

	freq := make(map[string]int)
	for _, token := range strings.Fields(clean) {
		token = strings.TrimFunc(token, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if len([]rune(token)) < minLen {
			continue
		}
		if _, skip := stopwords[token]; skip {
			continue
		}
		freq[token]++
	}

	if len(freq) == 0 {
		return nil
	}

	type kv struct {
		word  string
		count int
	}

	pairs := make([]kv, 0, len(freq))
	for word, count := range freq {
		pairs = append(pairs, kv{word: word, count: count})
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].count == pairs[j].count {
			return pairs[i].word < pairs[j].word
		}
		return pairs[i].count > pairs[j].count
	})

	max := limit
	if max <= 0 || max > len(pairs) {
		max = len(pairs)
	}

	keywords := make([]string, 0, max)
	for i := 0; i < max; i++ {
		keywords = append(keywords, pairs[i].word)
	}

	return keywords
}

// BuildDocumentID derives a deterministic document ID from the record
// identity, so re-scraped items overwrite rather than duplicate.
func BuildDocumentID(source, headline string) string {
	if source == "" && headline == "" {
		return ""
	}
	s := sha1.Sum([]byte(source + "\x00" + headline))
	return hex.EncodeToString(s[:])
}

// GenerateHeadline creates a headline from the first sentence or first N
// words of content. Returns empty string if content is empty.
func GenerateHeadline(content string, maxWords int) string {
	if content == "" {
		return ""
	}

	withoutURLs := RemoveURLs(content)

	sentenceEnd := strings.IndexAny(withoutURLs, ".!?")
	var firstSentence string
	if sentenceEnd > 0 {
		firstSentence = strings.TrimSpace(withoutURLs[:sentenceEnd])
	} else {
		firstSentence = withoutURLs
	}

	words := strings.Fields(firstSentence)
	if len(words) == 0 {
		return ""
	}

	if maxWords > 0 && len(words) > maxWords {
		return strings.Join(words[:maxWords], " ") + "..."
	}

	return strings.Join(words, " ")
}
