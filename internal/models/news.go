package models

import "time"

// NewsRecord is one normalized news item as produced by the ingestion stage.
// The (Source, Headline) pair is the identity used for alert deduplication.
type NewsRecord struct {
	Source   string    `json:"source"`
	Headline string    `json:"headline"`
	Content  string    `json:"content"`
	Date     time.Time `json:"date"`
	URL      string    `json:"url,omitempty"`
}

// NewsDocument is the canonical structure stored in Elasticsearch: the record
// plus the classification verdict computed at ingestion time.
type NewsDocument struct {
	ID       string    `json:"id"`
	Source   string    `json:"source"`
	Headline string    `json:"headline"`
	Content  string    `json:"content"`
	Date     time.Time `json:"date"`
	URL      string    `json:"url,omitempty"`
	Keywords []string  `json:"keywords"`
	Critical bool      `json:"critical"`
	Reason   string    `json:"reason,omitempty"`
	Score    int       `json:"criticality_score"`
}

// Record strips the stored document back down to the normalized record.
func (d NewsDocument) Record() NewsRecord {
	return NewsRecord{
		Source:   d.Source,
		Headline: d.Headline,
		Content:  d.Content,
		Date:     d.Date,
		URL:      d.URL,
	}
}

// ScoredRecord pairs a record with its criticality score for digest ranking.
type ScoredRecord struct {
	NewsRecord
	Score int `json:"criticality_score"`
}
