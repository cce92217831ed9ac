package models

import "time"

type Publication struct {
	Domain string `bson:"domain"`
}

type Article struct {
	ID          string      `bson:"_id,omitempty"`
	Publication Publication `bson:"publication"`
	Pub         string      `bson:"pub,omitempty"`
	Tags        []string    `bson:"tags,omitempty"`
}

// Augment is one flattened entry of the augment mapping.
type Augment struct {
	Domain    string
	Shortname string
	Tag       string
}

type PurgeResult struct {
	Domains []string
	Deleted int64
}

type AugmentResult struct {
	Augment
	Matched  int64
	Modified int64
}

type PublicationCount struct {
	Pub      string
	Articles int64
}

type RunSummary struct {
	DryRun       bool
	Purge        PurgeResult
	Augments     []AugmentResult
	Publications []PublicationCount
	Elapsed      time.Duration
}

// Touched is the number of documents the augment phase matched in total.
func (s *RunSummary) Touched() int64 {
	var n int64
	for _, a := range s.Augments {
		n += a.Matched
	}
	return n
}
