package models

import "time"

// Collection is a described project that ideas are generated from.
type Collection struct {
	ID        string
	Name      string
	URL       string
	Summary   string
	Language  string
	CreatedAt time.Time
}

// ShortlistEntry marks an idea as shortlisted.
type ShortlistEntry struct {
	ID        string
	IdeaID    string
	CreatedAt time.Time
}
