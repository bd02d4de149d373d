package model

import "time"

// Link is a source reference attached to a news record.
type Link struct {
	Source string `json:"source"`
	URL    string `json:"url"`
}

// Record is a news event description with its extracted POI and resolved
// coordinate. The geocoding stage only ever mutates Status and Coordinate.
type Record struct {
	Status      Status     `json:"status"`
	Date        string     `json:"date"`
	Description string     `json:"description"`
	Links       []Link     `json:"links"`
	POI         POI        `json:"poi"`
	Coordinate  Coordinate `json:"coordinate"`
}

// CacheEntry is a resolved coordinate remembered for a POI. Entries are
// deduplicated by POI equality only.
type CacheEntry struct {
	POI        POI        `json:"poi"`
	Coordinate Coordinate `json:"coordinate"`
	Timestamp  time.Time  `json:"timestamp"`
}
