package catalog

import "time"

// Goal is a top-level catalog category. Always fetched fresh, never cached.
type Goal struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
}

// Language is a localization entry on a batch.
type Language struct {
	Label string `json:"label"`
}

// Batch is a schedulable unit belonging to a goal.
type Batch struct {
	UID        string     `json:"uid"`
	Name       string     `json:"name"`
	Goal       Goal       `json:"goal"`
	StartsAt   time.Time  `json:"starts_at"`
	Languages  []Language `json:"languages"`
	Permalink  string     `json:"permalink"`
	CoverPhoto string     `json:"cover_photo,omitempty"`
}

// BatchPage is one upstream page of batches. HasPrevious and HasNext
// reflect whether upstream reported adjacent pages.
type BatchPage struct {
	Results     []Batch
	HasPrevious bool
	HasNext     bool
}

// PageSize is the fixed page length for both goal and batch listings.
const PageSize = 10
