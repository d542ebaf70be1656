package domain

import "time"

// BusinessProfile carries the form fields sent to content generation.
type BusinessProfile struct {
	BusinessName    string `json:"businessName"`
	Location        string `json:"location"`
	BusinessType    string `json:"businessType"`
	Products        string `json:"productsServices"`
	TargetCustomers string `json:"targetCustomers"`
}

// GeneratedContent is one produced marketing text, as stored in history.
type GeneratedContent struct {
	ID           string    `json:"id"`
	BusinessName string    `json:"businessName"`
	Content      string    `json:"content"`
	Language     string    `json:"language,omitempty"`
	Bookmarked   bool      `json:"bookmarked"`
	Rating       int       `json:"rating,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// AudioResult describes a synthesized narration of generated content.
type AudioResult struct {
	URL      string  `json:"url"`
	Format   string  `json:"format,omitempty"`
	Duration float64 `json:"duration,omitempty"`
	Voice    string  `json:"voice,omitempty"`
}

// UsageStats aggregates a user's generation history.
type UsageStats struct {
	TotalContent    int `json:"totalContent"`
	TotalAudio      int `json:"totalAudio"`
	TotalBookmarked int `json:"totalBookmarked"`
}
