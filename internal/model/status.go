package model

import (
	"time"
)

// QuotaTier is a coarse classification of remaining daily quota.
type QuotaTier string

const (
	TierAmple     QuotaTier = "ample"
	TierLow       QuotaTier = "low"
	TierExhausted QuotaTier = "exhausted"
)

// QuotaStatus reports the state of the daily quota at a point in time.
type QuotaStatus struct {
	Used       int       `json:"used"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	Percentage int       `json:"percentage"`
	Tier       QuotaTier `json:"tier"`
}

// UsageStats reports aggregate store figures for the status surface.
type UsageStats struct {
	TotalUsers    int `json:"totalUsers"`
	ActiveToday   int `json:"activeToday"`
	Conversations int `json:"conversations"`
}

// StatusResponse is the payload of the public status endpoint.
type StatusResponse struct {
	Status        string      `json:"status"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	Quota         QuotaStatus `json:"quota"`
	Stats         UsageStats  `json:"stats"`
	Timestamp     time.Time   `json:"timestamp"`
}
