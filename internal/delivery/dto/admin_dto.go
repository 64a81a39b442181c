package dto

import "time"

// StatsResponse holds the admin dashboard aggregates.
type StatsResponse struct {
	Appointments map[string]int64 `json:"appointments"`
	Users        map[string]int64 `json:"users"`
	GeneratedAt  time.Time        `json:"generated_at"`
}
