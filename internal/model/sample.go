package model

import "time"

// MemorySample is one reading of host memory usage. SampledAt is the
// primary key; samples are never updated or deleted once written.
type MemorySample struct {
	SampledAt time.Time `json:"time"`
	TotalMB   float64   `json:"total"`
	UsedMB    float64   `json:"used"`
	FreeMB    float64   `json:"free"`
}
