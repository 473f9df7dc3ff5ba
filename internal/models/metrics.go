package models

import "time"

// SystemMetrics is a JSON summary of process counters.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	LLMCalls                 uint64    `json:"llmCalls"`
	LLMFailures              uint64    `json:"llmFailures"`
	ExtractionFallbacks      uint64    `json:"extractionFallbacks"`
	DegradedResponses        uint64    `json:"degradedResponses"`
	LevelUps                 uint64    `json:"levelUps"`
	Goroutines               int       `json:"goroutines"`
	QueueStats               any       `json:"queues,omitempty"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
