// Package models defines request and response types for the paleofed REST
// API. All types are JSON-serializable and include validation tags where
// appropriate.
package models

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse represents a simple status response.
type StatusResponse struct {
	Status string `json:"status"`
}

// OccurrenceResponse is the composite-query result envelope (§7): the
// merged, ordered record set plus every diagnostic the driver collected.
type OccurrenceResponse struct {
	Results  []map[string]any `json:"results"`
	Warnings []string         `json:"warnings,omitempty"`
	URLs     []string         `json:"urls,omitempty"`
}

// MemoryStats mirrors host memory usage reported by gopsutil.
type MemoryStats struct {
	TotalMB     float64 `json:"total_mb"`
	FreeMB      float64 `json:"free_mb"`
	UsedMB      float64 `json:"used_mb"`
	UsedPercent float64 `json:"used_percent"`
}

// CPUStats mirrors host CPU usage reported by gopsutil.
type CPUStats struct {
	NumCPU      int     `json:"num_cpu"`
	UsedPercent float64 `json:"used_percent"`
	IdlePercent float64 `json:"idle_percent"`
}

// ServerStatsResponse reports gateway runtime and host statistics.
type ServerStatsResponse struct {
	Uptime        string    `json:"uptime"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	CPU           CPUStats  `json:"cpu"`
	Memory        MemoryStats `json:"memory"`
	QueriesTotal  int64     `json:"queries_total"`
}

// VocabTermRow, TimeRuleRow, OutputBlockRow mirror configstore's rows for
// the read-only declaration endpoints.
type VocabTermRow struct {
	Vocab    string `json:"vocab"`
	FieldKey string `json:"field_key"`
	Label    string `json:"label"`
}

type TimeRuleRow struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type OutputBlockRow struct {
	Name        string   `json:"name"`
	Fields      []string `json:"fields"`
	Description string   `json:"description"`
}
