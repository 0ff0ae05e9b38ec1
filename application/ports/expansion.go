package ports

import (
	"time"

	"mindweave-backend/domain/core/entities"
)

// JobStatus represents the lifecycle state of an expansion job
type JobStatus string

const (
	JobStatusQueued             JobStatus = "queued"
	JobStatusRunning            JobStatus = "running"
	JobStatusCancelling         JobStatus = "cancelling"
	JobStatusCompleted          JobStatus = "completed"
	JobStatusPartiallyCompleted JobStatus = "partially_completed"
	JobStatusFailed             JobStatus = "failed"
	JobStatusCancelled          JobStatus = "cancelled"
)

// IsTerminal reports whether the status is a final state
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusPartiallyCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// ExpansionOptions configures one expansion job
type ExpansionOptions struct {
	Depth                int             `json:"depth"`
	FanoutFactor         float64         `json:"fanout_factor"`
	MaxNewPerNode        int             `json:"max_new_per_node"`
	MaxTotalNew          int             `json:"max_total_new"`
	ProviderID           string          `json:"provider_id"`
	Strategy             string          `json:"strategy,omitempty"`
	FocusNodeIDs         map[string]bool `json:"focus_node_ids,omitempty"`
	ExcludeNodeIDs       map[string]bool `json:"exclude_node_ids,omitempty"`
	MemoryAdmissionRatio float64         `json:"memory_admission_ratio"`
}

// Insight is a provider-generated observation about an expansion level
type Insight struct {
	Content string `json:"content"`
	Level   int    `json:"level"`
}

// ExpansionResult holds the output of a finished expansion job
type ExpansionResult struct {
	Nodes    []*entities.Node `json:"nodes"`
	Edges    []entities.Edge  `json:"edges"`
	Insights []Insight        `json:"insights"`
}

// ExpansionJob is the job record owned by the job manager. Fields are
// written only by the job's own execution path; readers receive copies.
type ExpansionJob struct {
	ID                 string           `json:"id"`
	OwnerID            string           `json:"owner_id"`
	ContextRef         string           `json:"context_ref"`
	Options            ExpansionOptions `json:"options"`
	Status             JobStatus        `json:"status"`
	ProgressPercent    int              `json:"progress_percent"`
	CurrentDepth       int              `json:"current_depth"`
	GeneratedNodeCount int              `json:"generated_node_count"`
	GeneratedEdgeCount int              `json:"generated_edge_count"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
	Result             *ExpansionResult `json:"result,omitempty"`
	ErrorMessage       string           `json:"error_message,omitempty"`
}
