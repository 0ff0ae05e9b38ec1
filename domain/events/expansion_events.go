package events

// ExpansionStartedEvent is fired when an expansion job begins executing
type ExpansionStartedEvent struct {
	BaseEvent
	JobID string
}

// NewExpansionStarted creates a started event for a job
func NewExpansionStarted(jobID, ownerID string) ExpansionStartedEvent {
	return ExpansionStartedEvent{
		BaseEvent: NewBaseEvent(EventTypeExpansionStarted, jobID, ownerID),
		JobID:     jobID,
	}
}

// EventData returns the event-specific payload
func (e ExpansionStartedEvent) EventData() map[string]interface{} {
	return map[string]interface{}{
		"jobId": e.JobID,
	}
}

// ExpansionProgressEvent is fired after each completed depth level
type ExpansionProgressEvent struct {
	BaseEvent
	JobID              string
	Depth              int
	ProgressPercent    int
	GeneratedNodeCount int
	GeneratedEdgeCount int
}

// NewExpansionProgress creates a progress event for a job
func NewExpansionProgress(jobID, ownerID string, depth, progressPercent, nodeCount, edgeCount int) ExpansionProgressEvent {
	return ExpansionProgressEvent{
		BaseEvent:          NewBaseEvent(EventTypeExpansionProgress, jobID, ownerID),
		JobID:              jobID,
		Depth:              depth,
		ProgressPercent:    progressPercent,
		GeneratedNodeCount: nodeCount,
		GeneratedEdgeCount: edgeCount,
	}
}

// EventData returns the event-specific payload
func (e ExpansionProgressEvent) EventData() map[string]interface{} {
	return map[string]interface{}{
		"jobId":              e.JobID,
		"depth":              e.Depth,
		"progressPercent":    e.ProgressPercent,
		"generatedNodeCount": e.GeneratedNodeCount,
		"generatedEdgeCount": e.GeneratedEdgeCount,
	}
}

// ExpansionCompletedEvent is fired when a job finishes normally
type ExpansionCompletedEvent struct {
	BaseEvent
	JobID     string
	NodeCount int
	EdgeCount int
}

// NewExpansionCompleted creates a completed event for a job
func NewExpansionCompleted(jobID, ownerID string, nodeCount, edgeCount int) ExpansionCompletedEvent {
	return ExpansionCompletedEvent{
		BaseEvent: NewBaseEvent(EventTypeExpansionCompleted, jobID, ownerID),
		JobID:     jobID,
		NodeCount: nodeCount,
		EdgeCount: edgeCount,
	}
}

// EventData returns the event-specific payload
func (e ExpansionCompletedEvent) EventData() map[string]interface{} {
	return map[string]interface{}{
		"jobId":     e.JobID,
		"nodeCount": e.NodeCount,
		"edgeCount": e.EdgeCount,
	}
}

// ExpansionPartiallyCompletedEvent is fired when memory pressure halts a job
type ExpansionPartiallyCompletedEvent struct {
	BaseEvent
	JobID  string
	Reason string
}

// NewExpansionPartiallyCompleted creates a partial-completion event for a job
func NewExpansionPartiallyCompleted(jobID, ownerID, reason string) ExpansionPartiallyCompletedEvent {
	return ExpansionPartiallyCompletedEvent{
		BaseEvent: NewBaseEvent(EventTypeExpansionPartiallyCompleted, jobID, ownerID),
		JobID:     jobID,
		Reason:    reason,
	}
}

// EventData returns the event-specific payload
func (e ExpansionPartiallyCompletedEvent) EventData() map[string]interface{} {
	return map[string]interface{}{
		"jobId":  e.JobID,
		"reason": e.Reason,
	}
}

// ExpansionFailedEvent is fired when a job fails with an unrecovered error
type ExpansionFailedEvent struct {
	BaseEvent
	JobID string
	Error string
}

// NewExpansionFailed creates a failed event for a job
func NewExpansionFailed(jobID, ownerID, errMsg string) ExpansionFailedEvent {
	return ExpansionFailedEvent{
		BaseEvent: NewBaseEvent(EventTypeExpansionFailed, jobID, ownerID),
		JobID:     jobID,
		Error:     errMsg,
	}
}

// EventData returns the event-specific payload
func (e ExpansionFailedEvent) EventData() map[string]interface{} {
	return map[string]interface{}{
		"jobId": e.JobID,
		"error": e.Error,
	}
}

// ExpansionCancelledEvent is fired once a cancellation request is observed
type ExpansionCancelledEvent struct {
	BaseEvent
	JobID string
}

// NewExpansionCancelled creates a cancelled event for a job
func NewExpansionCancelled(jobID, ownerID string) ExpansionCancelledEvent {
	return ExpansionCancelledEvent{
		BaseEvent: NewBaseEvent(EventTypeExpansionCancelled, jobID, ownerID),
		JobID:     jobID,
	}
}

// EventData returns the event-specific payload
func (e ExpansionCancelledEvent) EventData() map[string]interface{} {
	return map[string]interface{}{
		"jobId": e.JobID,
	}
}
