package taskqueue

import (
	"fmt"
	"time"
)

// Kind identifies what a job analyzes.
type Kind string

const (
	KindAnalyzeMessage      Kind = "analyze_message"
	KindAnalyzeConversation Kind = "analyze_conversation"
)

// ValidKind reports whether kind is one of the known job kinds.
func ValidKind(kind Kind) bool {
	return kind == KindAnalyzeMessage || kind == KindAnalyzeConversation
}

// Status is the lifecycle state of a job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusFailed     Status = "failed"
)

// Job is one unit of deferred analysis work. Jobs are removed from the
// store on either terminal outcome; a failure is logged with LastError
// and counted, and the periodic sweep reschedules the entity.
type Job struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	TargetID  string    `json:"targetId"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	NotBefore time.Time `json:"notBefore"`
	LastError string    `json:"lastError,omitempty"`
}

func newJobID(kind Kind, targetID string, now time.Time) string {
	return fmt.Sprintf("%s_%s_%d", kind, targetID, now.UnixNano())
}
