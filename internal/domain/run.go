package domain

import "time"

// Run statuses.
const (
	RunStatusCompleted = "COMPLETED"
	RunStatusPartial   = "PARTIAL" // some clients failed
	RunStatusAborted   = "ABORTED"
)

// RunSummary is the persisted outcome of one batch run.
type RunSummary struct {
	RunID            string
	Window           Window
	PolicyVersion    string
	StartedAt        time.Time
	FinishedAt       time.Time
	Status           string
	ClientsTotal     int
	ClientsSucceeded int
	ClientsFailed    int
	ClientsNoData    int // processed with an empty window
	Recommendations  int
	RecordsDropped   int
	ResultsDigest    string   // combined digest of all client results
	Errors           []string // sorted
}
