package eventbus

// Topics published over the bus. Progress events fan out to websocket
// subscribers; terminal events additionally drive logging and metrics.
const (
	EventJobProgress  = "job:progress"
	EventJobCompleted = "job:completed"
	EventJobFailed    = "job:failed"
)

// ProgressEventData is emitted for every forward step of a running job.
type ProgressEventData struct {
	JobID    string `json:"job_id"`
	OwnerID  string `json:"owner_id"`
	Stage    string `json:"stage"`
	Progress int    `json:"progress"`
}

// CompletedEventData is emitted exactly once when a job finishes with an
// outcome.
type CompletedEventData struct {
	JobID       string `json:"job_id"`
	OwnerID     string `json:"owner_id"`
	ArtifactURL string `json:"artifact_url"`
	FoodItems   int    `json:"food_items"`
}

// FailedEventData is emitted exactly once when a job fails at any stage.
type FailedEventData struct {
	JobID   string `json:"job_id"`
	OwnerID string `json:"owner_id"`
	Stage   string `json:"stage"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
