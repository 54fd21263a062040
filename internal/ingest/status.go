package ingest

// Task states reported by the overlord.
const (
	StatusRunning = "RUNNING"
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// SubmitResponse is the overlord's reply to a task submission.
type SubmitResponse struct {
	Task string `json:"task"`
}

// StatusResponse is the overlord's reply to a status lookup.
type StatusResponse struct {
	Task   string     `json:"task"`
	Status TaskStatus `json:"status"`
}

// TaskStatus is the state of one task.
type TaskStatus struct {
	ID               string `json:"id"`
	Type             string `json:"type,omitempty"`
	DataSource       string `json:"dataSource,omitempty"`
	CreatedTime      string `json:"createdTime,omitempty"`
	Status           string `json:"status"`
	StatusCode       string `json:"statusCode,omitempty"`
	RunnerStatusCode string `json:"runnerStatusCode,omitempty"`
	Duration         int64  `json:"duration,omitempty"`
	Location         *struct {
		Host string `json:"host"`
		Port int    `json:"port"`
	} `json:"location,omitempty"`
	ErrorMsg string `json:"errorMsg,omitempty"`
}

// Done reports whether the task reached a final state.
func (s TaskStatus) Done() bool {
	return s.Status == StatusSuccess || s.Status == StatusFailed
}
