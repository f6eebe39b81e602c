package constants

// JobStatus is the canonical status for an extraction job.
type JobStatus string

// Stable values (logged and reported verbatim).
const (
	JobStatusQueued    JobStatus = "QUEUED"     // waiting for a worker
	JobStatusRunning   JobStatus = "RUNNING"    // in progress
	JobStatusOCROK     JobStatus = "OCR_OK"     // stage 1 completed (text acquired)
	JobStatusExtractOK JobStatus = "EXTRACT_OK" // stage 2 completed (invoice assembled)
	JobStatusFailed    JobStatus = "FAILED"     // terminal failure
)
