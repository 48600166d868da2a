package model

// TaskStatus represents the lifecycle state of a download job
type TaskStatus string

const (
	// TaskStatusPending means the job is queued but not started
	TaskStatusPending TaskStatus = "Pending"

	// TaskStatusDownloading means the extractor is fetching the media
	TaskStatusDownloading TaskStatus = "Downloading"

	// TaskStatusConverting means the transcoder is running
	TaskStatusConverting TaskStatus = "Converting"

	// TaskStatusTagging means metadata is being written
	TaskStatusTagging TaskStatus = "Tagging"

	// TaskStatusRetrying means an attempt failed and the next one is scheduled
	TaskStatusRetrying TaskStatus = "Retrying"

	// TaskStatusCompleted means the job delivered its file
	TaskStatusCompleted TaskStatus = "Completed"

	// TaskStatusError means the job failed for good
	TaskStatusError TaskStatus = "Error"

	// TaskStatusCanceled means the run was canceled before the job finished
	TaskStatusCanceled TaskStatus = "Canceled"
)

// String returns the string representation of TaskStatus
func (ts TaskStatus) String() string {
	return string(ts)
}

// IsActive returns true if the job is currently being worked on
func (ts TaskStatus) IsActive() bool {
	return ts == TaskStatusDownloading || ts == TaskStatusConverting || ts == TaskStatusTagging || ts == TaskStatusRetrying
}

// IsFinished returns true if the job reached a terminal state
func (ts TaskStatus) IsFinished() bool {
	return ts == TaskStatusCompleted || ts == TaskStatusError || ts == TaskStatusCanceled
}

// StatusForError maps a terminal error to a status
func StatusForError(err error) TaskStatus {
	switch {
	case err == nil:
		return TaskStatusCompleted
	case KindOf(err) == KindCanceled:
		return TaskStatusCanceled
	default:
		return TaskStatusError
	}
}
