package model

// OutcomeStatus tags an AttemptOutcome.
type OutcomeStatus string

const (
	OutcomeSuccess   OutcomeStatus = "success"
	OutcomeRetryable OutcomeStatus = "retryable"
	OutcomeFatal     OutcomeStatus = "fatal"
)

// AttemptOutcome is the result of one acquisition+post-process attempt.
type AttemptOutcome struct {
	Status     OutcomeStatus
	Artifact   FinalArtifact
	Extraction ExtractionResult
	Err        error
}

// Succeeded builds a success outcome.
func Succeeded(artifact FinalArtifact, extraction ExtractionResult) AttemptOutcome {
	return AttemptOutcome{Status: OutcomeSuccess, Artifact: artifact, Extraction: extraction}
}

// Failed builds a failure outcome; the status follows the error kind.
func Failed(err error) AttemptOutcome {
	status := OutcomeFatal
	if IsRetryable(err) {
		status = OutcomeRetryable
	}
	return AttemptOutcome{Status: status, Err: err}
}

// IsSuccess reports whether the attempt produced a final artifact.
func (o AttemptOutcome) IsSuccess() bool {
	return o.Status == OutcomeSuccess
}
