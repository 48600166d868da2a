// Package download runs download jobs end to end. Service.Download is the
// retry controller for a single job: every attempt clears the job's temp
// namespace, extracts the media, converts it when the container differs
// from the requested format and tags audio outputs. RunBatch and
// RunConcurrent are the batch orchestrators built on top of it.
package download
