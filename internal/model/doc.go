// Package model defines the domain types shared by the pipeline: format
// tokens and their classes, download jobs, extraction results, attempt
// outcomes, the error taxonomy and the batch report.
package model
