// Package models holds the small shared types passed between the batch
// driver and its workers.
package models

// ImageTask identifies one input image in a batch run. Index is the
// position in the input order, which the output preserves.
type ImageTask struct {
	Index int
	Name  string
	Path  string
}

// Failure records why one image produced no metrics row. The batch driver
// collects failures instead of aborting the run.
type Failure struct {
	Image string
	Stage string
	Err   error
}
