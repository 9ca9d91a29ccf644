package lifecycle

import (
	"errors"
	"fmt"
	"strings"
)

// ErrChecksumMismatch indicates a downloaded archive did not hash to the
// checksum published in the release catalog. It always aborts an install
// before any registry mutation.
var ErrChecksumMismatch = errors.New("archive checksum mismatch")

// Failure records one failed item of a batch operation.
type Failure struct {
	Item string
	Err  error
}

// BatchError aggregates per-item failures from a best-effort batch. The
// batch keeps going past individual failures; callers get every failure at
// once instead of just the first.
type BatchError struct {
	Failures []Failure
}

func (e *BatchError) Error() string {
	if len(e.Failures) == 1 {
		f := e.Failures[0]
		return fmt.Sprintf("%s: %v", f.Item, f.Err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d of batch failed:", len(e.Failures))
	for _, f := range e.Failures {
		fmt.Fprintf(&b, "\n  %s: %v", f.Item, f.Err)
	}
	return b.String()
}

// Unwrap exposes the underlying errors so errors.Is sees through the batch.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

func (e *BatchError) add(item string, err error) {
	e.Failures = append(e.Failures, Failure{Item: item, Err: err})
}

func (e *BatchError) errOrNil() error {
	if len(e.Failures) == 0 {
		return nil
	}
	return e
}
