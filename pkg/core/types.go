// Package core provides the core types shared by the tally ingestion and
// aggregation engine: the in-memory table model, operation results, and the
// progress-reporting contract.
package core

// ProgressFunc receives progress updates during an operation. Percent is
// monotonically non-decreasing within one operation and stays in [0, 100].
// Implementations must be cheap and non-blocking; they may be invoked from
// whatever goroutine runs the operation.
type ProgressFunc func(percent int, status string)

// Report invokes p if it is non-nil. Operations call this instead of
// checking for nil at every milestone.
func (p ProgressFunc) Report(percent int, status string) {
	if p != nil {
		p(percent, status)
	}
}

// Monotonic wraps p so the reported percentage never decreases, whatever
// the caller's per-block arithmetic produces. A nil p stays nil.
func Monotonic(p ProgressFunc) ProgressFunc {
	if p == nil {
		return nil
	}
	last := 0
	return func(percent int, status string) {
		if percent < last {
			percent = last
		} else {
			last = percent
		}
		p(percent, status)
	}
}

// Result is the outcome of a top-level engine operation. Operations never
// panic across this boundary; any failure is folded into Success=false with
// a human-readable message.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Failure builds a failed Result.
func Failure(message string) Result {
	return Result{Success: false, Message: message}
}

// Successf builds a successful Result.
func Successf(message string) Result {
	return Result{Success: true, Message: message}
}

// ReadRequest carries the ingestion options shared by every operation that
// pulls rows from a delimited file.
type ReadRequest struct {
	// Encoding is a concrete encoding name or "auto" (empty means "auto").
	Encoding string

	// Delimiter is a literal delimiter character or "auto" (empty means
	// "auto").
	Delimiter string

	// ChunkSize is the number of rows per chunk when chunked reading is
	// requested. Zero or negative means whole-file.
	ChunkSize int
}

// Chunked reports whether the request asks for chunked reading.
func (r ReadRequest) Chunked() bool {
	return r.ChunkSize > 0
}
