package types

// ItemFailure records why one item of a batch was not applied.
type ItemFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// BatchResult reports a bulk operation that keeps going past per-item
// failures. Affected counts only items that were actually applied.
type BatchResult struct {
	Requested int           `json:"requested"`
	Affected  int           `json:"affected"`
	Failures  []ItemFailure `json:"failures,omitempty"`
}

func (r *BatchResult) Fail(id string, err error) {
	r.Failures = append(r.Failures, ItemFailure{ID: id, Error: err.Error()})
}

func (r *BatchResult) Succeed() {
	r.Affected++
}

// Partial reports whether at least one item failed.
func (r BatchResult) Partial() bool {
	return len(r.Failures) > 0
}
