// Package screening performs per-file data-quality bookkeeping: point-count
// validation, per-channel completeness and minimum-resolution tracking, and
// the bad-file registry surfaced at end of run.
package screening

// Failure reasons recorded in the BadFileRegistry.
const (
	ReasonPointCount        = "Unexpected number of points"
	ReasonFilenameTimestamp = "Unable to parse datetime from filename"
	ReasonUnreadable        = "Unable to read file"
)

// BadFileRegistry maps filenames to failure reasons. It is append-only:
// entries are never removed, and the first recorded reason for a file wins.
type BadFileRegistry struct {
	reasons map[string]string
	order   []string
}

// NewBadFileRegistry creates an empty registry.
func NewBadFileRegistry() *BadFileRegistry {
	return &BadFileRegistry{reasons: make(map[string]string)}
}

// Add records a failure for the file. Re-adding an already registered file
// keeps the original reason.
func (r *BadFileRegistry) Add(filename, reason string) {
	if _, exists := r.reasons[filename]; exists {
		return
	}
	r.reasons[filename] = reason
	r.order = append(r.order, filename)
}

// Reason returns the recorded reason for a file.
func (r *BadFileRegistry) Reason(filename string) (string, bool) {
	reason, ok := r.reasons[filename]
	return reason, ok
}

// Files returns the registered filenames in insertion order.
func (r *BadFileRegistry) Files() []string {
	return append([]string(nil), r.order...)
}

// Len returns the number of registered files.
func (r *BadFileRegistry) Len() int {
	return len(r.order)
}

// Entries returns a copy of the filename -> reason mapping.
func (r *BadFileRegistry) Entries() map[string]string {
	out := make(map[string]string, len(r.reasons))
	for k, v := range r.reasons {
		out[k] = v
	}
	return out
}
