package pipeline

import "fmt"

// LoggerError is a logger-scoped failure: it aborts processing for one
// logger while the rest of the batch continues. The logger identity is
// attached so reports can be reconstructed without re-running.
type LoggerError struct {
	LoggerID string
	Err      error
}

func (e *LoggerError) Error() string {
	return fmt.Sprintf("logger %s: %v", e.LoggerID, e.Err)
}

func (e *LoggerError) Unwrap() error {
	return e.Err
}

func loggerErr(id string, err error) *LoggerError {
	return &LoggerError{LoggerID: id, Err: err}
}
