package backtest

import "fmt"

// DataError reports an empty or malformed bar series. It is fatal for the
// run it occurs in and is never retried.
type DataError struct {
	Symbol string
	Reason string
}

func (e *DataError) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("bar series: %s", e.Reason)
	}
	return fmt.Sprintf("bar series for %s: %s", e.Symbol, e.Reason)
}

// ValidationError reports a malformed signal or configuration value. It is
// fatal for the run it occurs in.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
