package diag

// Severity ranks a diagnostic. Error and above gates the next compiler
// phase; Fatal additionally aborts the phase that reported it.
type Severity uint8

const (
	SevWarning Severity = iota
	SevError
	SevFatal
)

func (s Severity) String() string {
	switch s {
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	case SevFatal:
		return "FATAL"
	}
	return "UNKNOWN"
}
