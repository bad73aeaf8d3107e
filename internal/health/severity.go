package health

import "fmt"

// Severity is the monitoring-plugin status of a check.
type Severity int

// Severities in escalation order. The values are the plugin exit codes.
const (
	OK Severity = iota
	Warning
	Critical
	Unknown
)

func (s Severity) String() string {
	switch s {
	case OK:
		return "OK"
	case Warning:
		return "WARNING"
	case Critical:
		return "CRITICAL"
	case Unknown:
		return "UNKNOWN"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// ExitCode returns the process exit status for s.
func (s Severity) ExitCode() int {
	if s < OK || s > Unknown {
		return int(Unknown)
	}
	return int(s)
}

// Max returns the more severe of a and b.
func Max(a, b Severity) Severity {
	if b > a {
		return b
	}
	return a
}

// Classify maps a queue depth to a severity. The critical bound is checked
// first, so an inverted pair (warning > critical) still escalates at critical.
func Classify(depth, warning, critical int) Severity {
	switch {
	case depth >= critical:
		return Critical
	case depth >= warning:
		return Warning
	default:
		return OK
	}
}
