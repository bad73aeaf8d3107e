// Package health evaluates queue depths against configured thresholds and
// folds the per-queue outcomes into one Report.
//
// severity.go holds the Severity scale shared with the monitoring scheduler:
// OK(0) < WARNING(1) < CRITICAL(2) < UNKNOWN(3). The numeric value doubles as
// the process exit status.
//
// evaluate.go walks the thresholds in configuration order, queries each queue
// through a Querier and classifies the depth:
//
//	depth >= critical            → CRITICAL  "<queue> depth is <depth>"
//	warning <= depth < critical  → WARNING   "<queue> depth is <depth>"
//	otherwise                    → OK        (no message)
//
// A queue the queue manager does not know is CRITICAL ("<queue> not found").
// Any other query failure is UNKNOWN ("<queue> depth unknown: <err>"), so a
// failed query never reads as OK. Generic names ending in '*' are expanded
// through Querier.ListQueues.
package health
