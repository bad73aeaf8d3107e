package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/obsidianstack/wmqprobe/internal/config"
	"github.com/obsidianstack/wmqprobe/internal/mq"
)

// UnknownDepth is the depth recorded when a queue could not be queried.
const UnknownDepth = -1

// Querier is the administrative capability the evaluator needs.
// *mq.Session satisfies it.
type Querier interface {
	QueueDepth(ctx context.Context, queue string) (int, error)
	ListQueues(ctx context.Context, pattern string) ([]string, error)
}

// QueueResult is the outcome for one queue.
type QueueResult struct {
	Queue    string
	Depth    int
	Warning  int
	Critical int
	Severity Severity

	// Message is empty for OK queues.
	Message string

	// Err is the query failure, if any.
	Err error
}

// Report is the aggregate outcome of one evaluation pass.
type Report struct {
	Severity Severity
	Messages []string
	Results  []QueueResult
}

// Add folds a queue result into the report.
func (r *Report) Add(res QueueResult) {
	r.Results = append(r.Results, res)
	r.escalate(res.Severity, res.Message)
}

// Fail records a failure that is not tied to a single queue result.
func (r *Report) Fail(sev Severity, msg string) {
	r.escalate(sev, msg)
}

func (r *Report) escalate(sev Severity, msg string) {
	r.Severity = Max(r.Severity, sev)
	if msg != "" {
		r.Messages = append(r.Messages, msg)
	}
}

// String renders the plugin output: "OK" when nothing was reported,
// otherwise the messages joined by newlines.
func (r *Report) String() string {
	if len(r.Messages) == 0 {
		return "OK"
	}
	return strings.Join(r.Messages, "\n")
}

// ExitCode returns the plugin exit status for the report.
func (r *Report) ExitCode() int {
	return r.Severity.ExitCode()
}

// Evaluate queries every configured queue in order and classifies its depth.
// Per-queue failures never stop the pass. If ctx is cancelled the remaining
// queues are skipped and the report is UNKNOWN.
func Evaluate(ctx context.Context, q Querier, thresholds []config.QueueThreshold) *Report {
	r := &Report{}

	explicit := make(map[string]bool, len(thresholds))
	for _, th := range thresholds {
		if !th.IsGeneric() {
			explicit[th.Queue] = true
		}
	}
	evaluated := make(map[string]bool, len(thresholds))

	for _, th := range thresholds {
		if err := ctx.Err(); err != nil {
			r.Fail(Unknown, fmt.Sprintf("evaluation interrupted: %v", err))
			return r
		}

		if !th.IsGeneric() {
			evaluated[th.Queue] = true
			r.Add(evaluateQueue(ctx, q, th.Queue, th))
			continue
		}

		names, err := q.ListQueues(ctx, th.Queue)
		if err != nil {
			slog.Warn("health: list queues failed", "pattern", th.Queue, "err", err)
			r.Fail(Unknown, fmt.Sprintf("%s list failed: %v", th.Queue, err))
			continue
		}
		if len(names) == 0 {
			slog.Info("health: generic name matched no queues", "pattern", th.Queue)
		}
		for _, name := range names {
			// Explicit entries carry their own thresholds; overlapping
			// patterns apply the first match only.
			if explicit[name] || evaluated[name] {
				continue
			}
			if err := ctx.Err(); err != nil {
				r.Fail(Unknown, fmt.Sprintf("evaluation interrupted: %v", err))
				return r
			}
			evaluated[name] = true
			r.Add(evaluateQueue(ctx, q, name, th))
		}
	}
	return r
}

// evaluateQueue queries one queue and applies th to its depth.
func evaluateQueue(ctx context.Context, q Querier, name string, th config.QueueThreshold) QueueResult {
	res := QueueResult{Queue: name, Warning: th.Warning, Critical: th.Critical}

	depth, err := q.QueueDepth(ctx, name)
	if err != nil {
		res.Depth = UnknownDepth
		res.Err = err
		if errors.Is(err, mq.ErrUnknownObject) {
			res.Severity = Critical
			res.Message = fmt.Sprintf("%s not found", name)
		} else {
			cause := err
			var qErr *mq.QueueQueryError
			if errors.As(err, &qErr) {
				cause = qErr.Err
			}
			res.Severity = Unknown
			res.Message = fmt.Sprintf("%s depth unknown: %v", name, cause)
		}
		slog.Warn("health: queue query failed",
			"queue", name, "severity", res.Severity.String(), "err", err)
		return res
	}

	res.Depth = depth
	res.Severity = Classify(depth, th.Warning, th.Critical)
	if res.Severity != OK {
		res.Message = fmt.Sprintf("%s depth is %d", name, depth)
	}
	slog.Debug("health: queue evaluated",
		"queue", name,
		"depth", depth,
		"warning", th.Warning,
		"critical", th.Critical,
		"severity", res.Severity.String(),
	)
	return res
}
