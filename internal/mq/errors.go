package mq

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned when the administrative executor is used
	// before Connect succeeded or after Disconnect.
	ErrNotConnected = errors.New("mq: session not connected")

	// ErrUnknownObject marks a command that named an object (queue, channel)
	// the queue manager does not know.
	ErrUnknownObject = errors.New("mq: unknown object name")

	// ErrUnknownQueueManager marks a dial against a queue manager name the
	// endpoint does not host.
	ErrUnknownQueueManager = errors.New("mq: unknown queue manager")

	// ErrAuthRejected marks credentials or a client certificate refused by
	// the queue manager.
	ErrAuthRejected = errors.New("mq: authentication rejected")
)

// ConnectionError reports a failure to establish or verify a session.
// It is fatal to a probe run.
type ConnectionError struct {
	QueueManager string
	ConnName     string
	Channel      string
	Err          error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to queue manager %s at %s (channel %s): %v",
		e.QueueManager, e.ConnName, e.Channel, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// QueueQueryError reports that a single queue's depth could not be
// determined. It is recoverable: the run continues with the next queue.
type QueueQueryError struct {
	Queue string
	Err   error
}

func (e *QueueQueryError) Error() string {
	return fmt.Sprintf("query queue %s: %v", e.Queue, e.Err)
}

func (e *QueueQueryError) Unwrap() error { return e.Err }

// CommandError is a failed administrative command with the completion and
// reason codes reported by the queue manager.
type CommandError struct {
	Command        string
	CompletionCode int
	ReasonCode     int
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q failed: completion code %d, reason code %d",
		e.Command, e.CompletionCode, e.ReasonCode)
}

// Is lets errors.Is(err, ErrUnknownObject) match the reason codes that mean
// the named object does not exist.
func (e *CommandError) Is(target error) bool {
	switch target {
	case ErrUnknownObject:
		return e.ReasonCode == ReasonUnknownObjectName
	case ErrAuthRejected:
		return e.ReasonCode == ReasonNotAuthorized
	}
	return false
}

// Reason codes the session layer interprets.
const (
	ReasonNotAuthorized     = 2035
	ReasonUnknownObjectName = 2085
)
