package queue

import "context"

// Job handles every message of one Type. Handle returning an error schedules
// a retry until RetryLimit, after which the message goes to the dead-letter list.
type Job interface {
	Name() string
	Type() string
	Handle(ctx context.Context, payload interface{}) error
}
