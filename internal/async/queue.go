package async

import (
	"context"
	"errors"
	"time"
)

// Job is one document waiting to go through the pipeline.
type Job struct {
	Path        string
	SubmittedAt time.Time
	RequestID   string
}

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("queue is shutting down")

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
