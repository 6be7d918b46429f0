package queue

import "errors"

var ErrQueueClosed = errors.New("queue is closed")
