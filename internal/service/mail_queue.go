package service

import (
	"errors"
	"sync"
	"sync/atomic"

	"bitwise74/blog/pkg/util"

	"go.uber.org/zap"
)

var (
	ErrQueueFull   = errors.New("mail queue full")
	ErrQueueClosed = errors.New("mail queue closed")
)

type MailJob struct {
	ID   string
	Mail *Mail
}

// MailQueue hands mails to a fixed pool of workers so request handlers never
// wait on the SMTP server
type MailQueue struct {
	jobs    chan *MailJob
	mailer  Mailer
	workers int
	running atomic.Int32

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewMailQueue initializes a new mail queue that limits the
// max amount of mails that can be queued at once
func NewMailQueue(m Mailer, workers, size int) *MailQueue {
	if workers <= 0 {
		workers = 1
	}

	if size < 0 {
		size = 0
	}

	zap.L().Debug("Initializing mail queue", zap.Int("workers", workers), zap.Int("max_jobs", size))

	return &MailQueue{
		jobs:    make(chan *MailJob, size),
		mailer:  m,
		workers: workers,
	}
}

func (q *MailQueue) StartWorkerPool() {
	for range q.workers {
		q.wg.Add(1)
		go q.worker()
	}
}

func (q *MailQueue) worker() {
	defer q.wg.Done()

	for job := range q.jobs {
		err := q.mailer.Send(job.Mail)
		q.running.Add(-1)

		if err != nil {
			zap.L().Error("Mail job finished with an error",
				zap.String("job_id", job.ID),
				zap.String("subject", job.Mail.Subject),
				zap.Error(err))
		} else {
			zap.L().Debug("Mail job finished successfully", zap.String("job_id", job.ID))
		}
	}
}

// Enqueue never blocks. A full or closed queue is reported as an error
func (q *MailQueue) Enqueue(m *Mail) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	job := &MailJob{ID: util.RandStr(8), Mail: m}

	select {
	case q.jobs <- job:
		q.running.Add(1)
		zap.L().Debug("New mail job enqueued", zap.Int32("enqueued", q.running.Load()), zap.String("job_id", job.ID))
		return nil
	default:
		return ErrQueueFull
	}
}

// Pending returns the number of mails that were queued but not sent yet
func (q *MailQueue) Pending() int {
	return int(q.running.Load())
}

// Shutdown stops accepting mails and waits for the queued ones to be sent
func (q *MailQueue) Shutdown() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}

	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()
}
