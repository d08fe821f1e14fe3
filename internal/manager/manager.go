package manager

import (
	"context"

	"github.com/Goofygiraffe06/otpgate/internal/config"
	"github.com/Goofygiraffe06/otpgate/internal/workerpool"
)

// WorkManager keeps database, password hashing and mail work off the HTTP
// handler goroutines, each in its own bounded pool.
type WorkManager struct {
	db   *workerpool.Pool
	hash *workerpool.Pool
	mail *workerpool.Pool
}

// Option configures the WorkManager.
type Option func(*options)

type options struct {
	dbWorkers   int
	hashWorkers int
	mailWorkers int
	queueSize   int
}

// WithDBWorkers sets the DB worker count.
func WithDBWorkers(n int) Option { return func(o *options) { o.dbWorkers = n } }

// WithHashWorkers sets the password hashing worker count.
func WithHashWorkers(n int) Option { return func(o *options) { o.hashWorkers = n } }

// WithMailWorkers sets the mail worker count.
func WithMailWorkers(n int) Option { return func(o *options) { o.mailWorkers = n } }

// WithQueueSize sets the shared queue size (per pool).
func WithQueueSize(n int) Option { return func(o *options) { o.queueSize = n } }

// NewWorkManager constructs the manager with the given options (or defaults from config).
func NewWorkManager(opts ...Option) *WorkManager {
	o := &options{
		dbWorkers:   config.DBWorkerCount(),
		hashWorkers: config.HashWorkerCount(),
		mailWorkers: config.MailWorkerCount(),
		queueSize:   config.WorkerQueueSize(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return &WorkManager{
		db:   workerpool.New("db", o.dbWorkers, o.queueSize),
		hash: workerpool.New("hash", o.hashWorkers, o.queueSize),
		mail: workerpool.New("mail", o.mailWorkers, o.queueSize),
	}
}

// Close shuts down all pools.
func (m *WorkManager) Close() {
	if m == nil {
		return
	}
	m.db.Close()
	m.hash.Close()
	m.mail.Close()
}

// DB runs a database task and waits for it.
func (m *WorkManager) DB(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.Do(ctx, fn)
}

// Hash runs a bcrypt task and waits for it.
func (m *WorkManager) Hash(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.hash.Do(ctx, fn)
}

// Mail runs a mail task and waits for it. Delivery is synchronous so the
// caller can report a failed send.
func (m *WorkManager) Mail(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.mail.Do(ctx, fn)
}
