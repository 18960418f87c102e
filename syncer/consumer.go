package syncer

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/petlog/healthrag/storage"
)

const (
	// DefaultGroup is the consumer group used when none is configured.
	DefaultGroup = "index-syncer"
	// DefaultBatchSize bounds how many events one poll drains.
	DefaultBatchSize = 64
	// DefaultPollInterval is how long the consumer sleeps on an empty log.
	DefaultPollInterval = 250 * time.Millisecond
	// DefaultWorkers is the number of partitioned workers.
	DefaultWorkers = 2
)

// Stats counts terminal event outcomes.
type Stats struct {
	Acked   uint64
	Skipped uint64
	Dropped uint64
}

// Consumer drains the event log in batches and drives events through the
// handler. Work is partitioned across single-slot worker pools keyed by
// recordID, so two events for the same record are never in flight at once
// while different records still process in parallel.
//
// The group offset is committed only after every event in a batch has
// reached a terminal state. A crash mid-batch therefore redelivers the whole
// batch; handlers are idempotent so replay is safe.
type Consumer struct {
	eventLog     storage.EventLog
	offsets      storage.OffsetStore
	handler      *Handler
	group        string
	batchSize    int
	pollInterval time.Duration
	pools        []*ants.Pool
	logger       *slog.Logger

	acked   atomic.Uint64
	skipped atomic.Uint64
	dropped atomic.Uint64
}

// ConsumerOption configures a Consumer.
type ConsumerOption func(*Consumer) error

// WithGroup sets the consumer group name used for offset commits.
func WithGroup(group string) ConsumerOption {
	return func(c *Consumer) error {
		if group != "" {
			c.group = group
		}
		return nil
	}
}

// WithBatchSize sets how many events one poll drains at most.
func WithBatchSize(size int) ConsumerOption {
	return func(c *Consumer) error {
		if size > 0 {
			c.batchSize = size
		}
		return nil
	}
}

// WithPollInterval sets the sleep between polls of an empty log.
func WithPollInterval(interval time.Duration) ConsumerOption {
	return func(c *Consumer) error {
		if interval > 0 {
			c.pollInterval = interval
		}
		return nil
	}
}

// WithWorkers sets the number of record-partitioned workers.
// Default is 2.
func WithWorkers(workers int) ConsumerOption {
	return func(c *Consumer) error {
		if workers < 1 {
			workers = 1
		}

		for _, pool := range c.pools {
			pool.Release()
		}

		pools, err := newPartitionPools(workers)
		if err != nil {
			return err
		}
		c.pools = pools
		return nil
	}
}

// WithConsumerLogger sets a custom logger.
func WithConsumerLogger(logger *slog.Logger) ConsumerOption {
	return func(c *Consumer) error {
		if logger != nil {
			c.logger = logger
		}
		return nil
	}
}

// Each pool has exactly one slot so events sharing a partition serialize.
func newPartitionPools(workers int) ([]*ants.Pool, error) {
	pools := make([]*ants.Pool, workers)
	for i := range pools {
		pool, err := ants.NewPool(1)
		if err != nil {
			for _, created := range pools[:i] {
				created.Release()
			}
			return nil, err
		}
		pools[i] = pool
	}
	return pools, nil
}

// NewConsumer creates a new event consumer.
func NewConsumer(eventLog storage.EventLog, offsets storage.OffsetStore, handler *Handler, opts ...ConsumerOption) (*Consumer, error) {
	if eventLog == nil {
		return nil, ErrEventLogRequired
	}
	if offsets == nil {
		return nil, ErrOffsetStoreRequired
	}
	if handler == nil {
		return nil, ErrHandlerRequired
	}

	pools, err := newPartitionPools(DefaultWorkers)
	if err != nil {
		return nil, err
	}

	c := &Consumer{
		eventLog:     eventLog,
		offsets:      offsets,
		handler:      handler,
		group:        DefaultGroup,
		batchSize:    DefaultBatchSize,
		pollInterval: DefaultPollInterval,
		pools:        pools,
		logger:       slog.Default().With("component", "consumer"),
	}
	for _, opt := range opts {
		if optErr := opt(c); optErr != nil {
			c.Release()
			return nil, optErr
		}
	}
	return c, nil
}

// Run polls the event log until ctx is canceled. It returns ctx.Err() on
// shutdown and any storage error immediately.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("consumer started", "group", c.group, "workers", len(c.pools))

	for {
		processed, err := c.Drain(ctx)
		if err != nil {
			return err
		}

		if processed > 0 {
			continue
		}

		select {
		case <-ctx.Done():
			c.logger.Info("consumer stopped", "group", c.group)
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

// Drain processes one batch of pending events and commits the group offset
// once every event in the batch is terminal. It returns the number of events
// processed; zero means the log had nothing new. Cancellation aborts the
// batch without committing so unfinished events are redelivered.
func (c *Consumer) Drain(ctx context.Context) (int, error) {
	last, _, err := c.offsets.Last(ctx, c.group)
	if err != nil {
		return 0, err
	}

	records, err := c.eventLog.Read(ctx, last, c.batchSize)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	var wg sync.WaitGroup
	for _, record := range records {
		record := record
		wg.Add(1)

		pool := c.poolFor(record.Event.RecordID)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			c.track(c.handler.Handle(ctx, record.Event))
		})
		if submitErr != nil {
			// Pool is released; process inline rather than losing the event.
			c.track(c.handler.Handle(ctx, record.Event))
			wg.Done()
		}
	}
	wg.Wait()

	// A canceled context means some events never reached a terminal state.
	// Committing here would lose them permanently, so abort and let the
	// whole batch be redelivered.
	if ctxErr := ctx.Err(); ctxErr != nil {
		c.logger.Info("batch aborted before commit", "group", c.group, "events", len(records))
		return 0, ctxErr
	}

	highest := records[len(records)-1].Offset
	if err := c.offsets.Commit(ctx, c.group, highest); err != nil {
		return 0, err
	}

	c.logger.Debug("batch committed", "group", c.group, "events", len(records), "offset", highest)
	return len(records), nil
}

// Stats returns a snapshot of terminal outcome counters.
func (c *Consumer) Stats() Stats {
	return Stats{
		Acked:   c.acked.Load(),
		Skipped: c.skipped.Load(),
		Dropped: c.dropped.Load(),
	}
}

// Release releases the worker pools.
// The consumer should not be used after calling Release.
func (c *Consumer) Release() {
	for _, pool := range c.pools {
		pool.Release()
	}
}

func (c *Consumer) poolFor(recordID int64) *ants.Pool {
	partition := recordID % int64(len(c.pools))
	if partition < 0 {
		partition = -partition
	}
	return c.pools[partition]
}

func (c *Consumer) track(result *Result) {
	switch result.State {
	case StateAcked:
		c.acked.Add(1)
	case StateSkipped:
		c.skipped.Add(1)
	case StateDropped:
		c.dropped.Add(1)
	}
}
