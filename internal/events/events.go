// Package events publishes domain lifecycle events to Kafka: corpus.updated
// after ingestion, index.built after a shard write, and a buffered,
// best-effort query.searched stream for query-log telemetry. It is grounded
// on the teacher's Kafka producer and its analytics collector's
// buffered-channel-with-graceful-drain shape, repurposed from generic
// analytics events to this domain's three topics.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/elias-vance/lexishard/pkg/kafka"
	"github.com/elias-vance/lexishard/pkg/resilience"
)

const (
	TopicCorpusUpdated = "corpus.updated"
	TopicIndexBuilt    = "index.built"
	TopicQuerySearched = "query.searched"
)

// CorpusUpdated is published by the ingest adapter once it has written
// normalized documents for the indexer service to pick up.
type CorpusUpdated struct {
	InputDir  string    `json:"input_dir"`
	DocCount  int       `json:"doc_count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IndexBuilt is published by the indexer service after a completed
// build_index + shard write pass.
type IndexBuilt struct {
	ShardDir   string    `json:"shard_dir"`
	DocCount   int       `json:"doc_count"`
	TermCount  int       `json:"term_count"`
	ShardCount int       `json:"shard_count"`
	BuiltAt    time.Time `json:"built_at"`
}

// QuerySearched is a best-effort telemetry event for one search request.
type QuerySearched struct {
	Query      string    `json:"query"`
	ResultDocs int       `json:"result_docs"`
	TookMillis int64     `json:"took_millis"`
	SearchedAt time.Time `json:"searched_at"`
}

// Publisher publishes corpus/index lifecycle events synchronously (retried
// on transient failure) and drains query-log events through a bounded
// buffered channel so slow publishes never block a search request.
type Publisher struct {
	producer *kafka.Producer
	logger   *slog.Logger

	queryCh chan QuerySearched
	done    chan struct{}
}

// NewPublisher creates a Publisher. bufferSize bounds the query-log queue;
// events are dropped (and logged) once it is full rather than blocking
// callers.
func NewPublisher(producer *kafka.Producer, bufferSize int) *Publisher {
	p := &Publisher{
		producer: producer,
		logger:   slog.Default().With("component", "events"),
		queryCh:  make(chan QuerySearched, bufferSize),
		done:     make(chan struct{}),
	}
	go p.drainQueryLog()
	return p
}

// PublishCorpusUpdated publishes a corpus.updated event, retrying transient
// failures since this triggers the indexer's rebuild.
func (p *Publisher) PublishCorpusUpdated(ctx context.Context, evt CorpusUpdated) error {
	return resilience.Retry(ctx, "publish-corpus-updated", resilience.RetryConfig{MaxAttempts: 3, InitialDelay: 100 * time.Millisecond}, func() error {
		return p.producer.Publish(ctx, kafka.Event{Key: evt.InputDir, Value: evt})
	})
}

// PublishIndexBuilt publishes an index.built event, retrying transient
// failures since this triggers the searcher's shard reload.
func (p *Publisher) PublishIndexBuilt(ctx context.Context, evt IndexBuilt) error {
	return resilience.Retry(ctx, "publish-index-built", resilience.RetryConfig{MaxAttempts: 3, InitialDelay: 100 * time.Millisecond}, func() error {
		return p.producer.Publish(ctx, kafka.Event{Key: evt.ShardDir, Value: evt})
	})
}

// LogQuery enqueues a query.searched event for asynchronous, best-effort
// publication. It never blocks the caller: a full buffer drops the event.
func (p *Publisher) LogQuery(evt QuerySearched) {
	select {
	case p.queryCh <- evt:
	default:
		p.logger.Warn("query log buffer full, dropping event", "query", evt.Query)
	}
}

// queryLogBatchSize bounds how many buffered query events drainQueryLog
// collects before flushing them in a single PublishBatch call.
const queryLogBatchSize = 20

// drainQueryLog flushes buffered query events in batches until Close is
// called and the channel is fully drained. It opportunistically grows a
// batch up to queryLogBatchSize by draining whatever is already queued
// without blocking, so a burst of searches costs one Kafka write instead
// of one per query.
func (p *Publisher) drainQueryLog() {
	batch := make([]kafka.Event, 0, queryLogBatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := p.producer.PublishBatch(ctx, batch); err != nil {
			p.logger.Error("failed to publish query log batch", "count", len(batch), "error", err)
		}
		cancel()
		batch = batch[:0]
	}

	for evt := range p.queryCh {
		batch = append(batch, kafka.Event{Key: evt.Query, Value: evt})
	drain:
		for len(batch) < queryLogBatchSize {
			select {
			case evt, ok := <-p.queryCh:
				if !ok {
					break drain
				}
				batch = append(batch, kafka.Event{Key: evt.Query, Value: evt})
			default:
				break drain
			}
		}
		flush()
	}
	close(p.done)
}

// Close stops accepting new query-log events, drains what remains, and
// waits for the drain goroutine to finish.
func (p *Publisher) Close() {
	close(p.queryCh)
	<-p.done
}
