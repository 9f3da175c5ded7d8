// Package searchsvc is the HTTP-facing search service: it reloads shards on
// an index.built notification, runs the normalizer/ranker pipeline behind a
// query cache, and logs query telemetry through the event bus. It is
// grounded on the teacher's searcher request handler for the endpoint
// shape, and on CosineSearchInterface.java's startInteractiveSearch for the
// normalize -> rank -> top-N pipeline itself.
package searchsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/elias-vance/lexishard/internal/corpus"
	"github.com/elias-vance/lexishard/internal/index"
	"github.com/elias-vance/lexishard/internal/normalize"
	"github.com/elias-vance/lexishard/internal/present"
	"github.com/elias-vance/lexishard/internal/querycache"
	"github.com/elias-vance/lexishard/internal/ranker"
	"github.com/elias-vance/lexishard/internal/searchguard"
	"github.com/elias-vance/lexishard/internal/shard"
	apperrors "github.com/elias-vance/lexishard/pkg/errors"
	"github.com/elias-vance/lexishard/pkg/metrics"
	"github.com/elias-vance/lexishard/pkg/tracing"
)

// Service holds the live index and doc table, swapped atomically on
// reload, plus the supporting cache/guard/normalizer.
type Service struct {
	indexDir string
	inputDir string

	mu    sync.RWMutex
	idx   *index.Index
	table *corpus.DocTable

	norm  *normalize.Normalizer
	cache *querycache.Cache
	guard *searchguard.Guard

	defaultLimit int
	maxResults   int

	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Config bundles Service's construction-time dependencies.
type Config struct {
	IndexDir     string
	InputDir     string
	Normalizer   *normalize.Normalizer
	Cache        *querycache.Cache
	Guard        *searchguard.Guard
	DefaultLimit int
	MaxResults   int
	Metrics      *metrics.Metrics
}

// New creates a Service and performs the initial shard/doc-table load.
func New(cfg Config) (*Service, error) {
	s := &Service{
		indexDir:     cfg.IndexDir,
		inputDir:     cfg.InputDir,
		norm:         cfg.Normalizer,
		cache:        cfg.Cache,
		guard:        cfg.Guard,
		defaultLimit: cfg.DefaultLimit,
		maxResults:   cfg.MaxResults,
		metrics:      cfg.Metrics,
		logger:       slog.Default().With("component", "searchsvc"),
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads shard-*.txt from indexDir and rebuilds the doc table from
// inputDir, swapping both in atomically. Called at startup and again on
// every index.built event.
func (s *Service) Reload() error {
	idx, err := shard.Read(s.indexDir)
	if err != nil {
		return fmt.Errorf("searchsvc: loading shards: %w", err)
	}
	table, err := corpus.Build(s.inputDir)
	if err != nil {
		return fmt.Errorf("searchsvc: loading doc table: %w", err)
	}

	s.mu.Lock()
	s.idx, s.table = idx, table
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.Invalidate(context.Background()); err != nil {
			s.logger.Warn("cache invalidation after reload failed", "error", err)
		}
	}
	s.logger.Info("index reloaded", "terms", idx.Len(), "documents", table.Len())
	return nil
}

func (s *Service) snapshot() (*index.Index, *corpus.DocTable) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idx, s.table
}

// Stats reports the live shard set's size, for health checks and operator
// tooling that shouldn't need to reach into Service internals.
func (s *Service) Stats() (terms, documents int) {
	idx, table := s.snapshot()
	return idx.Len(), table.Len()
}

// Search normalizes rawQuery, ranks it against the current index, and
// returns the top results, using the query cache when available.
func (s *Service) Search(ctx context.Context, rawQuery string, limit int) ([]present.Line, error) {
	ctx, span := tracing.StartChildSpan(ctx, "search")
	defer span.Log()
	defer span.End()

	if limit <= 0 {
		limit = s.defaultLimit
	}
	if s.maxResults > 0 && limit > s.maxResults {
		limit = s.maxResults
	}

	start := time.Now()
	terms := s.norm.Line(rawQuery)
	span.SetAttr("query_terms", len(terms))
	if len(terms) == 0 {
		s.recordQuery("empty_query", "n/a", start, 0)
		return nil, nil
	}

	idx, table := s.snapshot()

	compute := func() ([]ranker.ScoredDoc, error) {
		return ranker.Rank(idx, table.Len(), terms, limit), nil
	}

	var ranked []ranker.ScoredDoc
	var err error
	cacheStatus := "disabled"
	if s.cache != nil {
		key := querycache.Key(terms, limit)
		var hit bool
		ranked, hit, err = s.cache.GetOrCompute(ctx, key, compute)
		if hit {
			cacheStatus = "hit"
		} else {
			cacheStatus = "miss"
		}
	} else {
		ranked, err = compute()
	}
	if err != nil {
		s.recordQuery("error", cacheStatus, start, 0)
		return nil, err
	}

	resultType := "hit"
	if len(ranked) == 0 {
		resultType = "zero_result"
	}
	s.recordQuery(resultType, cacheStatus, start, len(ranked))

	return present.Top(ranked, table, limit), nil
}

// recordQuery mirrors one completed Search call into the search_queries_total,
// search_latency_seconds, and search_results_count collectors, when metrics
// are configured.
func (s *Service) recordQuery(resultType, cacheStatus string, start time.Time, resultCount int) {
	if s.metrics == nil {
		return
	}
	s.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	s.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(time.Since(start).Seconds())
	s.metrics.SearchResultsCount.WithLabelValues().Observe(float64(resultCount))
}

// HTTPHandler returns the GET /search endpoint: validates the API key via
// Guard (if configured), runs Search, and writes a JSON array of results.
func (s *Service) HTTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var keyInfo *searchguard.KeyInfo
		if s.guard != nil {
			info, err := s.guard.Check(r.Context(), r.Header.Get("X-API-Key"))
			if err != nil {
				writeError(w, err)
				return
			}
			keyInfo = info
		}

		q := r.URL.Query().Get("q")
		if q == "" {
			writeError(w, apperrors.New(apperrors.ErrInvalidInput, 400, "missing query parameter q"))
			return
		}
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				limit = n
			}
		}
		if keyInfo != nil && keyInfo.MaxResults > 0 && (limit <= 0 || limit > keyInfo.MaxResults) {
			limit = keyInfo.MaxResults
		}

		start := time.Now()
		lines, err := s.Search(r.Context(), q, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		s.logger.Debug("search served", "query", q, "results", len(lines), "took", time.Since(start))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(lines)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
