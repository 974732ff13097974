// Package service provides the premium estimation service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/premium/internal/adapters/cache"
	"github.com/okian/premium/internal/adapters/mq/queue"
	"github.com/okian/premium/internal/adapters/mq/worker"
	"github.com/okian/premium/internal/domain/artifact"
	"github.com/okian/premium/internal/domain/engine"
	"github.com/okian/premium/internal/domain/model"
	"github.com/okian/premium/internal/domain/profile"
	"github.com/okian/premium/pkg/logger"
	"github.com/okian/premium/pkg/metrics"
)

// Default service configuration.
const (
	defaultCacheSize    = 50000
	defaultQueueSize    = 10000
	defaultMaxBatchSize = 1000
	redisDialTimeout    = 2 * time.Second
	poolStopTimeout     = 10 * time.Second
)

// Service runs premium predictions with caching and batch fan-out.
type Service struct {
	mu sync.RWMutex
	// admit serializes batch admission so a batch is enqueued whole or not at all.
	admit sync.Mutex

	// Core components
	art    *artifact.ModelArtifact
	engine *engine.Engine
	cache  cache.Cache
	redis  *cache.Redis
	queue  *queue.InMemoryQueue
	pool   *worker.Pool
	cancel context.CancelFunc

	// Configuration
	artifactPath string
	floor        float64
	precision    int
	cacheSize    int
	customCache  bool
	redisAddr    string
	redisPrefix  string
	redisTTL     time.Duration
	workerCount  int
	queueSize    int
	maxBatchSize int

	// State
	started   bool
	startedAt time.Time

	// Counters
	predictions atomic.Int64
	cacheHits   atomic.Int64
	invalid     atomic.Int64
	batches     atomic.Int64

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		cacheSize:    defaultCacheSize,
		workerCount:  runtime.NumCPU() * 2, // Default to 2x CPU cores
		queueSize:    defaultQueueSize,
		maxBatchSize: defaultMaxBatchSize,
	}

	for _, opt := range opts {
		opt(s)
	}
	s.customCache = s.cache != nil

	return s
}

// Start loads the artifact, builds the engine and starts the batch workers.
// Artifact and model shape errors abort startup.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting premium service...")

	art, err := s.loadArtifact(ctx)
	if err != nil {
		metrics.SetEngineReady(false)
		return err
	}

	eng, err := engine.New(art, engine.WithFloor(s.floor), engine.WithPrecision(s.precision))
	if err != nil {
		metrics.SetEngineReady(false)
		metrics.RecordErrorByComponent("engine", "self_check")
		return fmt.Errorf("build engine for artifact %s: %w", art.Version, err)
	}
	s.art = art
	s.engine = eng

	if !s.customCache {
		s.cache = s.buildCache(ctx)
	}

	s.queue = queue.NewInMemoryQueue(
		queue.WithCapacity(s.queueSize),
		queue.WithBufferSize(s.queueSize),
	)
	poolCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.pool = worker.NewPool(s.workerCount, s.queue, &pipeline{svc: s, engine: eng, cache: s.cache}, worker.WithLogger(s.logger))
	s.pool.Start(poolCtx)

	s.started = true
	s.startedAt = time.Now()
	metrics.SetArtifactInfo(art.Version, art.Model.Link)
	metrics.SetEngineReady(true)

	s.logger.Info(ctx, "premium service started",
		logger.String("artifact", art.Version),
		logger.String("link", art.Model.Link),
		logger.Int("columns", len(eng.Columns())),
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("cacheSize", s.cacheSize),
		logger.Bool("redis", s.redis != nil),
	)

	return nil
}

func (s *Service) loadArtifact(ctx context.Context) (*artifact.ModelArtifact, error) {
	switch {
	case s.art != nil:
		if err := s.art.Validate(); err != nil {
			return nil, err
		}
		return s.art, nil
	case s.artifactPath != "":
		s.logger.Info(ctx, "loading artifact", logger.String("path", s.artifactPath))
		return artifact.Load(ctx, s.artifactPath)
	default:
		s.logger.Info(ctx, "using embedded default artifact")
		return artifact.Default(ctx)
	}
}

// buildCache assembles the LRU tier and, when configured, the Redis tier.
// An unreachable Redis is logged and skipped.
func (s *Service) buildCache(ctx context.Context) cache.Cache {
	local := cache.NewLRU(s.cacheSize)
	if s.redisAddr == "" {
		return local
	}

	dialCtx, cancel := context.WithTimeout(ctx, redisDialTimeout)
	defer cancel()
	opts := []cache.RedisOption{cache.WithLogger(s.logger)}
	if s.redisPrefix != "" {
		opts = append(opts, cache.WithPrefix(s.redisPrefix))
	}
	if s.redisTTL > 0 {
		opts = append(opts, cache.WithTTL(s.redisTTL))
	}
	r, err := cache.Dial(dialCtx, s.redisAddr, opts...)
	if err != nil {
		s.logger.Warn(ctx, "redis cache disabled", logger.String("addr", s.redisAddr), logger.Error(err))
		metrics.RecordCacheError(cache.TierRedis)
		return local
	}
	s.redis = r
	return cache.NewTiered(local, r)
}

// Stop drains the batch workers and releases the cache.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping premium service...")

	if s.pool != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, poolStopTimeout)
		if err := s.pool.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
		}
		cancel()
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Warn(ctx, "closing redis", logger.Error(err))
		}
		s.redis = nil
	}

	s.started = false
	metrics.SetEngineReady(false)
	s.logger.Info(ctx, "premium service stopped")
}

// Ready reports whether predictions can be served.
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// snapshot returns the components a prediction needs.
func (s *Service) snapshot() (*engine.Engine, cache.Cache, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, ErrNotStarted
	}
	return s.engine, s.cache, nil
}

// Predict validates raw and returns a premium quote. Repeated profiles are
// served from the cache with an identical premium.
func (s *Service) Predict(ctx context.Context, raw map[string]any) (model.Quote, error) {
	eng, c, err := s.snapshot()
	if err != nil {
		return model.Quote{}, err
	}
	est, cached, err := s.estimate(ctx, eng, c, raw)
	if err != nil {
		return model.Quote{}, err
	}
	return model.NewQuote(est, eng.Currency(), eng.Version(), cached), nil
}

// pipeline binds the cached prediction path to the components built at Start.
// Workers use it so draining the queue never waits on the service lock.
type pipeline struct {
	svc    *Service
	engine *engine.Engine
	cache  cache.Cache
}

// Estimate implements worker.Predictor.
func (p *pipeline) Estimate(ctx context.Context, raw map[string]any) (model.Estimate, error) {
	est, _, err := p.svc.estimate(ctx, p.engine, p.cache, raw)
	return est, err
}

func (s *Service) estimate(ctx context.Context, eng *engine.Engine, c cache.Cache, raw map[string]any) (model.Estimate, bool, error) {
	start := time.Now()
	defer func() {
		metrics.RecordPredictionLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()
	s.predictions.Add(1)

	p, err := profile.Validate(raw)
	if err != nil {
		s.recordInvalid(ctx, err)
		return model.Estimate{}, false, err
	}

	key := cache.Key(eng.Version(), p)
	if est, ok := c.Get(ctx, key); ok {
		// Entries may come from a replica with another floor or precision.
		est.Premium, est.Clamped = eng.Format(est.Raw)
		s.cacheHits.Add(1)
		metrics.RecordPrediction(metrics.OutcomeOK)
		return est, true, nil
	}

	b, err := eng.EvaluateProfile(p)
	if err != nil {
		metrics.RecordPrediction(metrics.OutcomeModelError)
		metrics.RecordErrorByComponent("engine", "model_shape")
		metrics.RecordErrorLatency("engine", "model_shape", float64(time.Since(start).Microseconds())/1000)
		s.logger.Error(ctx, "prediction failed",
			logger.String("artifact", eng.Version()),
			logger.Error(err),
		)
		return model.Estimate{}, false, err
	}

	est := model.Estimate{Premium: b.Premium, Raw: b.Raw, Clamped: b.Clamped}
	c.Set(ctx, key, est)
	metrics.RecordPrediction(metrics.OutcomeOK)
	metrics.RecordPremium(est.Premium, est.Clamped)
	if est.Clamped {
		s.logger.Debug(ctx, "premium clamped to floor",
			logger.Float64("raw", est.Raw),
			logger.Float64("premium", est.Premium),
		)
	}
	return est, false, nil
}

func (s *Service) recordInvalid(ctx context.Context, err error) {
	s.invalid.Add(1)
	metrics.RecordPrediction(metrics.OutcomeInvalid)
	var verr *profile.ValidationError
	if errors.As(err, &verr) {
		metrics.RecordValidationError(verr.Field)
	}
	s.logger.Debug(ctx, "profile rejected", logger.Error(err))
}

// Explain returns the full, uncached breakdown of one prediction.
func (s *Service) Explain(ctx context.Context, raw map[string]any) (engine.Breakdown, error) {
	eng, _, err := s.snapshot()
	if err != nil {
		return engine.Breakdown{}, err
	}
	b, err := eng.Evaluate(raw)
	if err != nil {
		if errors.Is(err, profile.ErrValidation) {
			s.recordInvalid(ctx, err)
		} else {
			s.logger.Error(ctx, "explain failed", logger.Error(err))
		}
		return engine.Breakdown{}, err
	}
	return b, nil
}

// PredictBatch estimates every profile through the worker pool. Invalid
// profiles are reported per item and do not fail the batch.
func (s *Service) PredictBatch(ctx context.Context, raws []map[string]any) ([]model.BatchItem, error) {
	s.mu.RLock()
	started, q, maxSize := s.started, s.queue, s.maxBatchSize
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}

	if len(raws) > maxSize {
		metrics.RecordBatchRejected("too_large")
		return nil, fmt.Errorf("%w: %d profiles, limit %d", ErrBatchTooLarge, len(raws), maxSize)
	}
	metrics.RecordBatchSize(len(raws))
	s.batches.Add(1)
	items := make([]model.BatchItem, len(raws))
	if len(raws) == 0 {
		return items, nil
	}

	reply := make(chan queue.Result, len(raws))
	if err := s.enqueueBatch(ctx, q, raws, reply); err != nil {
		return nil, err
	}

	for range raws {
		select {
		case r := <-reply:
			items[r.Index] = batchItem(r)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return items, nil
}

// enqueueBatch admits every profile or none. Only batches enqueue and workers
// only drain, so free capacity seen under admit cannot shrink before the loop
// ends. A partial enqueue means cancellation or shutdown; the jobs already
// queued still reply into the buffered channel.
func (s *Service) enqueueBatch(ctx context.Context, q *queue.InMemoryQueue, raws []map[string]any, reply chan<- queue.Result) error {
	s.admit.Lock()
	defer s.admit.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if free := q.Capacity() - q.Len(ctx); free < len(raws) {
		metrics.RecordBatchRejected("backpressure")
		return ErrBackpressure
	}
	for i, raw := range raws {
		if q.Enqueue(ctx, queue.Job{Index: i, Raw: raw, Reply: reply}) {
			continue
		}
		metrics.RecordBatchRejected("interrupted")
		if err := ctx.Err(); err != nil {
			return err
		}
		return ErrNotStarted
	}
	return nil
}

func batchItem(r queue.Result) model.BatchItem {
	item := model.BatchItem{Index: r.Index}
	if r.Err != nil {
		item.Error = r.Err.Error()
		var verr *profile.ValidationError
		if errors.As(r.Err, &verr) {
			item.Field = verr.Field
			item.Error = verr.Reason
		}
		return item
	}
	premium := r.Estimate.Premium
	item.Premium = &premium
	return item
}

// Schema returns the declared profile fields.
func (s *Service) Schema() []profile.FieldSpec {
	return profile.Fields()
}

// ModelInfo describes the loaded artifact.
func (s *Service) ModelInfo() (model.ModelInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return model.ModelInfo{}, ErrNotStarted
	}
	return model.ModelInfo{
		Version:     s.art.Version,
		Description: s.art.Description,
		Currency:    s.engine.Currency(),
		Link:        s.art.Model.Link,
		Columns:     s.engine.Columns(),
		Parameters:  len(s.art.Model.Weights) + 1,
		Floor:       s.engine.Floor(),
		Precision:   s.engine.Precision(),
	}, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":      s.started,
		"workerCount":  s.workerCount,
		"queueSize":    s.queueSize,
		"cacheSize":    s.cacheSize,
		"maxBatchSize": s.maxBatchSize,
		"predictions":  s.predictions.Load(),
		"cacheHits":    s.cacheHits.Load(),
		"invalid":      s.invalid.Load(),
		"batches":      s.batches.Load(),
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["artifactVersion"] = s.art.Version
		stats["uptimeSeconds"] = time.Since(s.startedAt).Seconds()
		stats["queueLength"] = queueLen
		stats["cacheEntries"] = s.cache.Len(ctx)
		stats["processed"] = s.pool.Processed()
		stats["redis"] = s.redis != nil

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.pool.Size())
	}

	return stats
}
