package view

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/archlens/targetview/internal/layout"
	"github.com/archlens/targetview/internal/types"
)

// ErrSuperseded is returned by Recompute when a newer request started before
// this one finished. The result is still returned but was not published.
var ErrSuperseded = errors.New("recompute superseded by a newer request")

// Query is one Target View selection
type Query struct {
	PrimaryLens   types.LensKey
	SecondaryLens types.LensKey
	FilterItemID  string
	Rollup        types.RollupSpec
	Display       layout.DisplayOptions
	Metrics       layout.Metrics
}

// Validate checks the parts of the query that are caller mistakes rather
// than data conditions. Unknown lenses are not an error; they yield an empty
// view.
func (q Query) Validate() error {
	if q.PrimaryLens == "" || q.SecondaryLens == "" {
		return fmt.Errorf("primary and secondary lens are required")
	}
	if err := q.Rollup.Validate(); err != nil {
		return fmt.Errorf("invalid rollup: %w", err)
	}
	if err := q.Display.Validate(); err != nil {
		return fmt.Errorf("invalid display options: %w", err)
	}
	return nil
}

// Result is the published output of one recomputation
type Result struct {
	RequestID      string
	Generation     uint64
	Query          Query
	Classification []types.ClassificationResult
	Geometry       *layout.Geometry
	ComputedAt     time.Time
	Duration       time.Duration
}

// Outcome records what happened to a recompute request
type Outcome string

const (
	OutcomePublished  Outcome = "published"
	OutcomeSuperseded Outcome = "superseded"
	OutcomeCanceled   Outcome = "canceled"
)

// Record is the history entry for one recompute request
type Record struct {
	RequestID  string
	Generation uint64
	StartTime  time.Time
	EndTime    time.Time
	Primary    types.LensKey
	Secondary  types.LensKey
	Results    int
	Boxes      int
	Outcome    Outcome
}

// EngineConfig holds engine configuration
type EngineConfig struct {
	// HistorySize is the number of recent records to keep
	// Default: 50
	HistorySize int
	// Debug logs every stage of every recompute
	// Default: TV_DEBUG_VIEW set
	Debug bool
}

// DefaultEngineConfig returns the default engine configuration
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		HistorySize: 50,
		Debug:       os.Getenv("TV_DEBUG_VIEW") != "",
	}
}

// Engine runs full recomputations and publishes only the newest one. Callers
// may invoke Recompute concurrently; the engine never blocks one computation
// on another, it only discards results that finish after a newer request
// has started.
type Engine struct {
	mu sync.RWMutex

	generation uint64
	latest     *Result

	// history is a sliding window of recent requests (bounded by historySize)
	history     []Record
	historySize int
	debug       bool

	// beforePublish runs after computing and before the generation check
	beforePublish func(gen uint64)
}

// NewEngine creates an engine
func NewEngine(cfg *EngineConfig) *Engine {
	if cfg == nil {
		cfg = DefaultEngineConfig()
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 50
	}
	return &Engine{
		history:     make([]Record, 0, cfg.HistorySize),
		historySize: cfg.HistorySize,
		debug:       cfg.Debug,
	}
}

// Recompute builds the full Target View for q from snapshot. It returns
// ErrSuperseded together with the result when a newer request started while
// this one was running, and the context error if ctx ends between stages.
func (e *Engine) Recompute(ctx context.Context, snapshot types.Snapshot, q Query) (*Result, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	gen := e.next()
	rec := Record{
		RequestID:  uuid.New().String(),
		Generation: gen,
		StartTime:  time.Now(),
		Primary:    q.PrimaryLens,
		Secondary:  q.SecondaryLens,
	}
	e.debugf("recompute %s (gen %d): %s x %s filter=%q rollup=%s", rec.RequestID, gen, q.PrimaryLens, q.SecondaryLens, q.FilterItemID, q.Rollup.Mode)

	v := New(snapshot)
	if n := v.DroppedRelationships(); n > 0 {
		log.Printf("[WARN] view: %d relationship(s) reference unknown items and were skipped", n)
	}
	if err := ctx.Err(); err != nil {
		return nil, e.cancel(rec, err)
	}

	results := v.Classify(q.PrimaryLens, q.SecondaryLens, q.FilterItemID)
	e.debugf("recompute %s: classified %d primary item(s)", rec.RequestID, len(results))
	if err := ctx.Err(); err != nil {
		return nil, e.cancel(rec, err)
	}

	if q.Rollup.Mode != types.RollupNone {
		results = v.Aggregate(results, q.Rollup)
		e.debugf("recompute %s: aggregated by %s", rec.RequestID, q.Rollup.Mode)
		if err := ctx.Err(); err != nil {
			return nil, e.cancel(rec, err)
		}
	}

	geo := v.Project(results, v.titled(q), q.Metrics)
	rec.EndTime = time.Now()
	rec.Results = len(results)
	rec.Boxes = geo.BoxCount()

	res := &Result{
		RequestID:      rec.RequestID,
		Generation:     gen,
		Query:          q,
		Classification: results,
		Geometry:       geo,
		ComputedAt:     rec.EndTime,
		Duration:       rec.EndTime.Sub(rec.StartTime),
	}

	if e.beforePublish != nil {
		e.beforePublish(gen)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.generation {
		rec.Outcome = OutcomeSuperseded
		e.record(rec)
		e.debugf("recompute %s: superseded by gen %d", rec.RequestID, e.generation)
		return res, ErrSuperseded
	}
	rec.Outcome = OutcomePublished
	e.record(rec)
	e.latest = res
	e.debugf("recompute %s: published %d box(es) in %s", rec.RequestID, rec.Boxes, res.Duration)
	return res, nil
}

// Latest returns the most recently published result, or nil
func (e *Engine) Latest() *Result {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.latest
}

// Generation returns the number of the newest request started
func (e *Engine) Generation() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.generation
}

// History returns a copy of the recent request records, oldest first
func (e *Engine) History() []Record {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Record, len(e.history))
	copy(out, e.history)
	return out
}

func (e *Engine) next() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.generation++
	return e.generation
}

func (e *Engine) cancel(rec Record, err error) error {
	rec.EndTime = time.Now()
	rec.Outcome = OutcomeCanceled
	e.mu.Lock()
	e.record(rec)
	e.mu.Unlock()
	e.debugf("recompute %s: canceled: %v", rec.RequestID, err)
	return fmt.Errorf("recompute canceled: %w", err)
}

// record appends to the history window; caller holds e.mu
func (e *Engine) record(rec Record) {
	if len(e.history) >= e.historySize {
		e.history = e.history[1:]
	}
	e.history = append(e.history, rec)
}

func (e *Engine) debugf(format string, args ...interface{}) {
	if e.debug {
		log.Printf("[DEBUG] view: "+format, args...)
	}
}
