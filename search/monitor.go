package search

import (
	"encoding/json"
	"math"
	"sync"
	"time"

	"github.com/poiesic/skumatch/core"
)

// SearchMonitor provides hooks to observe the suggestion process.
// Implement this interface to track intermediate steps and results.
type SearchMonitor interface {
	Start(requirements []string)
	AfterEmbedding(embedded, failed int)
	AfterVectorSearch(matches [][]core.VectorMatch)
	AfterHistoryLookup(requirement string, frequencies map[string]int)
	AfterRanking(requirement string, ranked []*core.CandidateScore)
	AfterEnrichment(skus []string)
	Finish(results [][]*core.Suggestion)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ []string)                                {}
func (n *noopMonitor) AfterEmbedding(_, _ int)                         {}
func (n *noopMonitor) AfterVectorSearch(_ [][]core.VectorMatch)        {}
func (n *noopMonitor) AfterHistoryLookup(_ string, _ map[string]int)   {}
func (n *noopMonitor) AfterRanking(_ string, _ []*core.CandidateScore) {}
func (n *noopMonitor) AfterEnrichment(_ []string)                      {}
func (n *noopMonitor) Finish(_ [][]*core.Suggestion)                   {}

// Timing stage names.
const (
	StageEmbeddings   = "embeddings_api"
	StageVectorSearch = "vector_search"
	StageHistory      = "history"
	StageRanking      = "ranking"
	StageEnrichment   = "batch_db"
)

// TimingReport is the per-stage breakdown of one Suggest call, in
// milliseconds rounded to one decimal.
type TimingReport struct {
	Steps      map[string]float64 `json:"steps"`
	TotalMS    float64            `json:"total_ms"`
	ItemsCount int                `json:"items_count"`
}

// TimingMonitor records how long each stage of a Suggest call took.
// Use a fresh monitor per call.
type TimingMonitor struct {
	mu    sync.Mutex
	start time.Time
	last  time.Time
	items int
	steps map[string]time.Duration
	total time.Duration
	now   func() time.Time
}

var _ SearchMonitor = (*TimingMonitor)(nil)

// NewTimingMonitor creates a TimingMonitor.
func NewTimingMonitor() *TimingMonitor {
	return &TimingMonitor{
		steps: make(map[string]time.Duration),
		now:   time.Now,
	}
}

func (m *TimingMonitor) mark(stage string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.steps[stage] += now.Sub(m.last)
	m.last = now
}

func (m *TimingMonitor) Start(requirements []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.start = m.now()
	m.last = m.start
	m.items = len(requirements)
}

func (m *TimingMonitor) AfterEmbedding(_, _ int)                         { m.mark(StageEmbeddings) }
func (m *TimingMonitor) AfterVectorSearch(_ [][]core.VectorMatch)        { m.mark(StageVectorSearch) }
func (m *TimingMonitor) AfterHistoryLookup(_ string, _ map[string]int)   { m.mark(StageHistory) }
func (m *TimingMonitor) AfterRanking(_ string, _ []*core.CandidateScore) { m.mark(StageRanking) }
func (m *TimingMonitor) AfterEnrichment(_ []string)                      { m.mark(StageEnrichment) }

func (m *TimingMonitor) Finish(_ [][]*core.Suggestion) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total = m.now().Sub(m.start)
}

// Report returns the recorded timings.
func (m *TimingMonitor) Report() TimingReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	steps := make(map[string]float64, len(m.steps))
	for stage, d := range m.steps {
		steps[stage] = roundMillis(d)
	}
	return TimingReport{
		Steps:      steps,
		TotalMS:    roundMillis(m.total),
		ItemsCount: m.items,
	}
}

// Header returns the report as a compact JSON document, suitable for a
// response header.
func (m *TimingMonitor) Header() string {
	data, err := json.Marshal(m.Report())
	if err != nil {
		return "{}"
	}
	return string(data)
}

func roundMillis(d time.Duration) float64 {
	return math.Round(float64(d)/float64(time.Millisecond)*10) / 10
}
