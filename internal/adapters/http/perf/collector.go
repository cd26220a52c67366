package perf

import (
	"cmp"
	"math"
	"slices"
	"sync"
	"time"
)

// DefaultRingSize is the default number of entries kept.
const DefaultRingSize = 4096

// EntryKind distinguishes HTTP requests from database statements.
type EntryKind uint8

const (
	KindRequest EntryKind = iota
	KindQuery
)

// Entry is one timing sample.
type Entry struct {
	Kind       EntryKind
	Path       string // "GET /api/courses" or "SELECT course"
	StatusCode int    // 0 for queries
	DurationMs float64
	Timestamp  time.Time
}

// Collector keeps the most recent entries in a fixed ring. Aggregation happens on Snapshot.
type Collector struct {
	mu      sync.Mutex
	ring    []Entry
	next    int
	written int64
}

// NewCollector creates a collector holding up to size entries.
// PRE: none
// POST: a non-positive size uses DefaultRingSize
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Collector{ring: make([]Entry, size)}
}

// Record stores e, overwriting the oldest entry when full.
func (c *Collector) Record(e Entry) {
	c.mu.Lock()
	c.ring[c.next] = e
	c.next = (c.next + 1) % len(c.ring)
	c.written++
	c.mu.Unlock()
}

// TotalRecorded returns how many entries were ever recorded.
func (c *Collector) TotalRecorded() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.written
}

// PathStat aggregates one request path or statement label.
type PathStat struct {
	Path  string  `json:"path"`
	Count int     `json:"count"`
	AvgMs float64 `json:"avgMs"`
	MaxMs float64 `json:"maxMs"`
}

// Snapshot is the aggregated view served by the perf endpoint.
type Snapshot struct {
	TotalRecorded  int64      `json:"totalRecorded"`
	Requests       int        `json:"requests"`
	ServerErrors   int        `json:"serverErrors"`
	RequestP50Ms   float64    `json:"requestP50Ms"`
	RequestP95Ms   float64    `json:"requestP95Ms"`
	RequestP99Ms   float64    `json:"requestP99Ms"`
	QueryP95Ms     float64    `json:"queryP95Ms"`
	SlowestPaths   []PathStat `json:"slowestPaths"`
	SlowestQueries []PathStat `json:"slowestQueries"`
}

// Snapshot aggregates entries recorded at or after since, listing the topN slowest of each kind.
// PRE: topN >= 0
// POST: the ring is not modified
func (c *Collector) Snapshot(since time.Time, topN int) Snapshot {
	c.mu.Lock()
	buf := slices.Clone(c.ring)
	total := c.written
	c.mu.Unlock()

	var reqs, queries group
	snap := Snapshot{TotalRecorded: total}
	for _, e := range buf {
		if e.Timestamp.IsZero() || e.Timestamp.Before(since) {
			continue
		}
		switch e.Kind {
		case KindRequest:
			reqs.add(e)
			if e.StatusCode >= 500 {
				snap.ServerErrors++
			}
		case KindQuery:
			queries.add(e)
		}
	}

	snap.Requests = len(reqs.durations)
	snap.RequestP50Ms = reqs.percentile(50)
	snap.RequestP95Ms = reqs.percentile(95)
	snap.RequestP99Ms = reqs.percentile(99)
	snap.QueryP95Ms = queries.percentile(95)
	snap.SlowestPaths = reqs.slowest(topN)
	snap.SlowestQueries = queries.slowest(topN)
	return snap
}

// group accumulates samples of one kind.
type group struct {
	durations []float64
	byPath    map[string]*PathStat
	sorted    bool
}

func (g *group) add(e Entry) {
	if g.byPath == nil {
		g.byPath = make(map[string]*PathStat)
	}
	g.durations = append(g.durations, e.DurationMs)
	g.sorted = false
	s, ok := g.byPath[e.Path]
	if !ok {
		s = &PathStat{Path: e.Path}
		g.byPath[e.Path] = s
	}
	// AvgMs holds the running total until slowest divides it.
	s.AvgMs += e.DurationMs
	s.Count++
	s.MaxMs = max(s.MaxMs, e.DurationMs)
}

// percentile interpolates linearly between the closest ranks.
func (g *group) percentile(p float64) float64 {
	n := len(g.durations)
	if n == 0 {
		return 0
	}
	if !g.sorted {
		slices.Sort(g.durations)
		g.sorted = true
	}
	idx := p / 100 * float64(n-1)
	lo, hi := int(math.Floor(idx)), int(math.Ceil(idx))
	if lo == hi {
		return g.durations[lo]
	}
	frac := idx - float64(lo)
	return g.durations[lo]*(1-frac) + g.durations[hi]*frac
}

func (g *group) slowest(n int) []PathStat {
	list := make([]PathStat, 0, len(g.byPath))
	for _, s := range g.byPath {
		st := *s
		st.AvgMs /= float64(st.Count)
		list = append(list, st)
	}
	slices.SortFunc(list, func(a, b PathStat) int {
		if c := cmp.Compare(b.AvgMs, a.AvgMs); c != 0 {
			return c
		}
		return cmp.Compare(a.Path, b.Path)
	})
	if len(list) > n {
		list = list[:n]
	}
	return list
}
