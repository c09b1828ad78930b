package perf

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultRingSize is the default capacity of the ring buffer.
const DefaultRingSize = 10000

// EntryKind distinguishes what was timed.
type EntryKind uint8

const (
	KindRequest EntryKind = iota // inbound HTTP request
	KindQuery                    // local SQLite statement
	KindRemote                   // call to the record backend
	kindCount
)

// Entry is a single timing record stored in the ring buffer.
type Entry struct {
	Kind       EntryKind
	Path       string // "GET /admin", "SELECT message", "GET Sessions"
	StatusCode int    // HTTP status; 0 for queries and transport failures
	Failed     bool
	DurationMs float64
	Timestamp  time.Time
}

// Collector is a fixed-size ring buffer for timing entries.
// When full, the oldest entries are overwritten. Aggregation happens only
// in Snapshot.
type Collector struct {
	mu      sync.Mutex
	entries []Entry
	pos     int
	count   atomic.Int64
}

// NewCollector creates a collector with the given ring buffer capacity.
// PRE: none
// POST: Returns a ready collector; size <= 0 uses DefaultRingSize
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Collector{entries: make([]Entry, size)}
}

// Record appends an entry, overwriting the oldest when full.
// Safe on a nil collector.
func (c *Collector) Record(e Entry) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries[c.pos] = e
	c.pos = (c.pos + 1) % len(c.entries)
	c.mu.Unlock()
	c.count.Add(1)
}

// TotalRecorded returns the number of entries ever recorded.
func (c *Collector) TotalRecorded() int64 {
	if c == nil {
		return 0
	}
	return c.count.Load()
}

// PathStat aggregates timing for one path, statement or remote operation.
type PathStat struct {
	Path     string
	Count    int
	Failures int
	AvgMs    float64
	MaxMs    float64
	TotalMs  float64
}

// Snapshot holds aggregated performance data.
type Snapshot struct {
	TotalRecorded  int64
	RequestP50Ms   float64
	RequestP95Ms   float64
	RequestP99Ms   float64
	RemoteP95Ms    float64
	SlowestPaths   []PathStat
	SlowestQueries []PathStat
	RemoteCalls    []PathStat
}

// Snapshot aggregates entries recorded at or after since, keeping the topN
// slowest of each kind.
// PRE: topN > 0
// POST: Returns percentiles and top-N lists; the buffer is not modified
func (c *Collector) Snapshot(since time.Time, topN int) Snapshot {
	c.mu.Lock()
	buf := make([]Entry, len(c.entries))
	copy(buf, c.entries)
	c.mu.Unlock()

	var stats [kindCount]map[string]*PathStat
	var durations [kindCount][]float64
	for k := range stats {
		stats[k] = make(map[string]*PathStat)
	}

	for _, e := range buf {
		if e.Timestamp.IsZero() || e.Timestamp.Before(since) || e.Kind >= kindCount {
			continue
		}
		durations[e.Kind] = append(durations[e.Kind], e.DurationMs)
		s, ok := stats[e.Kind][e.Path]
		if !ok {
			s = &PathStat{Path: e.Path}
			stats[e.Kind][e.Path] = s
		}
		s.Count++
		s.TotalMs += e.DurationMs
		s.MaxMs = math.Max(s.MaxMs, e.DurationMs)
		if e.Failed {
			s.Failures++
		}
	}

	reqs := sorted(durations[KindRequest])
	return Snapshot{
		TotalRecorded:  c.TotalRecorded(),
		RequestP50Ms:   percentile(reqs, 50),
		RequestP95Ms:   percentile(reqs, 95),
		RequestP99Ms:   percentile(reqs, 99),
		RemoteP95Ms:    percentile(sorted(durations[KindRemote]), 95),
		SlowestPaths:   topByAvg(stats[KindRequest], topN),
		SlowestQueries: topByAvg(stats[KindQuery], topN),
		RemoteCalls:    topByAvg(stats[KindRemote], topN),
	}
}

func sorted(v []float64) []float64 {
	sort.Float64s(v)
	return v
}

// percentile interpolates the p-th percentile of a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (p / 100) * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))
	if lower == upper || upper >= len(sorted) {
		return sorted[lower]
	}
	frac := idx - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

// topByAvg returns the n paths with the highest average duration.
func topByAvg(stats map[string]*PathStat, n int) []PathStat {
	list := make([]PathStat, 0, len(stats))
	for _, s := range stats {
		s.AvgMs = s.TotalMs / float64(s.Count)
		list = append(list, *s)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].AvgMs == list[j].AvgMs {
			return list[i].Path < list[j].Path
		}
		return list[i].AvgMs > list[j].AvgMs
	})
	if n > 0 && len(list) > n {
		list = list[:n]
	}
	return list
}
