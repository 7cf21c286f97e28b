package game

import (
	"sync"

	"arena/internal/game/spatial"
)

// DamageMeter ranks damage sources for the current fight. Updates and
// rank queries are O(log n); safe for concurrent use.
type DamageMeter struct {
	list *spatial.SkipList

	mu   sync.RWMutex
	hits map[string]int
}

// MeterEntry is one ranked source.
type MeterEntry struct {
	SourceID string `json:"sourceId"`
	Damage   int    `json:"damage"`
	Hits     int    `json:"hits"`
	Rank     int    `json:"rank"`
}

// NewDamageMeter creates an empty meter.
func NewDamageMeter() *DamageMeter {
	return &DamageMeter{
		list: spatial.NewSkipList(),
		hits: make(map[string]int),
	}
}

// Record adds one hit of damage for sourceID.
func (m *DamageMeter) Record(sourceID string, damage int) {
	if sourceID == "" || damage < 0 {
		return
	}
	m.list.IncrBy(sourceID, float64(damage))
	m.mu.Lock()
	m.hits[sourceID]++
	m.mu.Unlock()
}

func (m *DamageMeter) entries(list []spatial.SkipListEntry, firstRank int) []MeterEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]MeterEntry, len(list))
	for i, e := range list {
		out[i] = MeterEntry{
			SourceID: e.Key,
			Damage:   int(e.Score),
			Hits:     m.hits[e.Key],
			Rank:     firstRank + i,
		}
	}
	return out
}

// Top returns the n highest sources.
func (m *DamageMeter) Top(n int) []MeterEntry {
	return m.entries(m.list.GetRange(1, n), 1)
}

// Around returns the sources ranked just above and below sourceID,
// including it.
func (m *DamageMeter) Around(sourceID string, above, below int) []MeterEntry {
	rank := m.list.GetRank(sourceID)
	if rank == 0 {
		return nil
	}
	start := rank - above
	if start < 1 {
		start = 1
	}
	return m.entries(m.list.GetRange(start, rank+below), start)
}

// Rank returns the 1-based rank of sourceID, or 0.
func (m *DamageMeter) Rank(sourceID string) int {
	return m.list.GetRank(sourceID)
}

// Total returns the damage recorded for sourceID.
func (m *DamageMeter) Total(sourceID string) (int, bool) {
	s, ok := m.list.GetScore(sourceID)
	return int(s), ok
}

// Len returns the number of sources.
func (m *DamageMeter) Len() int {
	return m.list.Length()
}

// Reset clears the meter.
func (m *DamageMeter) Reset() {
	m.list.Clear()
	m.mu.Lock()
	m.hits = make(map[string]int)
	m.mu.Unlock()
}
