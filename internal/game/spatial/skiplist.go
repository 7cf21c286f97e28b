package spatial

// This file implements a skip list with span counts for O(log n) rank
// queries. Entries are ordered by score descending, then key ascending,
// the same layout Redis uses for sorted sets.

import (
	"math/rand/v2"
	"sync"
)

const (
	maxLevel         = 32
	levelProbability = 0.25
)

// SkipListEntry is one ranked key.
type SkipListEntry struct {
	Key   string
	Score float64
}

type skipNode struct {
	entry SkipListEntry
	next  []*skipNode
	span  []int // distance to next[i]
}

// before reports whether e sorts ahead of (score, key).
func (e SkipListEntry) before(score float64, key string) bool {
	return e.Score > score || (e.Score == score && e.Key < key)
}

// SkipList is a ranked set safe for concurrent use.
type SkipList struct {
	mu     sync.RWMutex
	head   *skipNode
	level  int
	length int
	scores map[string]float64
	rng    *rand.Rand
}

// NewSkipList creates an empty list.
func NewSkipList() *SkipList {
	return &SkipList{
		head:   newHead(),
		level:  1,
		scores: make(map[string]float64),
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

func newHead() *skipNode {
	return &skipNode{
		next: make([]*skipNode, maxLevel),
		span: make([]int, maxLevel),
	}
}

func (sl *SkipList) randomLevel() int {
	level := 1
	for level < maxLevel && sl.rng.Float64() < levelProbability {
		level++
	}
	return level
}

// Insert sets key's score, repositioning it when it already exists.
func (sl *SkipList) Insert(key string, score float64) {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	sl.set(key, score)
}

// IncrBy adds delta to key's score (zero when absent) and returns the new
// score.
func (sl *SkipList) IncrBy(key string, delta float64) float64 {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	score := sl.scores[key] + delta
	sl.set(key, score)
	return score
}

func (sl *SkipList) set(key string, score float64) {
	if old, ok := sl.scores[key]; ok {
		if old == score {
			return
		}
		sl.delete(key, old)
	}

	var update [maxLevel]*skipNode
	var rank [maxLevel]int

	x := sl.head
	for i := sl.level - 1; i >= 0; i-- {
		if i < sl.level-1 {
			rank[i] = rank[i+1]
		}
		for x.next[i] != nil && x.next[i].entry.before(score, key) {
			rank[i] += x.span[i]
			x = x.next[i]
		}
		update[i] = x
	}

	lvl := sl.randomLevel()
	if lvl > sl.level {
		for i := sl.level; i < lvl; i++ {
			rank[i] = 0
			update[i] = sl.head
			update[i].span[i] = sl.length
		}
		sl.level = lvl
	}

	node := &skipNode{
		entry: SkipListEntry{Key: key, Score: score},
		next:  make([]*skipNode, lvl),
		span:  make([]int, lvl),
	}
	for i := 0; i < lvl; i++ {
		node.next[i] = update[i].next[i]
		update[i].next[i] = node
		node.span[i] = update[i].span[i] - (rank[0] - rank[i])
		update[i].span[i] = rank[0] - rank[i] + 1
	}
	for i := lvl; i < sl.level; i++ {
		update[i].span[i]++
	}

	sl.length++
	sl.scores[key] = score
}

// Remove deletes key. It returns false when key is absent.
func (sl *SkipList) Remove(key string) bool {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	score, ok := sl.scores[key]
	if !ok {
		return false
	}
	return sl.delete(key, score)
}

func (sl *SkipList) delete(key string, score float64) bool {
	var update [maxLevel]*skipNode
	x := sl.head
	for i := sl.level - 1; i >= 0; i-- {
		for x.next[i] != nil && x.next[i].entry.before(score, key) {
			x = x.next[i]
		}
		update[i] = x
	}

	x = x.next[0]
	if x == nil || x.entry.Key != key {
		return false
	}

	for i := 0; i < sl.level; i++ {
		if update[i].next[i] == x {
			update[i].span[i] += x.span[i] - 1
			update[i].next[i] = x.next[i]
		} else {
			update[i].span[i]--
		}
	}
	for sl.level > 1 && sl.head.next[sl.level-1] == nil {
		sl.level--
	}
	sl.length--
	delete(sl.scores, key)
	return true
}

// GetRank returns key's 1-based rank, or 0 when absent.
func (sl *SkipList) GetRank(key string) int {
	sl.mu.RLock()
	defer sl.mu.RUnlock()

	score, ok := sl.scores[key]
	if !ok {
		return 0
	}
	rank := 0
	x := sl.head
	for i := sl.level - 1; i >= 0; i-- {
		for x.next[i] != nil && (x.next[i].entry.before(score, key) || x.next[i].entry.Key == key) {
			rank += x.span[i]
			x = x.next[i]
		}
		if x != sl.head && x.entry.Key == key {
			return rank
		}
	}
	return 0
}

// GetByRank returns the entry at a 1-based rank, or nil.
func (sl *SkipList) GetByRank(rank int) *SkipListEntry {
	sl.mu.RLock()
	defer sl.mu.RUnlock()

	if rank <= 0 || rank > sl.length {
		return nil
	}
	traversed := 0
	x := sl.head
	for i := sl.level - 1; i >= 0; i-- {
		for x.next[i] != nil && traversed+x.span[i] <= rank {
			traversed += x.span[i]
			x = x.next[i]
		}
		if traversed == rank {
			e := x.entry
			return &e
		}
	}
	return nil
}

// GetRange returns entries with ranks in [start, end], inclusive.
func (sl *SkipList) GetRange(start, end int) []SkipListEntry {
	sl.mu.RLock()
	defer sl.mu.RUnlock()

	if start <= 0 {
		start = 1
	}
	if end > sl.length {
		end = sl.length
	}
	if start > end {
		return nil
	}

	result := make([]SkipListEntry, 0, end-start+1)
	traversed := 0
	x := sl.head
	for i := sl.level - 1; i >= 0; i-- {
		for x.next[i] != nil && traversed+x.span[i] < start {
			traversed += x.span[i]
			x = x.next[i]
		}
	}
	for x = x.next[0]; x != nil && traversed < end; x = x.next[0] {
		traversed++
		result = append(result, x.entry)
	}
	return result
}

// GetScore returns key's score.
func (sl *SkipList) GetScore(key string) (float64, bool) {
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	s, ok := sl.scores[key]
	return s, ok
}

// Length returns the number of entries.
func (sl *SkipList) Length() int {
	sl.mu.RLock()
	defer sl.mu.RUnlock()
	return sl.length
}

// Clear removes every entry.
func (sl *SkipList) Clear() {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	sl.head = newHead()
	sl.level = 1
	sl.length = 0
	sl.scores = make(map[string]float64)
}

// ForEach visits entries in rank order until fn returns false.
func (sl *SkipList) ForEach(fn func(rank int, entry SkipListEntry) bool) {
	sl.mu.RLock()
	defer sl.mu.RUnlock()

	rank := 0
	for x := sl.head.next[0]; x != nil; x = x.next[0] {
		rank++
		if !fn(rank, x.entry) {
			return
		}
	}
}
