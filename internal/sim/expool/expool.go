// Package expool tracks exclusion groups for one selection session.
//
// A group caps how many attributes sharing its name may appear in a single
// generated entity. Pools are built fresh per session and never outlive it.
package expool

import "hoardgen.ai/internal/sim/catalogs"

// DefaultCapacity is the quota of every auto-discovered group.
const DefaultCapacity = 1

type Pool struct {
	Name     string
	Capacity int
	Count    int
}

func (p *Pool) Full() bool { return p.Count >= p.Capacity }

// Increment records one accepted member, saturating at Capacity.
func (p *Pool) Increment() {
	if !p.Full() {
		p.Count++
	}
}

// Set is the mutable pool state threaded through one chooser session.
type Set struct {
	pools []*Pool
	index map[string]*Pool
}

// Build scans items once and creates one pool per distinct non-empty group,
// in first-seen order.
func Build(items []catalogs.Trait) *Set {
	s := &Set{index: map[string]*Pool{}}
	for _, it := range items {
		if it.ExPool == "" {
			continue
		}
		if _, ok := s.index[it.ExPool]; ok {
			continue
		}
		p := &Pool{Name: it.ExPool, Capacity: DefaultCapacity}
		s.pools = append(s.pools, p)
		s.index[it.ExPool] = p
	}
	return s
}

// Lookup returns the pool for item's group, or nil when the item has no
// group or the group is unknown to s.
func (s *Set) Lookup(item catalogs.Trait) *Pool {
	if s == nil || item.ExPool == "" {
		return nil
	}
	return s.index[item.ExPool]
}

// Blocked reports whether item belongs to a pool that is already full.
func (s *Set) Blocked(item catalogs.Trait) bool {
	p := s.Lookup(item)
	return p != nil && p.Full()
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.pools)
}

func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.pools))
	for i, p := range s.pools {
		out[i] = p.Name
	}
	return out
}

// Pools returns copies of the pools in discovery order.
func (s *Set) Pools() []Pool {
	if s == nil {
		return nil
	}
	out := make([]Pool, len(s.pools))
	for i, p := range s.pools {
		out[i] = *p
	}
	return out
}
