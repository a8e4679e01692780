package binding

import (
	"fmt"
	"reflect"
	"sort"
)

// Policy decides whether candidates that do not match the owner remain
// eligible.
type Policy int

const (
	// Permissive ranks candidates but never excludes one: a sole candidate
	// is returned even when its owner restriction or predicate does not
	// match the owner.
	Permissive Policy = iota
	// Strict excludes candidates whose owner restriction differs from the
	// owner or whose predicate rejects it.
	Strict
)

// String implements fmt.Stringer.
func (p Policy) String() string {
	switch p {
	case Permissive:
		return "permissive"
	case Strict:
		return "strict"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy maps a configuration value to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "permissive":
		return Permissive, nil
	case "strict":
		return Strict, nil
	default:
		return Permissive, fmt.Errorf("unknown resolution policy %q", s)
	}
}

// Rank is the score of one candidate for one owner. Fields are in priority
// order.
type Rank struct {
	SameOwner   bool
	PredicateOK bool
	HasInstance bool
}

// Outranks reports whether r is strictly more specific than o.
func (r Rank) Outranks(o Rank) bool {
	if r.SameOwner != o.SameOwner {
		return r.SameOwner
	}
	if r.PredicateOK != o.PredicateOK {
		return r.PredicateOK
	}
	if r.HasInstance != o.HasInstance {
		return r.HasInstance
	}
	return false
}

// RankOf scores d for owner.
func RankOf(d *Descriptor, owner reflect.Type) Rank {
	return Rank{
		SameOwner:   d.owner == owner,
		PredicateOK: d.Accepts(owner),
		HasInstance: d.instance != nil,
	}
}

// Resolver orders the candidates of one source type for an owner.
type Resolver struct {
	Policy Policy
}

type ranked struct {
	d    *Descriptor
	rank Rank
}

// Sort reorders candidates in place, most specific first. Fully tied
// candidates keep their relative order. Predicates are evaluated once per
// candidate.
func (r Resolver) Sort(candidates []*Descriptor, owner reflect.Type) []Rank {
	scored := make([]ranked, len(candidates))
	for i, d := range candidates {
		scored[i] = ranked{d: d, rank: RankOf(d, owner)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].rank.Outranks(scored[j].rank)
	})
	ranks := make([]Rank, len(scored))
	for i, s := range scored {
		candidates[i] = s.d
		ranks[i] = s.rank
	}
	return ranks
}

// Best sorts candidates and returns the winner, or nil when there is no
// eligible candidate or the winner is empty.
func (r Resolver) Best(candidates []*Descriptor, owner reflect.Type) *Descriptor {
	if len(candidates) == 0 {
		return nil
	}
	ranks := r.Sort(candidates, owner)
	for i, d := range candidates {
		if !r.eligible(d, ranks[i]) {
			continue
		}
		if d.IsEmpty() {
			return nil
		}
		return d
	}
	return nil
}

func (r Resolver) eligible(d *Descriptor, rank Rank) bool {
	if r.Policy != Strict {
		return true
	}
	if d.owner != nil && !rank.SameOwner {
		return false
	}
	if d.predicate != nil && !rank.PredicateOK {
		return false
	}
	return true
}
