// Package autolink rewrites note files to insert accepted link
// suggestions, under a backup-and-limit safety policy with rollback.
package autolink

import "fmt"

// Tier is a named safety level controlling how large a batch of
// modifications may be.
type Tier string

const (
	TierParanoid     Tier = "paranoid"
	TierConservative Tier = "conservative"
	TierBalanced     Tier = "balanced"
	TierAggressive   Tier = "aggressive"
)

// Limits are the per-batch ceilings of a safety tier. Exceeding either
// rejects the entire batch before any write.
type Limits struct {
	MaxFiles   int
	MaxChanges int
}

var tierLimits = map[Tier]Limits{
	TierParanoid:     {MaxFiles: 5, MaxChanges: 25},
	TierConservative: {MaxFiles: 25, MaxChanges: 100},
	TierBalanced:     {MaxFiles: 50, MaxChanges: 250},
	TierAggressive:   {MaxFiles: 100, MaxChanges: 500},
}

// Limits returns the ceilings for the tier.
func (t Tier) Limits() (Limits, error) {
	l, ok := tierLimits[t]
	if !ok {
		return Limits{}, fmt.Errorf("autolink: unknown safety tier %q", t)
	}
	return l, nil
}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	_, ok := tierLimits[t]
	return ok
}

// Tiers lists the known tiers from most to least restrictive.
func Tiers() []Tier {
	return []Tier{TierParanoid, TierConservative, TierBalanced, TierAggressive}
}
