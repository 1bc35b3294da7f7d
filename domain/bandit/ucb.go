// Package bandit provides a UCB multi-armed bandit used by the
// meta-controller to trade exploration against exploitation when
// choosing among search strategies.
package bandit

import (
	"errors"
	"math"
)

// ErrUnknownArm is returned when an arm name was not registered at
// construction time.
var ErrUnknownArm = errors.New("unknown bandit arm")

// UCB implements the Upper Confidence Bound policy over a fixed set of
// named arms. It is a pure state machine with no I/O; callers own the
// instance and its lifetime, so arm statistics never leak across runs.
type UCB struct {
	arms              []string
	counts            map[string]int
	values            map[string]float64
	totalPulls        int
	explorationWeight float64
}

// New creates a UCB policy over the given arms. Arm order is
// significant: unpulled arms are explored in first-seen order and ties
// in scores resolve to the earliest arm.
func New(arms []string, explorationWeight float64) *UCB {
	u := &UCB{
		arms:              append([]string(nil), arms...),
		counts:            make(map[string]int, len(arms)),
		values:            make(map[string]float64, len(arms)),
		explorationWeight: explorationWeight,
	}
	for _, a := range arms {
		u.counts[a] = 0
		u.values[a] = 0
	}
	return u
}

// Select returns the arm to pull next. Every arm is pulled once before
// any exploitation happens; after that the arm maximizing
// mean + w*sqrt(ln(total)/pulls) wins, ties broken by first-seen order.
func (u *UCB) Select() string {
	for _, a := range u.arms {
		if u.counts[a] == 0 {
			return a
		}
	}

	best := u.arms[0]
	bestScore := math.Inf(-1)
	for _, a := range u.arms {
		score := u.values[a] + u.explorationWeight*math.Sqrt(math.Log(float64(u.totalPulls))/float64(u.counts[a]))
		if score > bestScore {
			best = a
			bestScore = score
		}
	}
	return best
}

// Update records a reward for an arm, incrementing its pull count and
// folding the reward into its running mean.
func (u *UCB) Update(arm string, reward float64) error {
	if _, ok := u.counts[arm]; !ok {
		return ErrUnknownArm
	}
	u.counts[arm]++
	u.totalPulls++

	n := float64(u.counts[arm])
	u.values[arm] = ((n-1)/n)*u.values[arm] + (1/n)*reward
	return nil
}

// Best returns the arm with the highest mean reward, ignoring the
// exploration bonus. Ties resolve to the earliest arm.
func (u *UCB) Best() string {
	best := u.arms[0]
	bestMean := math.Inf(-1)
	for _, a := range u.arms {
		if u.values[a] > bestMean {
			best = a
			bestMean = u.values[a]
		}
	}
	return best
}

// Scores returns the current UCB score per arm. Unpulled arms score
// +Inf, reflecting that they are always preferred.
func (u *UCB) Scores() map[string]float64 {
	out := make(map[string]float64, len(u.arms))
	for _, a := range u.arms {
		if u.counts[a] == 0 {
			out[a] = math.Inf(1)
			continue
		}
		out[a] = u.values[a] + u.explorationWeight*math.Sqrt(math.Log(float64(u.totalPulls))/float64(u.counts[a]))
	}
	return out
}

// Pulls returns how many times the arm has been pulled.
func (u *UCB) Pulls(arm string) int {
	return u.counts[arm]
}

// Mean returns the arm's running mean reward.
func (u *UCB) Mean(arm string) float64 {
	return u.values[arm]
}
