// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package ml

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// isoNode is one node of an isolation tree in flattened array form.
// Leaves have Feature == -1 and record the number of training samples
// they isolate, which feeds the average path-length correction.
type isoNode struct {
	Feature int     `json:"feature"`
	Split   float64 `json:"split"`
	Left    int     `json:"left"`
	Right   int     `json:"right"`
	Size    int     `json:"size"`
}

// IsolationForest is an unsupervised outlier detector. Samples that
// isolate in few random splits score close to 1; average samples score
// near 0.5. The decision threshold is fixed at fit time from the
// contamination rate.
type IsolationForest struct {
	Trees         [][]isoNode `json:"trees"`
	SubsampleSize int         `json:"subsample_size"`
	Threshold     float64     `json:"threshold"`
	Seed          int64       `json:"seed"`
}

const (
	isoTreeCount      = 100
	isoSubsampleLimit = 256
	eulerMascheroni   = 0.5772156649015329
)

// avgPathLength is c(n), the expected path length of an unsuccessful
// BST search over n samples. Normalizes raw path lengths into scores.
func avgPathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	fn := float64(n)
	return 2*(math.Log(fn-1)+eulerMascheroni) - 2*(fn-1)/fn
}

// FitIsolationForest trains a detector on the given samples with a fixed
// seed. contamination sets the decision threshold at the matching
// quantile of the training scores, so roughly that share of the training
// data is flagged.
func FitIsolationForest(samples [][]float64, contamination float64, seed int64) (*IsolationForest, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no training samples")
	}
	if contamination <= 0 || contamination >= 0.5 {
		return nil, fmt.Errorf("contamination %.3f out of (0,0.5)", contamination)
	}

	rng := rand.New(rand.NewSource(seed))
	subsample := len(samples)
	if subsample > isoSubsampleLimit {
		subsample = isoSubsampleLimit
	}
	depthLimit := int(math.Ceil(math.Log2(float64(subsample))))

	f := &IsolationForest{
		Trees:         make([][]isoNode, 0, isoTreeCount),
		SubsampleSize: subsample,
		Seed:          seed,
	}

	for t := 0; t < isoTreeCount; t++ {
		idx := rng.Perm(len(samples))[:subsample]
		sub := make([][]float64, subsample)
		for i, j := range idx {
			sub[i] = samples[j]
		}
		var nodes []isoNode
		buildIsoTree(&nodes, sub, 0, depthLimit, rng)
		f.Trees = append(f.Trees, nodes)
	}

	// Threshold: the (1-contamination) quantile of training scores.
	scores := make([]float64, len(samples))
	for i, s := range samples {
		scores[i] = f.Score(s)
	}
	f.Threshold = quantile(scores, 1-contamination)
	return f, nil
}

// buildIsoTree appends a subtree isolating sub to nodes and returns the
// index of the subtree root.
func buildIsoTree(nodes *[]isoNode, sub [][]float64, depth, depthLimit int, rng *rand.Rand) int {
	self := len(*nodes)
	*nodes = append(*nodes, isoNode{Feature: -1, Size: len(sub)})

	if depth >= depthLimit || len(sub) <= 1 {
		return self
	}

	dims := len(sub[0])
	// Pick a random feature with spread; give up after trying each once.
	order := rng.Perm(dims)
	for _, feat := range order {
		min, max := sub[0][feat], sub[0][feat]
		for _, s := range sub[1:] {
			if s[feat] < min {
				min = s[feat]
			}
			if s[feat] > max {
				max = s[feat]
			}
		}
		if max <= min {
			continue
		}
		split := min + rng.Float64()*(max-min)

		var left, right [][]float64
		for _, s := range sub {
			if s[feat] < split {
				left = append(left, s)
			} else {
				right = append(right, s)
			}
		}
		if len(left) == 0 || len(right) == 0 {
			continue
		}

		(*nodes)[self].Feature = feat
		(*nodes)[self].Split = split
		(*nodes)[self].Left = buildIsoTree(nodes, left, depth+1, depthLimit, rng)
		(*nodes)[self].Right = buildIsoTree(nodes, right, depth+1, depthLimit, rng)
		return self
	}
	return self
}

// pathLength walks one tree and returns the depth-corrected path length.
func pathLength(nodes []isoNode, x []float64) float64 {
	idx := 0
	depth := 0.0
	for {
		n := &nodes[idx]
		if n.Feature < 0 {
			return depth + avgPathLength(n.Size)
		}
		if x[n.Feature] < n.Split {
			idx = n.Left
		} else {
			idx = n.Right
		}
		depth++
	}
}

// Score returns the anomaly score in (0,1); higher is more anomalous.
func (f *IsolationForest) Score(x []float64) float64 {
	var total float64
	for _, tree := range f.Trees {
		total += pathLength(tree, x)
	}
	mean := total / float64(len(f.Trees))
	return math.Pow(2, -mean/avgPathLength(f.SubsampleSize))
}

// IsAnomalous reports whether x scores above the fitted threshold.
func (f *IsolationForest) IsAnomalous(x []float64) bool {
	return f.Score(x) > f.Threshold
}

// quantile returns the q-quantile of values (nearest-rank, q in [0,1]).
func quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	rank := int(math.Ceil(q*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}
