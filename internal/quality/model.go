package quality

import (
	"encoding/json"
	"fmt"
	"os"

	"gonum.org/v1/gonum/floats"
)

// NumClasses is the number of quality classes the model predicts.
const NumClasses = 3

// Labels maps class index to quality label. The index order is baked into
// the trained artifact and must match it exactly.
var Labels = [NumClasses]string{"Excellent", "Good", "Poor"}

// Forest is a random-forest classifier exported from the training pipeline
// as JSON. It is immutable after loading; concurrent evaluation is safe.
type Forest struct {
	trees [][]forestNode
}

type forestFile struct {
	Version     int          `json:"version"`
	NumFeatures int          `json:"num_features"`
	Classes     []string     `json:"classes"`
	Trees       []forestTree `json:"trees"`
}

type forestTree struct {
	Nodes []forestNode `json:"nodes"`
}

// forestNode is one decision node. Leaves have left == -1 and carry the
// training-sample class counts in Values. Split semantics follow the
// exporter: feature <= threshold descends left.
type forestNode struct {
	Feature   int                 `json:"feature"`
	Threshold float64             `json:"threshold"`
	Left      int                 `json:"left"`
	Right     int                 `json:"right"`
	Values    [NumClasses]float64 `json:"values"`
}

// LoadForest reads and validates a model artifact from disk.
func LoadForest(path string) (*Forest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}

	var file forestFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal model: %w", err)
	}

	if file.NumFeatures != NumFeatures {
		return nil, fmt.Errorf("model expects %d features, want %d", file.NumFeatures, NumFeatures)
	}
	if len(file.Classes) != NumClasses {
		return nil, fmt.Errorf("model has %d classes, want %d", len(file.Classes), NumClasses)
	}
	for i, c := range file.Classes {
		if c != Labels[i] {
			return nil, fmt.Errorf("model class %d is %q, want %q", i, c, Labels[i])
		}
	}
	if len(file.Trees) == 0 {
		return nil, fmt.Errorf("model contains no trees")
	}

	f := &Forest{trees: make([][]forestNode, len(file.Trees))}
	for ti, tree := range file.Trees {
		if len(tree.Nodes) == 0 {
			return nil, fmt.Errorf("tree %d is empty", ti)
		}
		for ni, n := range tree.Nodes {
			if n.Left == -1 {
				if floats.Sum(n.Values[:]) <= 0 {
					return nil, fmt.Errorf("tree %d node %d: leaf has no class mass", ti, ni)
				}
				continue
			}
			if n.Feature < 0 || n.Feature >= NumFeatures {
				return nil, fmt.Errorf("tree %d node %d: feature %d out of range", ti, ni, n.Feature)
			}
			if n.Left >= len(tree.Nodes) || n.Right >= len(tree.Nodes) {
				return nil, fmt.Errorf("tree %d node %d: child index out of range", ti, ni)
			}
			// Flattened tree arrays store children after their parent, so
			// any child index at or before the node itself is a cycle.
			if n.Left <= ni || n.Right <= ni {
				return nil, fmt.Errorf("tree %d node %d: child index does not advance", ti, ni)
			}
		}
		f.trees[ti] = tree.Nodes
	}

	return f, nil
}

// NumTrees reports the ensemble size.
func (f *Forest) NumTrees() int {
	return len(f.trees)
}

// Proba evaluates the forest and returns the class probability distribution:
// the per-tree leaf distributions, normalized, averaged across all trees.
// The result is non-negative and sums to 1.
func (f *Forest) Proba(features FeatureVector) [NumClasses]float64 {
	sum := make([]float64, NumClasses)
	leaf := make([]float64, NumClasses)

	for _, nodes := range f.trees {
		i := 0
		for nodes[i].Left != -1 {
			if features[nodes[i].Feature] <= nodes[i].Threshold {
				i = nodes[i].Left
			} else {
				i = nodes[i].Right
			}
		}
		copy(leaf, nodes[i].Values[:])
		floats.Scale(1/floats.Sum(leaf), leaf)
		floats.Add(sum, leaf)
	}

	floats.Scale(1/float64(len(f.trees)), sum)

	var out [NumClasses]float64
	copy(out[:], sum)
	return out
}
