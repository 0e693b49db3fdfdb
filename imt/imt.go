// Package imt implements the append-only binary poseidon tree holding
// document commitments and certificate leaves. Nodes with no right sibling
// propagate upward unhashed, so proofs carry only the siblings that exist;
// the circuit uses leafDepth to know where the meaningful ones stop.
package imt

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/iden3/go-iden3-crypto/poseidon"

	"github.com/veridoc/idproof/common"
)

// ErrNotFound reports a leaf absent from the registry snapshot. Callers
// must treat it as "document not yet recognized", not as a fault of the
// snapshot.
var ErrNotFound = errors.New("not found in registry")

// Tree is the in-memory form of a registry snapshot. Snapshots arrive
// serialized from an external fetcher and are read-only for the duration of
// a proof computation.
type Tree struct {
	// levels[0] holds the leaves; levels[d] holds the single root.
	levels  [][]*big.Int
	indexOf map[string]int
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{
		levels:  [][]*big.Int{{}},
		indexOf: make(map[string]int),
	}
}

// Size returns the number of leaves.
func (t *Tree) Size() int { return len(t.levels[0]) }

// Depth returns the current tree depth.
func (t *Tree) Depth() int { return len(t.levels) - 1 }

// Root returns the tree root, or 0 for an empty tree.
func (t *Tree) Root() *big.Int {
	top := t.levels[len(t.levels)-1]
	if len(top) == 0 {
		return big.NewInt(0)
	}
	return new(big.Int).Set(top[0])
}

// IndexOf locates a leaf by value, or -1.
func (t *Tree) IndexOf(leaf *big.Int) int {
	if i, ok := t.indexOf[leaf.String()]; ok {
		return i
	}
	return -1
}

// Insert appends a leaf and rebuilds the path to the root.
func (t *Tree) Insert(leaf *big.Int) error {
	index := len(t.levels[0])
	t.levels[0] = append(t.levels[0], new(big.Int).Set(leaf))
	t.indexOf[leaf.String()] = index

	if 1<<uint(t.Depth()) < len(t.levels[0]) {
		t.levels = append(t.levels, []*big.Int{})
	}

	node := leaf
	pos := index
	for level := 0; level < t.Depth(); level++ {
		var parent *big.Int
		if pos&1 == 1 {
			h, err := poseidon.Hash([]*big.Int{t.levels[level][pos-1], node})
			if err != nil {
				return err
			}
			parent = h
		} else {
			// no right sibling yet, value moves up unchanged
			parent = node
		}
		pos >>= 1
		if pos == len(t.levels[level+1]) {
			t.levels[level+1] = append(t.levels[level+1], parent)
		} else {
			t.levels[level+1][pos] = parent
		}
		node = parent
	}
	return nil
}

// Proof is a dense-tree inclusion proof. Siblings always has the declared
// maximum length; entries beyond LeafDepth are zero padding.
type Proof struct {
	Siblings  []*big.Int
	Path      []int
	LeafDepth int
}

// GenerateProof builds the inclusion proof for the leaf at index, padded to
// maxDepth levels.
func (t *Tree) GenerateProof(index, maxDepth int) (*Proof, error) {
	if index < 0 || index >= t.Size() {
		return nil, fmt.Errorf("leaf index %d out of range [0,%d)", index, t.Size())
	}
	if t.Depth() > maxDepth {
		return nil, fmt.Errorf("tree depth %d exceeds declared maximum %d", t.Depth(), maxDepth)
	}

	siblings := make([]*big.Int, 0, maxDepth)
	path := make([]int, 0, maxDepth)
	pos := index
	for level := 0; level < t.Depth(); level++ {
		sib := pos ^ 1
		if sib < len(t.levels[level]) {
			siblings = append(siblings, new(big.Int).Set(t.levels[level][sib]))
			path = append(path, pos&1)
		}
		pos >>= 1
	}

	leafDepth := len(siblings)
	for len(siblings) < maxDepth {
		siblings = append(siblings, big.NewInt(0))
		path = append(path, 0)
	}
	return &Proof{Siblings: siblings, Path: path, LeafDepth: leafDepth}, nil
}

// ProofForLeaf locates leaf by value and proves its inclusion. Absence is
// ErrNotFound.
func (t *Tree) ProofForLeaf(leaf *big.Int, maxDepth int) (*Proof, error) {
	index := t.IndexOf(leaf)
	if index < 0 {
		return nil, fmt.Errorf("%w: leaf %s", ErrNotFound, leaf)
	}
	return t.GenerateProof(index, maxDepth)
}

// VerifyProof recombines a proof back to a root by 2-ary hashing guided by
// the path bits.
func VerifyProof(root, leaf *big.Int, proof *Proof) bool {
	node := new(big.Int).Set(leaf)
	for i := 0; i < proof.LeafDepth; i++ {
		var pair []*big.Int
		if proof.Path[i] == 0 {
			pair = []*big.Int{node, proof.Siblings[i]}
		} else {
			pair = []*big.Int{proof.Siblings[i], node}
		}
		h, err := poseidon.Hash(pair)
		if err != nil {
			return false
		}
		node = h
	}
	return node.Cmp(root) == 0
}

// snapshot is the JSON wire form: one decimal-string array per level,
// leaves first.
type snapshot struct {
	Nodes [][]string `json:"nodes"`
}

// Import reconstructs a tree from its serialized snapshot verbatim.
func Import(data []byte) (*Tree, error) {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("tree snapshot: %w", err)
	}
	if len(s.Nodes) == 0 {
		return New(), nil
	}

	t := &Tree{indexOf: make(map[string]int)}
	for _, level := range s.Nodes {
		parsed, err := common.ParseDecimalStrings(level)
		if err != nil {
			return nil, fmt.Errorf("tree snapshot: %w", err)
		}
		t.levels = append(t.levels, parsed)
	}
	for i, leaf := range t.levels[0] {
		t.indexOf[leaf.String()] = i
	}
	return t, nil
}

// Export serializes the tree for transport.
func (t *Tree) Export() ([]byte, error) {
	s := snapshot{Nodes: make([][]string, len(t.levels))}
	for i, level := range t.levels {
		s.Nodes[i] = common.ToDecimalStrings(level)
	}
	return json.Marshal(s)
}
