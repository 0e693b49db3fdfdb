// Package smt implements the fixed-depth sparse poseidon tree backing the
// screening lists. Keys are 64-bit integers folded down from a wider hash;
// the tree answers both membership and non-membership, and non-membership
// is the expected, common outcome; most documents are on no list.
package smt

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/iden3/go-iden3-crypto/poseidon"
)

// Depth is the fixed level count of every screening-list tree.
const Depth = 64

var keyMask = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), Depth), big.NewInt(1))

// FoldKey reduces a wide hash to the tree's key space.
func FoldKey(h *big.Int) *big.Int {
	return new(big.Int).And(h, keyMask)
}

var zero = big.NewInt(0)

// Tree is a sparse merkle tree. Internal nodes are hash2(left, right);
// leaves are hash3(key, value, 1), the trailing 1 domain-separating leaves
// from internal nodes.
type Tree struct {
	root   *big.Int
	nodes  map[string][2]*big.Int // internal node hash -> children
	leaves map[string][]*big.Int  // leaf node hash -> [key, value]
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{
		root:   zero,
		nodes:  make(map[string][2]*big.Int),
		leaves: make(map[string][]*big.Int),
	}
}

// Root returns the current root, 0 when empty.
func (t *Tree) Root() *big.Int { return new(big.Int).Set(t.root) }

// Size returns the number of leaves.
func (t *Tree) Size() int { return len(t.leaves) }

func leafHash(key, value *big.Int) (*big.Int, error) {
	return poseidon.Hash([]*big.Int{key, value, big.NewInt(1)})
}

func nodeHash(left, right *big.Int) (*big.Int, error) {
	return poseidon.Hash([]*big.Int{left, right})
}

// bit returns bit `level` of the key, the branch direction at that level
// counted from the root.
func bit(key *big.Int, level int) uint {
	return key.Bit(level)
}

// Insert adds or replaces the entry for key. Inserting the same (key,
// value) twice is a no-op, which keeps offline bulk builds restartable.
func (t *Tree) Insert(key, value *big.Int) error {
	key = FoldKey(key)
	newRoot, err := t.insert(t.root, key, value, 0)
	if err != nil {
		return err
	}
	t.root = newRoot
	return nil
}

func (t *Tree) insert(node, key, value *big.Int, level int) (*big.Int, error) {
	if level >= Depth {
		return nil, fmt.Errorf("smt: key collision below depth %d", Depth)
	}

	if node.Sign() == 0 {
		lh, err := leafHash(key, value)
		if err != nil {
			return nil, err
		}
		t.leaves[lh.String()] = []*big.Int{new(big.Int).Set(key), new(big.Int).Set(value)}
		return lh, nil
	}

	if entry, ok := t.leaves[node.String()]; ok {
		existingKey := entry[0]
		if existingKey.Cmp(key) == 0 {
			delete(t.leaves, node.String())
			lh, err := leafHash(key, value)
			if err != nil {
				return nil, err
			}
			t.leaves[lh.String()] = []*big.Int{new(big.Int).Set(key), new(big.Int).Set(value)}
			return lh, nil
		}
		// Two distinct keys share the path so far; push the existing leaf
		// down until they diverge.
		return t.split(node, existingKey, key, value, level)
	}

	children, ok := t.nodes[node.String()]
	if !ok {
		return nil, fmt.Errorf("smt: dangling node %s", node)
	}
	left, right := children[0], children[1]
	var err error
	if bit(key, level) == 0 {
		left, err = t.insert(left, key, value, level+1)
	} else {
		right, err = t.insert(right, key, value, level+1)
	}
	if err != nil {
		return nil, err
	}
	parent, err := nodeHash(left, right)
	if err != nil {
		return nil, err
	}
	t.nodes[parent.String()] = [2]*big.Int{left, right}
	return parent, nil
}

func (t *Tree) split(existingLeaf, existingKey, key, value *big.Int, level int) (*big.Int, error) {
	if level >= Depth {
		return nil, fmt.Errorf("smt: key collision below depth %d", Depth)
	}
	if bit(existingKey, level) == bit(key, level) {
		child, err := t.split(existingLeaf, existingKey, key, value, level+1)
		if err != nil {
			return nil, err
		}
		var left, right *big.Int
		if bit(key, level) == 0 {
			left, right = child, zero
		} else {
			left, right = zero, child
		}
		parent, err := nodeHash(left, right)
		if err != nil {
			return nil, err
		}
		t.nodes[parent.String()] = [2]*big.Int{left, right}
		return parent, nil
	}

	newLeaf, err := leafHash(key, value)
	if err != nil {
		return nil, err
	}
	t.leaves[newLeaf.String()] = []*big.Int{new(big.Int).Set(key), new(big.Int).Set(value)}

	var left, right *big.Int
	if bit(key, level) == 0 {
		left, right = newLeaf, existingLeaf
	} else {
		left, right = existingLeaf, newLeaf
	}
	parent, err := nodeHash(left, right)
	if err != nil {
		return nil, err
	}
	t.nodes[parent.String()] = [2]*big.Int{left, right}
	return parent, nil
}

// Proof is a membership or non-membership proof. Siblings are ordered leaf
// to root (reversed from the walk) and zero-padded to Depth; LeafDepth
// marks where the real ones end. ClosestLeaf is the queried key when it is
// a member, the nearest existing key for a non-member, and 0 when the tree
// is empty or the matching entry carries no value.
type Proof struct {
	Root        *big.Int
	ClosestLeaf *big.Int
	Siblings    []*big.Int
	LeafDepth   int
	Member      bool
}

// GenerateProof walks the path of key and collects the evidence for its
// presence or absence.
func (t *Tree) GenerateProof(key *big.Int) (*Proof, error) {
	key = FoldKey(key)
	proof := &Proof{
		Root:        t.Root(),
		ClosestLeaf: big.NewInt(0),
	}

	var siblings []*big.Int
	node := t.root
	for level := 0; level < Depth; level++ {
		if node.Sign() == 0 {
			break // empty subtree, a clean non-member
		}
		if entry, ok := t.leaves[node.String()]; ok {
			// An entry with no value field is treated as absence, not as
			// an error: screening snapshots ship such placeholders.
			if len(entry) >= 2 {
				proof.ClosestLeaf = new(big.Int).Set(entry[0])
				proof.Member = entry[0].Cmp(key) == 0
			}
			break
		}
		children, ok := t.nodes[node.String()]
		if !ok {
			return nil, fmt.Errorf("smt: dangling node %s", node)
		}
		if bit(key, level) == 0 {
			siblings = append(siblings, new(big.Int).Set(children[1]))
			node = children[0]
		} else {
			siblings = append(siblings, new(big.Int).Set(children[0]))
			node = children[1]
		}
	}

	// leaf-to-root order, then pad to the fixed level count
	proof.LeafDepth = len(siblings)
	proof.Siblings = make([]*big.Int, 0, Depth)
	for i := len(siblings) - 1; i >= 0; i-- {
		proof.Siblings = append(proof.Siblings, siblings[i])
	}
	for len(proof.Siblings) < Depth {
		proof.Siblings = append(proof.Siblings, big.NewInt(0))
	}
	return proof, nil
}

// ErrSnapshot is wrapped by malformed-snapshot errors.
var ErrSnapshot = errors.New("malformed smt snapshot")
