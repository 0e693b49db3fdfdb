package smt

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/veridoc/idproof/common"
)

// snapshot is the JSON wire form of a screening-list tree: the root, one
// child-node map per level (parent hash -> [left, right]), and the leaf
// entries. Entries may legitimately carry a single element; GenerateProof
// treats those as absent.
type snapshot struct {
	Root   string                `json:"root"`
	Levels []map[string][]string `json:"levels"`
	Leaves map[string][]string   `json:"leaves"`
}

// Import reconstructs a tree from its serialized snapshot verbatim. The
// snapshot is trusted structurally, not semantically: hashes are not
// recomputed here, proofs against a corrupt snapshot simply fail to verify.
func Import(data []byte) (*Tree, error) {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshot, err)
	}

	t := New()
	if s.Root == "" {
		return t, nil
	}
	root, ok := new(big.Int).SetString(s.Root, 10)
	if !ok {
		return nil, fmt.Errorf("%w: root %q", ErrSnapshot, s.Root)
	}
	t.root = root

	for _, level := range s.Levels {
		for parent, children := range level {
			if len(children) != 2 {
				return nil, fmt.Errorf("%w: node %s has %d children", ErrSnapshot, parent, len(children))
			}
			pair, err := common.ParseDecimalStrings(children)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrSnapshot, err)
			}
			t.nodes[parent] = [2]*big.Int{pair[0], pair[1]}
		}
	}

	for leaf, entry := range s.Leaves {
		parsed, err := common.ParseDecimalStrings(entry)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSnapshot, err)
		}
		if len(parsed) == 0 {
			return nil, fmt.Errorf("%w: empty leaf entry %s", ErrSnapshot, leaf)
		}
		t.leaves[leaf] = parsed
	}
	return t, nil
}

// Export serializes the tree for transport, grouping internal nodes by
// their level below the root.
func (t *Tree) Export() ([]byte, error) {
	s := snapshot{
		Leaves: make(map[string][]string, len(t.leaves)),
	}
	if t.root.Sign() != 0 {
		s.Root = t.root.String()
	}

	// BFS from the root assigns each internal node its level.
	type queued struct {
		hash  *big.Int
		level int
	}
	queue := []queued{{t.root, 0}}
	for len(queue) > 0 {
		q := queue[0]
		queue = queue[1:]
		children, ok := t.nodes[q.hash.String()]
		if !ok {
			continue // leaf or empty subtree
		}
		for len(s.Levels) <= q.level {
			s.Levels = append(s.Levels, make(map[string][]string))
		}
		s.Levels[q.level][q.hash.String()] = []string{children[0].String(), children[1].String()}
		queue = append(queue, queued{children[0], q.level + 1}, queued{children[1], q.level + 1})
	}

	for leaf, entry := range t.leaves {
		s.Leaves[leaf] = common.ToDecimalStrings(entry)
	}
	return json.Marshal(s)
}
