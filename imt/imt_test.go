package imt

import (
	"errors"
	"math/big"
	"testing"
)

const testMaxDepth = 16

func TestInsertAndProve(t *testing.T) {
	tree := New()
	var leaves []*big.Int
	for i := 1; i <= 9; i++ {
		leaf := big.NewInt(int64(i * 100))
		leaves = append(leaves, leaf)
		if err := tree.Insert(leaf); err != nil {
			t.Fatal(err)
		}

		// After every insert, every leaf so far must prove against the
		// current root.
		root := tree.Root()
		for j, l := range leaves {
			proof, err := tree.GenerateProof(j, testMaxDepth)
			if err != nil {
				t.Fatalf("size %d, leaf %d: %v", i, j, err)
			}
			if len(proof.Siblings) != testMaxDepth {
				t.Fatalf("siblings length is %d, want %d", len(proof.Siblings), testMaxDepth)
			}
			if !VerifyProof(root, l, proof) {
				t.Fatalf("size %d, leaf %d: proof does not recombine to root", i, j)
			}
		}
	}

	if tree.Size() != 9 {
		t.Fatalf("size is %d, want 9", tree.Size())
	}
}

func TestSingleLeafRoot(t *testing.T) {
	tree := New()
	leaf := big.NewInt(42)
	if err := tree.Insert(leaf); err != nil {
		t.Fatal(err)
	}
	// A lone leaf propagates to the root unhashed.
	if tree.Root().Cmp(leaf) != 0 {
		t.Fatalf("root is %s, want %s", tree.Root(), leaf)
	}
}

func TestEmptyTreeRoot(t *testing.T) {
	tree := New()
	if tree.Root().Sign() != 0 {
		t.Fatalf("empty root is %s, want 0", tree.Root())
	}
}

func TestProofForLeafNotFound(t *testing.T) {
	tree := New()
	if err := tree.Insert(big.NewInt(1)); err != nil {
		t.Fatal(err)
	}
	_, err := tree.ProofForLeaf(big.NewInt(99), testMaxDepth)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestIndexOf(t *testing.T) {
	tree := New()
	for i := 0; i < 5; i++ {
		if err := tree.Insert(big.NewInt(int64(i + 10))); err != nil {
			t.Fatal(err)
		}
	}
	if got := tree.IndexOf(big.NewInt(12)); got != 2 {
		t.Fatalf("index is %d, want 2", got)
	}
	if got := tree.IndexOf(big.NewInt(999)); got != -1 {
		t.Fatalf("index is %d, want -1", got)
	}
}

func TestGenerateProofOutOfRange(t *testing.T) {
	tree := New()
	if _, err := tree.GenerateProof(0, testMaxDepth); err == nil {
		t.Fatal("expected error for empty tree")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	tree := New()
	for i := 0; i < 6; i++ {
		if err := tree.Insert(big.NewInt(int64(1000 + i))); err != nil {
			t.Fatal(err)
		}
	}

	data, err := tree.Export()
	if err != nil {
		t.Fatal(err)
	}
	imported, err := Import(data)
	if err != nil {
		t.Fatal(err)
	}

	if imported.Root().Cmp(tree.Root()) != 0 {
		t.Fatal("imported root differs")
	}
	if imported.Size() != tree.Size() {
		t.Fatalf("imported size is %d, want %d", imported.Size(), tree.Size())
	}

	// Proofs from the imported snapshot verify against the original root.
	proof, err := imported.ProofForLeaf(big.NewInt(1003), testMaxDepth)
	if err != nil {
		t.Fatal(err)
	}
	if !VerifyProof(tree.Root(), big.NewInt(1003), proof) {
		t.Fatal("imported proof does not verify")
	}
}

func TestImportMalformed(t *testing.T) {
	if _, err := Import([]byte(`{"nodes":[["abc"]]}`)); err == nil {
		t.Fatal("expected error for non-decimal node")
	}
	if _, err := Import([]byte(`not json`)); err == nil {
		t.Fatal("expected error for invalid json")
	}
}
