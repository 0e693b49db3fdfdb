// Package commitment derives the pseudonymous per-document commitment and
// nullifier. Everything here is a pure function of its inputs: the same
// document, secret and attestation id always produce bit-identical outputs,
// which is what lets a registry detect "already registered" without seeing
// the document.
package commitment

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/iden3/go-iden3-crypto/poseidon"

	"github.com/veridoc/idproof/common"
	"github.com/veridoc/idproof/x509cert"
)

// maxPoseidonInputs is the widest arity the poseidon instance supports.
const maxPoseidonInputs = 16

// Hash is the fixed hash-tree primitive: poseidon over up to 16 field
// elements.
func Hash(inputs []*big.Int) (*big.Int, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no inputs provided")
	}
	if len(inputs) > maxPoseidonInputs {
		return nil, fmt.Errorf("unsupported number of inputs: %d", len(inputs))
	}
	for i, in := range inputs {
		if in.Sign() < 0 || in.Cmp(fr.Modulus()) >= 0 {
			return nil, fmt.Errorf("input %d is not a field element", i)
		}
	}
	return poseidon.Hash(inputs)
}

// hashBytes applies the named digest algorithm.
func hashBytes(algo string, data []byte) ([]byte, error) {
	var h hash.Hash
	switch algo {
	case "sha1":
		h = sha1.New()
	case "sha224":
		h = sha256.New224()
	case "sha256":
		h = sha256.New()
	case "sha384":
		h = sha512.New384()
	case "sha512":
		h = sha512.New()
	default:
		return nil, fmt.Errorf("unknown hash algorithm %q", algo)
	}
	h.Write(data)
	return h.Sum(nil), nil
}

// PackedHash hashes data with the declared algorithm and folds the digest
// into one field element: the digest is packed into 31-byte big-endian
// chunks (each strictly below the BN254 modulus) and the chunks are hashed
// together.
func PackedHash(algo string, data []byte) (*big.Int, error) {
	digest, err := hashBytes(algo, data)
	if err != nil {
		return nil, err
	}
	return Hash(common.PackBytes(digest, 31))
}

// CertLeaf computes the registry leaf binding a document signing certificate
// to its country authority: hash2 over the packed hash of each TBS region
// padded to its family's size class. Padding to the class budget keeps the
// leaf independent of incidental DER length differences.
func CertLeaf(dsc, csca *x509cert.Certificate) (*big.Int, error) {
	dscHash, err := paddedTBSHash(dsc)
	if err != nil {
		return nil, fmt.Errorf("dsc: %w", err)
	}
	cscaHash, err := paddedTBSHash(csca)
	if err != nil {
		return nil, fmt.Errorf("csca: %w", err)
	}
	return Hash([]*big.Int{dscHash, cscaHash})
}

// AuthorityLeaf computes the root-of-trust registry leaf for a single
// country authority certificate, the packed hash of its TBS region padded to
// the family size class.
func AuthorityLeaf(csca *x509cert.Certificate) (*big.Int, error) {
	return paddedTBSHash(csca)
}

func paddedTBSHash(cert *x509cert.Certificate) (*big.Int, error) {
	padded, err := common.PadBytes(cert.TBSBytes, cert.TBSBudget())
	if err != nil {
		return nil, err
	}
	return PackedHash(cert.HashAlgorithm, padded)
}

// Params collects everything a commitment is derived from.
type Params struct {
	Secret        *big.Int
	AttestationID *big.Int
	DG1           []byte
	DG1HashAlgo   string
	EContent      []byte
	EContentAlgo  string
	DSC           *x509cert.Certificate
	CSCA          *x509cert.Certificate
}

// Commit derives the per-document commitment:
//
//	hash5(secret, attestationId, packedHash(DG1), packedHash(eContent), leaf(dsc, csca))
func Commit(p Params) (*big.Int, error) {
	dg1Hash, err := PackedHash(p.DG1HashAlgo, p.DG1)
	if err != nil {
		return nil, fmt.Errorf("dg1: %w", err)
	}
	contentHash, err := PackedHash(p.EContentAlgo, p.EContent)
	if err != nil {
		return nil, fmt.Errorf("econtent: %w", err)
	}
	leaf, err := CertLeaf(p.DSC, p.CSCA)
	if err != nil {
		return nil, err
	}
	return Hash([]*big.Int{p.Secret, p.AttestationID, dg1Hash, contentHash, leaf})
}

// CommitQR derives the commitment for a QR-carried document, where no
// certificate chain exists and the signed payload stands in for DG1:
//
//	hash(secret, attestationId, pack31(data)...)
//
// With the 119-byte revealed-data layout the packing yields four field
// elements of 31, 31, 31 and 26 bytes.
func CommitQR(secret, attestationID *big.Int, data []byte) (*big.Int, error) {
	inputs := append([]*big.Int{secret, attestationID}, common.PackBytes(data, 31)...)
	return Hash(inputs)
}

// Nullifier derives the duplicate-proof guard from the signed attributes:
// packedHash over the digest of the signed-attributes block.
func Nullifier(algo string, signedAttrs []byte) (*big.Int, error) {
	digest, err := hashBytes(algo, signedAttrs)
	if err != nil {
		return nil, err
	}
	return PackedHash(algo, digest)
}
