package sigalg

import (
	"crypto/rand"
	"encoding/asn1"
	"errors"
	"math/big"
	"testing"

	"github.com/veridoc/idproof/x509cert"
)

func TestSplitRecombineRoundTrip(t *testing.T) {
	for name, spec := range wordSpecs {
		max := new(big.Int).Lsh(big.NewInt(1), uint(8*spec.N*spec.K))
		x, err := rand.Int(rand.Reader, max)
		if err != nil {
			t.Fatal(err)
		}

		words, err := SplitToWords(x, spec.N, spec.K)
		if err != nil {
			t.Fatalf("%s: split failed: %v", name, err)
		}
		if len(words) != spec.K {
			t.Fatalf("%s: got %d words, want %d", name, len(words), spec.K)
		}
		wordMax := new(big.Int).Lsh(big.NewInt(1), uint(8*spec.N))
		for i, w := range words {
			if w.Cmp(wordMax) >= 0 {
				t.Fatalf("%s: word %d does not fit %d bytes", name, i, spec.N)
			}
		}

		back := RecombineWords(words, spec.N)
		if back.Cmp(x) != 0 {
			t.Fatalf("%s: recombine mismatch", name)
		}
	}
}

func TestSplitToWordsOverflow(t *testing.T) {
	x := new(big.Int).Lsh(big.NewInt(1), 64) // needs 9 bytes
	if _, err := SplitToWords(x, 4, 2); err == nil {
		t.Fatal("expected overflow error, got nil")
	}
}

func TestSplitToWordsZero(t *testing.T) {
	words, err := SplitToWords(big.NewInt(0), 4, 8)
	if err != nil {
		t.Fatal(err)
	}
	for i, w := range words {
		if w.Sign() != 0 {
			t.Fatalf("word %d of zero is %s", i, w)
		}
	}
}

func TestLookupFailsClosed(t *testing.T) {
	if _, err := Lookup("rsa_md5_65537_1024"); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("got %v, want ErrUnsupported", err)
	}
}

func TestFullName(t *testing.T) {
	tests := []struct {
		name string
		cert *x509cert.Certificate
		hash string
		want string
	}{
		{
			name: "rsa 2048",
			cert: &x509cert.Certificate{
				SignatureFamily: x509cert.FamilyRSA,
				RSA:             &x509cert.RSAPublicKey{Exponent: 65537, BitLength: 2048},
			},
			hash: "sha256",
			want: "rsa_sha256_65537_2048",
		},
		{
			name: "rsapss 3072",
			cert: &x509cert.Certificate{
				SignatureFamily: x509cert.FamilyRSAPSS,
				RSA:             &x509cert.RSAPublicKey{Exponent: 3, BitLength: 3072},
			},
			hash: "sha256",
			want: "rsapss_sha256_3_3072",
		},
		{
			name: "ecdsa p-256",
			cert: &x509cert.Certificate{
				SignatureFamily: x509cert.FamilyECDSA,
				ECDSA:           &x509cert.ECDSAPublicKey{Curve: "secp256r1", BitLength: 256},
			},
			hash: "sha256",
			want: "ecdsa_sha256_secp256r1_256",
		},
		{
			name: "ecdsa brainpool 384",
			cert: &x509cert.Certificate{
				SignatureFamily: x509cert.FamilyECDSA,
				ECDSA:           &x509cert.ECDSAPublicKey{Curve: "brainpoolP384r1", BitLength: 384},
			},
			hash: "sha384",
			want: "ecdsa_sha384_brainpoolP384r1_384",
		},
	}

	for _, tt := range tests {
		got, err := FullName(tt.cert, tt.hash)
		if err != nil {
			t.Errorf("%s: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
		if _, err := Lookup(got); err != nil {
			t.Errorf("%s: name %q has no word spec", tt.name, got)
		}
	}
}

func TestExtractRS(t *testing.T) {
	r := big.NewInt(0).SetBytes([]byte{0x12, 0x34, 0x56})
	s := big.NewInt(0).SetBytes([]byte{0x65, 0x43, 0x21})
	der, err := asn1.Marshal(ecdsaSignatureASN{R: r, S: s})
	if err != nil {
		t.Fatal(err)
	}

	gotR, gotS, err := ExtractRS(der)
	if err != nil {
		t.Fatal(err)
	}
	if gotR.Cmp(r) != 0 || gotS.Cmp(s) != 0 {
		t.Fatalf("got (%s, %s), want (%s, %s)", gotR, gotS, r, s)
	}
}

func TestExtractRSRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		der  []byte
	}{
		{"empty", nil},
		{"not a sequence", []byte{0x02, 0x01, 0x01}},
		{"trailing bytes", func() []byte {
			der, _ := asn1.Marshal(ecdsaSignatureASN{R: big.NewInt(1), S: big.NewInt(2)})
			return append(der, 0x00)
		}()},
	}
	for _, tt := range tests {
		if _, _, err := ExtractRS(tt.der); err == nil {
			t.Errorf("%s: expected error, got nil", tt.name)
		}
	}
}

func TestRSA3072KeepsWideWords(t *testing.T) {
	spec, err := Lookup("rsa_sha256_65537_3072")
	if err != nil {
		t.Fatal(err)
	}
	if spec.N != 8 || spec.K != 48 {
		t.Fatalf("rsa-3072 layout is {%d,%d}, want {8,48}", spec.N, spec.K)
	}
}
