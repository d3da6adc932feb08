package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"math/big"
)

// SRP-6a runs over the RFC 5054 3072-bit group, the only group size the
// pairing state machine uses.
var (
	srpN, _ = new(big.Int).SetString(
		"FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD129024E08"+
			"8A67CC74020BBEA63B139B22514A08798E3404DDEF9519B3CD3A431B"+
			"302B0A6DF25F14374FE1356D6D51C245E485B576625E7EC6F44C42E9"+
			"A637ED6B0BFF5CB6F406B7EDEE386BFB5A899FA5AE9F24117C4B1FE6"+
			"49286651ECE45B3DC2007CB8A163BF0598DA48361C55D39A69163FA8"+
			"FD24CF5F83655D23DCA3AD961C62F356208552BB9ED529077096966D"+
			"670C354E4ABC9804F1746C08CA18217C32905E462E36CE3BE39E772C"+
			"180E86039B2783A2EC07A28FB5C55DF06F4C52C9DE2BCBF69558171839"+
			"95497CEA956AE515D2261898FA051015728E5A8AAAC42DAD33170D0"+
			"4507A33A85521ABDF1CBA64ECFB850458DBEF0A8AEA71575D060C7D"+
			"B3970F85A6E1E4C7ABF5AE8CDB0933D71E8C94E04A25619DCEE3D22"+
			"61AD2EE6BF12FFA06D98A0864D87602733EC86A64521F2B18177B20"+
			"0CBBE117577A615D6C770988C0BAD946E208E24FA074E5AB3143DB5"+
			"BFCE0FD108E4B82D120A93AD2CAFFFFFFFFFFFFFFFF", 16)
	srpG = big.NewInt(5)
)

// SRPClient runs the client side of an SRP-6a exchange for the pairing
// protocol. A fresh SRPClient is created for each pairing attempt.
type SRPClient struct {
	identity []byte
	password []byte

	a    *big.Int // ephemeral private value
	pubA *big.Int // ephemeral public value A = g^a % N

	k *big.Int

	sessionKey []byte // K
	proof      []byte // M1, computed after Generate
}

// NewSRPClient creates an SRP-6a client for the given identity and password.
// The ephemeral private exponent is drawn from crypto/rand internally.
func NewSRPClient(identity, password []byte) (*SRPClient, error) {
	a, err := randBigIntBelow(srpN)
	if err != nil {
		return nil, err
	}

	k := hashInt(padToN(srpN), padToN(srpG))

	c := &SRPClient{
		identity: identity,
		password: password,
		a:        a,
		k:        k,
	}
	c.pubA = new(big.Int).Exp(srpG, a, srpN)
	return c, nil
}

// PublicKey returns the client's ephemeral public value A, to be sent to
// the device as M3's PublicKey field.
func (c *SRPClient) PublicKey() []byte {
	return c.pubA.Bytes()
}

// Generate consumes the device's salt and public value B (from M2),
// computes the shared session key, and returns the client proof M1 to send
// in M3's Proof field.
func (c *SRPClient) Generate(salt, serverPublicB []byte) ([]byte, error) {
	B := new(big.Int).SetBytes(serverPublicB)

	zero := big.NewInt(0)
	if new(big.Int).Mod(B, srpN).Cmp(zero) == 0 {
		return nil, ErrSRPInvalidPublicKey
	}

	u := hashInt(padToN(c.pubA), padToN(B))
	if u.Cmp(zero) == 0 {
		return nil, ErrSRPInvalidPublicKey
	}

	// x = H(s, H(I ":" p)), the private key derived from salt and password.
	identityPassword := append(append(append([]byte{}, c.identity...), ':'), c.password...)
	x := hashInt(salt, hashBytes(identityPassword))

	// S = (B - k*g^x) ^ (a + u*x) mod N
	gx := new(big.Int).Exp(srpG, x, srpN)
	t0 := new(big.Int).Mul(c.k, gx)
	t1 := new(big.Int).Sub(B, t0)
	t1.Mod(t1, srpN)

	t2 := new(big.Int).Mul(u, x)
	t2.Add(t2, c.a)

	S := new(big.Int).Exp(t1, t2, srpN)

	c.sessionKey = hashBytes(padToN(S))
	c.proof = hashBytes(c.sessionKey, c.pubA.Bytes(), B.Bytes(), c.identity, salt, srpN.Bytes(), srpG.Bytes())

	return c.proof, nil
}

// SessionKey returns the raw SRP session key K, used as HKDF input keying
// material for the pairing encryption/signing keys.
func (c *SRPClient) SessionKey() []byte {
	return c.sessionKey
}

// VerifyServerProof checks the device's M4 proof M2 against the locally
// computed proof and session key.
func (c *SRPClient) VerifyServerProof(serverProof []byte) bool {
	expected := hashBytes(c.proof, c.sessionKey)
	return subtle.ConstantTimeCompare(expected, serverProof) == 1
}

func hashBytes(parts ...[]byte) []byte {
	h := NewSHA512()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

func hashInt(parts ...[]byte) *big.Int {
	return new(big.Int).SetBytes(hashBytes(parts...))
}

func padToN(x *big.Int) []byte {
	b := x.Bytes()
	n := (srpN.BitLen() + 7) / 8
	if len(b) >= n {
		return b
	}
	padded := make([]byte, n)
	copy(padded[n-len(b):], b)
	return padded
}

func randBigIntBelow(max *big.Int) (*big.Int, error) {
	return rand.Int(rand.Reader, max)
}
