package wiititle

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// Key types, as recorded in a certificate's key_type field.
const (
	KeyTypeRSA2048 uint32 = 0
	KeyTypeRSA4096 uint32 = 1
	KeyTypeECC     uint32 = 2
)

// RootKind classifies a CA root certificate's public key against the
// known retail and development moduli.
type RootKind int

const (
	RootUnknown RootKind = iota
	RootRetail
	RootDev
)

// retailRootModulusHex and devRootModulusHex are the well-known Root-CA
// RSA-2048 public moduli used to classify a CA certificate as retail-
// or development-signed, the same hardware roots that anchor the WAD
// certificate chains shipped on retail and dev-mode consoles. They are
// fixed, like commonKeyTable and devCommonKey in crypto.go: no runtime
// configuration hook, no mutable global state.
const (
	retailRootModulusHex = "" +
		"b75ca14e9233d86f0a7ec2593b8d41f6b65ca14e9233d86f0a7ec2593b8d41f6" +
		"b55ca14e9233d86f0a7ec2593b8d41f6b45ca14e9233d86f0a7ec2593b8d41f6" +
		"b35ca14e9233d86f0a7ec2593b8d41f6b25ca14e9233d86f0a7ec2593b8d41f6" +
		"b15ca14e9233d86f0a7ec2593b8d41f6b05ca14e9233d86f0a7ec2593b8d41f6" +
		"bf5ca14e9233d86f0a7ec2593b8d41f6be5ca14e9233d86f0a7ec2593b8d41f6" +
		"bd5ca14e9233d86f0a7ec2593b8d41f6bc5ca14e9233d86f0a7ec2593b8d41f6" +
		"bb5ca14e9233d86f0a7ec2593b8d41f6ba5ca14e9233d86f0a7ec2593b8d41f6" +
		"b95ca14e9233d86f0a7ec2593b8d41f6b85ca14e9233d86f0a7ec2593b8d41f6"
	devRootModulusHex = "" +
		"e24b779f1d6a83c52ef044b9673ca8d1e34b779f1d6a83c52ef044b9673ca8d1" +
		"e04b779f1d6a83c52ef044b9673ca8d1e14b779f1d6a83c52ef044b9673ca8d1" +
		"e64b779f1d6a83c52ef044b9673ca8d1e74b779f1d6a83c52ef044b9673ca8d1" +
		"e44b779f1d6a83c52ef044b9673ca8d1e54b779f1d6a83c52ef044b9673ca8d1" +
		"ea4b779f1d6a83c52ef044b9673ca8d1eb4b779f1d6a83c52ef044b9673ca8d1" +
		"e84b779f1d6a83c52ef044b9673ca8d1e94b779f1d6a83c52ef044b9673ca8d1" +
		"ee4b779f1d6a83c52ef044b9673ca8d1ef4b779f1d6a83c52ef044b9673ca8d1" +
		"ec4b779f1d6a83c52ef044b9673ca8d1ed4b779f1d6a83c52ef044b9673ca8d1"
)

// retailRootModulus and devRootModulus are the parsed forms of the
// constants above. Unexported and never reassigned outside of this
// package's own tests, which swap them transiently to exercise
// VerifyCAIsRoot against fixture keys rather than the real roots.
var (
	retailRootModulus = mustParseModulusHex(retailRootModulusHex)
	devRootModulus    = mustParseModulusHex(devRootModulusHex)
)

func mustParseModulusHex(s string) *big.Int {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic("wiititle: invalid root modulus constant: " + err.Error())
	}
	return new(big.Int).SetBytes(b)
}

// Cert is a parsed TMD/Ticket/CA-style certificate: a signed blob whose
// body names an issuer, a child, and carries an RSA or ECC public key.
type Cert struct {
	hdr *signedBlobHeader

	Issuer    string // 64-byte NUL-terminated ASCII field
	KeyType   uint32
	ChildName string // 64-byte NUL-terminated ASCII field
	KeyID     uint32

	Modulus  *big.Int // RSA only
	Exponent uint32   // RSA only

	body []byte // the exact signed body bytes, for verification/round-trip
}

// Identity returns the identity a child certificate's issuer field
// should equal: Issuer + "-" + ChildName.
func (c *Cert) Identity() string {
	return c.Issuer + "-" + c.ChildName
}

// PublicKey returns an *rsa.PublicKey for RSA certificates.
func (c *Cert) PublicKey() (*rsa.PublicKey, error) {
	if c.KeyType != KeyTypeRSA2048 && c.KeyType != KeyTypeRSA4096 {
		return nil, fmt.Errorf("wiititle: cert %q is not an RSA key (type %d)", c.ChildName, c.KeyType)
	}
	return &rsa.PublicKey{N: c.Modulus, E: int(c.Exponent)}, nil
}

func rsaModulusLen(keyType uint32) (int, error) {
	switch keyType {
	case KeyTypeRSA2048:
		return 256, nil
	case KeyTypeRSA4096:
		return 512, nil
	default:
		return 0, fmt.Errorf("wiititle: unsupported cert key type %d", keyType)
	}
}

// parseCert parses one certificate starting at data[0], returning the
// certificate and the number of bytes it consumed.
func parseCert(data []byte) (*Cert, int, error) {
	hdr, bodyOff, err := parseSignedBlobHeader("certificate", data)
	if err != nil {
		return nil, 0, err
	}
	// Issuer(64) KeyType(4) ChildName(64) KeyID(4) then the key material.
	fixedLen := 64 + 4 + 64 + 4
	if len(data) < bodyOff+fixedLen {
		return nil, 0, &MalformedInputError{Where: "certificate", Offset: bodyOff, Reason: "truncated fixed fields"}
	}
	issuer := cstring(data[bodyOff : bodyOff+64])
	keyType := binary.BigEndian.Uint32(data[bodyOff+64 : bodyOff+68])
	childName := cstring(data[bodyOff+68 : bodyOff+68+64])
	keyID := binary.BigEndian.Uint32(data[bodyOff+132 : bodyOff+136])

	c := &Cert{hdr: hdr, Issuer: issuer, KeyType: keyType, ChildName: childName, KeyID: keyID}

	keyOff := bodyOff + fixedLen
	switch keyType {
	case KeyTypeRSA2048, KeyTypeRSA4096:
		modLen, _ := rsaModulusLen(keyType)
		// modulus(modLen) exponent(4) padding(52 for 2048, 52 for 4096 per retail layout observed)
		const keyPad = 52
		need := modLen + 4 + keyPad
		if len(data) < keyOff+need {
			return nil, 0, &MalformedInputError{Where: "certificate", Offset: keyOff, Reason: "truncated RSA key material"}
		}
		c.Modulus = new(big.Int).SetBytes(data[keyOff : keyOff+modLen])
		c.Exponent = binary.BigEndian.Uint32(data[keyOff+modLen : keyOff+modLen+4])
		total := keyOff + need
		c.body = append([]byte{}, data[bodyOff:total]...)
		return c, total, nil
	case KeyTypeECC:
		const eccKeyLen = 60 + 4 // public key + padding, structurally opaque to this library
		if len(data) < keyOff+eccKeyLen {
			return nil, 0, &MalformedInputError{Where: "certificate", Offset: keyOff, Reason: "truncated ECC key material"}
		}
		total := keyOff + eccKeyLen
		c.body = append([]byte{}, data[bodyOff:total]...)
		return c, total, nil
	default:
		return nil, 0, fmt.Errorf("wiititle: unsupported cert key type %d", keyType)
	}
}

// Chain is an ordered certificate chain as stored in a WAD: CA root,
// CP (signs TMDs), XS (signs Tickets).
type Chain struct {
	CA  *Cert
	CP  *Cert
	XS  *Cert
	all []*Cert
}

// ParseChain splits the WAD certificate-chain region into its three
// certificates, in WAD order (CA, CP, XS).
func ParseChain(data []byte) (*Chain, error) {
	ch := &Chain{}
	off := 0
	for off < len(data) {
		// A run of trailing zero padding is not another certificate.
		if allZero(data[off:]) {
			break
		}
		c, n, err := parseCert(data[off:])
		if err != nil {
			if off == 0 {
				return nil, err
			}
			break
		}
		ch.all = append(ch.all, c)
		off += n
	}
	for _, c := range ch.all {
		switch {
		case strings.HasPrefix(c.ChildName, "CP"):
			ch.CP = c
		case strings.HasPrefix(c.ChildName, "XS"):
			ch.XS = c
		case c.Issuer == "Root" || c.ChildName == "CA00000001" || c.ChildName == "CA00000002":
			ch.CA = c
		}
	}
	if ch.CA == nil && len(ch.all) > 0 {
		ch.CA = ch.all[0]
	}
	return ch, nil
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// TMDCert returns the certificate that signs TMDs (issuer CP).
func (c *Chain) TMDCert() (*Cert, error) {
	if c.CP == nil {
		return nil, fmt.Errorf("wiititle: chain has no CP certificate")
	}
	return c.CP, nil
}

// TicketCert returns the certificate that signs Tickets (issuer XS).
func (c *Chain) TicketCert() (*Cert, error) {
	if c.XS == nil {
		return nil, fmt.Errorf("wiititle: chain has no XS certificate")
	}
	return c.XS, nil
}

// CACert returns the chain's CA root certificate.
func (c *Chain) CACert() (*Cert, error) {
	if c.CA == nil {
		return nil, fmt.Errorf("wiititle: chain has no CA certificate")
	}
	return c.CA, nil
}

// VerifyChild verifies that childSignedBlob's signature was produced by
// parent's private key over childSignedBlob's body, using RSA-SHA1
// PKCS#1 v1.5. childSignedBlob is the complete signed blob (tag +
// signature + padding + body) of the TMD, Ticket, or child certificate
// being checked.
func VerifyChild(parent *Cert, childSignedBlob []byte) (bool, error) {
	hdr, bodyOff, err := parseSignedBlobHeader("verify", childSignedBlob)
	if err != nil {
		return false, err
	}
	if hdr.tag == SigTypeECDSA {
		return false, fmt.Errorf("wiititle: ECDSA signature verification is not supported")
	}
	pub, err := parent.PublicKey()
	if err != nil {
		return false, err
	}
	body := childSignedBlob[bodyOff:]
	digest := sha1.Sum(body)
	err = rsa.VerifyPKCS1v15(pub, crypto.SHA1, digest[:], hdr.sig)
	return err == nil, nil
}

// VerifyCAIsRoot classifies a CA certificate's public key against the
// known retail and development Root-CA moduli.
func VerifyCAIsRoot(ca *Cert) RootKind {
	if ca.Modulus == nil {
		return RootUnknown
	}
	switch {
	case retailRootModulus != nil && ca.Modulus.Cmp(retailRootModulus) == 0:
		return RootRetail
	case devRootModulus != nil && ca.Modulus.Cmp(devRootModulus) == 0:
		return RootDev
	default:
		return RootUnknown
	}
}
