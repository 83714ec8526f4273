package wiititle

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"encoding/binary"
	"math/big"
	"testing"
)

// installAsKnownRoot temporarily installs modulus as the recognized
// retail Root-CA modulus, restoring the real baked-in constant once
// the test finishes. It lets tests build a fixture chain whose CA is
// recognized by VerifyCAIsRoot without touching any exported API.
func installAsKnownRoot(t *testing.T, modulus *big.Int) {
	t.Helper()
	orig := retailRootModulus
	retailRootModulus = modulus
	t.Cleanup(func() { retailRootModulus = orig })
}

// genRSAKey generates a throwaway RSA-2048 key pair for signing test
// fixtures. Real deployments load these from configuration; tests need
// a key whose private half they control so they can produce a
// signature that verifies.
func genRSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate RSA key: %v", err)
	}
	return priv
}

// buildCertBody returns a certificate's body bytes (everything after
// its signed-blob header): issuer, key_type, child_name, key_id,
// modulus, exponent, and the fixed 52-byte key padding.
func buildCertBody(issuer, childName string, keyID uint32, pub *rsa.PublicKey) []byte {
	body := make([]byte, 64+4+64+4+256+4+52)
	putCString(body[0:64], issuer)
	binary.BigEndian.PutUint32(body[64:68], KeyTypeRSA2048)
	putCString(body[68:132], childName)
	binary.BigEndian.PutUint32(body[132:136], keyID)
	modBytes := pub.N.Bytes()
	copy(body[136+(256-len(modBytes)):136+256], modBytes)
	binary.BigEndian.PutUint32(body[136+256:136+260], uint32(pub.E))
	return body
}

// buildSignedCert signs body with signer (or leaves the signature
// zeroed if signer is nil, as for a self-evident root) and returns the
// complete certificate bytes.
func buildSignedCert(t *testing.T, body []byte, signer *rsa.PrivateKey) []byte {
	t.Helper()
	sig := make([]byte, 256)
	if signer != nil {
		digest := sha1.Sum(body)
		s, err := rsa.SignPKCS1v15(rand.Reader, signer, crypto.SHA1, digest[:])
		if err != nil {
			t.Fatalf("sign cert: %v", err)
		}
		sig = s
	}
	header := make([]byte, 4+256+sigPaddingSize)
	binary.BigEndian.PutUint32(header[0:4], SigTypeRSA2048)
	copy(header[4:4+256], sig)
	return append(header, body...)
}

// testChain builds a full CA -> CP -> XS certificate chain with real
// RSA-2048 keys, returning the parsed chain and the CP/XS private keys
// so callers can sign TMDs and Tickets that verify against it.
func testChain(t *testing.T) (chain *Chain, cpPriv, xsPriv *rsa.PrivateKey) {
	t.Helper()
	caPriv := genRSAKey(t)
	cpPriv = genRSAKey(t)
	xsPriv = genRSAKey(t)

	caBody := buildCertBody("Root", "CA00000002", 0, &caPriv.PublicKey)
	caBytes := buildSignedCert(t, caBody, nil)

	cpBody := buildCertBody("Root-CA00000002", "CP00000004", 1, &cpPriv.PublicKey)
	cpBytes := buildSignedCert(t, cpBody, caPriv)

	xsBody := buildCertBody("Root-CA00000002", "XS00000006", 2, &xsPriv.PublicKey)
	xsBytes := buildSignedCert(t, xsBody, caPriv)

	all := append(append(append([]byte{}, caBytes...), cpBytes...), xsBytes...)
	ch, err := ParseChain(all)
	if err != nil {
		t.Fatalf("parse test chain: %v", err)
	}
	if ch.CA == nil || ch.CP == nil || ch.XS == nil {
		t.Fatalf("test chain missing a certificate: CA=%v CP=%v XS=%v", ch.CA, ch.CP, ch.XS)
	}
	installAsKnownRoot(t, ch.CA.Modulus)
	return ch, cpPriv, xsPriv
}

// buildTMDBytes serializes an unsigned TMD body + content records and
// signs it with signer, returning a complete, parseable TMD.
func buildTMDBytes(t *testing.T, titleID uint64, bootIndex uint16, records []ContentRecord, signer *rsa.PrivateKey) []byte {
	t.Helper()
	body := make([]byte, tmdHeaderSize)
	binary.BigEndian.PutUint64(body[offTitleID:], titleID)
	binary.BigEndian.PutUint16(body[offNumContents:offNumContents+2], uint16(len(records)))
	binary.BigEndian.PutUint16(body[offBootIndex:offBootIndex+2], bootIndex)

	signedBody := append([]byte{}, body...)
	for _, r := range records {
		signedBody = append(signedBody, r.serialize()...)
	}
	digest := sha1.Sum(signedBody)
	sig, err := rsa.SignPKCS1v15(rand.Reader, signer, crypto.SHA1, digest[:])
	if err != nil {
		t.Fatalf("sign tmd: %v", err)
	}
	header := make([]byte, 4+256+sigPaddingSize)
	binary.BigEndian.PutUint32(header[0:4], SigTypeRSA2048)
	copy(header[4:4+256], sig)
	return append(header, signedBody...)
}

// buildTicketBytes wraps titleKey for titleID under the common key
// selected by commonKeyIndex/issuer, signs the result with signer, and
// returns a complete, parseable Ticket.
func buildTicketBytes(t *testing.T, titleID uint64, commonKeyIndex byte, titleKey [16]byte, issuer string, signer *rsa.PrivateKey) []byte {
	t.Helper()
	body := make([]byte, ticketBodySize)
	putCString(body[tikOffIssuer:tikOffIssuer+64], issuer)
	binary.BigEndian.PutUint64(body[tikOffTitleID:], titleID)
	body[tikOffCommonKeyIndex] = commonKeyIndex

	var issuerField [64]byte
	copy(issuerField[:], body[tikOffIssuer:tikOffIssuer+64])
	key, err := commonKey(commonKeyIndex, isDevIssuer(issuerField))
	if err != nil {
		t.Fatalf("common key: %v", err)
	}
	iv := titleIV(titleID)
	enc, err := aesCBCEncrypt(key, iv[:], titleKey[:])
	if err != nil {
		t.Fatalf("wrap title key: %v", err)
	}
	copy(body[tikOffTitleKeyEnc:tikOffTitleKeyEnc+16], enc)

	digest := sha1.Sum(body)
	sig, err := rsa.SignPKCS1v15(rand.Reader, signer, crypto.SHA1, digest[:])
	if err != nil {
		t.Fatalf("sign ticket: %v", err)
	}
	header := make([]byte, 4+256+sigPaddingSize)
	binary.BigEndian.PutUint32(header[0:4], SigTypeRSA2048)
	copy(header[4:4+256], sig)
	return append(header, body...)
}
