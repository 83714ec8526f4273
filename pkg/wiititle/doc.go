/*
Package wiititle provides a unified library for parsing, editing, and
reconstructing the binary artifacts of the Wii title system: Title
Metadata (TMD), Tickets, WAD archives, content regions, and certificate
chains.

This package consolidates the parsing and crypto logic a title-management
tool needs, providing:
  - Signed-blob header parsing (RSA-2048, RSA-4096, ECDSA variants)
  - Certificate chain parsing and RSA-SHA1 PKCS#1 v1.5 signature verification
  - TMD parse/serialize with content record management and fakesigning
  - Ticket parse/serialize with Title Key wrap/unwrap and fakesigning
  - Content region pack/unpack, per-content AES-128-CBC encrypt/decrypt, SHA-1 verification
  - WAD container parse/serialize (six padded regions)
  - A high-level Title facade composing the above with cross-component invariants
  - An IOS content patcher for well-known signature-check bypasses

# Common Key Table

Content and Title Key crypto is keyed off a small, fixed table of 16-byte
AES keys, indexed by the ticket's common_key_index (0=retail, 1=Korean,
2=vWii), with a development key selected instead whenever the ticket's
signature issuer begins with "Root-CA00000002".

# Signed Blob Layout

TMD, Ticket, and Certificate all begin with a signature type tag (u32)
that determines the signature's length, followed by the signature itself,
60 bytes of zero padding, and then the signed body:

	Offset  Size       Field
	0x00    4          Signature type tag
	0x04    sig_len    Signature bytes
	...     60         Zero padding
	...     body_len   Signed body (this is what the signature covers)

sig_len is 256 for RSA-2048, 512 for RSA-4096, 60 for ECDSA.

# WAD Layout

A WAD is a 0x20-byte header followed by six regions, each padded with
trailing zeros to a 64-byte boundary: certificate chain, CRL (optional),
ticket, TMD, content, meta/footer (optional).

	Offset  Size  Field
	0x00    4     header_size (always 0x20)
	0x04    4     wad_type ("Is\x00\x00" installable, "ib\x00\x00" boot2)
	0x08    4     cert_size
	0x0C    4     crl_size
	0x10    4     tkt_size
	0x14    4     tmd_size
	0x18    4     content_size
	0x1C    4     meta_size

# Content Region

Contents are stored back to back in the WAD's content region, each
padded with zeros to a 64-byte boundary (16 on NUS). Each content's
plaintext SHA-1, recorded in its TMD content record, is computed over
exactly record.Size bytes of decrypted, unpadded plaintext. The AES-CBC
IV for a content is its index, big-endian u16, left-padded with zeros to
16 bytes.
*/
package wiititle
