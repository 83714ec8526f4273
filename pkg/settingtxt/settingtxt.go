// Package settingtxt reads and writes /title/00000001/00000002/data/setting.txt,
// the NAND configuration blob IOS hands to titles through
// /dev/di. The file is "obfuscated", not encrypted: each byte is XORed
// against a key that increments by 0x61 after every byte.
package settingtxt

import (
	"fmt"
	"sort"
	"strings"
)

const (
	fileSize   = 256
	initialKey = 0x73
	keyStep    = 0x61
)

// Settings holds the key/value pairs stored in setting.txt. Wii titles
// key off a fixed set of fields (area, model, dvd, mpch, code, serno,
// video, game), but the format is plain "KEY=VALUE\r\n" text, so any
// key round-trips.
type Settings map[string]string

// Deobfuscate reverses setting.txt's XOR obfuscation and parses the
// resulting "KEY=VALUE" lines.
func Deobfuscate(data []byte) (Settings, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("settingtxt: empty input")
	}
	plain := xorStream(data)
	s := make(Settings)
	for _, line := range strings.Split(string(plain), "\r\n") {
		line = strings.TrimRight(line, "\x00")
		if line == "" {
			continue
		}
		idx := strings.IndexByte(line, '=')
		if idx < 0 {
			return nil, fmt.Errorf("settingtxt: malformed line %q", line)
		}
		s[line[:idx]] = line[idx+1:]
	}
	return s, nil
}

// Obfuscate serializes Settings back into a 256-byte setting.txt image,
// sorting keys for determinism and zero-padding the remainder.
func (s Settings) Obfuscate() []byte {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\r\n", k, s[k])
	}
	plain := make([]byte, fileSize)
	copy(plain, b.String())
	return xorStream(plain)
}

// xorStream applies the same rolling-key XOR in both directions: it is
// its own inverse.
func xorStream(data []byte) []byte {
	out := make([]byte, len(data))
	key := byte(initialKey)
	for i, b := range data {
		out[i] = b ^ key
		key += keyStep
	}
	return out
}
