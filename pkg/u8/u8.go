// Package u8 reads and writes U8 archives, the flat directory-tree
// container format used throughout the Wii software stack for banners
// and other bundled assets.
package u8

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// Magic is the fixed 4-byte U8 archive signature.
const Magic uint32 = 0x55AA382D

const (
	headerSize   = 0x20
	nodeSize     = 12
	nodeTypeFile = 0x00
	nodeTypeDir  = 0x01
)

// Archive is a parsed U8 archive: every file's full path (directories
// joined with "/") mapped to its raw bytes.
type Archive struct {
	files map[string][]byte
}

type node struct {
	nameOff  uint32 // low 24 bits of the first node word
	isDir    bool
	dataOff  uint32
	size     uint32 // file size, or (for a directory) the index of its last child + 1
}

// Parse reads a complete U8 archive from bytes.
func Parse(data []byte) (*Archive, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("u8: archive too short for header (%d bytes)", len(data))
	}
	magic := binary.BigEndian.Uint32(data[0:4])
	if magic != Magic {
		return nil, fmt.Errorf("u8: bad magic 0x%08x", magic)
	}
	rootNodeOffset := binary.BigEndian.Uint32(data[4:8])

	if len(data) < int(rootNodeOffset)+nodeSize {
		return nil, fmt.Errorf("u8: archive too short for root node")
	}
	rootWord := binary.BigEndian.Uint32(data[rootNodeOffset : rootNodeOffset+4])
	numNodes := binary.BigEndian.Uint32(data[rootNodeOffset+8 : rootNodeOffset+12])
	_ = rootWord

	nodeTableSize := int(numNodes) * nodeSize
	if len(data) < int(rootNodeOffset)+nodeTableSize {
		return nil, fmt.Errorf("u8: archive too short for node table")
	}
	stringTableOff := int(rootNodeOffset) + nodeTableSize

	nodes := make([]node, numNodes)
	for i := 0; i < int(numNodes); i++ {
		off := int(rootNodeOffset) + i*nodeSize
		word0 := binary.BigEndian.Uint32(data[off : off+4])
		nodes[i] = node{
			isDir:   (word0 >> 24) == nodeTypeDir,
			nameOff: word0 & 0x00FFFFFF,
			dataOff: binary.BigEndian.Uint32(data[off+4 : off+8]),
			size:    binary.BigEndian.Uint32(data[off+8 : off+12]),
		}
	}

	nodeName := func(n node) (string, error) {
		start := stringTableOff + int(n.nameOff)
		if start >= len(data) {
			return "", fmt.Errorf("u8: name offset out of range")
		}
		end := start
		for end < len(data) && data[end] != 0 {
			end++
		}
		return string(data[start:end]), nil
	}

	a := &Archive{files: make(map[string][]byte)}
	// Node 0 is always the root directory, spanning [0, numNodes).
	var walk func(i int, prefix string, end int) (int, error)
	walk = func(i int, prefix string, end int) (int, error) {
		for i < end {
			n := nodes[i]
			name, err := nodeName(n)
			if err != nil {
				return 0, err
			}
			path := name
			if prefix != "" {
				path = prefix + "/" + name
			}
			if n.isDir {
				childEnd := int(n.size)
				next, err := walk(i+1, path, childEnd)
				if err != nil {
					return 0, err
				}
				i = next
				continue
			}
			if len(data) < int(n.dataOff)+int(n.size) {
				return 0, fmt.Errorf("u8: file %q data out of range", path)
			}
			a.files[path] = append([]byte{}, data[n.dataOff:n.dataOff+n.size]...)
			i++
		}
		return i, nil
	}
	if _, err := walk(1, "", int(nodes[0].size)); err != nil {
		return nil, err
	}
	return a, nil
}

// Files returns every file in the archive, keyed by its full path.
func (a *Archive) Files() map[string][]byte {
	out := make(map[string][]byte, len(a.files))
	for k, v := range a.files {
		out[k] = v
	}
	return out
}

// Build serializes a flat, single-level set of named files into a new
// U8 archive: one root directory node followed by one file node per
// entry, sorted by name for determinism.
func Build(files map[string][]byte) []byte {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var stringTable []byte
	nameOffsets := make([]uint32, len(names))
	for i, name := range names {
		nameOffsets[i] = uint32(len(stringTable))
		stringTable = append(stringTable, []byte(name)...)
		stringTable = append(stringTable, 0)
	}
	numNodes := len(names) + 1
	nodeTableSize := numNodes * nodeSize
	dataStart := headerSize + nodeTableSize + len(stringTable)
	dataStart = alignUp(dataStart, 32)

	out := make([]byte, dataStart)
	binary.BigEndian.PutUint32(out[0:4], Magic)
	binary.BigEndian.PutUint32(out[4:8], headerSize)
	binary.BigEndian.PutUint32(out[8:12], uint32(nodeTableSize+len(stringTable)))
	binary.BigEndian.PutUint32(out[12:16], uint32(dataStart))

	// Root node: type=dir, name offset 0 (the start of the string table;
	// Parse never reads the root's name), data_offset unused,
	// size = numNodes.
	rootWord := uint32(nodeTypeDir) << 24
	binary.BigEndian.PutUint32(out[headerSize:headerSize+4], rootWord)
	binary.BigEndian.PutUint32(out[headerSize+4:headerSize+8], 0)
	binary.BigEndian.PutUint32(out[headerSize+8:headerSize+12], uint32(numNodes))

	offset := dataStart
	for i, name := range names {
		data := files[name]
		nodeOff := headerSize + (i+1)*nodeSize
		word0 := uint32(nodeTypeFile)<<24 | (nameOffsets[i] & 0x00FFFFFF)
		binary.BigEndian.PutUint32(out[nodeOff:nodeOff+4], word0)
		binary.BigEndian.PutUint32(out[nodeOff+4:nodeOff+8], uint32(offset))
		binary.BigEndian.PutUint32(out[nodeOff+8:nodeOff+12], uint32(len(data)))
		out = append(out, data...)
		offset += len(data)
	}

	stringTableOff := headerSize + nodeTableSize
	copy(out[stringTableOff:], stringTable)

	return out
}

func alignUp(n, align int) int {
	rem := n % align
	if rem == 0 {
		return n
	}
	return n + (align - rem)
}
