// Command wadpatch applies one or more find/replace byte patches to a
// single IOS content inside a WAD and fakesigns the result, the same
// "patch a syscall table entry, then re-sign" workflow used to lift
// permission checks out of a system module. It confirms before writing
// since the operation replaces the output file's content wholesale.
package main

import (
	"bufio"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/halsey-tools/wiititle/pkg/wiititle"
)

func main() {
	verbose := flag.Bool("v", false, "enable debug logging")
	logFormat := flag.String("log-format", "text", "log format: text or json")
	inPath := flag.String("wad", "", "path to the input WAD file (required)")
	outPath := flag.String("out", "", "path to write the patched WAD (required)")
	contentIndex := flag.Int("content-index", -1, "content index to patch (required)")
	patchSpec := flag.String("patch", "", "one or more hex find:replace patches, comma-separated, e.g. deadbeef:cafebabe")
	knownSpec := flag.String("known-patch", "", "one or more built-in patch names, comma-separated (see wiititle.KnownPatches); \"all\" applies every known patch")
	yes := flag.Bool("yes", false, "skip the confirmation prompt")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if *logFormat == "json" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, opts)))
	} else {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))
	}

	if *inPath == "" {
		log.Fatalf("-wad is required")
	}
	if *outPath == "" {
		log.Fatalf("-out is required")
	}
	if *contentIndex < 0 {
		log.Fatalf("-content-index is required")
	}
	if strings.TrimSpace(*patchSpec) == "" && strings.TrimSpace(*knownSpec) == "" {
		log.Fatalf("at least one of -patch or -known-patch is required")
	}

	var patches []wiititle.SignaturePatch
	if strings.TrimSpace(*knownSpec) != "" {
		known, err := resolveKnownPatches(*knownSpec)
		if err != nil {
			log.Fatalf("bad -known-patch: %v", err)
		}
		patches = append(patches, known...)
	}
	if strings.TrimSpace(*patchSpec) != "" {
		hexPatches, err := parsePatches(*patchSpec)
		if err != nil {
			log.Fatalf("bad -patch: %v", err)
		}
		patches = append(patches, hexPatches...)
	}

	raw, err := os.ReadFile(*inPath)
	if err != nil {
		log.Fatalf("read wad: %v", err)
	}
	w, err := wiititle.ParseWAD(raw)
	if err != nil {
		log.Fatalf("parse wad: %v", err)
	}
	title := wiititle.FromWAD(w)

	fmt.Printf("About to patch content index %d with %d patch(es) and fakesign:\n", *contentIndex, len(patches))
	for _, p := range patches {
		fmt.Printf("  %s: %x -> %x\n", p.Name, p.Find, p.Replace)
	}
	if !*yes && !confirm(fmt.Sprintf("Write patched WAD to %s? (y/n): ", *outPath)) {
		fmt.Println("Cancelled.")
		os.Exit(0)
	}

	if err := title.PatchAndFakesignIOS(uint16(*contentIndex), patches); err != nil {
		log.Fatalf("patch content: %v", err)
	}

	outWAD := title.ToWAD()
	outBytes, err := outWAD.Serialize()
	if err != nil {
		log.Fatalf("serialize wad: %v", err)
	}
	if err := os.WriteFile(*outPath, outBytes, 0o644); err != nil {
		log.Fatalf("write wad: %v", err)
	}

	log.Printf("patched wad written to %s", *outPath)
}

func resolveKnownPatches(spec string) ([]wiititle.SignaturePatch, error) {
	if strings.TrimSpace(spec) == "all" {
		return wiititle.KnownPatches, nil
	}
	var patches []wiititle.SignaturePatch
	for _, name := range strings.Split(spec, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		p, ok := wiititle.KnownPatchByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown patch %q", name)
		}
		patches = append(patches, p)
	}
	return patches, nil
}

func parsePatches(spec string) ([]wiititle.SignaturePatch, error) {
	var patches []wiititle.SignaturePatch
	for i, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.SplitN(part, ":", 2)
		if len(fields) != 2 {
			return nil, fmt.Errorf("patch %q must be find:replace", part)
		}
		find, err := hex.DecodeString(fields[0])
		if err != nil {
			return nil, fmt.Errorf("patch %q: bad find hex: %w", part, err)
		}
		replace, err := hex.DecodeString(fields[1])
		if err != nil {
			return nil, fmt.Errorf("patch %q: bad replace hex: %w", part, err)
		}
		patches = append(patches, wiititle.SignaturePatch{
			Name:    "patch-" + strconv.Itoa(i),
			Find:    find,
			Replace: replace,
		})
	}
	if len(patches) == 0 {
		return nil, fmt.Errorf("no patches parsed")
	}
	return patches, nil
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes"
}
