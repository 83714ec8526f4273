// Command wadsign fakesigns a WAD file: it zeroes and bounded
// brute-forces the TMD's and Ticket's signatures so IOS's buggy
// signature check accepts them without a real signing key, optionally
// rewrapping the Title Key under a different common key index or
// retitling the WAD in the same pass.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/halsey-tools/wiititle/pkg/wiititle"
)

func main() {
	verbose := flag.Bool("v", false, "enable debug logging")
	logFormat := flag.String("log-format", "text", "log format: text or json")
	inPath := flag.String("wad", "", "path to the input WAD file (required)")
	outPath := flag.String("out", "", "path to write the fakesigned WAD (required)")
	commonKeyIndex := flag.Int("common-key-index", -1, "rewrap the Title Key under this common key index before signing (optional)")
	titleIDHex := flag.String("title-id", "", "retitle the WAD to this 16-hex-digit title ID before signing (optional)")
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

	raw, err := os.ReadFile(*inPath)
	if err != nil {
		log.Fatalf("read wad: %v", err)
	}
	w, err := wiititle.ParseWAD(raw)
	if err != nil {
		log.Fatalf("parse wad: %v", err)
	}
	title := wiititle.FromWAD(w)

	if *titleIDHex != "" {
		titleID, err := parseTitleID(*titleIDHex)
		if err != nil {
			log.Fatalf("bad -title-id: %v", err)
		}
		if err := title.SetTitleID(titleID); err != nil {
			log.Fatalf("set title id: %v", err)
		}
		slog.Info("retitled", "title_id", *titleIDHex)
	}

	if *commonKeyIndex >= 0 {
		if err := title.Ticket.SetCommonKeyIndex(byte(*commonKeyIndex)); err != nil {
			log.Fatalf("set common key index: %v", err)
		}
		slog.Info("rewrapped title key", "common_key_index", *commonKeyIndex)
	}

	if err := title.Fakesign(); err != nil {
		log.Fatalf("fakesign: %v", err)
	}

	outWAD := title.ToWAD()
	outBytes, err := outWAD.Serialize()
	if err != nil {
		log.Fatalf("serialize wad: %v", err)
	}
	if err := os.WriteFile(*outPath, outBytes, 0o644); err != nil {
		log.Fatalf("write wad: %v", err)
	}

	log.Printf("fakesigned wad written to %s", *outPath)
}

func parseTitleID(hexStr string) (uint64, error) {
	return strconv.ParseUint(hexStr, 16, 64)
}
