// Command wadinfo prints a human-readable summary of a WAD file: its
// title ID and version, signature status, common key, and the content
// list from its TMD.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/halsey-tools/wiititle/pkg/wiititle"
)

func main() {
	verbose := flag.Bool("v", false, "enable debug logging")
	logFormat := flag.String("log-format", "text", "log format: text or json")
	wadPath := flag.String("wad", "", "path to the WAD file to inspect (required)")
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

	if *wadPath == "" {
		log.Fatalf("-wad is required")
	}

	raw, err := os.ReadFile(*wadPath)
	if err != nil {
		log.Fatalf("read wad: %v", err)
	}
	w, err := wiititle.ParseWAD(raw)
	if err != nil {
		log.Fatalf("parse wad: %v", err)
	}
	title := wiititle.FromWAD(w)

	fmt.Printf("Title ID:      %016x\n", title.TMD.TitleID())
	fmt.Printf("Title version: %d\n", title.TMD.TitleVersion())
	fmt.Printf("Common key:    %d\n", title.Ticket.CommonKeyIndex())
	fmt.Printf("Boot index:    %d\n", title.TMD.BootIndex())

	signed, err := title.GetIsSigned()
	if err != nil {
		slog.Warn("could not verify signature", "error", err)
	} else if signed {
		fmt.Println("Signature:     valid (genuinely signed)")
	} else {
		fmt.Println("Signature:     INVALID or fakesigned")
	}

	size := title.GetTitleSize()
	blocks := title.GetTitleSizeBlocks()
	fmt.Printf("Title size:    %d bytes (%d NAND blocks)\n", size, blocks)

	fmt.Println()
	fmt.Println("Contents:")
	fmt.Println("Idx  ContentID   Type     Size       SHA1")
	for _, rec := range title.TMD.Records() {
		fmt.Printf("%-4d 0x%08x  0x%04x   %-10d %x\n", rec.Index, rec.ContentID, rec.Type, rec.Size, rec.SHA1)
	}
}
