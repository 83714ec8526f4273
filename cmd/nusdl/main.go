// Command nusdl downloads a title's TMD, ticket, and every content
// listed in that TMD from the Nintendo Update Server CDN, writing them
// into a per-title directory under the configured output directory.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/halsey-tools/wiititle/cmd/nusdl/internal/config"
	"github.com/halsey-tools/wiititle/pkg/nus"
	"github.com/halsey-tools/wiititle/pkg/wiititle"
)

const configFileName = "config.yaml"

func main() {
	verbose := flag.Bool("v", false, "enable debug logging")
	logFormat := flag.String("log-format", "text", "log format: text or json")
	titleIDHex := flag.String("title-id", "", "16-hex-digit title ID to download (required)")
	version := flag.String("version", "", "title version to fetch (optional, defaults to latest)")
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

	if *titleIDHex == "" {
		log.Fatalf("-title-id is required")
	}
	titleID, err := strconv.ParseUint(*titleIDHex, 16, 64)
	if err != nil {
		log.Fatalf("bad -title-id: %v", err)
	}

	configPath, err := defaultConfigPath()
	if err != nil {
		log.Fatalf("resolve config path failed: %v", err)
	}
	fmt.Printf("Using config: %s\n", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	var versionPtr *uint16
	if *version != "" {
		v, err := strconv.ParseUint(*version, 10, 16)
		if err != nil {
			log.Fatalf("bad -version: %v", err)
		}
		v16 := uint16(v)
		versionPtr = &v16
	}

	var client *nus.Client
	if cfg.IsDev() {
		client = nus.NewDevClient()
	} else {
		client = nus.NewRetailClient()
	}

	fmt.Printf("Downloading title %016x...\n", titleID)
	tmdBytes, err := client.FetchTMD(titleID, versionPtr)
	if err != nil {
		log.Fatalf("fetch tmd: %v", err)
	}
	tmd, err := wiititle.ParseTMD(tmdBytes)
	if err != nil {
		log.Fatalf("parse tmd: %v", err)
	}

	cetkBytes, err := client.FetchCetk(titleID)
	if err != nil {
		log.Fatalf("fetch cetk: %v", err)
	}

	titleDir := filepath.Join(cfg.Output.Dir, fmt.Sprintf("%016x", titleID))
	if err := os.MkdirAll(titleDir, 0o755); err != nil {
		log.Fatalf("create output dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(titleDir, "tmd"), tmdBytes, 0o644); err != nil {
		log.Fatalf("write tmd: %v", err)
	}
	if err := os.WriteFile(filepath.Join(titleDir, "cetk"), cetkBytes, 0o644); err != nil {
		log.Fatalf("write cetk: %v", err)
	}

	for _, rec := range tmd.Records() {
		contentBytes, err := client.FetchContent(titleID, rec.ContentID)
		if err != nil {
			log.Fatalf("fetch content %d: %v", rec.Index, err)
		}
		name := fmt.Sprintf("%08x.app", rec.ContentID)
		if err := os.WriteFile(filepath.Join(titleDir, name), contentBytes, 0o644); err != nil {
			log.Fatalf("write content %d: %v", rec.Index, err)
		}
		slog.Debug("downloaded content", "index", rec.Index, "content_id", rec.ContentID, "bytes", len(contentBytes))
	}

	fmt.Printf("Downloaded %d content(s) to %s\n", len(tmd.Records()), titleDir)
}

func defaultConfigPath() (string, error) {
	exePath, err := os.Executable()
	if err != nil {
		return "", err
	}
	exeConfigPath := filepath.Join(filepath.Dir(exePath), configFileName)
	if fileExists(exeConfigPath) {
		return exeConfigPath, nil
	}

	// Fallback for `go run`, where the executable is placed in a temp directory.
	cwd, err := os.Getwd()
	if err != nil {
		return exeConfigPath, nil
	}
	cwdConfigPath := filepath.Join(cwd, configFileName)
	if fileExists(cwdConfigPath) {
		return cwdConfigPath, nil
	}
	return exeConfigPath, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
