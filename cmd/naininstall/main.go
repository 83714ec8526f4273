// Command naininstall installs a WAD into an EmuNAND-style directory
// tree, or removes a previously installed title from one. Removal is
// destructive, so it asks for a raw single-keypress confirmation before
// touching the filesystem.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/halsey-tools/wiititle/cmd/naininstall/internal/config"
	"github.com/halsey-tools/wiititle/pkg/emunand"
	"github.com/halsey-tools/wiititle/pkg/wiititle"
	"golang.org/x/term"
)

const configFileName = "config.yaml"

func main() {
	verbose := flag.Bool("v", false, "enable debug logging")
	logFormat := flag.String("log-format", "text", "log format: text or json")
	wadPath := flag.String("wad", "", "path to the WAD file to install")
	removeTitleIDHex := flag.String("remove", "", "16-hex-digit title ID to remove instead of installing")
	yes := flag.Bool("yes", false, "skip the confirmation prompt for removal")
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

	if *wadPath == "" && *removeTitleIDHex == "" {
		log.Fatalf("either -wad or -remove is required")
	}
	if *wadPath != "" && *removeTitleIDHex != "" {
		log.Fatalf("-wad and -remove are mutually exclusive")
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
	store := &emunand.Store{Root: cfg.EmuNAND.Root}

	if *removeTitleIDHex != "" {
		titleID, err := strconv.ParseUint(*removeTitleIDHex, 16, 64)
		if err != nil {
			log.Fatalf("bad -remove: %v", err)
		}
		if !*yes && !confirmRaw(fmt.Sprintf("Remove title %016x from %s? (y/n): ", titleID, cfg.EmuNAND.Root)) {
			fmt.Println("Cancelled.")
			os.Exit(0)
		}
		if err := store.RemoveTitle(titleID); err != nil {
			log.Fatalf("remove title: %v", err)
		}
		fmt.Printf("Removed title %016x\n", titleID)
		return
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

	fmt.Printf("Installing title %016x (version %d) into %s\n", title.TMD.TitleID(), title.TMD.TitleVersion(), cfg.EmuNAND.Root)
	if err := store.InstallTitle(title); err != nil {
		log.Fatalf("install title: %v", err)
	}
	fmt.Println("Title installed successfully!")
}

// confirmRaw puts stdin into raw mode to read a single y/n keypress,
// avoiding a buffered line read that would swallow any following input.
func confirmRaw(prompt string) bool {
	fmt.Print(prompt)
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		// Not a terminal (e.g. piped input in scripts/tests); fall back
		// to treating any non-affirmative input as "no".
		var resp string
		fmt.Scanln(&resp)
		return resp == "y" || resp == "yes"
	}
	defer term.Restore(fd, oldState)

	buf := make([]byte, 1)
	if _, err := os.Stdin.Read(buf); err != nil {
		fmt.Print("\r\n")
		return false
	}
	fmt.Print("\r\n")
	return buf[0] == 'y' || buf[0] == 'Y'
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
