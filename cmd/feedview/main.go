package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/HamStudy/feedview/configs"
	"github.com/HamStudy/feedview/internal/config"
	"github.com/HamStudy/feedview/internal/core"
	"github.com/HamStudy/feedview/internal/restore"
	"github.com/HamStudy/feedview/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// CLIFlags holds all command-line flags
type CLIFlags struct {
	configDir       string
	feed            string
	statePath       string
	logFile         string
	debug           bool
	markdown        bool
	markdownSet     bool
	overscan        int
	estimatedHeight int
	printConfig     bool
	version         bool
}

func parseFlags(args []string) (*CLIFlags, error) {
	flags := &CLIFlags{}
	fs := pflag.NewFlagSet("feedview", pflag.ContinueOnError)

	fs.StringVar(&flags.configDir, "config-dir", "", "Directory holding config.yaml (default ~/.config/feedview, or FEEDVIEW_CONFIG_DIR)")
	fs.StringVarP(&flags.feed, "feed", "f", "", "Feed to show first")
	fs.StringVar(&flags.statePath, "state", "", "File that keeps scroll positions between runs (default <config-dir>/state.json)")
	fs.StringVar(&flags.logFile, "log-file", "", "Debug log file (default feedview.log)")
	fs.BoolVarP(&flags.debug, "debug", "d", false, "Write a debug log and show timings in the status bar")
	fs.BoolVarP(&flags.markdown, "markdown", "m", false, "Render post bodies as markdown")
	fs.IntVar(&flags.overscan, "overscan", -1, "Extra posts rendered beyond each edge of the screen")
	fs.IntVar(&flags.estimatedHeight, "estimated-height", 0, "Height in lines assumed for posts not yet measured")
	fs.BoolVar(&flags.printConfig, "print-config", false, "Print an example config.yaml and quit")
	fs.BoolVarP(&flags.version, "version", "v", false, "Print version information and quit")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "feedview - scroll large social feeds in the terminal\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  feedview [flags] [feed]\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nKeyboard Shortcuts:\n")
		fmt.Fprintf(os.Stderr, "  j/k        - Next/previous post\n")
		fmt.Fprintf(os.Stderr, "  PgDn/PgUp  - Page down/up\n")
		fmt.Fprintf(os.Stderr, "  g/G        - Newest/oldest loaded post\n")
		fmt.Fprintf(os.Stderr, "  Tab        - Next feed\n")
		fmt.Fprintf(os.Stderr, "  m          - Toggle markdown\n")
		fmt.Fprintf(os.Stderr, "  ?          - Show help\n")
		fmt.Fprintf(os.Stderr, "  q/Ctrl+C   - Quit\n")
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	flags.markdownSet = fs.Changed("markdown")

	// The first positional argument names the initial feed
	if rest := fs.Args(); len(rest) > 0 && flags.feed == "" {
		flags.feed = rest[0]
	}
	return flags, nil
}

// loadConfigWithFlags loads the runtime configuration with CLI flag overrides
func loadConfigWithFlags(flags *CLIFlags) (*core.Config, error) {
	cfg, err := core.LoadConfig()
	if err != nil {
		return nil, err
	}

	if flags.configDir != "" {
		cfg.ConfigDir = flags.configDir
	}
	if flags.feed != "" {
		cfg.InitialFeed = flags.feed
	}
	if flags.statePath != "" {
		cfg.StatePath = flags.statePath
	}
	if flags.logFile != "" {
		cfg.LogFile = flags.logFile
	}
	if flags.debug {
		cfg.Debug = true
	}
	if flags.markdownSet {
		on := flags.markdown
		cfg.Markdown = &on
	}
	if flags.overscan >= 0 {
		cfg.Overscan = flags.overscan
	}
	if flags.estimatedHeight > 0 {
		cfg.EstimatedHeight = flags.estimatedHeight
	}
	return cfg, nil
}

func main() {
	flags, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if flags.version {
		fmt.Printf("feedview version %s (commit: %s, built: %s)\n", Version, Commit, BuildTime)
		os.Exit(0)
	}

	if flags.printConfig {
		os.Stdout.Write(configs.Example)
		os.Exit(0)
	}

	rc, err := loadConfigWithFlags(flags)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// The terminal belongs to the UI, so logs go to a file or nowhere
	if rc.Debug {
		f, err := tea.LogToFile(rc.LogFile, "feedview")
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	dir := rc.ConfigDir
	if dir == "" {
		dir = config.DefaultDir()
	}
	loader := config.NewLoader(dir)
	if err := loader.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load %s: %v\n", loader.Path(), err)
		os.Exit(1)
	}

	statePath := rc.StatePath
	if statePath == "" {
		statePath = loader.RestorationPath()
	}
	store := restore.NewFileStore(statePath)
	if err := store.Load(); err != nil {
		log.Printf("Ignoring saved scroll positions: %v", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	state := core.NewState(rc, loader.Get().FeedNames())
	app := ui.NewApp(ctx, state, ui.Options{Loader: loader, Store: store})

	p := tea.NewProgram(app,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	_, runErr := p.Run()

	app.Close()
	if err := store.Flush(); err != nil {
		log.Printf("Failed to save scroll positions: %v", err)
	}

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		fmt.Fprintf(os.Stderr, "Error running application: %v\n", runErr)
		os.Exit(1)
	}
}
