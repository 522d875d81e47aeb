package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/alexandria/alexandria/internal/capture"
	"github.com/alexandria/alexandria/internal/config"
	"github.com/alexandria/alexandria/internal/daemon"
	"github.com/alexandria/alexandria/internal/database"
	"github.com/alexandria/alexandria/internal/ocr"
	"github.com/alexandria/alexandria/internal/orchestrator"
	"github.com/alexandria/alexandria/internal/reporter"
	"github.com/alexandria/alexandria/internal/web"
	"github.com/alexandria/alexandria/pkg/compositor"
)

// setup loads configuration and prepares the application directories.
func setup() (*config.Config, error) {
	if err := config.EnsureDirs(); err != nil {
		return nil, err
	}

	cfg, err := config.Load()
	if err != nil {
		// A broken config file degrades to defaults with a warning.
		log.Printf("Warning: %v (continuing with defaults)", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func openStore(cfg *config.Config) (*database.DB, *database.Repository, error) {
	db, err := database.Connect(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Initialize(); err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, database.NewRepository(db), nil
}

// buildService assembles the capture pipeline. Unavailability of the
// screenshot tool, or of the OCR engine while OCR is enabled, is fatal
// here; everything later is best-effort.
func buildService(cfg *config.Config, repo *database.Repository) (*orchestrator.Service, error) {
	backend, err := capture.NewBackend(capture.Options{
		Backend:            cfg.Wayland.ScreenshotBackend,
		OutputSelection:    cfg.Wayland.OutputSelection,
		SpecificOutput:     cfg.Wayland.SpecificOutput,
		CompressionQuality: cfg.Screenshot.CompressionQuality,
	})
	if err != nil {
		return nil, err
	}

	provider := compositor.New()
	log.Printf("Detected compositor: %s", provider.Kind())

	var engine orchestrator.Recognizer
	if cfg.OCR.Enabled {
		eng, err := ocr.NewEngine(ocr.Options{
			Language:            cfg.OCR.Language,
			ConfidenceThreshold: cfg.OCR.ConfidenceThreshold,
			PreprocessImage:     cfg.OCR.PreprocessImage,
		})
		if err != nil {
			return nil, err
		}
		engine = eng
	} else {
		log.Println("OCR processing disabled")
	}

	return orchestrator.NewService(cfg, repo, backend, provider, engine), nil
}

func runCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the capture daemon until interrupted",
		Action: func(c *cli.Context) error {
			return runDaemon(false)
		},
	}
}

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the capture daemon with the read-only HTTP API",
		Action: func(c *cli.Context) error {
			return runDaemon(true)
		},
	}
}

func runDaemon(withWeb bool) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	// The daemon also logs to a file under the cache dir, so a
	// backgrounded process keeps a diagnosable record of recoverable
	// failures. Stderr stays attached for foreground runs.
	if logFile, err := os.OpenFile(cfg.LogFile(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644); err != nil {
		log.Printf("Warning: cannot open log file %s: %v", cfg.LogFile(), err)
	} else {
		defer logFile.Close()
		log.SetOutput(io.MultiWriter(os.Stderr, logFile))
	}

	dm := daemon.New(cfg.PIDFile())
	if running, pid, err := dm.IsRunning(); err != nil {
		return err
	} else if running {
		return fmt.Errorf("daemon is already running (PID: %d)", pid)
	}

	db, repo, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	svc, err := buildService(cfg, repo)
	if err != nil {
		return err
	}

	if err := dm.WritePID(); err != nil {
		return err
	}
	defer dm.RemovePID()

	// Cancellation is cooperative: the signal flips the context and the
	// loop exits between ticks.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Received shutdown signal")
		cancel()
	}()

	var server *web.Server
	if withWeb {
		server = web.NewServer(cfg, repo, svc)
		go func() {
			if err := server.Start(); err != nil && err != http.ErrServerClosed {
				log.Printf("Web server error: %v", err)
			}
		}()
	}

	log.Println("Starting alexandria daemon")
	err = svc.Run(ctx)

	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down web server: %v", err)
		}
	}

	if err != nil && err != context.Canceled {
		return err
	}
	log.Println("Daemon stopped")
	return nil
}

func captureCmd() *cli.Command {
	return &cli.Command{
		Name:  "capture",
		Usage: "Run exactly one capture cycle and exit",
		Action: func(c *cli.Context) error {
			cfg, err := setup()
			if err != nil {
				return err
			}

			db, repo, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			svc, err := buildService(cfg, repo)
			if err != nil {
				return err
			}

			svc.CaptureOnce()
			return nil
		},
	}
}

func stopCmd() *cli.Command {
	return &cli.Command{
		Name:  "stop",
		Usage: "Stop a running daemon",
		Action: func(c *cli.Context) error {
			cfg, err := setup()
			if err != nil {
				return err
			}

			dm := daemon.New(cfg.PIDFile())
			running, pid, err := dm.IsRunning()
			if err != nil {
				return err
			}
			if !running {
				fmt.Println("Daemon is not running")
				return nil
			}

			fmt.Printf("Stopping daemon (PID: %d)...\n", pid)
			if err := dm.Stop(); err != nil {
				return err
			}
			fmt.Println("Daemon stopped")
			return nil
		},
	}
}

func statusCmd() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show daemon status and store statistics as JSON",
		Action: func(c *cli.Context) error {
			cfg, err := setup()
			if err != nil {
				return err
			}

			db, repo, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			running, _, err := daemon.New(cfg.PIDFile()).IsRunning()
			if err != nil {
				return err
			}

			status := orchestrator.Status{
				Running:           running,
				ConfigFile:        cfg.ConfigFile(),
				DatabasePath:      cfg.Storage.DatabasePath,
				ScreenshotsDir:    cfg.ScreenshotsDir(),
				ScreenshotBackend: cfg.Wayland.ScreenshotBackend,
				Compositor:        string(compositor.Detect()),
				OCREnabled:        cfg.OCR.Enabled,
				IntervalMinutes:   cfg.Screenshot.IntervalMinutes,
			}
			if stats, err := repo.Statistics(); err == nil {
				status.Statistics = stats
			}

			return printJSON(c, status)
		},
	}
}

func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Print the merged configuration as JSON",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "path", Usage: "Print only the configuration file path"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			if c.Bool("path") {
				fmt.Fprintln(c.App.Writer, cfg.ConfigFile())
				return nil
			}
			return printJSON(c, cfg)
		},
	}
}

func searchCmd() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search memories by OCR text (non-private only)",
		ArgsUsage: "<text>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 50, Usage: "Maximum results"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("search requires a text argument")
			}

			cfg, err := setup()
			if err != nil {
				return err
			}
			db, repo, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			memories, err := repo.Search(strings.Join(c.Args().Slice(), " "), c.Int("limit"))
			if err != nil {
				return err
			}
			return printJSON(c, memories)
		},
	}
}

func listCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List memories with optional filters",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 100},
			&cli.IntFlag{Name: "offset", Value: 0},
			&cli.StringFlag{Name: "text", Usage: "Substring match on OCR text"},
			&cli.StringFlag{Name: "tags", Usage: "Comma-separated tags (all must match)"},
			&cli.TimestampFlag{Name: "from", Layout: time.RFC3339, Usage: "Start of time range"},
			&cli.TimestampFlag{Name: "to", Layout: time.RFC3339, Usage: "End of time range"},
			&cli.BoolFlag{Name: "include-private", Usage: "Include private memories"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			db, repo, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			filters := database.QueryFilters{
				SearchText:     c.String("text"),
				ExcludePrivate: !c.Bool("include-private"),
				Limit:          c.Int("limit"),
				Offset:         c.Int("offset"),
			}
			if tags := c.String("tags"); tags != "" {
				filters.Tags = strings.Split(tags, ",")
			}
			if from := c.Timestamp("from"); from != nil {
				filters.StartTime = from
			}
			if to := c.Timestamp("to"); to != nil {
				filters.EndTime = to
			}

			memories, err := repo.Query(filters)
			if err != nil {
				return err
			}
			return printJSON(c, memories)
		},
	}
}

func deleteCmd() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a memory and its files by id",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("delete requires exactly one id argument")
			}
			id, err := strconv.ParseUint(c.Args().First(), 10, 32)
			if err != nil {
				return fmt.Errorf("invalid id: %s", c.Args().First())
			}

			cfg, err := setup()
			if err != nil {
				return err
			}
			db, repo, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			deleted, err := repo.Delete(uint(id))
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("memory %d not found", id)
			}
			fmt.Printf("Deleted memory %d\n", id)
			return nil
		},
	}
}

func cleanupCmd() *cli.Command {
	return &cli.Command{
		Name:  "cleanup",
		Usage: "Delete memories older than the retention cutoff",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "days", Value: 0, Usage: "Retention days (defaults to configured value)"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			db, repo, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			days := c.Int("days")
			if days <= 0 {
				days = cfg.Storage.RetentionDays
			}
			if days <= 0 {
				return fmt.Errorf("no retention period configured")
			}

			count, err := repo.CleanupOlderThan(days)
			if err != nil {
				return err
			}
			fmt.Printf("Deleted %d memories older than %d days\n", count, days)
			return nil
		},
	}
}

func statsCmd() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show memory store statistics",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Output as JSON"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			db, repo, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			rep := reporter.New(repo)
			report, err := rep.Generate()
			if err != nil {
				return err
			}

			if c.Bool("json") {
				out, err := rep.FormatJSON(report)
				if err != nil {
					return err
				}
				fmt.Println(out)
				return nil
			}
			fmt.Print(rep.FormatText(report))
			return nil
		},
	}
}

func printJSON(c *cli.Context, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(data))
	return nil
}
