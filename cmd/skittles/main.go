package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/banshee-data/skittles/internal/config"
	"github.com/banshee-data/skittles/internal/db"
	"github.com/banshee-data/skittles/internal/input"
	"github.com/banshee-data/skittles/internal/release"
	"github.com/banshee-data/skittles/internal/report"
	"github.com/banshee-data/skittles/internal/sensor"
	"github.com/banshee-data/skittles/internal/serialmux"
	"github.com/banshee-data/skittles/internal/trial"
	"github.com/banshee-data/skittles/internal/version"
)

var (
	configFile = flag.String("config", config.DefaultConfigPath, "Path to experiment configuration JSON")
	devMode    = flag.Bool("dev", false, "Run against a synthetic swinging joint instead of the tracker")
	headless   = flag.Bool("headless", false, "Drive the button from a script instead of the terminal mouse")
	port       = flag.String("port", "", "Serial port override (ignored in dev mode)")
	dbFile     = flag.String("db", "skittles.db", "Trial database path")
	listen     = flag.String("listen", "", "Debug HTTP listen address (empty disables)")
	plotsDir   = flag.String("plots", "", "Directory for trial plots (empty disables)")
	logFile    = flag.String("log", "skittles.log", "Log file used while the terminal screen is active")
	showVer    = flag.Bool("version", false, "Print version and exit")
)

// Synthetic joint used by -dev: a 30cm segment swinging 0.4 rad about
// vertical with a 4s period.
const (
	devPivotID   = 1
	devTipID     = 2
	devRadius    = 30.0
	devAmplitude = 0.4
	devSteps     = 200
	devInterval  = 10 * time.Millisecond
)

// scripted button timing used by -headless
const (
	scriptHold = 400 * time.Millisecond
	scriptGap  = 600 * time.Millisecond
)

func main() {
	flag.Parse()

	// runs after every other deferred cleanup
	exitCode := 0
	defer func() {
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	}()

	if *showVer {
		fmt.Println(version.String())
		return
	}

	if flag.NArg() > 0 && flag.Arg(0) == "migrate" {
		if err := db.RunMigrateCommand(flag.Args()[1:], *dbFile, os.Stdout); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		return
	}

	cfg, err := config.LoadExperimentConfig(*configFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	log.Printf("%s: loaded experiment config from %s", version.String(), *configFile)

	var tracker serialmux.SerialMuxInterface
	if *devMode {
		lines := serialmux.SyntheticSwing(devPivotID, devTipID, devRadius, math.Pi/2, devAmplitude, devSteps)
		tracker = serialmux.NewMockSerialMux(lines, devInterval)
	} else {
		sc := cfg.GetSerial()
		if *port != "" {
			sc.Port = *port
		}
		tracker, err = serialmux.NewRealSerialMux(sc.Port, serialmux.OptionsFromConfig(sc))
		if err != nil {
			log.Fatalf("failed to open tracker port: %v", err)
		}
	}
	defer tracker.Close()

	if err := tracker.Initialize(); err != nil {
		log.Fatalf("failed to initialize tracker: %v", err)
	}

	store, err := db.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// subscribe before monitoring so calibration sees the first lines
	subID, lines := tracker.Subscribe()
	defer tracker.Unsubscribe(subID)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tracker.Monitor(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("failed to monitor tracker port: %v", err)
		}
		log.Print("monitor routine terminated")
	}()

	if *listen != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveDebug(ctx, *listen, tracker, store)
		}()
	}

	session := trial.NewSession(trial.ConfigFromExperiment(cfg), nil)
	buttons := make(chan release.ButtonEvent, 4)

	if *headless {
		wg.Add(1)
		go func() {
			defer wg.Done()
			scriptedButtons(ctx, buttons, scriptHold, scriptGap)
		}()
	} else {
		screen, err := tcell.NewScreen()
		if err != nil {
			log.Fatalf("failed to create screen: %v", err)
		}
		if err := screen.Init(); err != nil {
			log.Fatalf("failed to initialize screen: %v", err)
		}
		restoreLog := redirectLog(*logFile)
		defer func() {
			screen.Fini()
			restoreLog()
		}()
		drawStatus(screen, fmt.Sprintf("trial %s: hold the left button to grab the paddle, let go to release. Esc quits.", session.ID()))

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := input.Run(ctx, screen, buttons); errors.Is(err, input.ErrQuit) {
				log.Print("operator quit")
				stop()
			}
		}()
	}

	r, runErr := session.Run(ctx, lines, buttons)
	stop()
	wg.Wait()

	var calErr *sensor.CalibrationError
	switch {
	case runErr == nil:
		log.Printf("trial %s complete: %s", r.ID, describeResult(r))
	case errors.Is(runErr, context.Canceled):
		log.Printf("trial %s aborted", r.ID)
	case errors.As(runErr, &calErr):
		log.Printf("trial %s failed calibration: %v", r.ID, calErr)
	default:
		log.Printf("trial %s failed: %v", r.ID, runErr)
	}

	if err := store.RecordTrial(r); err != nil {
		log.Printf("failed to record trial: %v", err)
	} else {
		log.Printf("recorded trial %s in %s", r.ID, *dbFile)
	}

	if *plotsDir != "" {
		paths, err := exportPlots(*plotsDir, r)
		if err != nil {
			log.Printf("failed to export plots: %v", err)
		}
		for _, p := range paths {
			log.Printf("wrote %s", p)
		}
	}

	log.Printf("Graceful shutdown complete")
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		exitCode = 1
	}
}

// serveDebug runs the /debug/ admin server until ctx is cancelled.
func serveDebug(ctx context.Context, addr string, tracker serialmux.SerialMuxInterface, store *db.DB) {
	mux := http.NewServeMux()
	tracker.AttachAdminRoutes(mux)
	if err := store.AttachAdminRoutes(mux); err != nil {
		log.Printf("failed to attach database admin routes: %v", err)
	}
	report.AttachAdminRoutes(mux, store)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("got request %q", r.URL.Path)
		mux.ServeHTTP(w, r)
	})

	server := &http.Server{
		Addr:    addr,
		Handler: h,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	log.Printf("HTTP server routine stopped")
}
