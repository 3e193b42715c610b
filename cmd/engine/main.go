package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ektamehra-ue/uelogic/pkg/common"
	"github.com/ektamehra-ue/uelogic/pkg/db"
	"github.com/ektamehra-ue/uelogic/pkg/engine"
	engineHttp "github.com/ektamehra-ue/uelogic/pkg/http"
	"github.com/ektamehra-ue/uelogic/pkg/loader"
	"github.com/ektamehra-ue/uelogic/pkg/metrics"
	"github.com/ektamehra-ue/uelogic/pkg/report"
	"github.com/ektamehra-ue/uelogic/pkg/store"
)

var (
	org     = flag.String("org", "", "organization name, all organizations when empty")
	site    = flag.String("site", "", "building name inside -org")
	since   = flag.String("since", "", "window start, RFC3339, inclusive")
	until   = flag.String("until", "", "window end, RFC3339, exclusive")
	dryRun  = flag.Bool("dry-run", false, "compute and report without writing")
	load    = flag.String("load", "", "catalog YAML to load before running")
	export  = flag.String("export", "", "write the run report to this .xlsx or .pdf file")
	serve   = flag.Bool("serve", false, "serve the HTTP API instead of running once")
	timeout = flag.Duration("timeout", 0, "cancel the run after this long, 0 for no limit")
)

func parseBound(name, value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		log.Fatalf("Invalid -%s %q, should be RFC3339: %v", name, value, err)
	}
	t = t.UTC()
	return &t
}

func exportFormat(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

func main() {
	flag.Parse()

	// .env is optional, the environment may already carry everything
	_ = godotenv.Load()

	cfg, err := common.LoadConfig()
	if err != nil {
		log.Fatal("Error loading configuration: ", err)
	}

	if *export != "" {
		if f := exportFormat(*export); f != report.FormatXLSX && f != report.FormatPDF {
			log.Fatalf("Unknown export format %q, use .xlsx or .pdf", f)
		}
	}
	opts := engine.RunOptions{
		Scope:  engine.Scope{OrgName: *org, SiteName: *site},
		Since:  parseBound("since", *since),
		Until:  parseBound("until", *until),
		DryRun: *dryRun,
	}

	logger := common.GetLoggerWith(common.LoggerNameCLI)
	defer common.SyncLogger()

	dbInstance := db.GetInstance(db.Dialector(cfg))
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *load != "" {
		result, err := loader.LoadFile(ctx, dbInstance, *load, loader.Options{DryRun: *dryRun})
		if err != nil {
			logger.Error("Catalog load failed", zap.String("path", *load), zap.Error(err))
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		out, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(out))
		if *org == "" && !*serve {
			return
		}
	}

	eng, err := engine.New(store.NewReadings(dbInstance), store.NewCatalog(dbInstance), engine.OptionsFromConfig(cfg))
	if err != nil {
		log.Fatal("Error creating engine: ", err)
	}

	if *serve {
		rs := &engineHttp.RestfulServer{
			Server:           gin.Default(),
			Engine:           eng,
			Runs:             store.NewRuns(dbInstance),
			RateLimiterStore: engineHttp.RateLimiterStoreFromConfig(cfg),
		}
		rs.Setup()

		logger.Info("http server created with:",
			zap.String("default_limiter",
				fmt.Sprintf("{\"default_rate\": %v, \"default_burst\": %v}", cfg.RunRate, cfg.RunBurst)))

		logger.Info("Starting HTTP server on: " + cfg.HttpHostPort)
		if err := rs.Server.Run(cfg.HttpHostPort); err != nil {
			log.Fatalf("http server failed to serve: %v", err)
		}
		return
	}

	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	r, err := eng.Run(ctx, opts)
	if r != nil {
		printReport(r)
	}
	if err != nil {
		kind := "storage"
		if errors.Is(err, engine.ErrConfiguration) {
			kind = "configuration"
		} else if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			kind = "cancelled"
		}
		fmt.Fprintf(os.Stderr, "%s error: %v\n", kind, err)
		common.SyncLogger()
		os.Exit(1)
	}

	if *export != "" {
		data, err := report.Build(r, exportFormat(*export))
		if err == nil {
			err = os.WriteFile(*export, data, 0o644)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "export error: %v\n", err)
			common.SyncLogger()
			os.Exit(1)
		}
		fmt.Printf("report written to %s\n", *export)
	}
}

func printReport(r *engine.RunReport) {
	t := r.Totals()
	state := "committed"
	switch {
	case r.DryRun:
		state = "dry run"
	case !r.Committed:
		state = "not committed"
	}
	fmt.Printf("run %s (%s) window %s\n", r.RunID, state, r.Window)
	fmt.Printf("written=%d updated=%d skipped=%d failed=%d staged=%d\n",
		t.Written, t.Updated, t.Skipped, t.Failed, t.Staged)
	for _, w := range r.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	for _, a := range r.Anomalies {
		fmt.Printf("skipped %s at %s: %s %s\n",
			a.Identifier, a.Timestamp.Format(time.RFC3339), a.Kind, a.Detail)
	}
}
