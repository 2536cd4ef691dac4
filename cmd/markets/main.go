package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"farmers_markets/internal/adapters/console"
	"farmers_markets/internal/adapters/csvload"
	"farmers_markets/internal/adapters/fetch"
	"farmers_markets/internal/adapters/jsonfile"
	"farmers_markets/internal/adapters/observability"
	"farmers_markets/internal/adapters/opsserver"
	redisad "farmers_markets/internal/adapters/redis"
	"farmers_markets/internal/app"
	"farmers_markets/internal/domain"
	"farmers_markets/internal/identity"
	"farmers_markets/internal/repl"
	"farmers_markets/internal/shared"
	mysqlrepo "farmers_markets/internal/storage/mysql"
	"farmers_markets/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := shared.Load()
	cmd := &cobra.Command{
		Use:          "markets",
		Short:        "Browse US farmers markets and share reviews",
		Long:         "Interactive console for the farmers-market catalog: search, sort by distance or rating, and review markets.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfg, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.MarketsSource, "data", cfg.MarketsSource, "market CSV file or http(s) URL")
	f.StringVar(&cfg.ReviewsPath, "reviews", cfg.ReviewsPath, "reviews JSON file")
	f.StringVar(&cfg.UsersPath, "users", cfg.UsersPath, "users JSON file")
	f.StringVar(&cfg.AppEnv, "env", cfg.AppEnv, "environment (dev enables console logs)")
	return cmd
}

func run(ctx context.Context, cfg shared.Config, in io.Reader, out io.Writer) error {
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	opsserver.New(observability.InitRegistry()).Serve(cfg.MetricsAddr)

	reviewFile := jsonfile.NewReviews(cfg.ReviewsPath)
	userFile := jsonfile.NewArray[identity.User](cfg.UsersPath)

	var (
		rows  []domain.RawRow
		snap  domain.ReviewsSnapshot
		users []identity.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		rows, err = csvload.Load(gctx, cfg.MarketsSource, fetch.New(cfg.FetchRPS, 60*time.Second))
		return err
	})
	g.Go(func() (err error) {
		snap, err = reviewFile.Load(gctx)
		return err
	})
	g.Go(func() (err error) {
		users, err = userFile.Load(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load data: %w", err)
	}

	records, rep := store.LoadRecords(rows)
	recordLoad(rep)

	reviews := store.NewReviews(nil)
	if skipped := reviews.Restore(snap); skipped > 0 {
		log.Warn().Int("skipped", skipped).Str("path", cfg.ReviewsPath).Msg("invalid reviews dropped on load")
	}
	log.Info().
		Int("markets", records.Len()).
		Int("reviews", reviews.Len()).
		Int("users", len(users)).
		Msg("data loaded")

	sinks := domain.MultiSink{reviewFile}
	if cfg.MySQLDSN != "" {
		repo, closeDB, err := openMirror(ctx, cfg.MySQLDSN, reviews.Snapshot())
		if err != nil {
			return err
		}
		defer closeDB()
		sinks = append(sinks, repo)
	}

	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable; cache disabled")
			_ = rc.Close()
		} else {
			defer rc.Close()
			cache = rc
		}
	}

	session := &identity.Session{}
	r := repl.New(repl.Deps{
		Queries: app.NewQueryService(records, reviews, cache, cfg.CacheTTL, cfg.DefaultPageSize, cfg.MaxPageSize),
		Reviews: app.NewReviewService(records, reviews, sinks, cache, session),
		Users:   identity.NewDirectory(users, userFile),
		Session: session,
		Out:     console.New(out),
		Prompt:  out,
	})
	return r.Run(ctx, in)
}

// recordLoad counts loaded rows and each skip reason under its own label.
func recordLoad(rep store.LoadReport) {
	observability.ObserveLoad("loaded", rep.Loaded)
	for reason, n := range rep.Reasons {
		observability.ObserveLoad(string(reason), n)
	}
}

// mirrorDSN forces parseTime=true and loc=UTC on dsn. Repo.Snapshot scans
// created_at into time.Time, which the driver only supports with parseTime.
func mirrorDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse MYSQL_DSN: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}

// openMirror connects the MySQL review mirror and brings it in line with snap.
// The DSN goes through mirrorDSN first, so callers may omit parseTime.
func openMirror(ctx context.Context, dsn string, snap domain.ReviewsSnapshot) (*mysqlrepo.Repo, func(), error) {
	dsn, err := mirrorDSN(dsn)
	if err != nil {
		return nil, nil, err
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("db.Ping: %w", err)
	}
	repo := mysqlrepo.New(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	if err := repo.ReplaceAll(ctx, snap); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("sync review mirror: %w", err)
	}
	log.Info().Int("reviews", len(snap.Reviews)).Msg("review mirror in sync")
	return repo, func() { _ = db.Close() }, nil
}
