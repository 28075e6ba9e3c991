// @title hloc-find status API
// @version 0.1.0
// @description Run status, health, metrics and stored location hints
package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexmarder/hloc/internal/core/version"
	"github.com/alexmarder/hloc/internal/modkit"
	"github.com/alexmarder/hloc/internal/modkit/module"
	"github.com/alexmarder/hloc/internal/modkit/repokit"
	"github.com/alexmarder/hloc/internal/platform/config"
	"github.com/alexmarder/hloc/internal/platform/logger"
	phttp "github.com/alexmarder/hloc/internal/platform/net/http"
	"github.com/alexmarder/hloc/internal/platform/store"
	"github.com/alexmarder/hloc/internal/platform/store/migrate"

	domdom "github.com/alexmarder/hloc/internal/services/domains/domain"
	dommod "github.com/alexmarder/hloc/internal/services/domains/module"
	domsvc "github.com/alexmarder/hloc/internal/services/domains/service"
	findmod "github.com/alexmarder/hloc/internal/services/find/module"
	findsvc "github.com/alexmarder/hloc/internal/services/find/service"
	hintsmod "github.com/alexmarder/hloc/internal/services/hints/module"
	locmod "github.com/alexmarder/hloc/internal/services/locations/module"
	locsvc "github.com/alexmarder/hloc/internal/services/locations/service"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func main() {
	boot := logger.New(logger.FromEnv())
	files := []string{".env"}
	if f := os.Getenv("HLOC_ENV_FILE"); f != "" {
		files = []string{f}
	}
	cfg := config.Load(boot, files...)

	// LOG_* may come from the dotenv file
	log := logger.New(logger.FromEnv())
	cfg = cfg.WithLogger(log)

	app := &cli.App{
		Name:    "hloc-find",
		Usage:   "find location hints in reverse DNS labels",
		Version: version.Info().String(),
		Commands: []*cli.Command{
			runCommand(log, cfg),
			migrateCommand(log, cfg),
			importLocationsCommand(log, cfg),
			importDomainsCommand(log, cfg),
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("hloc-find failed")
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// openStore opens Postgres and, when SERVICE_CLICKHOUSE_DBURL is set, ClickHouse
func openStore(ctx context.Context, log logger.Logger, cfg config.Conf) (*store.Store, error) {
	pgCfg := cfg.Prefix("SERVICE_PGSQL_")
	chCfg := cfg.Prefix("SERVICE_CLICKHOUSE_")
	chURL := chCfg.MayString("DBURL", "")

	st, err := store.Open(ctx, store.Config{
		AppName: "hloc-find",
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 8)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
		CH: store.CHConfig{
			Enabled: chURL != "",
			URL:     chURL,
		},
	}, store.WithLogger(log))
	if err != nil {
		return nil, err
	}
	repokit.MustGuard(ctx, st)
	return st, nil
}

func closeStore(log logger.Logger, st *store.Store) {
	if err := st.Close(context.Background()); err != nil {
		log.Error().Err(err).Msg("failed to close store")
	}
}

func migrateCommand(log logger.Logger, cfg config.Conf) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply the Postgres schema and create the ClickHouse summary table",
		Action: func(c *cli.Context) error {
			ctx, cancel := signalContext()
			defer cancel()

			st, err := openStore(ctx, log, cfg)
			if err != nil {
				return err
			}
			defer closeStore(log, st)

			n, err := migrate.Apply(ctx, st.PG)
			if err != nil {
				return err
			}
			log.Info().Int("statements", n).Msg("postgres schema applied")

			deps := modkit.FromStore(log, cfg, st)
			if deps.HasCH() {
				fm := findmod.New(deps, nil, modkit.WithPorts(findPorts(deps)))
				if err := fm.Summaries().EnsureTable(ctx); err != nil {
					return err
				}
				log.Info().Msg("clickhouse summary table ready")
			}
			return nil
		},
	}
}

func importLocationsCommand(log logger.Logger, cfg config.Conf) *cli.Command {
	return &cli.Command{
		Name:  "import-locations",
		Usage: "load a JSON location catalog into Postgres",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "catalog file (array or object keyed by id)", Required: true},
		},
		Action: func(c *cli.Context) error {
			ctx, cancel := signalContext()
			defer cancel()

			locs, err := locsvc.FileCatalog{Path: c.String("file")}.All(ctx)
			if err != nil {
				return err
			}
			st, err := openStore(ctx, log, cfg)
			if err != nil {
				return err
			}
			defer closeStore(log, st)

			lm := locmod.New(modkit.FromStore(log, cfg, st))
			n, err := module.MustPortsOf[locmod.Ports](lm).Import.Import(ctx, locs)
			if err != nil {
				return err
			}
			log.Info().Int("locations", n).Str("file", c.String("file")).Msg("catalog imported")
			return nil
		},
	}
}

func importDomainsCommand(log logger.Logger, cfg config.Conf) *cli.Command {
	return &cli.Command{
		Name:  "import-domains",
		Usage: `load "ip,name" reverse DNS records into Postgres`,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: `records file, "-" for stdin`, Value: "-"},
			&cli.IntFlag{Name: "batch", Usage: "records per transaction", Value: 5000},
			&cli.StringFlag{Name: "allowed-ips", EnvVars: []string{"CORE_DOMAINS_ALLOWED_IPS"}, TakesFile: true, Usage: "addresses to keep; other records are classified blacklisted"},
		},
		Action: func(c *cli.Context) error {
			ctx, cancel := signalContext()
			defer cancel()

			var r io.Reader = os.Stdin
			if p := c.String("file"); p != "-" {
				f, err := os.Open(p)
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			st, err := openStore(ctx, log, cfg)
			if err != nil {
				return err
			}
			defer closeStore(log, st)

			if c.IsSet("allowed-ips") {
				if err := os.Setenv("CORE_DOMAINS_ALLOWED_IPS", c.String("allowed-ips")); err != nil {
					return err
				}
			}
			dm := dommod.New(modkit.FromStore(log, cfg, st))
			imp := module.MustPortsOf[dommod.Ports](dm).Import

			total := domdom.ImportStats{ByClass: map[domdom.Classification]int{}}
			err = domsvc.ReadRecords(ctx, r, c.Int("batch"), func(recs []domdom.Record) error {
				s, err := imp.Import(ctx, recs)
				if err != nil {
					return err
				}
				total.Domains += s.Domains
				total.Skipped += s.Skipped
				for k, v := range s.ByClass {
					total.ByClass[k] += v
				}
				log.Debug().Int("domains", total.Domains).Msg("batch imported")
				return nil
			})
			if err != nil {
				return err
			}
			evt := log.Info().Int("domains", total.Domains).Int("skipped", total.Skipped)
			for k, v := range total.ByClass {
				evt = evt.Int(string(k), v)
			}
			evt.Msg("domains imported")
			return nil
		},
	}
}

// findPorts wires the find collaborators from their modules
func findPorts(deps modkit.Deps) findsvc.Ports {
	lm := locmod.New(deps)
	dm := dommod.New(deps)
	hm := hintsmod.New(deps)
	lp := module.MustPortsOf[locmod.Ports](lm)
	dp := module.MustPortsOf[dommod.Ports](dm)
	hp := module.MustPortsOf[hintsmod.Ports](hm)
	return findsvc.Ports{
		Catalog:  lp.Catalog,
		Shard:    dp.Shard,
		Searched: dp.Searched,
		Sessions: hp.Sessions,
	}
}

func runCommand(log logger.Logger, cfg config.Conf) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "search every eligible label and store location hints",
		Flags: runFlags(),
		Action: func(c *cli.Context) error {
			ctx, cancel := signalContext()
			defer cancel()

			if err := exportFlags(c); err != nil {
				return err
			}

			st, err := openStore(ctx, log, cfg)
			if err != nil {
				return err
			}
			defer closeStore(log, st)

			deps := modkit.FromStore(log, cfg, st)
			hm := hintsmod.New(deps)
			fm := findmod.New(deps, nil, modkit.WithPorts(findPorts(deps)))
			opts := fm.Options()
			if sink := fm.Summaries(); sink != nil {
				if err := sink.EnsureTable(ctx); err != nil {
					log.Warn().Err(err).Msg("summary table unavailable")
				}
			}
			svc := fm.Service()
			if opts.Progress {
				svc.Progress = &bar{}
			}

			g, gctx := errgroup.WithContext(ctx)
			srvCtx, stopSrv := context.WithCancel(gctx)
			defer stopSrv()
			if opts.StatusAddr != "" {
				srv := phttp.NewServer(opts.StatusAddr, log)
				fm.MountRoutes(srv.Router())
				hm.MountRoutes(srv.Router())
				g.Go(func() error { return srv.Run(srvCtx) })
			}

			rep, runErr := svc.Run(gctx)
			stopSrv()
			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("status server")
			}
			if runErr != nil {
				return runErr
			}
			if c.Bool("report-json") {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
			return nil
		},
	}
}
