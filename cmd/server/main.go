package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gliderlabs/ssh"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/qnkhuat/chesscoach/pkg/api"
	"github.com/qnkhuat/chesscoach/pkg/commentary"
	"github.com/qnkhuat/chesscoach/pkg/logging"
	"github.com/qnkhuat/chesscoach/pkg/sshhost"
	"github.com/qnkhuat/chesscoach/pkg/store"
)

const (
	DefaultAddr     = ":8080"
	ShutdownTimeout = 10 * time.Second
)

func main() {
	addr := flag.String("addr", DefaultAddr, "http listen address")
	sshAddr := flag.String("ssh", "", "ssh listen address, e.g. :2222 (disabled when empty)")
	hostKey := flag.String("ssh-host-key", "", "path to the ssh host key (a throwaway key is generated when empty)")
	client := flag.String("chessterm", "chessterm", "path to the chessterm binary served over ssh")
	provider := flag.String("provider", commentary.ProviderOpenAI, "commentary provider: openai, gemini or gemini-1.0")
	cacheDir := flag.String("cache-dir", "", "directory for the commentary cache (in memory when empty)")
	cacheTTL := flag.Duration("cache-ttl", 30*24*time.Hour, "how long cached commentary is kept")
	logPath := flag.String("log", "", "path to log file (stderr when empty)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	log := logging.Console(os.Stderr, "server", *debug)
	if *logPath != "" {
		l, closer, err := logging.InitLog(*logPath, "server", *debug)
		if err != nil {
			log.Fatal().Err(err).Str("path", *logPath).Msg("open log file")
		}
		defer closer.Close()
		log = l
	}

	if err := run(log, config{
		addr:     *addr,
		sshAddr:  *sshAddr,
		hostKey:  *hostKey,
		client:   *client,
		provider: *provider,
		cacheDir: *cacheDir,
		cacheTTL: *cacheTTL,
	}); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

type config struct {
	addr     string
	sshAddr  string
	hostKey  string
	client   string
	provider string
	cacheDir string
	cacheTTL time.Duration
}

func run(log zerolog.Logger, cfg config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := commentary.New(ctx, cfg.provider, commentary.Keys{
		OpenAI: os.Getenv("OPENAI_API_KEY"),
		Gemini: os.Getenv("GEMINI_API_KEY"),
	})
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.cacheDir, store.WithTTL(cfg.cacheTTL))
	if err != nil {
		return err
	}
	defer db.Close()
	cached := commentary.NewCached(p, db, log)

	e := api.New(api.NewHandler(cached, log))

	var host *sshhost.Host
	if cfg.sshAddr != "" {
		host, err = sshhost.New(sshhost.Config{
			Addr:        cfg.sshAddr,
			Binary:      cfg.client,
			Args:        []string{"-api", localURL(cfg.addr) + api.AnalyzePath},
			HostKeyFile: cfg.hostKey,
		}, log)
		if err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.addr).Str("provider", p.Name()).Msg("http server listening")
		if err := e.Start(cfg.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if host != nil {
		g.Go(func() error {
			if err := host.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		var errs []error
		if err := e.Shutdown(sctx); err != nil {
			errs = append(errs, err)
		}
		if host != nil {
			if err := host.Shutdown(sctx); err != nil {
				errs = append(errs, err)
			}
		}
		hits, misses := cached.Stats()
		entries, err := db.Count()
		if err != nil {
			log.Warn().Err(err).Msg("count cache entries")
		}
		log.Info().
			Uint64("cache_hits", hits).
			Uint64("cache_misses", misses).
			Float64("cache_hit_rate", cached.HitRate()).
			Int("cache_entries", entries).
			Msg("bye")
		return errors.Join(errs...)
	})
	return g.Wait()
}

// localURL is the address sessions on this machine use to reach addr.
func localURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s", net.JoinHostPort(host, port))
}
