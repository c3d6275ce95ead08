package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"GridSpace/internal/board"
	"GridSpace/internal/config"
	gnet "GridSpace/internal/net"
	"GridSpace/internal/session"
	"GridSpace/internal/ui"
)

const discoveryTimeout = 3 * time.Second

func main() {
	if err := mainInner(); err != nil {
		slog.Error("failed", "err", err)
		os.Exit(1)
	}
}

func mainInner() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("gridspace", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "session server listen address")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "sqlite database path")
	fs.StringVar(&cfg.Name, "name", cfg.Name, "display name")
	fs.BoolVar(&cfg.MDNS, "mdns", cfg.MDNS, "advertise the server on the local network")
	fs.TextVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: %s [flags] [serve | gridspace://host:port/code | gridspace://code]\n", os.Args[0])
		fs.PrintDefaults()
	}
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	logger := cfg.Logger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch args := fs.Args(); {
	case len(args) == 0:
		return runHost(ctx, cfg, logger)
	case args[0] == "serve":
		return runServer(ctx, cfg, logger)
	case gnet.IsLink(args[0]):
		return runClient(ctx, cfg, args[0], logger)
	default:
		fs.Usage()
		return fmt.Errorf("unexpected argument %q", args[0])
	}
}

// server is the session directory backed by SQLite and exposed over HTTP.
type server struct {
	store *session.SQLStore
	dir   *session.Service
	http  *gnet.Server
}

func openServer(cfg *config.Config, logger *slog.Logger) (*server, error) {
	store, err := session.OpenSQL(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	dir := session.NewService(store, logger)
	return &server{store: store, dir: dir, http: gnet.NewServer(store, dir, logger)}, nil
}

// start serves HTTP on g until ctx is done and advertises the server when
// mDNS is enabled. An advertisement failure is not fatal.
func (s *server) start(ctx context.Context, g *errgroup.Group, cfg *config.Config, logger *slog.Logger, codes ...string) error {
	port, err := cfg.Port()
	if err != nil {
		return err
	}
	if cfg.MDNS {
		ad, err := gnet.Advertise(port, codes...)
		if err != nil {
			logger.Warn("not advertising on the local network", "err", err)
		} else {
			context.AfterFunc(ctx, func() { _ = ad.Close() })
		}
	}
	g.Go(func() error {
		return s.http.ListenAndServe(ctx, cfg.Addr)
	})
	return nil
}

func runServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	srv, err := openServer(cfg, logger)
	if err != nil {
		return err
	}
	defer srv.store.Close()

	g, ctx := errgroup.WithContext(ctx)
	if err := srv.start(ctx, g, cfg, logger); err != nil {
		return err
	}
	return g.Wait()
}

// runHost creates a session on a local server and opens it in the GUI.
func runHost(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting as host")
	id, err := session.LoadIdentity(cfg.IdentityPath)
	if err != nil {
		return err
	}
	srv, err := openServer(cfg, logger)
	if err != nil {
		return err
	}
	defer srv.store.Close()

	rec, err := srv.dir.Create(ctx, id.UserID(), cfg.Name)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	if err := srv.start(ctx, g, cfg, logger, rec.ShortCode); err != nil {
		return err
	}

	client, err := board.Open(ctx, srv.store, rec.ShortCode, id, logger)
	if err != nil {
		return err
	}
	g.Go(func() error { return client.Run(ctx) })

	link := gnet.Link{Addr: shareAddr(cfg), Code: rec.ShortCode}
	logger.Info("session ready", "code", rec.ShortCode, "link", link.String())

	ui.RunApp(ctx, ui.Options{
		Title:     "GridSpace - " + rec.ShortCode,
		ShareLink: link.String(),
		Client:    client,
		Directory: srv.dir,
		Logger:    logger,
	})
	cancel()
	return g.Wait()
}

// runClient joins the session named by a gridspace:// link.
func runClient(ctx context.Context, cfg *config.Config, raw string, logger *slog.Logger) error {
	logger.Info("starting as client")
	link, err := gnet.ParseLink(raw)
	if err != nil {
		return err
	}
	id, err := session.LoadIdentity(cfg.IdentityPath)
	if err != nil {
		return err
	}
	if link.Addr == "" {
		if link.Addr, err = discover(ctx, link.Code, logger); err != nil {
			return err
		}
	}

	remote, err := gnet.NewClient(link.Addr, id.UserID(), logger)
	if err != nil {
		return err
	}
	if _, err := remote.Join(ctx, link.Code, id.UserID(), cfg.Name); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	client, err := board.Open(ctx, remote, link.Code, id, logger)
	if err != nil {
		return err
	}
	g.Go(func() error { return client.Run(ctx) })

	ui.RunApp(ctx, ui.Options{
		Title:     "GridSpace - " + link.Code,
		ShareLink: link.String(),
		Client:    client,
		Directory: remote,
		Logger:    logger,
	})
	cancel()
	return g.Wait()
}

// shareAddr is the address other machines should dial to reach this server.
func shareAddr(cfg *config.Config) string {
	port, err := cfg.Port()
	if err != nil {
		return cfg.Addr
	}
	return net.JoinHostPort(gnet.LocalIP().String(), strconv.Itoa(port))
}

// discover finds the server hosting code on the local network. Servers
// started with serve do not list their codes, so those are asked directly.
func discover(ctx context.Context, code string, logger *slog.Logger) (string, error) {
	if h, err := gnet.FindSession(ctx, code, discoveryTimeout); err == nil {
		return h.Addr, nil
	}

	var hosts []gnet.Host
	if err := gnet.Browse(ctx, discoveryTimeout, func(h gnet.Host) { hosts = append(hosts, h) }); err != nil {
		return "", err
	}
	for _, h := range hosts {
		c, err := gnet.NewClient(h.Addr, "", logger)
		if err != nil {
			continue
		}
		if _, err := c.Get(ctx, code); err == nil {
			return h.Addr, nil
		}
	}
	return "", fmt.Errorf("find session %s on the local network: %w", code, session.ErrNotFound)
}
