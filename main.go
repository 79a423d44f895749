package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/bcdannyboy/pricinglab/probability"
	"github.com/bcdannyboy/pricinglab/server"
	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	"github.com/xhhuango/json"
)

const shutdownTimeout = 10 * time.Second

// app carries what every command needs.
type app struct {
	cfg    Config
	logger *slog.Logger
	stdout io.Writer
	stderr io.Writer
}

type command struct {
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"bs":       {"price a European option with Black-Scholes-Merton", runBlackScholes},
	"binomial": {"price a European option on a CRR lattice", runBinomial},
	"iv":       {"solve the implied volatility of an option price", runImpliedVolatility},
	"sweep":    {"price and Greeks across a range of spots", runSweep},
	"mc":       {"Monte Carlo simulation (gbm, jump-diffusion, portfolio-var)", runMonteCarlo},
	"bond":     {"price a fixed-coupon bond", runBond},
	"curve":    {"fit a Nelson-Siegel yield curve", runCurve},
	"vol":      {"historical volatility and jump parameters from Tradier", runVolatility},
	"serve":    {"serve the JSON API", runServe},
}

func main() {
	if err := loadEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, err := loadConfig(os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{cfg: cfg, logger: newLogger(cfg.LogLevel), stdout: os.Stdout, stderr: os.Stderr}
	if err := a.run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		a.usage()
		return nil
	}
	cmd, ok := commands[args[0]]
	if !ok {
		a.usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
	return cmd.run(ctx, a, args[1:])
}

func (a *app) usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("usage: pricinglab <command> [flags]\n\ncommands:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "  %-9s %s\n", name, commands[name].summary)
	}
	b.WriteString("\nrun 'pricinglab <command> --help' for flags\n")
	fmt.Fprint(a.stderr, b.String())
}

func (a *app) flagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.SortFlags = false
	return fs
}

// parse reports whether the command should run; it is false after --help.
func parse(fs *pflag.FlagSet, args []string) (bool, error) {
	err := fs.Parse(args)
	if errors.Is(err, pflag.ErrHelp) {
		return false, nil
	}
	return err == nil, err
}

// emit writes v as indented JSON when asJSON is set, otherwise runs text.
func (a *app) emit(asJSON bool, v interface{}, text func(io.Writer) error) error {
	if !asJSON {
		return text(a.stdout)
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	_, err = fmt.Fprintln(a.stdout, string(out))
	return err
}

func (a *app) newEngine(opts ...probability.Option) *probability.Engine {
	opts = append([]probability.Option{
		probability.WithWorkers(a.cfg.Workers),
		probability.WithLogger(a.logger),
	}, opts...)
	return probability.NewEngine(opts...)
}

func runServe(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("serve")
	addr := fs.String("addr", a.cfg.Addr, "listen address")
	if ok, err := parse(fs, args); !ok {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              *addr,
		Handler:           server.NewRouter(a.newEngine(), a.logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", *addr, "workers", a.cfg.Workers)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
