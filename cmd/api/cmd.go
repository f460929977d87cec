// Package api implements the mitchellh/cli.Command that boots the HTTP
// gateway, following cmd/api/cmd.go's flag-set, Run, Help, Synopsis shape
// and its os/signal + syscall graceful shutdown.
package api

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mitchellh/cli"
	jaegerPropagator "go.opentelemetry.io/contrib/propagators/jaeger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	"github.com/yusufsyaifudin/ngendika/config"
	"github.com/yusufsyaifudin/ngendika/container"
	"github.com/yusufsyaifudin/ngendika/pkg/tracer"
)

const (
	ExitSuccess = 0
	ExitErr     = -1
)

type Cmd struct {
	flags      *flag.FlagSet
	appName    string
	appVersion string
}

func NewCmd(appName, appVersion string) func() (cli.Command, error) {
	return func() (cli.Command, error) {
		cmd := &Cmd{
			flags:      &flag.FlagSet{},
			appName:    appName,
			appVersion: appVersion,
		}
		err := cmd.init()
		return cmd, err
	}
}

var _ cli.Command = (*Cmd)(nil)
var _ cli.CommandFactory = NewCmd("", "")

func (c *Cmd) init() error {
	c.flags = flag.NewFlagSet("api", flag.ContinueOnError)
	return nil
}

func (c *Cmd) Help() string {
	return `api starts the notification gateway's HTTP server`
}

func (c *Cmd) Run(args []string) int {
	if err := c.flags.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "error parsing arguments: %s\n", err)
		return ExitErr
	}

	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating logger: %s\n", err)
		return ExitErr
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Error("error loading config", zap.Error(err))
		return ExitErr
	}

	if cfg.TracingEnabled {
		exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.JaegerEndpoint)))
		if err != nil {
			log.Error("error setting up jaeger exporter", zap.Error(err))
			return ExitErr
		}

		tracer.InitTraceProvider(exp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			&jaegerPropagator.Jaeger{},
		))
	}

	log.Info("setting up container")
	appContainer, err := container.Setup(ctx, cfg)
	if err != nil {
		log.Error("error setting up container", zap.Error(err))
		return ExitErr
	}

	defer func() {
		log.Info("closing container")
		if err := appContainer.Close(); err != nil {
			log.Error("error closing container", zap.Error(err))
		}
	}()

	logBootstrap(log, appContainer.Bootstrap())

	log.Info("preparing http transport")
	transport, err := appContainer.HTTPTransport()
	if err != nil {
		log.Error("error preparing http transport", zap.Error(err))
		return ExitErr
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: transport.Server(),
	}

	log.Info("http transport is up", zap.String("addr", addr))

	errChan := make(chan error, 1)
	go func() {
		errChan <- httpServer.ListenAndServe()
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-signalChan:
		log.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("error shutting down http server", zap.Error(err))
		}

	case err := <-errChan:
		if err != nil && err != http.ErrServerClosed {
			log.Error("http server error", zap.Error(err))
		}
	}

	return ExitSuccess
}

func (c *Cmd) Synopsis() string {
	return `api starts the notification gateway's HTTP server`
}

// logBootstrap prints any admin secret the container generated this run.
// EnsureAdminSettings/EnsureAdminUser are idempotent, so on a restart of an
// already-bootstrapped deployment the generated fields are empty; the
// weak-base-path warning is still logged on every start while the stored
// path is weak.
func logBootstrap(log *zap.Logger, result container.BootstrapResult) {
	if result.Settings.GeneratedBasePath {
		log.Warn("generated admin base path", zap.String("basePath", result.Settings.BasePath))
	}

	if result.Settings.WeakBasePath {
		log.Warn("admin base path is weak, consider setting ADMIN_BASE_PATH", zap.String("basePath", result.Settings.BasePath))
	}

	if result.Settings.GeneratedSecret {
		log.Warn("generated admin session secret")
	}

	if result.User.Created && result.User.GeneratedPassword != "" {
		log.Warn("generated admin bootstrap password", zap.String("password", result.User.GeneratedPassword))
	}
}
