// Command kpl-child-supervisor-demo wires a Supervisor to a static
// credentials provider and a read-only diagnostics HTTP surface. It is a
// reference harness, not a deployable service: real deployments supply
// their own MessageHandler and CredentialsProvider.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/edirooss/kpl-child-supervisor/internal/credentials"
	"github.com/edirooss/kpl-child-supervisor/internal/diag"
	"github.com/edirooss/kpl-child-supervisor/internal/supervisor"
)

// staticProvider returns a fixed credential triple. Stands in for a real
// provider (STS, Vault, instance metadata) in this demo harness.
type staticProvider struct {
	creds credentials.Credentials
}

func (p staticProvider) Credentials(context.Context) (credentials.Credentials, error) {
	return p.creds, nil
}

// loggingHandler satisfies supervisor.MessageHandler by logging every
// inbound message and the terminal error.
type loggingHandler struct {
	log  *zap.Logger
	done chan error
}

func (h *loggingHandler) OnMessage(msg supervisor.Message) {
	h.log.Info("message from child", zap.Int("bytes", len(msg)))
}

func (h *loggingHandler) OnError(err error) {
	h.log.Error("supervisor terminal", zap.Error(err))
	h.done <- err
}

func main() {
	executable := flag.String("executable", "", "path to the native child binary")
	workDir := flag.String("workdir", os.TempDir(), "directory to create pipe files under")
	diagAddr := flag.String("diag-addr", "127.0.0.1:8090", "diagnostics HTTP listen address")
	flag.Parse()

	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.TimeKey = ""
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	log := zap.Must(logConfig.Build())
	defer log.Sync()
	log = log.Named("main")

	if *executable == "" {
		log.Fatal("-executable is required")
	}

	handler := &loggingHandler{log: log.Named("handler"), done: make(chan error, 1)}

	cfg := supervisor.Config{
		Executable:              *executable,
		WorkDir:                 *workDir,
		CredentialsRefreshDelay: 5 * time.Minute,
		Credentials: supervisor.CredentialsConfig{
			Primary: staticProvider{creds: credentials.Credentials{
				AccessKeyID: os.Getenv("AWS_ACCESS_KEY_ID"),
				SecretKey:   os.Getenv("AWS_SECRET_ACCESS_KEY"),
			}},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sup, err := supervisor.New(ctx, log.Named("supervisor"), cfg, handler)
	if err != nil {
		log.Fatal("supervisor startup failed", zap.Error(err))
	}

	diagEngine := diag.NewEngine(log, sup)
	diagServer := &http.Server{
		Addr:           *diagAddr,
		Handler:        diagEngine,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 15,
		ErrorLog:       zap.NewStdLog(log.Named("diag").WithOptions(zap.AddCallerSkip(1))),
	}

	go func() {
		log.Info("running diagnostics HTTP server", zap.String("addr", *diagAddr))
		if err := diagServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("diagnostics server failed", zap.Error(err))
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		sup.Destroy()
		<-handler.done
	case err := <-handler.done:
		log.Error("supervisor exited", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = diagServer.Shutdown(shutdownCtx)
}
