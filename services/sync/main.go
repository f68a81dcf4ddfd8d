// Copyright (C) 2025 TeamSync Labs (dev@teamsync.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/teamsync-labs/teamsync/pkg/auth"
	"github.com/teamsync-labs/teamsync/pkg/logging"
	"github.com/teamsync-labs/teamsync/services/sync/datatypes"
	"github.com/teamsync-labs/teamsync/services/sync/observability"
	"github.com/teamsync-labs/teamsync/services/sync/realtime"
	"github.com/teamsync-labs/teamsync/services/sync/routes"
	"github.com/teamsync-labs/teamsync/services/sync/store"
	"github.com/teamsync-labs/teamsync/services/sync/workflow"
)

// initTracer sets up the OTLP trace exporter when a collector endpoint is
// configured. Returns a nil cleanup when tracing is disabled.
func initTracer(ctx context.Context) (func(context.Context), error) {
	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		return nil, nil
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("sync-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

func main() {
	port := os.Getenv("SYNC_PORT")
	if port == "" {
		port = "12400"
	}

	logger, _ := logging.New(logging.Config{
		Level:   logging.ParseLevel(os.Getenv("SYNC_LOG_LEVEL")),
		Service: "sync",
		LogDir:  os.Getenv("SYNC_LOG_DIR"),
	})
	logger.SetAsDefault()
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cleanup, err := initTracer(ctx)
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	if cleanup != nil {
		defer cleanup(context.Background())
	}

	observability.InitMetrics()
	if err := datatypes.RegisterValidations(); err != nil {
		log.Fatalf("failed to register validations: %v", err)
	}

	dataDir := os.Getenv("SYNC_DATA_DIR")
	if dataDir == "" {
		dataDir = "./data/sync"
	}
	st, err := store.Open(store.DefaultConfig(dataDir))
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()
	go st.RunGC(ctx)

	secret := os.Getenv("SYNC_AUTH_SECRET")
	var provider auth.Provider
	if secret == "" {
		slog.Warn("SYNC_AUTH_SECRET not set, issued tokens are accepted without verification")
		provider = auth.NopProvider{}
	} else {
		provider, err = auth.NewHMACProvider([]byte(secret))
		if err != nil {
			log.Fatalf("failed to create auth provider: %v", err)
		}
	}

	var aiClient *openai.Client
	aiModel := os.Getenv("SYNC_AI_MODEL")
	if aiModel == "" {
		aiModel = openai.GPT4oMini
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg := openai.DefaultConfig(key)
		if base := os.Getenv("OPENAI_BASE_URL"); base != "" {
			cfg.BaseURL = base
		}
		aiClient = openai.NewClientWithConfig(cfg)
		slog.Info("AI backend configured", "model", aiModel)
	} else {
		slog.Info("OPENAI_API_KEY not set, AI suggestions disabled")
	}

	core := realtime.NewCore(logger.Logger)
	eval := workflow.NewEvaluator(st, logger.Logger)

	router := gin.Default()
	router.Use(otelgin.Middleware("sync-service"))
	routes.SetupRoutes(router, st, core, eval, provider, aiClient, aiModel)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting sync server", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down sync server")
		core.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("sync server failed: %v", err)
	}
}
