package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/EO-DataHub/eodhp-echo-service/api/handlers"
	"github.com/EO-DataHub/eodhp-echo-service/api/middleware"
	"github.com/EO-DataHub/eodhp-echo-service/api/services"
	docs "github.com/EO-DataHub/eodhp-echo-service/docs"
	"github.com/EO-DataHub/eodhp-echo-service/internal/appconfig"
	"github.com/EO-DataHub/eodhp-echo-service/internal/archive"
	awsclient "github.com/EO-DataHub/eodhp-echo-service/internal/aws"
	"github.com/EO-DataHub/eodhp-echo-service/internal/events"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	httpSwagger "github.com/swaggo/http-swagger"
)

var (
	host  string
	port  int
	debug bool
)

// @title EODHP Echo Service API
// @version v1
// @description Accepts JSON payloads, records them and echoes them back.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server that echoes submitted JSON payloads",
	Run: func(cmd *cobra.Command, args []string) {

		// Load the config and set up logging
		commonSetUp()
		applyServeFlags(cmd, appCfg)

		if appCfg.Debug {
			setDevelopmentLogging()
			log.Warn().Msg("Development mode enabled, do not use in production")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Initialize the observability sinks
		recorder, closeSinks, err := initializeRecorders(ctx, appCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize recorders")
		}
		defer closeSinks()

		service := &services.Service{
			Config:   appCfg,
			Recorder: recorder,
		}

		srv := &http.Server{
			Addr:         appCfg.Addr(),
			Handler:      newRouter(service),
			ReadTimeout:  appCfg.Server.ReadTimeout,
			WriteTimeout: appCfg.Server.WriteTimeout,
			IdleTimeout:  appCfg.Server.IdleTimeout,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info().Msg(fmt.Sprintf("Server started at %s", appCfg.Addr()))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("could not start server")
			}
			return
		case <-ctx.Done():
		}

		log.Info().Msg("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), appCfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown did not complete cleanly")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&host, "host", appconfig.DefaultHost, "host to run the server on")
	serveCmd.Flags().IntVar(&port, "port", appconfig.DefaultPort, "port to run the server on")
	serveCmd.Flags().BoolVar(&debug, "debug", false, "run in development mode with verbose console logging")
}

// applyServeFlags lets explicitly set flags override the config file.
func applyServeFlags(cmd *cobra.Command, cfg *appconfig.Config) {
	if cmd.Flags().Changed("host") {
		cfg.Host = host
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = port
	}
	if cmd.Flags().Changed("debug") {
		cfg.Debug = debug
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
}

// newRouter registers the API, health and docs routes.
func newRouter(service *services.Service) *mux.Router {
	cfg := service.Config

	r := mux.NewRouter()
	r.Use(middleware.WithRequestID)
	r.Use(middleware.WithLogger)
	r.Use(middleware.Recoverer)

	// Unmatched routes skip the router middleware so wrap them explicitly
	r.NotFoundHandler = middleware.WithRequestID(middleware.WithLogger(handlers.NotFound()))
	r.MethodNotAllowedHandler = middleware.WithRequestID(middleware.WithLogger(handlers.MethodNotAllowed()))

	api := r
	if cfg.BasePath != "" {
		api = r.PathPrefix(cfg.BasePath).Subrouter()
		api.NotFoundHandler = r.NotFoundHandler
		api.MethodNotAllowedHandler = r.MethodNotAllowedHandler
	}

	api.HandleFunc("/process-data", handlers.ProcessData(service)).Methods(http.MethodPost)
	api.HandleFunc("/healthz", handlers.Health()).Methods(http.MethodGet)

	// Docs
	docs.SwaggerInfo.BasePath = cfg.BasePath
	r.PathPrefix(cfg.DocsPath).Handler(httpSwagger.Handler(
		httpSwagger.URL(path.Join(cfg.DocsPath, "/doc.json")),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("none"),
		httpSwagger.DomID("swagger-ui"),
	)).Methods(http.MethodGet)

	return r
}

// initializeRecorders builds the console sink plus any configured remote
// sinks. The returned func drains the queue and releases clients.
func initializeRecorders(ctx context.Context, cfg *appconfig.Config) (services.Recorder, func(), error) {
	var remote []services.NamedRecorder
	var closers []func()

	if cfg.Pulsar.URL != "" {
		publisher, err := events.NewEventPublisher(cfg.Pulsar.URL, cfg.Pulsar.Topic)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, publisher.Close)
		remote = append(remote, services.NamedRecorder{Name: "pulsar", Recorder: publisher})
		log.Info().Str("topic", cfg.Pulsar.Topic).Msg("Publishing submissions to Pulsar")
	}

	if cfg.AWS.S3.Bucket != "" {
		awsCfg, err := awsclient.LoadAWSConfig(ctx, cfg.AWS.Region)
		if err != nil {
			for _, c := range closers {
				c()
			}
			return nil, nil, err
		}
		remote = append(remote, services.NamedRecorder{Name: "s3", Recorder: &archive.S3Archiver{
			Client: awsclient.NewS3Client(awsCfg, cfg.AWS.S3.Endpoint),
			Bucket: cfg.AWS.S3.Bucket,
			Prefix: cfg.AWS.S3.Prefix,
		}})
		log.Info().Str("region", cfg.AWS.Region).Str("bucket", cfg.AWS.S3.Bucket).
			Msg("Archiving submissions to S3")
	}

	recorders := services.Recorders{services.LogRecorder{}}
	if len(remote) == 0 {
		return recorders, func() {}, nil
	}

	dispatcher := services.NewDispatcher(services.DispatcherOptions{
		QueueSize: cfg.Recorder.QueueSize,
		Workers:   cfg.Recorder.Workers,
		Timeout:   cfg.Recorder.Timeout,
	}, remote...)
	recorders = append(recorders, dispatcher)

	// Drain queued submissions before closing the clients they use
	return recorders, func() {
		dispatcher.Close()
		for _, c := range closers {
			c()
		}
	}, nil
}
