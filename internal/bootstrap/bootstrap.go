package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"mealvision-server/internal/app/services"
	visionprovider "mealvision-server/internal/core/providers/vision"
	domainauth "mealvision-server/internal/domain/auth"
	authstore "mealvision-server/internal/domain/auth/store"
	"mealvision-server/internal/domain/eventbus"
	domainimage "mealvision-server/internal/domain/image"
	"mealvision-server/internal/domain/pipeline"
	"mealvision-server/internal/platform/artifact"
	platformconfig "mealvision-server/internal/platform/config"
	platformerrors "mealvision-server/internal/platform/errors"
	platformlogging "mealvision-server/internal/platform/logging"
	platformobservability "mealvision-server/internal/platform/observability"
	platformstorage "mealvision-server/internal/platform/storage"
	httptransport "mealvision-server/internal/transport/http"
	httpmeals "mealvision-server/internal/transport/http/meals"
	httpwebapi "mealvision-server/internal/transport/http/webapi"
	wstransport "mealvision-server/internal/transport/ws"
)

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      platformerrors.Kind
	Execute   stepFn
}

type appState struct {
	configPath            string
	config                *platformconfig.Config
	logger                *platformlogging.Logger
	observabilityShutdown platformobservability.ShutdownFunc
	db                    *gorm.DB
	bus                   *eventbus.Bus
	authService           *domainauth.Service
	analysisService       *services.AnalysisService
	wsHub                 *wstransport.Hub
}

// Options parameterizes a server run.
type Options struct {
	ConfigPath string
}

// Run starts the whole service lifecycle: configuration, dependency wiring,
// the HTTP listener and graceful shutdown on SIGINT/SIGTERM.
func Run(ctx context.Context, opts Options) error {
	state := &appState{configPath: opts.ConfigPath}

	if err := executeInitSteps(ctx, InitGraph(), state); err != nil {
		return err
	}

	logger := state.logger
	logBootstrapGraph(logger)

	if shutdown := state.observabilityShutdown; shutdown != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				logger.WarnTag("BOOT", "observability shutdown failed: %v", err)
			}
		}()
	}

	defer func() {
		if state.authService != nil {
			if err := state.authService.Close(); err != nil {
				logger.ErrorTag("AUTH", "auth service shutdown failed: %v", err)
			}
		}
		if state.wsHub != nil {
			state.wsHub.CloseAll()
		}
		state.bus.WaitAsync()
	}()

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	if _, err := startHTTPServer(state, group, groupCtx); err != nil {
		cancel()
		return err
	}

	if err := waitForShutdown(signalCtx, cancel, logger, group); err != nil {
		return err
	}

	logger.InfoTag("BOOT", "server stopped")
	logger.Close()
	return nil
}

func logBootstrapGraph(logger *platformlogging.Logger) {
	logger.InfoTag("BOOT", "configuration loaded")
	logger.InfoTag("BOOT", "database ready")
	logger.InfoTag("BOOT", "auth service ready")
	logger.InfoTag("BOOT", "analysis pipeline ready")
	logger.InfoTag("BOOT", "starting services")
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	if state == nil {
		return platformerrors.New(platformerrors.KindBootstrap, "execute init steps", "nil bootstrap state")
	}

	completed := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				return platformerrors.New(
					platformerrors.KindBootstrap,
					step.ID,
					fmt.Sprintf("dependency %s not satisfied", dep),
				)
			}
		}
		if step.Execute == nil {
			return platformerrors.New(platformerrors.KindBootstrap, step.ID, "missing execute function")
		}
		if err := step.Execute(ctx, state); err != nil {
			var typed *platformerrors.Error
			if errors.As(err, &typed) {
				return err
			}

			kind := step.Kind
			if kind == "" {
				kind = platformerrors.KindBootstrap
			}
			return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
		completed[step.ID] = struct{}{}
	}
	return nil
}

// InitGraph declares the ordered dependency graph of startup steps.
func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load",
			Title:   "Load configuration",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init-provider",
			Title:     "Initialise logging provider",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initLoggingStep,
		},
		{
			ID:        "observability:setup-hooks",
			Title:     "Setup observability hooks",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   setupObservabilityStep,
		},
		{
			ID:        "storage:init-database",
			Title:     "Initialise database",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindStorage,
			Execute:   initDatabaseStep,
		},
		{
			ID:        "eventbus:init",
			Title:     "Initialise event bus",
			DependsOn: []string{"logging:init-provider"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initEventBusStep,
		},
		{
			ID:        "auth:init-service",
			Title:     "Initialise auth service",
			DependsOn: []string{"storage:init-database"},
			Kind:      platformerrors.KindAuth,
			Execute:   initAuthStep,
		},
		{
			ID:        "pipeline:init",
			Title:     "Initialise analysis pipeline",
			DependsOn: []string{"storage:init-database", "eventbus:init"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initPipelineStep,
		},
	}
}

func loadConfigStep(_ context.Context, state *appState) error {
	loader := platformconfig.NewLoader()
	if state.configPath != "" {
		loader = loader.WithPath(state.configPath)
	}
	result, err := loader.Load()
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindConfig, "config:load", "load configuration", err)
	}
	state.config = result.Config
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	logger, err := platformlogging.New(platformlogging.Config{
		Level:    state.config.Log.Level,
		Dir:      state.config.Log.Dir,
		Filename: state.config.Log.File,
	})
	if err != nil {
		return err
	}
	state.logger = logger
	return nil
}

func setupObservabilityStep(ctx context.Context, state *appState) error {
	shutdown, err := platformobservability.Setup(ctx, platformobservability.Config{
		Enabled: state.config.System.Observability,
	}, state.logger.Slog())
	if err != nil {
		return err
	}
	state.observabilityShutdown = shutdown
	return nil
}

func initDatabaseStep(_ context.Context, state *appState) error {
	db, err := platformstorage.Open(state.config.Database.DSN)
	if err != nil {
		return err
	}
	state.db = db
	return nil
}

func initEventBusStep(_ context.Context, state *appState) error {
	state.bus = eventbus.New()
	return nil
}

func initAuthStep(_ context.Context, state *appState) error {
	tokens, err := domainauth.NewTokenIssuer(state.config.Auth.JWTSecret, state.config.Auth.TokenTTL)
	if err != nil {
		return err
	}

	storeCfg := authstore.Config{
		Driver: state.config.Auth.Store.Type,
		TTL:    state.config.Auth.TokenTTL,
	}
	if redisCfg := state.config.Auth.Store.Redis; redisCfg.Addr != "" {
		storeCfg.Redis = &authstore.RedisConfig{
			Addr:     redisCfg.Addr,
			Username: redisCfg.Username,
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
			Prefix:   redisCfg.Prefix,
		}
	}
	sessions, err := authstore.New(storeCfg)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindAuth, "auth:init-service", "create session store", err)
	}

	authService, err := domainauth.NewService(domainauth.Options{
		Accounts: platformstorage.NewUserRepository(state.db),
		Sessions: sessions,
		Tokens:   tokens,
		Logger:   state.logger,
	})
	if err != nil {
		return err
	}
	state.authService = authService
	return nil
}

func initPipelineStep(_ context.Context, state *appState) error {
	cfg := state.config

	visionClient, err := visionprovider.NewClient(visionprovider.Config{
		ModelName: cfg.Vision.ModelName,
		BaseURL:   cfg.Vision.BaseURL,
		APIKey:    cfg.Vision.APIKey,
		Timeout:   cfg.Vision.Timeout,
	}, state.logger)
	if err != nil {
		return err
	}

	store, err := artifact.NewLocalStore(artifact.Config{
		Root:      cfg.Artifact.Root,
		PublicURL: cfg.Artifact.PublicURL,
	}, state.logger)
	if err != nil {
		return err
	}

	orchestrator := pipeline.NewOrchestrator(
		pipeline.Config{
			MaxWidth: cfg.Pipeline.MaxWidth,
			Quality:  cfg.Pipeline.Quality,
		},
		domainimage.NewCompressor(state.logger),
		visionClient,
		store,
		state.logger,
	)

	state.analysisService = services.NewAnalysisService(
		orchestrator,
		platformstorage.NewMealRepository(state.db),
		state.bus,
		state.logger,
	)
	return nil
}

func startHTTPServer(state *appState, g *errgroup.Group, groupCtx context.Context) (*http.Server, error) {
	cfg := state.config
	logger := state.logger

	httpRouter, err := httptransport.Build(httptransport.Options{
		Config:         cfg,
		Logger:         logger,
		AuthMiddleware: httptransport.AuthMiddleware(state.authService),
	})
	if err != nil {
		return nil, err
	}
	router := httpRouter.Engine

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, httptransport.APIResponse{
				Success: false,
				Data:    gin.H{},
				Message: "api not found",
				Code:    http.StatusNotFound,
			})
			return
		}
		c.Status(http.StatusNotFound)
	})

	mealsService, err := httpmeals.NewService(cfg, logger, state.analysisService)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindTransport, "meals:new-service", "failed to create meals service", err)
	}
	webapiService, err := httpwebapi.NewService(cfg, logger, state.authService)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindTransport, "webapi:new-service", "failed to create webapi service", err)
	}

	wsHub, err := wstransport.NewHub(state.bus, logger)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindTransport, "ws:new-hub", "failed to create websocket hub", err)
	}
	state.wsHub = wsHub
	wsServer := wstransport.NewServer(wsHub, state.authService, logger)

	if err := mealsService.Register(groupCtx, httpRouter.Secured); err != nil {
		return nil, err
	}
	if err := webapiService.Register(groupCtx, httpRouter.API, httpRouter.Secured); err != nil {
		return nil, err
	}
	wsServer.Register(httpRouter.API)

	httpServer := &http.Server{
		Addr:    cfg.Server.IP + ":" + strconv.Itoa(cfg.Server.Port),
		Handler: router,
	}

	g.Go(func() error {
		logger.InfoTag("HTTP", "server listening on http://%s (public %s)", httpServer.Addr, cfg.Server.PublicURL)

		go func() {
			<-groupCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.ErrorTag("HTTP", "shutdown failed: %v", err)
			} else {
				logger.InfoTag("HTTP", "server shut down cleanly")
			}
		}()

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorTag("HTTP", "listen failed: %v", err)
			return err
		}
		return nil
	})

	return httpServer, nil
}

func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	logger *platformlogging.Logger,
	g *errgroup.Group,
) error {
	<-ctx.Done()
	logger.InfoTag("BOOT", "shutdown requested: %v", context.Cause(ctx))

	cancel()

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.ErrorTag("BOOT", "error during shutdown: %v", err)
			return err
		}
		logger.InfoTag("BOOT", "all services stopped")
	case <-time.After(15 * time.Second):
		logger.ErrorTag("BOOT", "shutdown timed out, exiting")
		return errors.New("shutdown timed out")
	}
	return nil
}
