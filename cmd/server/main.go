package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"tasklink.app/relay/common/id"
	"tasklink.app/relay/common/logger"
	"tasklink.app/relay/common/otel"
	"tasklink.app/relay/core/config"
	"tasklink.app/relay/internal/audit"
	"tasklink.app/relay/internal/crosslink"
	"tasklink.app/relay/internal/http/handler/webhook"
	"tasklink.app/relay/internal/http/middleware"
	httprouter "tasklink.app/relay/internal/http/router"
	"tasklink.app/relay/internal/identity"
	"tasklink.app/relay/internal/mapper"
	"tasklink.app/relay/internal/relay"
	"tasklink.app/relay/internal/tasks"
	"tasklink.app/relay/internal/tracker"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		// Can't use slog yet — OTel failed before logger setup
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "relay starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)

	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	users, err := identity.Parse(cfg.UserMap)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse user identity map", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "identity map loaded", "entries", users.Len())

	gitlabClient, err := tracker.NewClient(tracker.Config{
		BaseURL:   cfg.GitLab.BaseURL,
		Token:     cfg.GitLab.APIToken,
		ProjectID: cfg.GitLab.ProjectID,
		Timeout:   cfg.UpstreamTimeout,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create gitlab client", "error", err)
		os.Exit(1)
	}

	asanaClient, err := tasks.NewClient(tasks.Config{
		BaseURL:    cfg.Asana.BaseURL,
		Token:      cfg.Asana.Token,
		ProjectGID: cfg.Asana.ProjectGID,
		Timeout:    cfg.UpstreamTimeout,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create asana client", "error", err)
		os.Exit(1)
	}

	recorder := audit.NewNopRecorder()
	if cfg.Audit.Enabled() {
		redisOpts, err := redis.ParseURL(cfg.Audit.RedisURL)
		if err != nil {
			slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
			os.Exit(1)
		}
		redisClient := redis.NewClient(redisOpts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
			os.Exit(1)
		}
		recorder = audit.NewRedisRecorder(redisClient, cfg.Audit.Stream)
		slog.InfoContext(ctx, "audit trail enabled", "stream", cfg.Audit.Stream)
	}
	defer recorder.Close()

	gitlabToAsana := relay.NewOrchestrator(relay.OrchestratorConfig{
		Direction:      relay.DirectionGitLabToAsana,
		Counterpart:    asanaClient,
		Origin:         gitlabClient,
		LookupAssignee: users.AsanaFor,
		SourceLink: func(issueIID string) string {
			return crosslink.GitLabIssueLink(crosslink.GitLabIssueURL(cfg.GitLab.BaseURL, cfg.GitLab.ProjectPath, issueIID))
		},
		CounterpartLink: func(c relay.Created) string {
			return crosslink.AsanaTaskLink(c.URL)
		},
		ExtractCounterpartID: crosslink.ExtractAsanaTaskGID,
		Audit:                recorder,
	})

	asanaToGitLab := relay.NewOrchestrator(relay.OrchestratorConfig{
		Direction:      relay.DirectionAsanaToGitLab,
		Counterpart:    gitlabClient,
		Origin:         asanaClient,
		LookupAssignee: users.GitLabFor,
		SourceLink: func(taskGID string) string {
			return crosslink.AsanaTaskLink(crosslink.AsanaTaskURL(cfg.Asana.ProjectGID, taskGID))
		},
		CounterpartLink: func(c relay.Created) string {
			return crosslink.GitLabIssueLink(c.URL)
		},
		ExtractCounterpartID: crosslink.ExtractGitLabIssueIID,
		Audit:                recorder,
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, gitlabToAsana, asanaToGitLab)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, gitlabToAsana, asanaToGitLab *relay.Orchestrator) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, httprouter.Handlers{
		GitLab: webhook.NewGitLabWebhookHandler(cfg.GitLab.WebhookSecret, mapper.NewGitLabEventMapper(), gitlabToAsana),
		Asana:  webhook.NewAsanaWebhookHandler(cfg.Asana.WebhookSecret, mapper.NewAsanaEventMapper(), asanaToGitLab),
	})

	return router
}

const banner = `
████████╗ █████╗ ███████╗██╗  ██╗██╗     ██╗███╗   ██╗██╗  ██╗
╚══██╔══╝██╔══██╗██╔════╝██║ ██╔╝██║     ██║████╗  ██║██║ ██╔╝
   ██║   ███████║███████╗█████╔╝ ██║     ██║██╔██╗ ██║█████╔╝
   ██║   ██╔══██║╚════██║██╔═██╗ ██║     ██║██║╚██╗██║██╔═██╗
   ██║   ██║  ██║███████║██║  ██║███████╗██║██║ ╚████║██║  ██╗
   ╚═╝   ╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝╚══════╝╚═╝╚═╝  ╚═══╝╚═╝  ╚═╝
`
