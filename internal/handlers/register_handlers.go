package handlers

import (
	"log/slog"

	"github.com/cpenarrieta/finsight/cmd/docs"
	"github.com/cpenarrieta/finsight/internal/adapters/plaid"
	"github.com/cpenarrieta/finsight/internal/core/ports/providers"
	portsrepo "github.com/cpenarrieta/finsight/internal/core/ports/repositories"
	portssvc "github.com/cpenarrieta/finsight/internal/core/ports/services"
	"github.com/cpenarrieta/finsight/internal/middleware"
	"github.com/cpenarrieta/finsight/internal/platform/config"
	"github.com/cpenarrieta/finsight/internal/utils"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	repos portsrepo.RepositoryProvider,
	verifier *plaid.WebhookVerifier,
	tokens *utils.TokenCipher,
	readCache providers.ReadCache,
	logger *slog.Logger,
) {
	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})
	r.GET("/", getHome)

	// Provider webhooks are signature-authenticated and live outside /api/v1
	registerWebhookRoutes(r, verifier, services.Sync, logger)

	setupAPIV1Routes(r, services, repos, tokens, readCache)

	// Swagger routes (typically public or conditionally available)
	setupSwaggerRoutes(r, cfg)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	services *portssvc.ServiceContainer,
	repos portsrepo.RepositoryProvider,
	tokens *utils.TokenCipher,
	readCache providers.ReadCache,
) {
	v1 := r.Group("/api/v1")

	// Manual sync triggers are expensive; cap them per client IP.
	rate, _ := limiter.NewRateFromFormatted("10-M")
	syncLimiter := limiter.New(memory.NewStore(), rate)

	syncGroup := v1.Group("", middleware.RateLimit(syncLimiter))
	registerSyncRoutes(syncGroup, services.Sync)

	registerItemRoutes(v1, repos.ItemRepo, tokens, readCache)
	registerTransactionRoutes(v1, repos.TransactionRepo, services.Categorization, readCache)
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	// Swagger setup
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
