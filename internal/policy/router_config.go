package policy

import (
	"time"

	"github.com/diewo77/goldenline/internal/handlers"
	"github.com/diewo77/goldenline/internal/logger"
	"github.com/diewo77/goldenline/internal/services"
	"gorm.io/gorm"
)

// DefaultCacheTTL is how long resolved permissions are kept.
const DefaultCacheTTL = 5 * time.Minute

// RouterConfig holds the configured gate, services and handlers.
type RouterConfig struct {
	AuthGate *AuthGate

	UserService *services.UserService

	HomeHandler     *handlers.HomeHandler
	AuthHandler     *handlers.AuthHandler
	AnalysisHandler *handlers.AnalysisHandler
	ExportHandler   *handlers.ExportHandler
	UserHandler     *handlers.UserHandler
}

// NewRouterConfig wires the services and handlers over db.
// A zero cacheTTL means DefaultCacheTTL.
func NewRouterConfig(db *gorm.DB, log *logger.Logger, cacheTTL time.Duration) *RouterConfig {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	authGate := NewAuthGate(db, cacheTTL)

	users := services.NewUserService(db)
	records := services.NewRecordService(db)

	return &RouterConfig{
		AuthGate:        authGate,
		UserService:     users,
		HomeHandler:     handlers.NewHomeHandler(users, log),
		AuthHandler:     handlers.NewAuthHandler(users, log),
		AnalysisHandler: handlers.NewAnalysisHandler(services.NewAnalysisService(records), log),
		ExportHandler:   handlers.NewExportHandler(services.NewExportService(db), log),
		UserHandler:     handlers.NewUserHandler(users, authGate, log),
	}
}
