package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/postcode-matcher/app/controllers"
)

// Controllers bundles everything the router dispatches to.
type Controllers struct {
	Location *controllers.LocationController
	Admin    *controllers.AdminController
	Health   *controllers.HealthController
}

// SetupAPIRoutes registers the /v1 query and admin routes.
func SetupAPIRoutes(router *gin.Engine, lc *controllers.LocationController, ac *controllers.AdminController) {
	v1 := router.Group("/v1")
	{
		v1.GET("/resolve", lc.Resolve)
		v1.POST("/resolve", lc.Resolve)
		v1.POST("/score", lc.Score)

		v1.GET("/postcodes/:postcode", lc.SearchByPostcode)
		v1.GET("/localities", lc.SearchByLocality)
		v1.GET("/validate", lc.Validate)
		v1.GET("/details", lc.Details)
		v1.GET("/similar", lc.Similar)
		v1.GET("/autocomplete", lc.Autocomplete)
		v1.GET("/spelling", lc.Spelling)
		v1.GET("/phonetic", lc.Phonetic)

		lgas := v1.Group("/lgas")
		{
			lgas.GET("", lc.ListLGAs)
			lgas.GET("/lookup", lc.LGAForLocality)
			lgas.GET("/localities", lc.LocalitiesInLGA)
		}
		v1.GET("/regions", lc.Region)

		nearby := v1.Group("/nearby")
		{
			nearby.GET("", lc.Nearby)
			nearby.GET("/geohash/:geohash", lc.NearbyGeohash)
			nearby.GET("/place", lc.NearPlace)
		}
		v1.GET("/neighbours", lc.Neighbours)

		v1.GET("/stats/states", lc.StateStatistics)
		v1.GET("/stats/dataset", lc.DatasetStats)

		tools := v1.Group("/tools")
		{
			tools.GET("/normalize", lc.Normalize)
			tools.GET("/phonetic-code", lc.PhoneticCode)
		}

		admin := v1.Group("/admin")
		{
			admin.POST("/reload", ac.Reload)
			admin.POST("/cache/invalidate", ac.InvalidateCache)
			admin.POST("/index", ac.PublishIndex)
			admin.GET("/stats", ac.GetStats)
		}
	}
}

// SetupHealthRoutes registers the probes.
func SetupHealthRoutes(router *gin.Engine, hc *controllers.HealthController) {
	router.GET("/health", hc.Health)
	router.GET("/ready", hc.Ready)
	router.GET("/live", hc.Live)
}

// SetupMetricsRoutes exposes the default Prometheus registry.
func SetupMetricsRoutes(router *gin.Engine) {
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// SetupAllRoutes installs middleware and every route group.
func SetupAllRoutes(router *gin.Engine, ctrl Controllers, logger *zap.Logger) {
	setupMiddleware(router, logger)

	SetupWebRoutes(router)
	SetupHealthRoutes(router, ctrl.Health)
	SetupAPIRoutes(router, ctrl.Location, ctrl.Admin)
	SetupMetricsRoutes(router)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"error":  "Route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})
}

func setupMiddleware(router *gin.Engine, logger *zap.Logger) {
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(requestLogger(logger))
}
