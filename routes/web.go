package routes

import (
	"github.com/gin-gonic/gin"
)

// SetupWebRoutes serves the service banner and a route index.
func SetupWebRoutes(router *gin.Engine) {
	web := router.Group("/")
	{
		web.GET("/", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"message": "Postcode Matcher Service",
				"docs":    "/docs",
			})
		})

		web.GET("/docs", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"api": "Postcode Matcher API v1",
				"endpoints": map[string]string{
					"resolve":      "GET /v1/resolve?q=&state=&limit=",
					"score":        "POST /v1/score",
					"postcode":     "GET /v1/postcodes/:postcode",
					"locality":     "GET /v1/localities?name=&state=",
					"validate":     "GET /v1/validate?locality=&postcode=&state=",
					"details":      "GET /v1/details?q=",
					"similar":      "GET /v1/similar?q=&state=&threshold=",
					"autocomplete": "GET /v1/autocomplete?q=&state=&limit=",
					"spelling":     "GET /v1/spelling?q=",
					"phonetic":     "GET /v1/phonetic?q=",
					"lgas":         "GET /v1/lgas?state=&include_counts=",
					"lga_lookup":   "GET /v1/lgas/lookup?locality=&state=",
					"lga_members":  "GET /v1/lgas/localities?lga=&state=",
					"regions":      "GET /v1/regions?region=&state=",
					"nearby":       "GET /v1/nearby?lat=&lon=&radius_km=&state=&limit=",
					"geohash":      "GET /v1/nearby/geohash/:geohash",
					"near_place":   "GET /v1/nearby/place?place=",
					"neighbours":   "GET /v1/neighbours?locality=&state=&limit=&same_lga=",
					"state_stats":  "GET /v1/stats/states?state=",
					"health":       "GET /health",
				},
			})
		})
	}
}
