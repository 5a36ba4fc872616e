package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/postcode-matcher/app/responses"
	"github.com/postcode-matcher/internal/matcher"
)

// HealthController answers the probes. Only /ready depends on the dataset.
type HealthController struct {
	store matcher.SnapshotProvider
}

func NewHealthController(store matcher.SnapshotProvider) *HealthController {
	return &HealthController{store: store}
}

func (hc *HealthController) status() (int, responses.HealthResponse) {
	res := responses.HealthResponse{Status: "loading", Timestamp: time.Now().UTC().Format(time.RFC3339)}
	snap, err := hc.store.Current()
	if err != nil {
		return http.StatusServiceUnavailable, res
	}
	res.Status = "ok"
	res.Generation = snap.Generation
	res.Records = snap.Len()
	return http.StatusOK, res
}

// Health always answers 200 and reports whether a dataset is loaded.
func (hc *HealthController) Health(c *gin.Context) {
	_, res := hc.status()
	c.JSON(http.StatusOK, res)
}

// Ready answers 503 until the first snapshot is published.
func (hc *HealthController) Ready(c *gin.Context) {
	code, res := hc.status()
	c.JSON(code, res)
}

func (hc *HealthController) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}
