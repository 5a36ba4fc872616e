package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/postcode-matcher/app/requests"
	"github.com/postcode-matcher/app/responses"
	"github.com/postcode-matcher/app/services"
)

// LocationController serves the public /v1 query endpoints.
type LocationController struct {
	service *services.LocationService
	logger  *zap.Logger
}

func NewLocationController(service *services.LocationService, logger *zap.Logger) *LocationController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocationController{service: service, logger: logger}
}

// Resolve runs the tiered match pipeline.
func (lc *LocationController) Resolve(c *gin.Context) {
	var req requests.ResolveRequest
	if !bind(c, &req) {
		return
	}
	start := time.Now()
	res, err := lc.service.Resolve(c.Request.Context(), req.Query, req.State, req.Limit)
	if err != nil {
		respondError(c, lc.logger, err)
		return
	}
	c.JSON(http.StatusOK, responses.ResolveResponse{
		Query:            req.Query,
		State:            req.State,
		Count:            len(res),
		Results:          res,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	})
}

// Score reports the confidence of a given record for a query.
func (lc *LocationController) Score(c *gin.Context) {
	var req requests.ScoreRequest
	if !bind(c, &req) {
		return
	}
	cand, matched, err := lc.service.Score(c.Request.Context(), req.Query, req.Postcode, req.Locality, req.State, req.StateFilter)
	if err != nil {
		respondError(c, lc.logger, err)
		return
	}
	c.JSON(http.StatusOK, responses.ScoreResponse{Matched: matched, Candidate: cand})
}

func (lc *LocationController) SearchByPostcode(c *gin.Context) {
	postcode := c.Param("postcode")
	recs, err := lc.service.SearchByPostcode(c.Request.Context(), postcode)
	if err != nil {
		respondError(c, lc.logger, err)
		return
	}
	c.JSON(http.StatusOK, responses.RecordsResponse{Query: postcode, Count: len(recs), Records: recs})
}

func (lc *LocationController) SearchByLocality(c *gin.Context) {
	var req requests.LocalityRequest
	if !bind(c, &req) {
		return
	}
	res, err := lc.service.SearchByLocality(c.Request.Context(), req.Name, req.State)
	if err != nil {
		respondError(c, lc.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (lc *LocationController) Validate(c *gin.Context) {
	var req requests.ValidateRequest
	if !bind(c, &req) {
		return
	}
	res, err := lc.service.ValidateLocalityPostcode(c.Request.Context(), req.Locality, req.Postcode, req.State)
	if err != nil {
		respondError(c, lc.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (lc *LocationController) Details(c *gin.Context) {
	var req requests.DetailsRequest
	if !bind(c, &req) {
		return
	}
	res, err := lc.service.LocationDetails(c.Request.Context(), req.Query)
	if err != nil {
		respondError(c, lc.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (lc *LocationController) Similar(c *gin.Context) {
	var req requests.SimilarRequest
	if !bind(c, &req) {
		return
	}
	res, err := lc.service.FindSimilar(c.Request.Context(), req.Query, req.State, req.Threshold)
	if err != nil {
		respondError(c, lc.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (lc *LocationController) Autocomplete(c *gin.Context) {
	var req requests.AutocompleteRequest
	if !bind(c, &req) {
		return
	}
	names, err := lc.service.Autocomplete(c.Request.Context(), req.Prefix, req.State, req.Limit)
	if err != nil {
		respondError(c, lc.logger, err)
		return
	}
	c.JSON(http.StatusOK, responses.AutocompleteResponse{Prefix: req.Prefix, Suggestions: names})
}

func (lc *LocationController) Spelling(c *gin.Context) {
	var req requests.TextRequest
	if !bind(c, &req) {
		return
	}
	res, err := lc.service.ValidateSpelling(c.Request.Context(), req.Text)
	if err != nil {
		respondError(c, lc.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (lc *LocationController) Phonetic(c *gin.Context) {
	var req requests.TextRequest
	if !bind(c, &req) {
		return
	}
	res, err := lc.service.PhoneticSearch(c.Request.Context(), req.Text)
	if err != nil {
		respondError(c, lc.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (lc *LocationController) LGAForLocality(c *gin.Context) {
	var req requests.LGARequest
	if !bind(c, &req) {
		return
	}
	res, err := lc.service.LGAForLocality(c.Request.Context(), req.Locality, req.State)
	if err != nil {
		respondError(c, lc.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (lc *LocationController) LocalitiesInLGA(c *gin.Context) {
	var req requests.LGALocalitiesRequest
	if !bind(c, &req) {
		return
	}
	res, err := lc.service.LocalitiesInLGA(c.Request.Context(), req.LGA, req.State)
	if err != nil {
		respondError(c, lc.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (lc *LocationController) ListLGAs(c *gin.Context) {
	var req requests.ListLGAsRequest
	if !bind(c, &req) {
		return
	}
	lgas, err := lc.service.ListLGAs(c.Request.Context(), req.State, req.IncludeCounts)
	if err != nil {
		respondError(c, lc.logger, err)
		return
	}
	c.JSON(http.StatusOK, responses.LGAListResponse{State: req.State, Count: len(lgas), LGAs: lgas})
}

func (lc *LocationController) Region(c *gin.Context) {
	var req requests.RegionRequest
	if !bind(c, &req) {
		return
	}
	res, err := lc.service.SearchByRegion(c.Request.Context(), req.Region, req.State)
	if err != nil {
		respondError(c, lc.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (lc *LocationController) Nearby(c *gin.Context) {
	var req requests.NearbyRequest
	if !bind(c, &req) {
		return
	}
	res, err := lc.service.Nearby(c.Request.Context(), *req.Lat, *req.Lon, req.RadiusKm, req.State, req.Limit)
	if err != nil {
		respondError(c, lc.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (lc *LocationController) NearbyGeohash(c *gin.Context) {
	var req requests.RadiusRequest
	if !bind(c, &req) {
		return
	}
	res, err := lc.service.NearbyGeohash(c.Request.Context(), c.Param("geohash"), req.RadiusKm, req.State, req.Limit)
	if err != nil {
		respondError(c, lc.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (lc *LocationController) NearPlace(c *gin.Context) {
	var req requests.NearPlaceRequest
	if !bind(c, &req) {
		return
	}
	res, err := lc.service.NearPlace(c.Request.Context(), req.Place, req.RadiusKm, req.State, req.Limit)
	if err != nil {
		respondError(c, lc.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (lc *LocationController) Neighbours(c *gin.Context) {
	var req requests.NeighboursRequest
	if !bind(c, &req) {
		return
	}
	res, err := lc.service.Neighbours(c.Request.Context(), req.Locality, req.State, req.Limit, req.SameLGA)
	if err != nil {
		respondError(c, lc.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (lc *LocationController) StateStatistics(c *gin.Context) {
	var req requests.StateRequest
	if !bind(c, &req) {
		return
	}
	stats, err := lc.service.StateStatistics(c.Request.Context(), req.State)
	if err != nil {
		respondError(c, lc.logger, err)
		return
	}
	c.JSON(http.StatusOK, responses.StateStatsResponse{States: stats})
}

func (lc *LocationController) DatasetStats(c *gin.Context) {
	stats, err := lc.service.DatasetStats(c.Request.Context())
	if err != nil {
		respondError(c, lc.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Normalize is a diagnostic view of the normalizer and phonetic encoder.
func (lc *LocationController) Normalize(c *gin.Context) {
	var req requests.TextRequest
	if !bind(c, &req) {
		return
	}
	c.JSON(http.StatusOK, lc.service.Normalize(req.Text))
}

func (lc *LocationController) PhoneticCode(c *gin.Context) {
	var req requests.TextRequest
	if !bind(c, &req) {
		return
	}
	c.JSON(http.StatusOK, responses.PhoneticCodeResponse{Input: req.Text, Codes: lc.service.PhoneticEncode(req.Text)})
}
