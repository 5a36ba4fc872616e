package requests

// ResolveRequest runs the match pipeline. Bound from the query string on
// GET and from the body on POST.
type ResolveRequest struct {
	Query string `form:"q" json:"query"`
	State string `form:"state" json:"state,omitempty"`
	Limit int    `form:"limit" json:"limit,omitempty"` // 0 = default
}

// ScoreRequest asks how a known record scores for a query.
type ScoreRequest struct {
	Query    string `json:"query" binding:"required"`
	Postcode string `json:"postcode" binding:"required"`
	Locality string `json:"locality" binding:"required"`
	State    string `json:"state" binding:"required"`

	// StateFilter is the optional filter the query would be resolved with.
	StateFilter string `json:"state_filter"`
}

type LocalityRequest struct {
	Name  string `form:"name"`
	State string `form:"state"`
}

type ValidateRequest struct {
	Locality string `form:"locality" json:"locality"`
	Postcode string `form:"postcode" json:"postcode"`
	State    string `form:"state" json:"state,omitempty"`
}

type DetailsRequest struct {
	Query string `form:"q"`
}

type SimilarRequest struct {
	Query     string  `form:"q"`
	State     string  `form:"state"`
	Threshold float64 `form:"threshold"` // 0 = engine default
}

type AutocompleteRequest struct {
	Prefix string `form:"q"`
	State  string `form:"state"`
	Limit  int    `form:"limit"`
}

// TextRequest carries a single free-text argument.
type TextRequest struct {
	Text string `form:"q"`
}

type LGARequest struct {
	Locality string `form:"locality"`
	State    string `form:"state"`
}

type LGALocalitiesRequest struct {
	LGA   string `form:"lga"`
	State string `form:"state"`
}

type ListLGAsRequest struct {
	State         string `form:"state"`
	IncludeCounts bool   `form:"include_counts"`
}

type RegionRequest struct {
	Region string `form:"region"`
	State  string `form:"state"`
}

// NearbyRequest is a radius query around a point. Zero radius and limit use
// the service defaults.
type NearbyRequest struct {
	Lat      *float64 `form:"lat" binding:"required"`
	Lon      *float64 `form:"lon" binding:"required"`
	RadiusKm float64  `form:"radius_km"`
	State    string   `form:"state"`
	Limit    int      `form:"limit"`
}

// RadiusRequest carries the optional parts of a radius query whose centre
// comes from the path or another parameter.
type RadiusRequest struct {
	RadiusKm float64 `form:"radius_km"`
	State    string  `form:"state"`
	Limit    int     `form:"limit"`
}

type NearPlaceRequest struct {
	Place string `form:"place"`
	RadiusRequest
}

type NeighboursRequest struct {
	Locality string `form:"locality"`
	State    string `form:"state"`
	Limit    int    `form:"limit"`
	SameLGA  bool   `form:"same_lga"`
}

type StateRequest struct {
	State string `form:"state"`
}
