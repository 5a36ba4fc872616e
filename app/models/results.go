package models

// LocalityGroup collapses the records of one locality in one state.
type LocalityGroup struct {
	Locality  string   `json:"locality"`
	State     State    `json:"state"`
	Postcodes []string `json:"postcodes"`
	LGAName   string   `json:"lga_name,omitempty"`
	Region    string   `json:"region,omitempty"`
}

// LocalitySearch is the result of an exact locality lookup.
type LocalitySearch struct {
	Query     string            `json:"query"`
	Records   []*LocationRecord `json:"records"`
	Postcodes []string          `json:"postcodes"`
}

// PostcodeValidation reports whether a locality and postcode belong together.
type PostcodeValidation struct {
	Valid    bool            `json:"valid"`
	Locality string          `json:"locality"`
	Postcode string          `json:"postcode"`
	State    State           `json:"state,omitempty"`
	Record   *LocationRecord `json:"record,omitempty"`

	// Populated only when Valid is false.
	LocalitiesForPostcode []string `json:"localities_for_postcode,omitempty"`
	PostcodesForLocality  []string `json:"postcodes_for_locality,omitempty"`
	Suggestions           []string `json:"suggestions,omitempty"`
}

// LocationDetails answers a query that may be a postcode or a locality,
// optionally followed by ", STATE".
type LocationDetails struct {
	Input     string            `json:"input"`
	QueryType string            `json:"query_type"` // postcode or locality
	State     State             `json:"state,omitempty"`
	Records   []*LocationRecord `json:"records"`
	Postcodes []string          `json:"postcodes"`
}

// SimilarLocality is one suggested locality with the confidence of its best
// matching record.
type SimilarLocality struct {
	Locality       string         `json:"locality"`
	States         []State        `json:"states"`
	Postcodes      []string       `json:"postcodes"`
	Tier           MatchTier      `json:"match_tier"`
	Confidence     float64        `json:"confidence"`
	Classification Classification `json:"classification"`
}

// SimilarResult groups resolve candidates by locality for "did you mean".
type SimilarResult struct {
	Query      string            `json:"query"`
	ExactMatch bool              `json:"exact_match"`
	Confidence float64           `json:"confidence"`
	Matches    []SimilarLocality `json:"matches"`
	Suggestion string            `json:"suggestion,omitempty"`
}

// SpellingResult reports whether a name is spelled as in the dataset.
type SpellingResult struct {
	Query       string            `json:"query"`
	Correct     bool              `json:"correct"`
	Confidence  float64           `json:"confidence"`
	Suggested   string            `json:"suggested,omitempty"`
	Corrections []SimilarLocality `json:"corrections"`
}

// Phonetic match kinds.
const (
	PhoneticMatchExact    = "exact"
	PhoneticMatchCompound = "compound_variant"
	PhoneticMatchSound    = "phonetic"
)

// PhoneticResult answers a spoken-name query.
type PhoneticResult struct {
	Query          string            `json:"query"`
	MatchType      string            `json:"match_type,omitempty"`
	MatchedVariant string            `json:"matched_variant,omitempty"`
	Confidence     float64           `json:"confidence"`
	Matches        []SimilarLocality `json:"matches"`
	Suggestion     string            `json:"suggestion,omitempty"`
}

// LGAMembership is one LGA a locality belongs to.
type LGAMembership struct {
	LGAName   string   `json:"lga_name"`
	LGACode   string   `json:"lga_code,omitempty"`
	State     State    `json:"state"`
	Postcodes []string `json:"postcodes"`
}

// LGAInfo lists the LGAs of a locality.
type LGAInfo struct {
	Locality     string          `json:"locality"`
	LGAs         []LGAMembership `json:"lgas"`
	MultipleLGAs bool            `json:"multiple_lgas"`
}

// AreaListing lists the localities of an LGA or region.
type AreaListing struct {
	Query          string          `json:"query"`
	AreasFound     []string        `json:"areas_found"`
	Localities     []LocalityGroup `json:"localities"`
	TotalPostcodes int             `json:"total_postcodes"`
}

// NearbyResult is a radius query around a point or a named place.
type NearbyResult struct {
	Centre    *LocationRecord `json:"centre,omitempty"`
	Latitude  float64         `json:"latitude"`
	Longitude float64         `json:"longitude"`
	RadiusKm  float64         `json:"radius_km"`
	Results   []GeoResult     `json:"results"`
}

// NormalizedText exposes the normalizer and phonetic encoder output.
type NormalizedText struct {
	Input        string `json:"input"`
	Literal      string `json:"literal"`
	Normalized   string `json:"normalized"`
	Expanded     bool   `json:"expanded"`
	PhoneticCode string `json:"phonetic_code"`
}
