package models

import (
	"strings"
)

// State is an Australian state or territory code.
type State string

const (
	StateNSW State = "NSW"
	StateVIC State = "VIC"
	StateQLD State = "QLD"
	StateWA  State = "WA"
	StateSA  State = "SA"
	StateTAS State = "TAS"
	StateACT State = "ACT"
	StateNT  State = "NT"
)

// States lists every valid code in display order.
var States = []State{StateNSW, StateVIC, StateQLD, StateWA, StateSA, StateTAS, StateACT, StateNT}

var stateNames = map[State]string{
	StateNSW: "New South Wales",
	StateVIC: "Victoria",
	StateQLD: "Queensland",
	StateWA:  "Western Australia",
	StateSA:  "South Australia",
	StateTAS: "Tasmania",
	StateACT: "Australian Capital Territory",
	StateNT:  "Northern Territory",
}

// ParseState accepts a state code in any case with surrounding spaces.
// The second return is false for anything outside the enumeration.
func ParseState(s string) (State, bool) {
	st := State(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := stateNames[st]
	return st, ok
}

// Valid reports whether s is a member of the enumeration.
func (s State) Valid() bool {
	_, ok := stateNames[s]
	return ok
}

// Name returns the full state name, or the code itself if unknown.
func (s State) Name() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return string(s)
}

// LocationRecord is one row of the reference dataset. Records are immutable
// once a snapshot has been published.
type LocationRecord struct {
	Postcode          string   `bson:"postcode" json:"postcode"` // always 4 digits, leading zeros kept
	Locality          string   `bson:"locality" json:"locality"`
	State             State    `bson:"state" json:"state"`
	Latitude          *float64 `bson:"lat,omitempty" json:"latitude,omitempty"`
	Longitude         *float64 `bson:"long,omitempty" json:"longitude,omitempty"`
	LGAName           string   `bson:"lgaregion,omitempty" json:"lga_name,omitempty"`
	LGACode           string   `bson:"lgacode,omitempty" json:"lga_code,omitempty"`
	SA3Code           string   `bson:"sa3,omitempty" json:"sa3_code,omitempty"`
	SA3Name           string   `bson:"sa3name,omitempty" json:"sa3_name,omitempty"`
	SA4Code           string   `bson:"sa4,omitempty" json:"sa4_code,omitempty"`
	SA4Name           string   `bson:"sa4name,omitempty" json:"sa4_name,omitempty"`
	Region            string   `bson:"region,omitempty" json:"region,omitempty"`
	ElectoralDivision string   `bson:"electorate,omitempty" json:"electoral_division,omitempty"`
	Altitude          *float64 `bson:"altitude,omitempty" json:"altitude,omitempty"`
	PHNName           string   `bson:"phn_name,omitempty" json:"phn_name,omitempty"`
	PHNCode           string   `bson:"phn_code,omitempty" json:"phn_code,omitempty"`

	// Derived at load time, never recomputed per query.
	NormalizedLocality string `bson:"-" json:"normalized_locality"`
	LiteralKey         string `bson:"-" json:"-"` // normalized form without abbreviation expansion
	PhoneticCode       string `bson:"-" json:"phonetic_code"`
	CompoundCode       string `bson:"-" json:"-"` // phonetic code of the space-joined form
	H3Cell             string `bson:"-" json:"h3_cell,omitempty"`
	Geohash            string `bson:"-" json:"geohash,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude are present.
func (r *LocationRecord) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// Key identifies a record within a snapshot. Postcode, locality and state
// together are unique in the reference data.
func (r *LocationRecord) Key() string {
	return r.Postcode + "|" + r.Locality + "|" + string(r.State)
}
