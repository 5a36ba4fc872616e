package models

// StateStats summarises one state of a snapshot.
type StateStats struct {
	State      State  `json:"state"`
	StateName  string `json:"state_name"`
	Records    int    `json:"records"`
	Postcodes  int    `json:"postcodes"`
	Localities int    `json:"localities"`
	LGAs       int    `json:"lgas"`
}

// DatasetStats summarises a whole snapshot.
type DatasetStats struct {
	Generation       uint64       `json:"generation"`
	Source           string       `json:"source"`
	TotalRecords     int          `json:"total_records"`
	UniquePostcodes  int          `json:"unique_postcodes"`
	UniqueLocalities int          `json:"unique_localities"`
	UniqueLGAs       int          `json:"unique_lgas"`
	WithCoordinates  int          `json:"with_coordinates"`
	ByState          []StateStats `json:"by_state"`
}

// LGASummary is one local government area with its optional locality count.
type LGASummary struct {
	Name          string `json:"lga_name"`
	Code          string `json:"lga_code,omitempty"`
	State         State  `json:"state"`
	LocalityCount int    `json:"locality_count,omitempty"`
}
