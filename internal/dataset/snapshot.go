// Package dataset loads the reference locality dataset and publishes it as
// immutable, generation-numbered snapshots.
package dataset

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/postcode-matcher/app/models"
	"github.com/postcode-matcher/internal/geo"
	"github.com/postcode-matcher/internal/normalizer"
	"github.com/postcode-matcher/internal/phonetic"
)

// BuildOptions controls how derived fields are computed.
type BuildOptions struct {
	Normalizer       *normalizer.Normalizer
	H3Resolution     int
	GeohashPrecision int
}

func (o BuildOptions) withDefaults() BuildOptions {
	if o.Normalizer == nil {
		o.Normalizer = normalizer.Default()
	}
	if o.H3Resolution <= 0 {
		o.H3Resolution = 7
	}
	if o.GeohashPrecision <= 0 {
		o.GeohashPrecision = 7
	}
	return o
}

// Snapshot is one complete, immutable generation of the dataset together
// with the lookup tables built over it. Nothing in a published snapshot is
// ever mutated.
type Snapshot struct {
	Generation uint64
	LoadedAt   time.Time
	Source     string
	Skipped    int

	records      []*models.LocationRecord
	byNormalized map[string][]*models.LocationRecord
	byLiteral    map[string][]*models.LocationRecord
	byPostcode   map[string][]*models.LocationRecord
	byPhonetic   map[string][]*models.LocationRecord
	byLGA        map[string][]*models.LocationRecord
	names        []string // distinct normalized localities, sorted
	spatial      *geo.Index
	stats        models.DatasetStats
}

// Build sanitizes rows, derives the per-record fields and indexes the result.
func Build(generation uint64, source string, rows []models.LocationRecord, opts BuildOptions) *Snapshot {
	opts = opts.withDefaults()

	s := &Snapshot{
		Generation:   generation,
		LoadedAt:     clock.Now(),
		Source:       source,
		records:      make([]*models.LocationRecord, 0, len(rows)),
		byNormalized: make(map[string][]*models.LocationRecord),
		byLiteral:    make(map[string][]*models.LocationRecord),
		byPostcode:   make(map[string][]*models.LocationRecord),
		byPhonetic:   make(map[string][]*models.LocationRecord),
		byLGA:        make(map[string][]*models.LocationRecord),
	}

	seen := make(map[string]struct{}, len(rows))
	for i := range rows {
		rec := rows[i]
		if !sanitize(&rec) {
			s.Skipped++
			continue
		}
		if _, dup := seen[rec.Key()]; dup {
			s.Skipped++
			continue
		}
		seen[rec.Key()] = struct{}{}
		derive(&rec, opts)
		if rec.NormalizedLocality == "" {
			s.Skipped++
			continue
		}
		r := rec
		s.records = append(s.records, &r)
	}

	sort.Slice(s.records, func(i, j int) bool {
		a, b := s.records[i], s.records[j]
		if a.NormalizedLocality != b.NormalizedLocality {
			return a.NormalizedLocality < b.NormalizedLocality
		}
		if a.State != b.State {
			return a.State < b.State
		}
		return a.Postcode < b.Postcode
	})

	for _, r := range s.records {
		s.byNormalized[r.NormalizedLocality] = append(s.byNormalized[r.NormalizedLocality], r)
		if r.LiteralKey != r.NormalizedLocality {
			s.byLiteral[r.LiteralKey] = append(s.byLiteral[r.LiteralKey], r)
		}
		s.byPostcode[r.Postcode] = append(s.byPostcode[r.Postcode], r)
		if r.PhoneticCode != "" {
			s.byPhonetic[r.PhoneticCode] = append(s.byPhonetic[r.PhoneticCode], r)
		}
		if r.CompoundCode != "" && r.CompoundCode != r.PhoneticCode {
			s.byPhonetic[r.CompoundCode] = append(s.byPhonetic[r.CompoundCode], r)
		}
		if r.LGAName != "" {
			key := LGAKey(r.LGAName)
			s.byLGA[key] = append(s.byLGA[key], r)
		}
	}

	s.names = make([]string, 0, len(s.byNormalized))
	for name := range s.byNormalized {
		s.names = append(s.names, name)
	}
	sort.Strings(s.names)

	s.spatial = geo.NewIndex(s.records)
	s.stats = computeStats(s)
	return s
}

// sanitize fixes up a raw row in place and reports whether it is usable:
// postcode, locality and a known state are required; short numeric postcodes
// are zero-padded; missing, (0,0) or out-of-range coordinates become null.
func sanitize(rec *models.LocationRecord) bool {
	rec.Locality = strings.TrimSpace(rec.Locality)
	if rec.Locality == "" {
		return false
	}
	st, ok := models.ParseState(string(rec.State))
	if !ok {
		return false
	}
	rec.State = st

	pc, ok := normalizePostcode(rec.Postcode)
	if !ok {
		return false
	}
	rec.Postcode = pc

	if !validCoordinate(rec.Latitude, rec.Longitude) {
		rec.Latitude, rec.Longitude = nil, nil
	}
	return true
}

func normalizePostcode(raw string) (string, bool) {
	pc := strings.TrimSpace(raw)
	// Spreadsheet exports sometimes carry numeric postcodes as "800.0".
	pc = strings.TrimSuffix(pc, ".0")
	if pc == "" || len(pc) > 4 {
		return "", false
	}
	for _, c := range pc {
		if c < '0' || c > '9' {
			return "", false
		}
	}
	return strings.Repeat("0", 4-len(pc)) + pc, true
}

// IsPostcode reports whether s is exactly four ASCII digits.
func IsPostcode(s string) bool {
	if len(s) != 4 {
		return false
	}
	for i := 0; i < 4; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func validCoordinate(lat, lon *float64) bool {
	if lat == nil || lon == nil {
		return false
	}
	if *lat == 0 && *lon == 0 {
		return false
	}
	if math.IsNaN(*lat) || math.IsNaN(*lon) {
		return false
	}
	return geo.ValidateCoordinate(*lat, *lon) == nil
}

func derive(rec *models.LocationRecord, opts BuildOptions) {
	res := opts.Normalizer.Analyze(rec.Locality)
	rec.NormalizedLocality = res.Normalized
	rec.LiteralKey = res.Literal
	rec.PhoneticCode = phonetic.Encode(res.Normalized)
	rec.CompoundCode = phonetic.EncodeCompound(res.Normalized)
	if rec.HasCoordinates() {
		if cell, err := geo.H3Cell(*rec.Latitude, *rec.Longitude, opts.H3Resolution); err == nil {
			rec.H3Cell = cell
		}
		rec.Geohash = geo.Geohash(*rec.Latitude, *rec.Longitude, opts.GeohashPrecision)
	}
}

// LGAKey is the lookup key for local government area names.
func LGAKey(name string) string {
	return strings.Join(strings.Fields(normalizer.Fold(name)), " ")
}

// Len is the number of usable records.
func (s *Snapshot) Len() int { return len(s.records) }

// Records returns every record ordered by normalized locality, state and
// postcode. Callers must not modify the slice.
func (s *Snapshot) Records() []*models.LocationRecord { return s.records }

// ByNormalized returns records whose normalized locality equals key.
func (s *Snapshot) ByNormalized(key string) []*models.LocationRecord { return s.byNormalized[key] }

// ByLiteral returns records whose unexpanded locality key equals key and
// differs from their normalized form, e.g. "st kilda" for "St Kilda".
func (s *Snapshot) ByLiteral(key string) []*models.LocationRecord { return s.byLiteral[key] }

// ByPostcode returns records for a four-digit postcode.
func (s *Snapshot) ByPostcode(pc string) []*models.LocationRecord { return s.byPostcode[pc] }

// ByPhonetic returns records whose phonetic or compound code equals code.
func (s *Snapshot) ByPhonetic(code string) []*models.LocationRecord { return s.byPhonetic[code] }

// ByLGA returns records in the named local government area.
func (s *Snapshot) ByLGA(name string) []*models.LocationRecord { return s.byLGA[LGAKey(name)] }

// Spatial returns the coordinate index.
func (s *Snapshot) Spatial() *geo.Index { return s.spatial }

// Stats returns counts computed when the snapshot was built.
func (s *Snapshot) Stats() models.DatasetStats { return s.stats }

// WithPrefix returns the sorted distinct normalized localities starting
// with prefix.
func (s *Snapshot) WithPrefix(prefix string) []string {
	start := sort.SearchStrings(s.names, prefix)
	end := start
	for end < len(s.names) && strings.HasPrefix(s.names[end], prefix) {
		end++
	}
	return s.names[start:end]
}

// LGAs returns the distinct LGA names in the snapshot, sorted.
func (s *Snapshot) LGAs() []models.LGASummary {
	type agg struct {
		summary    models.LGASummary
		localities map[string]struct{}
	}
	byKey := make(map[string]*agg)
	for _, r := range s.records {
		if r.LGAName == "" {
			continue
		}
		key := LGAKey(r.LGAName) + "|" + string(r.State)
		a, ok := byKey[key]
		if !ok {
			a = &agg{
				summary:    models.LGASummary{Name: r.LGAName, Code: r.LGACode, State: r.State},
				localities: make(map[string]struct{}),
			}
			byKey[key] = a
		}
		a.localities[r.NormalizedLocality] = struct{}{}
	}

	out := make([]models.LGASummary, 0, len(byKey))
	for _, a := range byKey {
		a.summary.LocalityCount = len(a.localities)
		out = append(out, a.summary)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].State < out[j].State
	})
	return out
}

func computeStats(s *Snapshot) models.DatasetStats {
	type stateAgg struct {
		records    int
		postcodes  map[string]struct{}
		localities map[string]struct{}
		lgas       map[string]struct{}
	}
	byState := make(map[models.State]*stateAgg)
	postcodes := make(map[string]struct{})
	lgas := make(map[string]struct{})
	withCoords := 0

	for _, r := range s.records {
		a, ok := byState[r.State]
		if !ok {
			a = &stateAgg{
				postcodes:  make(map[string]struct{}),
				localities: make(map[string]struct{}),
				lgas:       make(map[string]struct{}),
			}
			byState[r.State] = a
		}
		a.records++
		a.postcodes[r.Postcode] = struct{}{}
		a.localities[r.NormalizedLocality] = struct{}{}
		postcodes[r.Postcode] = struct{}{}
		if r.LGAName != "" {
			a.lgas[LGAKey(r.LGAName)] = struct{}{}
			lgas[LGAKey(r.LGAName)+"|"+string(r.State)] = struct{}{}
		}
		if r.HasCoordinates() {
			withCoords++
		}
	}

	stats := models.DatasetStats{
		Generation:       s.Generation,
		Source:           s.Source,
		TotalRecords:     len(s.records),
		UniquePostcodes:  len(postcodes),
		UniqueLocalities: len(s.byNormalized),
		UniqueLGAs:       len(lgas),
		WithCoordinates:  withCoords,
	}
	for _, st := range models.States {
		a, ok := byState[st]
		if !ok {
			continue
		}
		stats.ByState = append(stats.ByState, models.StateStats{
			State:      st,
			StateName:  st.Name(),
			Records:    a.records,
			Postcodes:  len(a.postcodes),
			Localities: len(a.localities),
			LGAs:       len(a.lgas),
		})
	}
	return stats
}
