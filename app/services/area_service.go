package services

import (
	"context"
	"sort"
	"strings"

	"github.com/postcode-matcher/app/models"
	"github.com/postcode-matcher/internal/apperr"
	"github.com/postcode-matcher/internal/dataset"
	"github.com/postcode-matcher/internal/geo"
	"github.com/postcode-matcher/internal/matcher"
	"github.com/postcode-matcher/internal/normalizer"
	"github.com/postcode-matcher/internal/proximity"
)

// LGAForLocality lists the local government areas a locality falls in.
func (s *LocationService) LGAForLocality(ctx context.Context, name, state string) (out *models.LGAInfo, err error) {
	done := s.track("lga_for_locality")
	defer func() {
		n := 0
		if out != nil {
			n = len(out.LGAs)
		}
		done(n, err)
	}()

	if name, err = requireText("locality", name); err != nil {
		return nil, err
	}
	filter, err := matcher.ParseStateFilter(state)
	if err != nil {
		return nil, err
	}
	snap, err := s.store.Current()
	if err != nil {
		return nil, err
	}

	out = &models.LGAInfo{Locality: name, LGAs: []models.LGAMembership{}}
	index := make(map[string]int)
	for _, r := range s.matcher.LookupIn(snap, name, filter) {
		if r.LGAName == "" {
			continue
		}
		key := dataset.LGAKey(r.LGAName) + "|" + string(r.State)
		i, ok := index[key]
		if !ok {
			i = len(out.LGAs)
			index[key] = i
			out.LGAs = append(out.LGAs, models.LGAMembership{LGAName: r.LGAName, LGACode: r.LGACode, State: r.State})
		}
		out.LGAs[i].Postcodes = appendString(out.LGAs[i].Postcodes, r.Postcode)
	}
	for i := range out.LGAs {
		sort.Strings(out.LGAs[i].Postcodes)
	}
	out.MultipleLGAs = len(out.LGAs) > 1
	return out, nil
}

// LocalitiesInLGA lists the localities of every LGA whose name contains
// the query, ignoring case and accents.
func (s *LocationService) LocalitiesInLGA(ctx context.Context, lga, state string) (out *models.AreaListing, err error) {
	done := s.track("lga_localities")
	defer func() { done(listingSize(out), err) }()

	if lga, err = requireText("lga", lga); err != nil {
		return nil, err
	}
	filter, err := matcher.ParseStateFilter(state)
	if err != nil {
		return nil, err
	}
	snap, err := s.store.Current()
	if err != nil {
		return nil, err
	}

	needle := dataset.LGAKey(lga)
	var names []string
	var recs []*models.LocationRecord
	seen := make(map[string]struct{})
	for _, sum := range snap.LGAs() {
		if filter != "" && sum.State != filter {
			continue
		}
		if !strings.Contains(dataset.LGAKey(sum.Name), needle) {
			continue
		}
		names = appendString(names, sum.Name)
		key := dataset.LGAKey(sum.Name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		for _, r := range snap.ByLGA(sum.Name) {
			if filter == "" || r.State == filter {
				recs = append(recs, r)
			}
		}
	}
	return buildListing(lga, names, recs), nil
}

// ListLGAs returns every LGA, optionally in one state. Locality counts are
// included only when asked for.
func (s *LocationService) ListLGAs(ctx context.Context, state string, includeCounts bool) (out []models.LGASummary, err error) {
	done := s.track("list_lgas")
	defer func() { done(len(out), err) }()

	filter, err := matcher.ParseStateFilter(state)
	if err != nil {
		return nil, err
	}
	snap, err := s.store.Current()
	if err != nil {
		return nil, err
	}
	out = []models.LGASummary{}
	for _, sum := range snap.LGAs() {
		if filter != "" && sum.State != filter {
			continue
		}
		if !includeCounts {
			sum.LocalityCount = 0
		}
		out = append(out, sum)
	}
	return out, nil
}

// SearchByRegion lists localities whose region contains the query. When no
// region matches, SA3 names are tried, then SA4 names.
func (s *LocationService) SearchByRegion(ctx context.Context, region, state string) (out *models.AreaListing, err error) {
	done := s.track("region")
	defer func() { done(listingSize(out), err) }()

	if region, err = requireText("region", region); err != nil {
		return nil, err
	}
	filter, err := matcher.ParseStateFilter(state)
	if err != nil {
		return nil, err
	}
	snap, err := s.store.Current()
	if err != nil {
		return nil, err
	}

	needle := normalizer.Fold(strings.Join(strings.Fields(region), " "))
	contains := func(v string) bool {
		return v != "" && strings.Contains(normalizer.Fold(v), needle)
	}

	var names []string
	var recs []*models.LocationRecord
	for _, field := range []func(*models.LocationRecord) string{
		func(r *models.LocationRecord) string { return r.Region },
		func(r *models.LocationRecord) string { return r.SA3Name },
		func(r *models.LocationRecord) string { return r.SA4Name },
	} {
		for _, r := range snap.Records() {
			if filter != "" && r.State != filter {
				continue
			}
			if v := field(r); contains(v) {
				recs = append(recs, r)
				names = appendString(names, v)
			}
		}
		if len(recs) > 0 {
			break
		}
	}
	return buildListing(region, names, recs), nil
}

// Nearby returns records within radiusKm of a point. Zero radius and limit
// mean the defaults.
func (s *LocationService) Nearby(ctx context.Context, lat, lon, radiusKm float64, state string, limit int) (out *models.NearbyResult, err error) {
	done := s.track("nearby")
	defer func() { done(nearbySize(out), err) }()

	radiusKm, limit, filter, err := s.radiusArgs(lat, lon, radiusKm, state, limit)
	if err != nil {
		return nil, err
	}
	snap, err := s.store.Current()
	if err != nil {
		return nil, err
	}
	return &models.NearbyResult{
		Latitude:  lat,
		Longitude: lon,
		RadiusKm:  radiusKm,
		Results:   s.proximity.FindIn(snap, lat, lon, radiusKm, filter, limit, nil),
	}, nil
}

// NearbyGeohash is Nearby centred on the middle of a geohash cell.
func (s *LocationService) NearbyGeohash(ctx context.Context, hash string, radiusKm float64, state string, limit int) (*models.NearbyResult, error) {
	lat, lon, err := geo.DecodeGeohash(hash)
	if err != nil {
		s.track("nearby")(0, err)
		return nil, err
	}
	return s.Nearby(ctx, lat, lon, radiusKm, state, limit)
}

// NearPlace centres a radius query on a postcode or locality, using its
// first record that has coordinates. An unknown place, or one without
// coordinates, yields an empty result.
func (s *LocationService) NearPlace(ctx context.Context, place string, radiusKm float64, state string, limit int) (out *models.NearbyResult, err error) {
	done := s.track("nearby_place")
	defer func() { done(nearbySize(out), err) }()

	if place, err = requireText("place", place); err != nil {
		return nil, err
	}
	radiusKm, limit, filter, err := s.radiusArgs(0, 0, radiusKm, state, limit)
	if err != nil {
		return nil, err
	}
	snap, err := s.store.Current()
	if err != nil {
		return nil, err
	}

	var candidates []*models.LocationRecord
	if dataset.IsPostcode(place) {
		candidates = snap.ByPostcode(place)
	} else {
		candidates = s.matcher.LookupIn(snap, place, filter)
	}
	out = &models.NearbyResult{RadiusKm: radiusKm, Results: []models.GeoResult{}}
	for _, r := range candidates {
		if r.HasCoordinates() {
			out.Centre = r
			out.Latitude, out.Longitude = *r.Latitude, *r.Longitude
			out.Results = s.proximity.FindIn(snap, out.Latitude, out.Longitude, radiusKm, filter, limit, nil)
			break
		}
	}
	return out, nil
}

// Neighbours lists localities around a locality, excluding itself. limit 0
// means the default; sameLGA keeps only localities in the centre's LGA.
func (s *LocationService) Neighbours(ctx context.Context, locality, state string, limit int, sameLGA bool) (out *models.NearbyResult, err error) {
	done := s.track("neighbours")
	defer func() { done(nearbySize(out), err) }()

	if locality, err = requireText("locality", locality); err != nil {
		return nil, err
	}
	filter, err := matcher.ParseStateFilter(state)
	if err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = s.cfg.DefaultNeighbours
	}
	if limit < 1 || limit > s.cfg.MaxNeighbours {
		return nil, apperr.Invalid("limit", "must be within [1, %d], got %d", s.cfg.MaxNeighbours, limit)
	}
	snap, err := s.store.Current()
	if err != nil {
		return nil, err
	}

	out = &models.NearbyResult{RadiusKm: s.cfg.NeighbourRadiusKm, Results: []models.GeoResult{}}
	recs := s.matcher.LookupIn(snap, locality, filter)
	if len(recs) == 0 {
		return out, nil
	}
	centre, results, err := s.proximity.Neighbours(snap, recs[0].NormalizedLocality, proximity.NeighbourOptions{
		State:    string(filter),
		RadiusKm: s.cfg.NeighbourRadiusKm,
		Limit:    limit,
		SameLGA:  sameLGA,
	})
	if err != nil {
		return nil, err
	}
	if centre != nil {
		out.Centre = centre
		out.Latitude, out.Longitude = *centre.Latitude, *centre.Longitude
		out.Results = results
	}
	return out, nil
}

// radiusArgs applies defaults and validates a radius query. lat and lon
// are validated as given.
func (s *LocationService) radiusArgs(lat, lon, radiusKm float64, state string, limit int) (float64, int, models.State, error) {
	if radiusKm == 0 {
		radiusKm = s.cfg.DefaultRadiusKm
	}
	if limit == 0 {
		limit = s.cfg.DefaultLimit
	}
	if err := s.proximity.Validate(lat, lon, radiusKm, limit); err != nil {
		return 0, 0, "", err
	}
	filter, err := matcher.ParseStateFilter(state)
	if err != nil {
		return 0, 0, "", err
	}
	return radiusKm, limit, filter, nil
}

func buildListing(query string, names []string, recs []*models.LocationRecord) *models.AreaListing {
	sort.Strings(names)
	out := &models.AreaListing{Query: query, AreasFound: names, Localities: []models.LocalityGroup{}}
	if out.AreasFound == nil {
		out.AreasFound = []string{}
	}

	index := make(map[string]int)
	postcodes := make(map[string]struct{})
	for _, r := range recs {
		postcodes[r.Postcode] = struct{}{}
		key := r.NormalizedLocality + "|" + string(r.State)
		i, ok := index[key]
		if !ok {
			i = len(out.Localities)
			index[key] = i
			out.Localities = append(out.Localities, models.LocalityGroup{
				Locality: r.Locality,
				State:    r.State,
				LGAName:  r.LGAName,
				Region:   r.Region,
			})
		}
		out.Localities[i].Postcodes = appendString(out.Localities[i].Postcodes, r.Postcode)
	}
	for i := range out.Localities {
		sort.Strings(out.Localities[i].Postcodes)
	}
	sort.SliceStable(out.Localities, func(i, j int) bool {
		a, b := out.Localities[i], out.Localities[j]
		if a.Locality != b.Locality {
			return a.Locality < b.Locality
		}
		return a.State < b.State
	})
	out.TotalPostcodes = len(postcodes)
	return out
}

func listingSize(l *models.AreaListing) int {
	if l == nil {
		return 0
	}
	return len(l.Localities)
}

func nearbySize(r *models.NearbyResult) int {
	if r == nil {
		return 0
	}
	return len(r.Results)
}
