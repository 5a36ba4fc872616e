package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/postcode-matcher/app/models"
)

// CSVSource reads the reference dataset from a headered CSV file.
type CSVSource struct {
	path string
}

// NewCSVSource returns a Source reading path on every Load.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

func (s *CSVSource) Name() string { return "csv:" + s.path }

func (s *CSVSource) Load(ctx context.Context) ([]models.LocationRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", s.path, err)
	}
	defer f.Close()

	return ParseCSV(ctx, f)
}

// columnAliases maps each field to the header names accepted for it, in
// order of preference.
var columnAliases = map[string][]string{
	"postcode":   {"postcode"},
	"locality":   {"locality", "suburb"},
	"state":      {"state"},
	"lgaregion":  {"lgaregion", "lga_name"},
	"lgacode":    {"lgacode", "lga_code"},
	"sa3":        {"sa3"},
	"sa3name":    {"sa3name"},
	"sa4":        {"sa4"},
	"sa4name":    {"sa4name"},
	"region":     {"region"},
	"electorate": {"electorate"},
	"altitude":   {"altitude"},
	"phn_name":   {"phn_name"},
	"phn_code":   {"phn_code"},
}

// coordinateColumns lists latitude/longitude header pairs in order of
// preference. A pair is used only when both of its values parse.
var coordinateColumns = [][2]string{
	{"lat_precise", "long_precise"},
	{"lat", "long"},
	{"lat", "lon"},
	{"latitude", "longitude"},
}

// ParseCSV decodes rows using the header to locate columns. Rows with
// missing postcode, locality or state are returned as-is; the snapshot
// builder drops them.
func ParseCSV(ctx context.Context, r io.Reader) ([]models.LocationRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := headerIndex(header)
	cols := resolveColumns(index)
	coords := resolveCoordinates(index)
	for _, required := range []string{"postcode", "locality", "state"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("csv header missing %q column", required)
		}
	}

	var out []models.LocationRecord
	for line := 2; ; line++ {
		if line%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}

		get := func(field string) string {
			for _, i := range cols[field] {
				if i < len(row) {
					if v := strings.TrimSpace(row[i]); v != "" {
						return v
					}
				}
			}
			return ""
		}
		lat, lon := coordinates(row, coords)
		out = append(out, models.LocationRecord{
			Postcode:          get("postcode"),
			Locality:          get("locality"),
			State:             models.State(get("state")),
			Latitude:          lat,
			Longitude:         lon,
			LGAName:           get("lgaregion"),
			LGACode:           get("lgacode"),
			SA3Code:           get("sa3"),
			SA3Name:           get("sa3name"),
			SA4Code:           get("sa4"),
			SA4Name:           get("sa4name"),
			Region:            get("region"),
			ElectoralDivision: get("electorate"),
			Altitude:          parseFloat(get("altitude")),
			PHNName:           get("phn_name"),
			PHNCode:           get("phn_code"),
		})
	}
	return out, nil
}

func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}
	return index
}

// resolveColumns maps each field to the indexes of its present aliases, so a
// blank preferred column falls back to the next one.
func resolveColumns(index map[string]int) map[string][]int {
	cols := make(map[string][]int, len(columnAliases))
	for field, aliases := range columnAliases {
		for _, a := range aliases {
			if i, ok := index[a]; ok {
				cols[field] = append(cols[field], i)
			}
		}
	}
	return cols
}

func resolveCoordinates(index map[string]int) [][2]int {
	var out [][2]int
	for _, pair := range coordinateColumns {
		lat, okLat := index[pair[0]]
		lon, okLon := index[pair[1]]
		if okLat && okLon {
			out = append(out, [2]int{lat, lon})
		}
	}
	return out
}

// coordinates returns the first column pair with both values present, so
// latitude and longitude always come from the same precision.
func coordinates(row []string, pairs [][2]int) (*float64, *float64) {
	for _, p := range pairs {
		if p[0] >= len(row) || p[1] >= len(row) {
			continue
		}
		lat := parseFloat(strings.TrimSpace(row[p[0]]))
		lon := parseFloat(strings.TrimSpace(row[p[1]]))
		if lat != nil && lon != nil {
			return lat, lon
		}
	}
	return nil, nil
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
