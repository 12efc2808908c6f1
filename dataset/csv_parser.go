package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/adseawright/flight-price-backend/models"
	"github.com/jszwec/csvutil"
)

// ParseEncodedRoutesCsv takes an io.Reader containing the encoded training
// data and returns one EncodedRoute per record.
// csvutil maps header names onto the `csv` tags of models.EncodedRoute;
// extra columns such as price or route are ignored.
//
// A numeric cell that is empty or not a number decodes as NaN, so the bad
// row is rejected by the store rebuild instead of failing the whole file.
func ParseEncodedRoutesCsv(reader io.Reader) ([]models.EncodedRoute, error) {
	var routes []models.EncodedRoute

	decoder, err := csvutil.NewDecoder(csv.NewReader(reader))
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("encoded training data is empty")
		}
		return nil, fmt.Errorf("failed to create CSV decoder for encoded routes: %w", err)
	}

	if missing := missingColumns(decoder.Header()); len(missing) > 0 {
		return nil, fmt.Errorf("encoded training data is missing columns %v", missing)
	}

	decoder.WithUnmarshalers(csvutil.UnmarshalFunc(unmarshalCell))

	if err := decoder.Decode(&routes); err != nil {
		return nil, fmt.Errorf("failed to decode encoded training data: %w", err)
	}
	return routes, nil
}

// LoadEncodedRoutes opens path and parses it with ParseEncodedRoutesCsv.
func LoadEncodedRoutes(path string) ([]models.EncodedRoute, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open encoded training data %s: %w", path, err)
	}
	defer file.Close()

	return ParseEncodedRoutesCsv(file)
}

func unmarshalCell(data []byte, f *float64) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		v = math.NaN()
	}
	*f = v
	return nil
}

func missingColumns(header []string) []string {
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[h] = true
	}
	var missing []string
	for _, h := range requiredColumns {
		if !have[h] {
			missing = append(missing, h)
		}
	}
	return missing
}

var requiredColumns = []string{
	"airline", "from", "to", "stops_category", "class_category",
	"duration_in_min", "dep_daytime_category", "arr_daytime_category", "month", "stops",
}
