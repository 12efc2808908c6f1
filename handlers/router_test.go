package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/adseawright/flight-price-backend/database"
	"github.com/adseawright/flight-price-backend/metrics"
	"github.com/adseawright/flight-price-backend/models"
	"github.com/adseawright/flight-price-backend/pipeline"
	"github.com/adseawright/flight-price-backend/services"
	"github.com/adseawright/flight-price-backend/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const examplePayload = `{
	"airline": "Indigo",
	"from": "Delhi",
	"to": "Mumbai",
	"class_category": "Economy",
	"stops_category": "Non-stop",
	"arr_daytime_category": "Daytime Arrival",
	"dep_daytime_category": "Daytime Departure",
	"duration_in_min": 180,
	"stops": 0,
	"dep_date": "2025-12-15"
}`

func newTestRouter(t *testing.T, store *database.Store) http.Handler {
	t.Helper()
	logger := testutil.Logger()

	linear, err := pipeline.NewLinear(pipeline.Artifact{
		Columns:   append([]string(nil), pipeline.FeatureColumns...),
		Intercept: 8.6,
		Numeric: map[string]pipeline.NumericFeature{
			"duration_in_min": {Coef: 0.2, Mean: 150, Scale: 60},
			"stops":           {Coef: 0.15, Mean: 0.5, Scale: 0.5},
		},
		Categorical: map[string]map[string]float64{
			"airline":        {"Indigo": -0.1, "Vistara": 0.2},
			"class_category": {"Business": 1.3},
		},
		Target: "log1p",
	})
	require.NoError(t, err)

	h := NewHandler(
		services.NewFilterService(store, testutil.Catalog(t), logger),
		services.NewPredictionService(linear, logger),
		store,
		metrics.NewMetricsRegistry(),
		logger,
	)
	return NewRouter(h, []string{"*"})
}

func do(t *testing.T, router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeOptions(t *testing.T, rec *httptest.ResponseRecorder) map[string][]models.Option {
	t.Helper()
	var body map[string][]models.Option
	decoder := json.NewDecoder(bytes.NewReader(rec.Body.Bytes()))
	decoder.UseNumber()
	require.NoError(t, decoder.Decode(&body))
	return body
}

func TestDropdownEndpoints(t *testing.T) {
	router := newTestRouter(t, testutil.SeededStore(t))

	tests := []struct {
		name   string
		target string
		key    string
		labels []string
	}{
		{"airlines", "/dropdown-data", "airlines", []string{"Air India", "Indigo", "SpiceJet", "Vistara"}},
		{"departure cities", "/departure-cities?airline=Indigo", "cities", []string{"Delhi", "Mumbai"}},
		{"destinations", "/destination-cities?airline=Indigo&from_city=Delhi", "destinations", []string{"Kolkata", "Mumbai"}},
		{"stops", "/available-stops-count?airline=Indigo&from_city=Delhi&to_city=Mumbai", "stops_counts", []string{"0", "1"}},
		{"durations", "/available-durations?airline=Indigo&from_city=Delhi&to_city=Mumbai&stops=0", "durations", []string{"130"}},
		{"classes", "/available-classes?airline=Indigo&from_city=Delhi&to_city=Mumbai&stops=0&duration=130", "class_categories", []string{"Business", "Economy"}},
		{"dep daytimes", "/available-dep-daytimes?airline=Indigo&from_city=Delhi&to_city=Mumbai&stops=0&duration=130&class_category=Economy", "dep_daytime_categories", []string{"Day", "Night"}},
		{"arr daytimes", "/available-arr-daytimes?airline=Indigo&from_city=Delhi&to_city=Mumbai&stops=0&duration=130&class_category=Business", "arr_daytime_categories", []string{"Night"}},
		{"arr daytimes narrowed", "/available-arr-daytimes?airline=Indigo&from_city=Delhi&to_city=Mumbai&stops=0&duration=130&class_category=Economy&dep_daytime=1", "arr_daytime_categories", []string{"Day"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, tt.target, "")
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			body := decodeOptions(t, rec)
			require.Contains(t, body, tt.key)
			labels := make([]string, 0, len(body[tt.key]))
			for _, o := range body[tt.key] {
				labels = append(labels, o.Label)
			}
			assert.Equal(t, tt.labels, labels)
		})
	}
}

func TestDaytimeValuesAreCodes(t *testing.T) {
	router := newTestRouter(t, testutil.SeededStore(t))
	rec := do(t, router, http.MethodGet,
		"/available-dep-daytimes?airline=Indigo&from_city=Delhi&to_city=Mumbai&stops=0&duration=130&class_category=Economy", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"dep_daytime_categories":[{"label":"Day","value":0},{"label":"Night","value":1}]}`, rec.Body.String())
}

func TestUnknownAirlineIsEmpty(t *testing.T) {
	router := newTestRouter(t, testutil.SeededStore(t))
	rec := do(t, router, http.MethodGet, "/departure-cities?airline=DoesNotExist", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"cities":[]}`, rec.Body.String())
}

func TestInvalidSelection(t *testing.T) {
	router := newTestRouter(t, testutil.SeededStore(t))

	tests := []struct {
		target  string
		message string
	}{
		{"/departure-cities", "Invalid airline"},
		{"/destination-cities?airline=Indigo", "Invalid airline or departure city"},
		{"/available-stops-count?airline=Indigo&from_city=Delhi", "Invalid selection"},
		{"/available-durations?airline=Indigo&from_city=Delhi&to_city=Mumbai&stops=two", "Invalid selection"},
		{"/available-arr-daytimes?airline=Indigo&from_city=Delhi&to_city=Mumbai&stops=0&duration=130", "Invalid selection"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, tt.target, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"error":"`+tt.message+`"}`, rec.Body.String())
		})
	}
}

func TestGetIsIdempotent(t *testing.T) {
	router := newTestRouter(t, testutil.SeededStore(t))
	target := "/destination-cities?airline=Indigo&from_city=Delhi"

	first := do(t, router, http.MethodGet, target, "").Body.String()
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, do(t, router, http.MethodGet, target, "").Body.String())
	}
}

func TestPredict(t *testing.T) {
	router := newTestRouter(t, testutil.SeededStore(t))

	t.Run("example payload", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/predict", examplePayload)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp models.PredictionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Regexp(t, regexp.MustCompile(`^\d+\.\d{2} INR$`), resp.PredictedPrice)
	})

	t.Run("missing from", func(t *testing.T) {
		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(examplePayload), &payload))
		delete(payload, "from")
		body, err := json.Marshal(payload)
		require.NoError(t, err)

		rec := do(t, router, http.MethodPost, "/predict", string(body))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"Missing fields: from"}`, rec.Body.String())
	})

	t.Run("invalid json", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/predict", `{"airline":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"Invalid JSON body"}`, rec.Body.String())
	})

	t.Run("bad date", func(t *testing.T) {
		body := strings.Replace(examplePayload, "2025-12-15", "15/12/2025", 1)
		rec := do(t, router, http.MethodPost, "/predict", body)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"Prediction failed"}`, rec.Body.String())
	})
}

func TestHealth(t *testing.T) {
	store := testutil.SeededStore(t)
	router := newTestRouter(t, store)

	rec := do(t, router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status string `json:"status"`
		Routes int    `json:"routes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, testutil.RoutesInserted, body.Routes)

	require.NoError(t, store.Close())
	rec = do(t, router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"error","message":"lookup store unreachable"}`, rec.Body.String())
}

func TestHealth_UnseededStore(t *testing.T) {
	router := newTestRouter(t, testutil.OpenStore(t))

	rec := do(t, router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"error","message":"lookup store not initialized"}`, rec.Body.String())
}

func TestSeedHistory(t *testing.T) {
	store := testutil.SeededStore(t)
	router := newTestRouter(t, store)

	rec := do(t, router, http.MethodGet, "/seed-history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"seeds":[]}`, rec.Body.String())

	for _, hash := range []string{"aaa", "bbb"} {
		require.NoError(t, store.RecordSeed(context.Background(), models.SeedRecord{
			SourceFile:     "encoded_training_data.csv",
			DataHash:       hash,
			RoutesInserted: testutil.RoutesInserted,
			RoutesSkipped:  testutil.RoutesSkipped,
			SeededAt:       time.Now(),
		}))
	}

	rec = do(t, router, http.MethodGet, "/seed-history?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Seeds []models.SeedRecord `json:"seeds"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Seeds, 1)
	assert.Equal(t, "bbb", body.Seeds[0].DataHash)
	assert.Equal(t, testutil.RoutesSkipped, body.Seeds[0].RoutesSkipped)

	for _, limit := range []string{"0", "101", "ten"} {
		rec = do(t, router, http.MethodGet, "/seed-history?limit="+limit, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, limit)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, testutil.SeededStore(t))
	do(t, router, http.MethodGet, "/departure-cities?airline=Indigo", "")

	rec := do(t, router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `flightprice_cascade_lookups_total{outcome="ok",stage="cities"} 1`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
