package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/adseawright/flight-price-backend/models"
	"github.com/adseawright/flight-price-backend/pipeline"
	"github.com/adseawright/flight-price-backend/utils"
	"github.com/sirupsen/logrus"
)

// ErrPredictionFailed covers every failure after the payload passed the
// required-field check. Callers should not expose the wrapped detail.
var ErrPredictionFailed = errors.New("prediction failed")

// RequiredPredictionFields must all be present in a /predict payload.
var RequiredPredictionFields = []string{
	"airline", "from", "to", "class_category", "stops_category",
	"arr_daytime_category", "dep_daytime_category", "duration_in_min",
	"stops", "dep_date",
}

// MissingFieldsError names the required fields absent from a payload.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "Missing fields: " + strings.Join(e.Fields, ", ")
}

// PredictionService adapts loosely typed request payloads to the pipeline.
type PredictionService struct {
	pipeline pipeline.Pipeline
	logger   *logrus.Logger
}

func NewPredictionService(p pipeline.Pipeline, logger *logrus.Logger) *PredictionService {
	return &PredictionService{pipeline: p, logger: logger}
}

// Predict validates payload, builds the feature row and returns the predicted price.
func (s *PredictionService) Predict(payload map[string]interface{}) (float64, error) {
	var missing []string
	for _, field := range RequiredPredictionFields {
		if _, ok := payload[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return 0, &MissingFieldsError{Fields: missing}
	}

	req, err := BuildPredictionRequest(payload)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to build prediction request")
		return 0, fmt.Errorf("%w: %v", ErrPredictionFailed, err)
	}

	price, err := s.predictRow(featureRow(req))
	if err != nil {
		s.logger.WithError(err).WithField("route", req.Route).Error("Pipeline prediction failed")
		return 0, fmt.Errorf("%w: %v", ErrPredictionFailed, err)
	}
	return price, nil
}

func (s *PredictionService) predictRow(row pipeline.FeatureRow) (price float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
		}
	}()

	prices, err := s.pipeline.Predict([]pipeline.FeatureRow{row})
	if err != nil {
		return 0, err
	}
	if len(prices) == 0 {
		return 0, fmt.Errorf("pipeline returned no predictions")
	}
	return prices[0], nil
}

// BuildPredictionRequest coerces a payload that already holds every required
// field into a PredictionRequest, deriving day, month and route.
func BuildPredictionRequest(payload map[string]interface{}) (models.PredictionRequest, error) {
	var req models.PredictionRequest
	var err error

	text := []struct {
		field string
		dst   *string
	}{
		{"airline", &req.Airline},
		{"from", &req.From},
		{"to", &req.To},
		{"class_category", &req.ClassCategory},
		{"stops_category", &req.StopsCategory},
		{"arr_daytime_category", &req.ArrDaytimeCategory},
		{"dep_daytime_category", &req.DepDaytimeCategory},
	}
	for _, f := range text {
		if *f.dst, err = asString(payload[f.field]); err != nil {
			return req, fmt.Errorf("%s: %w", f.field, err)
		}
	}

	if req.DurationInMin, err = asFloat(payload["duration_in_min"]); err != nil {
		return req, fmt.Errorf("duration_in_min: %w", err)
	}
	if req.Stops, err = asInt(payload["stops"]); err != nil {
		return req, fmt.Errorf("stops: %w", err)
	}

	depDate, ok := payload["dep_date"].(string)
	if !ok {
		return req, fmt.Errorf("dep_date: expected a string, got %T", payload["dep_date"])
	}
	if req.Day, req.Month, err = utils.SplitDepDate(depDate); err != nil {
		return req, err
	}

	req.Route = req.From + "-" + req.To
	return req, nil
}

func featureRow(req models.PredictionRequest) pipeline.FeatureRow {
	return pipeline.FeatureRow{
		Airline:            req.Airline,
		From:               req.From,
		To:                 req.To,
		Route:              req.Route,
		ClassCategory:      req.ClassCategory,
		StopsCategory:      req.StopsCategory,
		ArrDaytimeCategory: req.ArrDaytimeCategory,
		DepDaytimeCategory: req.DepDaytimeCategory,
		DurationInMin:      req.DurationInMin,
		Stops:              req.Stops,
		Day:                req.Day,
		Month:              req.Month,
	}
}

func asString(v interface{}) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	}
	return "", fmt.Errorf("expected a string, got %T", v)
}

func asFloat(v interface{}) (float64, error) {
	switch t := v.(type) {
	case json.Number:
		return t.Float64()
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(t), 64)
	}
	return 0, fmt.Errorf("expected a number, got %T", v)
}

// asInt truncates numeric values; strings must hold an integer.
func asInt(v interface{}) (int, error) {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n), nil
		}
		f, err := t.Float64()
		if err != nil {
			return 0, err
		}
		return int(f), nil
	case float64:
		return int(t), nil
	case int:
		return t, nil
	case string:
		return strconv.Atoi(strings.TrimSpace(t))
	}
	return 0, fmt.Errorf("expected an integer, got %T", v)
}
