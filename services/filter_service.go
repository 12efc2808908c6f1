package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/adseawright/flight-price-backend/catalog"
	"github.com/adseawright/flight-price-backend/database"
	"github.com/adseawright/flight-price-backend/models"
	"github.com/sirupsen/logrus"
)

// ErrInvalidSelection is wrapped by every InvalidSelectionError.
var ErrInvalidSelection = errors.New("invalid selection")

// Stage is one step of the dropdown cascade. Each stage requires every
// parameter of the stages before it.
type Stage int

const (
	StageDepartureCities Stage = iota
	StageDestinations
	StageStopsCounts
	StageDurations
	StageClasses
	StageDepDaytimes
	StageArrDaytimes
)

// Query parameter names.
const (
	ParamAirline       = "airline"
	ParamFromCity      = "from_city"
	ParamToCity        = "to_city"
	ParamStops         = "stops"
	ParamDuration      = "duration"
	ParamClassCategory = "class_category"
	ParamDepDaytime    = "dep_daytime"
)

type stageSpec struct {
	responseKey string
	required    []string
	message     string
}

var stageSpecs = map[Stage]stageSpec{
	StageDepartureCities: {"cities", []string{ParamAirline}, "Invalid airline"},
	StageDestinations:    {"destinations", []string{ParamAirline, ParamFromCity}, "Invalid airline or departure city"},
	StageStopsCounts:     {"stops_counts", []string{ParamAirline, ParamFromCity, ParamToCity}, "Invalid selection"},
	StageDurations:       {"durations", []string{ParamAirline, ParamFromCity, ParamToCity, ParamStops}, "Invalid selection"},
	StageClasses: {"class_categories",
		[]string{ParamAirline, ParamFromCity, ParamToCity, ParamStops, ParamDuration}, "Invalid selection"},
	StageDepDaytimes: {"dep_daytime_categories",
		[]string{ParamAirline, ParamFromCity, ParamToCity, ParamStops, ParamDuration, ParamClassCategory}, "Invalid selection"},
	StageArrDaytimes: {"arr_daytime_categories",
		[]string{ParamAirline, ParamFromCity, ParamToCity, ParamStops, ParamDuration, ParamClassCategory}, "Invalid selection"},
}

// ResponseKey is the JSON key the stage's options are returned under.
func (s Stage) ResponseKey() string {
	return stageSpecs[s].responseKey
}

// InvalidSelectionError reports a missing or malformed upstream parameter.
type InvalidSelectionError struct {
	Stage  Stage
	Param  string
	Reason string
}

func (e *InvalidSelectionError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidSelection, e.Param, e.Reason)
}

func (e *InvalidSelectionError) Unwrap() error {
	return ErrInvalidSelection
}

// Message is the client-facing text for the error.
func (e *InvalidSelectionError) Message() string {
	return stageSpecs[e.Stage].message
}

// Selection is the prefix of the cascade chosen so far.
type Selection struct {
	Airline       string
	FromCity      string
	ToCity        string
	Stops         int
	Duration      float64 // matched exactly by StageClasses, truncated after it
	ClassCategory string
	DepDaytime    *int // optional narrowing for StageArrDaytimes
}

// ParseSelection reads the parameters stage requires from q.
func ParseSelection(stage Stage, q url.Values) (Selection, error) {
	var sel Selection
	spec, ok := stageSpecs[stage]
	if !ok {
		return sel, fmt.Errorf("unknown stage %d", stage)
	}

	for _, param := range spec.required {
		value := q.Get(param)
		if value == "" {
			return sel, &InvalidSelectionError{Stage: stage, Param: param, Reason: "is required"}
		}
		switch param {
		case ParamAirline:
			sel.Airline = value
		case ParamFromCity:
			sel.FromCity = value
		case ParamToCity:
			sel.ToCity = value
		case ParamStops:
			n, err := strconv.Atoi(value)
			if err != nil {
				return sel, &InvalidSelectionError{Stage: stage, Param: param, Reason: "must be an integer"}
			}
			sel.Stops = n
		case ParamDuration:
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return sel, &InvalidSelectionError{Stage: stage, Param: param, Reason: "must be a number"}
			}
			sel.Duration = f
		case ParamClassCategory:
			sel.ClassCategory = value
		}
	}

	if stage == StageArrDaytimes {
		if value := q.Get(ParamDepDaytime); value != "" {
			n, err := strconv.Atoi(value)
			if err != nil {
				return sel, &InvalidSelectionError{Stage: stage, Param: ParamDepDaytime, Reason: "must be an integer"}
			}
			sel.DepDaytime = &n
		}
	}
	return sel, nil
}

// FilterService resolves the valid values of the next cascade attribute.
type FilterService struct {
	store   *database.Store
	catalog *catalog.Catalog
	logger  *logrus.Logger
}

func NewFilterService(store *database.Store, cat *catalog.Catalog, logger *logrus.Logger) *FilterService {
	return &FilterService{store: store, catalog: cat, logger: logger}
}

// Airlines lists every airline of the catalog, A-Z.
func (s *FilterService) Airlines() []models.Option {
	names := s.catalog.Airlines()
	options := make([]models.Option, 0, len(names))
	for _, name := range names {
		options = append(options, models.Option{Label: name, Value: name})
	}
	return options
}

// Resolve returns the distinct values of the attribute that follows sel in
// the cascade. A name that does not exist in its dimension table yields an
// empty list rather than an error.
func (s *FilterService) Resolve(ctx context.Context, stage Stage, sel Selection) ([]models.Option, error) {
	if _, ok := stageSpecs[stage]; !ok {
		return nil, fmt.Errorf("unknown stage %d", stage)
	}

	session, err := s.store.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	filters, found, err := s.buildFilters(ctx, session, stage, sel)
	if err != nil {
		return nil, err
	}
	if !found {
		return []models.Option{}, nil
	}

	var options []models.Option
	switch stage {
	case StageDepartureCities:
		options, err = nameOptions(session.DistinctNames(ctx, models.ColFromCity, models.Cities, filters))
	case StageDestinations:
		options, err = nameOptions(session.DistinctNames(ctx, models.ColToCity, models.Cities, filters))
	case StageStopsCounts:
		options, err = countOptions(session.DistinctInts(ctx, models.ColStops, filters))
	case StageDurations:
		options, err = countOptions(session.DistinctInts(ctx, models.ColDuration, filters))
	case StageClasses:
		options, err = nameOptions(session.DistinctNames(ctx, models.ColClassCategory, models.ClassCategories, filters))
	case StageDepDaytimes:
		options, err = daytimeOptions(session.DistinctInts(ctx, models.ColDepDaytimeCategory, filters))
	case StageArrDaytimes:
		options, err = daytimeOptions(session.DistinctInts(ctx, models.ColArrDaytimeCategory, filters))
	}
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"stage":   stage.ResponseKey(),
		"options": len(options),
	}).Debug("Resolved cascade stage")
	return options, nil
}

// buildFilters resolves every upstream name to its id, in cascade order.
// found is false as soon as one name is missing from its dimension table.
func (s *FilterService) buildFilters(ctx context.Context, session *database.Session, stage Stage, sel Selection) (filters []database.Filter, found bool, err error) {
	type nameRef struct {
		from   Stage
		dim    models.Dimension
		column string
		name   string
	}
	names := []nameRef{
		{StageDepartureCities, models.Airlines, models.ColAirline, sel.Airline},
		{StageDestinations, models.Cities, models.ColFromCity, sel.FromCity},
		{StageStopsCounts, models.Cities, models.ColToCity, sel.ToCity},
		{StageDepDaytimes, models.ClassCategories, models.ColClassCategory, sel.ClassCategory},
	}

	for _, ref := range names {
		if stage < ref.from {
			continue
		}
		id, ok, err := session.LookupID(ctx, ref.dim, ref.name)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			s.logger.WithFields(logrus.Fields{
				"dimension": ref.dim.Table,
				"name":      ref.name,
			}).Debug("Cascade name not found")
			return nil, false, nil
		}
		filters = append(filters, database.Filter{Column: ref.column, Value: id})
	}

	if stage >= StageDurations {
		filters = append(filters, database.Filter{Column: models.ColStops, Value: sel.Stops})
	}
	switch {
	case stage == StageClasses:
		filters = append(filters, database.Filter{Column: models.ColDuration, Value: sel.Duration})
	case stage > StageClasses:
		filters = append(filters, database.Filter{Column: models.ColDuration, Value: int(sel.Duration)})
	}
	if stage == StageArrDaytimes && sel.DepDaytime != nil {
		filters = append(filters, database.Filter{Column: models.ColDepDaytimeCategory, Value: *sel.DepDaytime})
	}
	return filters, true, nil
}

func nameOptions(names []string, err error) ([]models.Option, error) {
	if err != nil {
		return nil, err
	}
	options := make([]models.Option, 0, len(names))
	for _, name := range names {
		options = append(options, models.Option{Label: name, Value: name})
	}
	return options, nil
}

func countOptions(values []int64, err error) ([]models.Option, error) {
	if err != nil {
		return nil, err
	}
	options := make([]models.Option, 0, len(values))
	for _, v := range values {
		options = append(options, models.Option{Label: strconv.FormatInt(v, 10), Value: v})
	}
	return options, nil
}

func daytimeOptions(codes []int64, err error) ([]models.Option, error) {
	if err != nil {
		return nil, err
	}
	options := make([]models.Option, 0, len(codes))
	for _, code := range codes {
		options = append(options, models.Option{Label: models.DaytimeLabel(code), Value: code})
	}
	return options, nil
}
