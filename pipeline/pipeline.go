// Package pipeline exposes the trained price model as a single capability:
// predict a price for each feature row.
package pipeline

// FeatureColumns are the training-time column names, in training order.
var FeatureColumns = []string{
	"airline",
	"from",
	"to",
	"route",
	"class_category",
	"stops_category",
	"arr_daytime_category",
	"dep_daytime_category",
	"duration_in_min",
	"stops",
	"day",
	"month",
}

// FeatureRow is one input row for the pipeline. The model encodes the
// categorical columns itself.
type FeatureRow struct {
	Airline            string
	From               string
	To                 string
	Route              string
	ClassCategory      string
	StopsCategory      string
	ArrDaytimeCategory string
	DepDaytimeCategory string
	DurationInMin      float64
	Stops              int
	Day                int
	Month              int
}

// Categorical returns the value of a categorical column and whether the
// column is categorical.
func (r FeatureRow) Categorical(column string) (string, bool) {
	switch column {
	case "airline":
		return r.Airline, true
	case "from":
		return r.From, true
	case "to":
		return r.To, true
	case "route":
		return r.Route, true
	case "class_category":
		return r.ClassCategory, true
	case "stops_category":
		return r.StopsCategory, true
	case "arr_daytime_category":
		return r.ArrDaytimeCategory, true
	case "dep_daytime_category":
		return r.DepDaytimeCategory, true
	}
	return "", false
}

// Numeric returns the value of a numeric column and whether the column is numeric.
func (r FeatureRow) Numeric(column string) (float64, bool) {
	switch column {
	case "duration_in_min":
		return r.DurationInMin, true
	case "stops":
		return float64(r.Stops), true
	case "day":
		return float64(r.Day), true
	case "month":
		return float64(r.Month), true
	}
	return 0, false
}

// Pipeline is the trained model. Predict returns one price per row.
type Pipeline interface {
	Predict(rows []FeatureRow) ([]float64, error)
}
