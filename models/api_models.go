package models

// Option is one dropdown entry. Value keeps the raw form the next request
// must send back (a name, a count, or a daytime code).
type Option struct {
	Label string      `json:"label"`
	Value interface{} `json:"value"`
}

// PredictionRequest is the normalized form of a POST /predict body.
// Day, Month and Route are derived from DepDate, From and To.
type PredictionRequest struct {
	Airline            string
	From               string
	To                 string
	ClassCategory      string
	StopsCategory      string
	ArrDaytimeCategory string
	DepDaytimeCategory string
	DurationInMin      float64
	Stops              int
	Day                int
	Month              int
	Route              string
}

// PredictionResponse is the success body of POST /predict.
type PredictionResponse struct {
	PredictedPrice string `json:"predicted_price"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}
