package models

// Dimension describes one ID-normalized lookup table.
type Dimension struct {
	Name  string // e.g., "airline"
	Table string // e.g., "airlines"
}

// Dimension tables referenced by flight_routes.
var (
	Airlines        = Dimension{Name: "airline", Table: "airlines"}
	Cities          = Dimension{Name: "city", Table: "cities"}
	StopsCategories = Dimension{Name: "stops_category", Table: "stops_category"}
	ClassCategories = Dimension{Name: "class_category", Table: "class_category"}
)

// AllDimensions lists the dimension tables in creation order.
var AllDimensions = []Dimension{Airlines, Cities, StopsCategories, ClassCategories}

// flight_routes column names.
const (
	ColAirline            = "airline"
	ColFromCity           = "from_city"
	ColToCity             = "to_city"
	ColStopsCategory      = "stops_category"
	ColClassCategory      = "class_category"
	ColDuration           = "duration"
	ColDepDaytimeCategory = "dep_daytime_category"
	ColArrDaytimeCategory = "arr_daytime_category"
	ColMonth              = "month"
	ColStops              = "stops"
)

// DimensionRow is a single airline, city, stops category or class category.
type DimensionRow struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// EncodedRoute is one row of the pre-encoded training data.
// Categorical columns hold indexes into the category catalog. Numeric columns
// are decoded as floats because the exporting tool may write "180.0".
type EncodedRoute struct {
	Airline            float64 `csv:"airline"`
	From               float64 `csv:"from"`
	To                 float64 `csv:"to"`
	StopsCategory      float64 `csv:"stops_category"`
	ClassCategory      float64 `csv:"class_category"`
	DurationInMin      float64 `csv:"duration_in_min"`
	DepDaytimeCategory float64 `csv:"dep_daytime_category"`
	ArrDaytimeCategory float64 `csv:"arr_daytime_category"`
	Month              float64 `csv:"month"`
	Stops              float64 `csv:"stops"`
}

// FlightRoute is a fully ID-resolved fact row.
type FlightRoute struct {
	ID                 int64 `db:"id"`
	AirlineID          int64 `db:"airline"`
	FromCityID         int64 `db:"from_city"`
	ToCityID           int64 `db:"to_city"`
	StopsCategoryID    int64 `db:"stops_category"`
	ClassCategoryID    int64 `db:"class_category"`
	Duration           int   `db:"duration"`
	DepDaytimeCategory int   `db:"dep_daytime_category"`
	ArrDaytimeCategory int   `db:"arr_daytime_category"`
	Month              int   `db:"month"`
	Stops              int   `db:"stops"`
}

// Daytime codes stored in flight_routes.
const (
	DaytimeDay   = 0
	DaytimeNight = 1
)

// DaytimeLabel projects a stored daytime code onto its display label.
func DaytimeLabel(code int64) string {
	if code == DaytimeDay {
		return "Day"
	}
	return "Night"
}
