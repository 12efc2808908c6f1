package database

import (
	"fmt"

	"github.com/adseawright/flight-price-backend/models"
)

// dialect captures the few statements that differ between SQLite and MySQL.
type dialect struct {
	name         string
	idColumn     string
	nameColumn   string
	insertIgnore string
	// transactionalDDL is false when DROP/CREATE commit implicitly.
	transactionalDDL bool
}

var (
	sqliteDialect = dialect{
		name:         "sqlite3",
		idColumn:     "id INTEGER PRIMARY KEY AUTOINCREMENT",
		nameColumn:   "name TEXT NOT NULL UNIQUE",
		insertIgnore: "INSERT OR IGNORE INTO",

		transactionalDDL: true,
	}
	mysqlDialect = dialect{
		name:         "mysql",
		idColumn:     "id INTEGER PRIMARY KEY AUTO_INCREMENT",
		nameColumn:   "name VARCHAR(191) NOT NULL UNIQUE",
		insertIgnore: "INSERT IGNORE INTO",

		transactionalDDL: false,
	}
)

func dialectFor(driver string) dialect {
	if driver == "mysql" {
		return mysqlDialect
	}
	return sqliteDialect
}

// dropStatements removes the fact table first so no foreign key dangles.
func (d dialect) dropStatements() []string {
	stmts := []string{"DROP TABLE IF EXISTS flight_routes"}
	for _, dim := range models.AllDimensions {
		stmts = append(stmts, "DROP TABLE IF EXISTS "+dim.Table)
	}
	return stmts
}

// rebuildStatements drops and recreates every table of the store.
func (d dialect) rebuildStatements() []string {
	stmts := append(d.dropStatements(), d.createStatements()...)
	return append(stmts, d.seedHistoryStatement())
}

func (d dialect) createStatements() []string {
	var stmts []string
	for _, dim := range models.AllDimensions {
		stmts = append(stmts, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			%s,
			%s
		)`, dim.Table, d.idColumn, d.nameColumn))
	}
	stmts = append(stmts, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS flight_routes (
			%s,
			airline INTEGER NOT NULL,
			from_city INTEGER NOT NULL,
			to_city INTEGER NOT NULL,
			stops_category INTEGER NOT NULL,
			class_category INTEGER NOT NULL,
			duration INTEGER NOT NULL,
			dep_daytime_category INTEGER,
			arr_daytime_category INTEGER,
			month INTEGER,
			stops INTEGER NOT NULL,
			FOREIGN KEY (airline) REFERENCES airlines(id),
			FOREIGN KEY (from_city) REFERENCES cities(id),
			FOREIGN KEY (to_city) REFERENCES cities(id),
			FOREIGN KEY (class_category) REFERENCES class_category(id),
			FOREIGN KEY (stops_category) REFERENCES stops_category(id)
		)`, d.idColumn))
	return stmts
}

// seedHistoryStatement creates the rebuild log. It survives rebuilds.
func (d dialect) seedHistoryStatement() string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS seed_history (
			%s,
			source_file VARCHAR(512) NOT NULL,
			source_url VARCHAR(512) NOT NULL DEFAULT '',
			data_hash VARCHAR(64) NOT NULL,
			routes_inserted INTEGER NOT NULL,
			routes_skipped INTEGER NOT NULL,
			seeded_at DATETIME NOT NULL
		)`, d.idColumn)
}

func (d dialect) insertNameStatement(dim models.Dimension) string {
	return fmt.Sprintf("%s %s (name) VALUES (?)", d.insertIgnore, dim.Table)
}

const insertRouteStatement = `
	INSERT INTO flight_routes (
		airline, from_city, to_city, stops_category, class_category,
		duration, dep_daytime_category, arr_daytime_category, month, stops
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// routeColumns are the flight_routes columns that may appear in a filter or
// as a distinct-value target. Column names are interpolated into SQL, so
// anything outside this set is rejected.
var routeColumns = map[string]bool{
	models.ColAirline:            true,
	models.ColFromCity:           true,
	models.ColToCity:             true,
	models.ColStopsCategory:      true,
	models.ColClassCategory:      true,
	models.ColDuration:           true,
	models.ColDepDaytimeCategory: true,
	models.ColArrDaytimeCategory: true,
	models.ColMonth:              true,
	models.ColStops:              true,
}

var dimensionTables = map[string]bool{
	models.Airlines.Table:        true,
	models.Cities.Table:          true,
	models.StopsCategories.Table: true,
	models.ClassCategories.Table: true,
}
