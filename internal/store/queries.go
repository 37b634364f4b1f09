package store

import (
	"strings"

	"github.com/vvka-141/usaccidents/pkg/usaccidents"
)

// DDL for the output tables. Column names and types are fixed; "City",
// "State" and "County" keep their source capitalization.
const (
	queryDropAccidents = `DROP TABLE IF EXISTS accidents`
	queryDropCities    = `DROP TABLE IF EXISTS cities`

	queryCreateCities = `
		CREATE TABLE cities (
			city_id  BIGINT,
			"City"   TEXT,
			"State"  TEXT,
			"County" TEXT
		)
	`

	queryCreateAccidents = `
		CREATE TABLE accidents (
			severity          BIGINT,
			datetime          TIMESTAMP,
			lat               DOUBLE PRECISION,
			lng               DOUBLE PRECISION,
			weather_condition TEXT,
			city_id           BIGINT
		)
	`

	queryAddUniqueCityID = `
		ALTER TABLE cities
		ADD CONSTRAINT unique_city_id UNIQUE (city_id)
	`

	queryAddAccidentsFK = `
		ALTER TABLE accidents
		ADD CONSTRAINT fk_accidents_city_id
		FOREIGN KEY (city_id) REFERENCES cities (city_id)
	`
)

// Constraint names added by AddConstraints.
const (
	UniqueCityIDConstraint = "unique_city_id"
	AccidentsFKConstraint  = "fk_accidents_city_id"
)

// Column order used for COPY.
var (
	CityColumns     = []string{"city_id", "City", "State", "County"}
	AccidentColumns = []string{"severity", "datetime", "lat", "lng", "weather_condition", "city_id"}
)

// createTablesBatch joins the DDL for policy into one multi-statement string.
func createTablesBatch(policy usaccidents.IfExists) string {
	var statements []string
	if policy == usaccidents.IfExistsReplace {
		statements = append(statements, queryDropAccidents, queryDropCities)
	}
	statements = append(statements, queryCreateCities, queryCreateAccidents)
	return strings.Join(statements, ";\n")
}
