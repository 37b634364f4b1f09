package normalize

import "github.com/vvka-141/usaccidents/pkg/usaccidents"

// Joiner streams accidents with City, County and State replaced by city_id.
type Joiner struct {
	it        RecordIterator
	index     *Index
	current   usaccidents.Accident
	rows      int64
	unmatched int64
}

// Join left-joins the records of it against index.
func Join(it RecordIterator, index *Index) *Joiner {
	return &Joiner{it: it, index: index}
}

// Next advances to the next accident.
func (j *Joiner) Next() bool {
	if !j.it.Next() {
		return false
	}

	rec := j.it.Record()
	cityID := j.index.Resolve(rec.Key())
	if !cityID.Valid {
		j.unmatched++
	}
	j.rows++
	j.current = usaccidents.Accident{
		Severity:         rec.Severity,
		Datetime:         rec.Datetime,
		Lat:              rec.Lat,
		Lng:              rec.Lng,
		WeatherCondition: rec.WeatherCondition,
		CityID:           cityID,
	}
	return true
}

// Accident returns the current accident.
func (j *Joiner) Accident() usaccidents.Accident {
	return j.current
}

// Err returns the error of the underlying iterator.
func (j *Joiner) Err() error {
	return j.it.Err()
}

// Rows returns how many accidents have been produced.
func (j *Joiner) Rows() int64 {
	return j.rows
}

// Unmatched returns how many produced accidents have a null city_id.
func (j *Joiner) Unmatched() int64 {
	return j.unmatched
}
