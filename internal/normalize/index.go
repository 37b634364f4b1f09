package normalize

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/vvka-141/usaccidents/pkg/usaccidents"
)

// RecordIterator is the pull iterator BuildIndex and Join consume.
// *frame.Rows satisfies it.
type RecordIterator interface {
	Next() bool
	Record() usaccidents.Record
	Err() error
}

// ctxCheckInterval is how many records pass between context checks.
const ctxCheckInterval = 4096

// Index maps location keys to surrogate ids.
type Index struct {
	ids       map[usaccidents.LocationKey]int64
	locations []usaccidents.Location
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{ids: make(map[usaccidents.LocationKey]int64)}
}

// Add registers key if it is new and returns its id.
func (x *Index) Add(key usaccidents.LocationKey) int64 {
	if id, ok := x.ids[key]; ok {
		return id
	}
	id := int64(len(x.locations))
	x.ids[key] = id
	x.locations = append(x.locations, usaccidents.Location{
		ID:     id,
		City:   key.City,
		State:  key.State,
		County: key.County,
	})
	return id
}

// Resolve returns the city_id for key. Unknown keys and keys with a null
// component resolve to null.
func (x *Index) Resolve(key usaccidents.LocationKey) pgtype.Int8 {
	if key.HasNull() {
		return pgtype.Int8{}
	}
	id, ok := x.ids[key]
	if !ok {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: id, Valid: true}
}

// Locations returns the distinct locations in id order.
func (x *Index) Locations() []usaccidents.Location {
	return x.locations
}

// Len returns the number of distinct locations.
func (x *Index) Len() int {
	return len(x.locations)
}

// BuildIndex drains it and indexes every record's location.
func BuildIndex(ctx context.Context, it RecordIterator) (*Index, error) {
	idx := NewIndex()
	var n int
	for it.Next() {
		if n++; n%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		idx.Add(it.Record().Key())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return idx, nil
}
