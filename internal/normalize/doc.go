// Package normalize splits accident records into a deduplicated location
// dimension and a fact stream that references it by surrogate id.
//
// Locations are keyed by (City, County, State). Ids are assigned in first-seen
// order starting at zero. Keys with a null component are kept as locations but
// never match during the join, so their accidents carry a null city_id.
package normalize
