package normalize

import (
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/vvka-141/usaccidents/pkg/usaccidents"
)

// NullLabel renders a null component in diagnostic output.
const NullLabel = "<null>"

// Group is one value combination and how many distinct locations share it.
type Group struct {
	Values []string
	Count  int
}

// Check reports whether a candidate key identifies locations on its own.
type Check struct {
	Columns []string
	// Top holds the most shared value combinations, largest first.
	Top []Group
	// Unique is true when no combination is shared by two locations.
	Unique bool
}

// Report collects the uniqueness checks over a location set.
type Report struct {
	Locations int
	Checks    []Check
}

type candidate struct {
	columns []string
	key     func(usaccidents.Location) []pgtype.Text
}

var candidates = []candidate{
	{
		columns: []string{"City"},
		key:     func(l usaccidents.Location) []pgtype.Text { return []pgtype.Text{l.City} },
	},
	{
		columns: []string{"City", "State"},
		key:     func(l usaccidents.Location) []pgtype.Text { return []pgtype.Text{l.City, l.State} },
	},
	{
		// Counties are counted once per state they appear in.
		columns: []string{"County"},
		key:     func(l usaccidents.Location) []pgtype.Text { return []pgtype.Text{l.County} },
	},
	{
		columns: []string{"City", "County"},
		key:     func(l usaccidents.Location) []pgtype.Text { return []pgtype.Text{l.City, l.County} },
	},
}

// Diagnose checks whether City, (City, State), County and (City, County) would
// have been enough to identify a location. topN limits the groups kept per check.
func Diagnose(locations []usaccidents.Location, topN int) Report {
	report := Report{Locations: len(locations)}
	for _, c := range candidates {
		report.Checks = append(report.Checks, diagnose(locations, c, topN))
	}
	return report
}

func diagnose(locations []usaccidents.Location, c candidate, topN int) Check {
	counts := make(map[string]*Group)
	seenCounty := make(map[[2]string]struct{})
	countyOnly := len(c.columns) == 1 && c.columns[0] == "County"

	for _, loc := range locations {
		values := labels(c.key(loc))
		if countyOnly {
			pair := [2]string{values[0], label(loc.State)}
			if _, ok := seenCounty[pair]; ok {
				continue
			}
			seenCounty[pair] = struct{}{}
		}

		k := strings.Join(values, "\x00")
		g, ok := counts[k]
		if !ok {
			g = &Group{Values: values}
			counts[k] = g
		}
		g.Count++
	}

	groups := make([]Group, 0, len(counts))
	for _, g := range counts {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return strings.Join(groups[i].Values, ",") < strings.Join(groups[j].Values, ",")
	})

	check := Check{Columns: c.columns, Unique: len(groups) == 0 || groups[0].Count <= 1}
	if topN > 0 && len(groups) > topN {
		groups = groups[:topN]
	}
	check.Top = groups
	return check
}

func labels(values []pgtype.Text) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = label(v)
	}
	return out
}

func label(v pgtype.Text) string {
	if !v.Valid {
		return NullLabel
	}
	return v.String
}
