package analytics

import (
	"sort"
	"strings"
)

type group struct {
	key string
	sum float64
	n   int
}

// groupRatings accumulates ratings per key, keeping first-seen key order.
type groupRatings struct {
	index  map[string]int
	groups []group
}

func newGroupRatings() *groupRatings {
	return &groupRatings{index: map[string]int{}}
}

func (g *groupRatings) add(key string, v float64) {
	i, ok := g.index[key]
	if !ok {
		i = len(g.groups)
		g.index[key] = i
		g.groups = append(g.groups, group{key: key})
	}
	g.groups[i].sum += v
	g.groups[i].n++
}

// BuildChartData averages ratings per calendar day. Rows with an unparseable
// date or a non-numeric rating are skipped.
func BuildChartData(rows []Row, sig Signals) []ChartPoint {
	points := []ChartPoint{}
	if sig.Date == "" || sig.Rating == "" {
		return points
	}
	g := newGroupRatings()
	for _, r := range rows {
		t, ok := parseDate(r[sig.Date])
		if !ok {
			continue
		}
		v, ok := parseNumber(r[sig.Rating])
		if !ok {
			continue
		}
		g.add(formatDay(t), v)
	}
	for _, gr := range g.groups {
		points = append(points, ChartPoint{Date: gr.key, AvgRating: gr.sum / float64(gr.n), Count: gr.n})
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points
}

// BuildBranchStats averages ratings per trimmed branch name, best first.
func BuildBranchStats(rows []Row, sig Signals) []BranchStat {
	out := []BranchStat{}
	if sig.Branch == "" || sig.Rating == "" {
		return out
	}
	g := newGroupRatings()
	for _, r := range rows {
		b := strings.TrimSpace(r[sig.Branch])
		if b == "" {
			continue
		}
		v, ok := parseNumber(r[sig.Rating])
		if !ok {
			continue
		}
		g.add(b, v)
	}
	for _, gr := range g.groups {
		out = append(out, BranchStat{Branch: gr.key, AvgRating: gr.sum / float64(gr.n), Count: gr.n})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AvgRating > out[j].AvgRating })
	return out
}
