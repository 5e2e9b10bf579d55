package core

// Period is an inclusive range of YYYY-MM-DD dates. An empty bound is
// unbounded.
type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// NormalizePeriod swaps inverted bounds. Periods with an empty bound are
// returned unchanged.
func NormalizePeriod(p Period) Period {
	if p.Start == "" || p.End == "" || p.Start <= p.End {
		return p
	}
	return Period{Start: p.End, End: p.Start}
}

// Contains reports whether the date string falls inside p.
func (p Period) Contains(date string) bool {
	n := NormalizePeriod(p)
	return (n.Start == "" || date >= n.Start) && (n.End == "" || date <= n.End)
}
