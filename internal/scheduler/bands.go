package scheduler

// Band is a named range of hours [FromHour, ToHour) with a work-suitability
// weight between 0 and 1.
type Band struct {
	Name       string
	FromHour   int
	ToHour     int
	Efficiency float64
}

// BandTable is an ordered hour -> efficiency lookup. The first matching band
// wins.
type BandTable []Band

// AcceptableEfficiency is the lowest weight the scheduler starts work in when
// a better slot exists later in the day.
const AcceptableEfficiency = 0.7

var DefaultBands = BandTable{
	{Name: "night", FromHour: 0, ToHour: 6, Efficiency: 0.1},
	{Name: "early", FromHour: 6, ToHour: 9, Efficiency: 0.6},
	{Name: "peak", FromHour: 9, ToHour: 12, Efficiency: 1.0},
	{Name: "midday", FromHour: 12, ToHour: 14, Efficiency: 0.7},
	{Name: "afternoon", FromHour: 14, ToHour: 17, Efficiency: 0.85},
	{Name: "evening", FromHour: 17, ToHour: 20, Efficiency: 0.5},
	{Name: "late", FromHour: 20, ToHour: 24, Efficiency: 0.3},
}

func (t BandTable) Lookup(hour int) (Band, bool) {
	for _, b := range t {
		if hour >= b.FromHour && hour < b.ToHour {
			return b, true
		}
	}
	return Band{}, false
}

// Efficiency returns 0 for hours no band covers.
func (t BandTable) Efficiency(hour int) float64 {
	b, ok := t.Lookup(hour)
	if !ok {
		return 0
	}
	return b.Efficiency
}
