package types

// Interval is one persisted span of focus on a single entity.
// From and To are seconds since the Unix epoch and From <= To always holds.
type Interval struct {
	Entity string `json:"entity" yaml:"entity"`
	From   uint32 `json:"from" yaml:"from"`
	To     uint32 `json:"to" yaml:"to"`
}

// Seconds returns the length of the interval
func (i Interval) Seconds() uint32 {
	if i.To < i.From {
		return 0
	}
	return i.To - i.From
}

// TimeRange is an inclusive [From, To] filter in epoch seconds.
// A nil *TimeRange means "no filter".
type TimeRange struct {
	From uint32 `json:"from" yaml:"from"`
	To   uint32 `json:"to" yaml:"to"`
}

// Contains reports whether the interval lies fully inside the range
func (r *TimeRange) Contains(i Interval) bool {
	if r == nil {
		return true
	}
	return i.From >= r.From && i.To <= r.To
}

// EntityStat is the aggregated focus time of one entity
type EntityStat struct {
	Name    string `json:"name" yaml:"name"`
	Seconds uint64 `json:"seconds" yaml:"seconds"`
}

// UsageReport is the summarized view handed to presentation code
type UsageReport struct {
	Period       string       `json:"period" yaml:"period"`
	Range        *TimeRange   `json:"range,omitempty" yaml:"range,omitempty"`
	TotalSeconds uint64       `json:"totalSeconds" yaml:"totalSeconds"`
	Entities     []EntityStat `json:"entities" yaml:"entities"`
}
