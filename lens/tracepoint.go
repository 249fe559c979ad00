package lens

import (
	"slices"
	"strconv"
)

// Tracepoint argument keys which are shown as dedicated fields rather than as additional args.
const (
	FireCountArg  = "fire_count"
	FirePeriodArg = "fire_period"

	defaultFireCount  = "1"
	defaultFirePeriod = "1000"
	infiniteFireCount = "-1"
)

// TracepointDisplay is the display form of a Tracepoint.
type TracepointDisplay struct {
	File string
	Line string
	// FireCount is how often the tracepoint fires, "-1" meaning without limit.
	FireCount string
	// FirePeriod is the minimum time in milliseconds between fires.
	FirePeriod string
	Watches    []string
	// Args are the additional tracepoint args, excluding fire count and fire period, in wire order.
	Args Attributes
}

// NewTracepointDisplay creates the display form of a tracepoint, applying the agent defaults for absent values.
func NewTracepointDisplay(tp Tracepoint) TracepointDisplay {
	d := TracepointDisplay{
		File:       tp.Path,
		Line:       strconv.Itoa(tp.LineNumber),
		FireCount:  defaultFireCount,
		FirePeriod: defaultFirePeriod,
		Watches:    slices.Clone(tp.Watches),
	}
	if v, ok := tp.Args.GetString(FireCountArg); ok {
		d.FireCount = v
	}
	if v, ok := tp.Args.GetString(FirePeriodArg); ok {
		d.FirePeriod = v
	}
	for _, attr := range tp.Args {
		if attr.Key != FireCountArg && attr.Key != FirePeriodArg {
			d.Args = append(d.Args, attr)
		}
	}
	return d
}

// InfiniteFireCount reports if the tracepoint fires without limit.
func (d TracepointDisplay) InfiniteFireCount() bool {
	return d.FireCount == infiniteFireCount
}

// WatchesConfigured reports if any watch expressions are configured.
func (d TracepointDisplay) WatchesConfigured() bool {
	return len(d.Watches) > 0
}
