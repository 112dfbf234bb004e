package features

import "math"

// Aggregate is the mean, population standard deviation, minimum and maximum of
// a series.
type Aggregate struct {
	Avg   float64
	Stdev float64
	Min   float64
	Max   float64
	Count int
}

// Summary reduces an RMS and a ZCR series to the shape of the sensor's STATS
// line so a stored capture can be checked against live telemetry.
type Summary struct {
	RMS Aggregate
	ZCR Aggregate
}

// Summarize aggregates both series.
func Summarize(rms, zcr Series) Summary {
	return Summary{
		RMS: Aggregated(rms.Value),
		ZCR: Aggregated(zcr.Value),
	}
}

// Aggregated computes an Aggregate of values. An empty input gives the zero value.
func Aggregated(values []float64) Aggregate {
	if len(values) == 0 {
		return Aggregate{}
	}

	a := Aggregate{
		Min:   math.Inf(1),
		Max:   math.Inf(-1),
		Count: len(values),
	}

	var sum float64
	for _, v := range values {
		sum += v
		a.Min = math.Min(a.Min, v)
		a.Max = math.Max(a.Max, v)
	}
	a.Avg = sum / float64(len(values))

	var sq float64
	for _, v := range values {
		sq += (v - a.Avg) * (v - a.Avg)
	}
	a.Stdev = math.Sqrt(sq / float64(len(values)))

	return a
}
