package conditions

// bucket is one {min, max, code} range. Ranges are ordered, non-overlapping,
// and evaluated ascending; a value matches when min < v <= max. The last
// bucket's max is treated as unbounded so values above it still match.
type bucket struct {
	min, max float64
	code     int
}

// Daily rain amount (mm over the day) to condition code.
var dailyRainBuckets = []bucket{
	{0, 2, 311},
	{2, 7, 500},
	{7, 15, 501},
	{15, 30, 503},
	{30, 99, 504},
}

// Rain over the last hour (mm) to condition code; used for current samples.
var hourlyRainBuckets = []bucket{
	{0, 0.1, 311},
	{0.1, 1, 500},
	{1, 4, 501},
	{4, 10, 503},
	{10, 99, 504},
}

// Daily snow amount (mm over the day) to condition code.
var dailySnowBuckets = []bucket{
	{0, 10, 600},
	{10, 20, 601},
	{20, 99, 602},
}

// Cloud cover percentage to condition code.
var cloudBuckets = []bucket{
	{0, 10, 800},
	{10, 25, 801},
	{25, 50, 802},
	{50, 84, 803},
	{84, 100, 804},
}

// Wind speed above the configured break to condition code.
var windBuckets = []bucket{
	{0, 5, CodeBreezy},
	{5, 15, CodeWindy},
	{15, 30, CodeVeryWindy},
	{30, 99, CodeGale},
}

// bucketCode returns the code for v, scanning ascending with first match
// winning. Values above the last bucket's max fall into the last bucket.
func bucketCode(buckets []bucket, v float64) (int, bool) {
	if len(buckets) == 0 || v < 0 {
		return 0, false
	}
	for _, b := range buckets {
		if v > b.min && v <= b.max {
			return b.code, true
		}
	}
	if v > buckets[len(buckets)-1].max {
		return buckets[len(buckets)-1].code, true
	}
	return 0, false
}
