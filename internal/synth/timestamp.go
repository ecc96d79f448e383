package synth

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/Veraticus/pfm-classifier/internal/config"
)

// TimestampLayout is the form of generated timestamps.
const TimestampLayout = config.TimestampLayout

// ChooseHourFrom picks one hour uniformly from candidates.
func ChooseHourFrom(r *rand.Rand, candidates []int) (int, error) {
	if len(candidates) == 0 {
		return 0, fmt.Errorf("hour candidates must not be empty")
	}
	return checkHour(candidates[r.IntN(len(candidates))])
}

// ChooseHourBetween picks an hour uniformly from the inclusive range.
func ChooseHourBetween(r *rand.Rand, start, end int) (int, error) {
	return checkHour(intBetween(r, start, end))
}

// ChooseDayOffset picks a day offset uniformly from the inclusive range.
func ChooseDayOffset(r *rand.Rand, start, end int) int {
	return intBetween(r, start, end)
}

// OffsetTime adds whole days and hours to base; overflowing hours roll
// into the following day.
func OffsetTime(base time.Time, days, hours int) time.Time {
	return base.Add(time.Duration(days)*24*time.Hour + time.Duration(hours)*time.Hour)
}

// RandTime draws an hour (from the category's candidates or the default
// range) and then a day offset, and renders base + offsets.
func (g *Generator) RandTime(category string) string {
	spec := g.registry.Time()

	var hour int
	if candidates, ok := g.registry.HourChoices(category); ok {
		hour, _ = ChooseHourFrom(g.rng, candidates)
	} else {
		hour, _ = ChooseHourBetween(g.rng, spec.DefaultHourRange[0], spec.DefaultHourRange[1])
	}
	days := ChooseDayOffset(g.rng, spec.DayOffsetRange[0], spec.DayOffsetRange[1])

	return OffsetTime(spec.Base, days, hour).Format(TimestampLayout)
}

func intBetween(r *rand.Rand, start, end int) int {
	if start > end {
		start, end = end, start
	}
	return start + r.IntN(end-start+1)
}

func checkHour(h int) (int, error) {
	if h < 0 || h > 23 {
		return 0, fmt.Errorf("hour %d is outside 0..23", h)
	}
	return h, nil
}
