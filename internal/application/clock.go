package application

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/atvirokodosprendimai/maranzalife/internal/domain"
)

const hoursPerDay = 24

// ParseClockTime splits an "HH:MM" game time.
func ParseClockTime(raw string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid clock time %q", raw)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour >= hoursPerDay {
		return 0, 0, fmt.Errorf("invalid clock hour %q", raw)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute >= 60 {
		return 0, 0, fmt.Errorf("invalid clock minute %q", raw)
	}
	return hour, minute, nil
}

func FormatClockTime(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// HoursLeft is the number of whole hours remaining before midnight.
func HoursLeft(hour, minute int) int {
	left := hoursPerDay - hour
	if minute > 0 {
		left--
	}
	if left < 0 {
		return 0
	}
	return left
}

// AdvanceClock moves the clock forward by hours and reports how many day
// boundaries were crossed. The day increments once per crossing.
func AdvanceClock(clock domain.GameClock, hours int) (domain.GameClock, int, error) {
	if hours < 0 {
		return clock, 0, fmt.Errorf("cannot advance clock by %d hours", hours)
	}
	hour, minute, err := ParseClockTime(clock.Time)
	if err != nil {
		return clock, 0, err
	}

	hour += hours
	rolled := 0
	for hour >= hoursPerDay {
		hour -= hoursPerDay
		rolled++
	}

	next := clock
	next.Day += rolled
	next.Time = FormatClockTime(hour, minute)
	next.HoursLeft = HoursLeft(hour, minute)
	return next, rolled, nil
}
