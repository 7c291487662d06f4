package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Stat names one of the five character attributes.
type Stat string

const (
	StatMoney      Stat = "money"
	StatReputation Stat = "reputation"
	StatStyle      Stat = "style"
	StatEnergy     Stat = "energy"
	StatRespect    Stat = "respect"
)

const (
	StatMin = 0
	StatMax = 100
)

// AllStats lists every stat in display order.
var AllStats = []Stat{StatMoney, StatReputation, StatStyle, StatEnergy, StatRespect}

func ParseStat(raw string) (Stat, error) {
	s := Stat(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range AllStats {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown stat %q", raw)
}

// UnmarshalJSON rejects anything ParseStat does not know.
func (s *Stat) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	stat, err := ParseStat(raw)
	if err != nil {
		return err
	}
	*s = stat
	return nil
}

// Clamped reports whether the stat is bounded to [StatMin, StatMax].
func (s Stat) Clamped() bool {
	return s != StatMoney
}

type Stats struct {
	Style      int `json:"style"`
	Money      int `json:"money"`
	Reputation int `json:"reputation"`
	Energy     int `json:"energy"`
	Respect    int `json:"respect"`
}

func (s Stats) Get(stat Stat) int {
	switch stat {
	case StatMoney:
		return s.Money
	case StatReputation:
		return s.Reputation
	case StatStyle:
		return s.Style
	case StatEnergy:
		return s.Energy
	case StatRespect:
		return s.Respect
	}
	return 0
}

func (s *Stats) Set(stat Stat, v int) {
	switch stat {
	case StatMoney:
		s.Money = v
	case StatReputation:
		s.Reputation = v
	case StatStyle:
		s.Style = v
	case StatEnergy:
		s.Energy = v
	case StatRespect:
		s.Respect = v
	}
}

// Add applies delta to stat, clamping every stat except money, and returns
// the change actually stored.
func (s *Stats) Add(stat Stat, delta int) int {
	before := s.Get(stat)
	after := before + delta
	if stat.Clamped() {
		after = ClampStat(after)
	}
	s.Set(stat, after)
	return after - before
}

func ClampStat(v int) int {
	if v < StatMin {
		return StatMin
	}
	if v > StatMax {
		return StatMax
	}
	return v
}

// Effects is a signed delta per stat. Zero means the stat is untouched.
type Effects struct {
	Style      int `json:"style,omitempty"`
	Money      int `json:"money,omitempty"`
	Reputation int `json:"reputation,omitempty"`
	Energy     int `json:"energy,omitempty"`
	Respect    int `json:"respect,omitempty"`
}

func (e Effects) Get(stat Stat) int {
	return Stats(e).Get(stat)
}

func (e *Effects) Set(stat Stat, v int) {
	(*Stats)(e).Set(stat, v)
}

func (e Effects) IsZero() bool {
	return e == Effects{}
}

// UnmarshalJSON accepts only the five known stat keys.
func (e *Effects) UnmarshalJSON(data []byte) error {
	raw := map[string]int{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	unknown := make([]string, 0)
	out := Effects{}
	for key, value := range raw {
		stat, err := ParseStat(key)
		if err != nil {
			unknown = append(unknown, key)
			continue
		}
		out.Set(stat, value)
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unknown effect keys: %s", strings.Join(unknown, ", "))
	}
	*e = out
	return nil
}
