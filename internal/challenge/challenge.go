// Package challenge defines the closed catalog of recognizable visual
// challenge categories and their canonical snake_case names.
package challenge

import (
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"
)

// Challenge identifies one visual challenge category. The zero value is
// AFireHydrant; values outside the catalog are never produced by Parse.
type Challenge uint8

const (
	AFireHydrant Challenge = iota
	Bridges
	Cars
	Motorcycles
	PalmTrees
	Stairs
	StoreFront
	Tractors
	Bicycles
	Bus
	Crosswalks
	MountainsOrHills
	ParkingMeters
	Statues
	Taxis
	TrafficLights

	count
)

// ErrUnknownChallenge is returned by Parse for names outside the catalog.
var ErrUnknownChallenge = errors.New("unknown challenge")

var names = [count]string{
	AFireHydrant:     "a_fire_hydrant",
	Bridges:          "bridges",
	Cars:             "cars",
	Motorcycles:      "motorcycles",
	PalmTrees:        "palm_trees",
	Stairs:           "stairs",
	StoreFront:       "store_front",
	Tractors:         "tractors",
	Bicycles:         "bicycles",
	Bus:              "bus",
	Crosswalks:       "crosswalks",
	MountainsOrHills: "mountains_or_hills",
	ParkingMeters:    "parking_meters",
	Statues:          "statues",
	Taxis:            "taxis",
	TrafficLights:    "traffic_lights",
}

var byName = func() map[string]Challenge {
	m := make(map[string]Challenge, len(names))
	for i, n := range names {
		m[n] = Challenge(i)
	}
	return m
}()

// Parse returns the challenge whose canonical name is exactly name.
func Parse(name string) (Challenge, error) {
	if c, ok := byName[name]; ok {
		return c, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownChallenge, name)
}

// IsValidName reports whether name is a canonical challenge name.
func IsValidName(name string) bool {
	_, ok := byName[name]
	return ok
}

// IsValidNameBytes is IsValidName for raw names such as directory entries.
// Names that are not valid UTF-8 are never valid.
func IsValidNameBytes(name []byte) bool {
	if !utf8.Valid(name) {
		return false
	}
	_, ok := byName[string(name)]
	return ok
}

// All returns every challenge in catalog order.
func All() []Challenge {
	out := make([]Challenge, count)
	for i := range out {
		out[i] = Challenge(i)
	}
	return out
}

// Names returns every canonical name in catalog order.
func Names() []string {
	out := make([]string, count)
	copy(out, names[:])
	return out
}

func (c Challenge) String() string {
	if c < count {
		return names[c]
	}
	return "Challenge(" + strconv.Itoa(int(c)) + ")"
}

// Valid reports whether c is a catalog member.
func (c Challenge) Valid() bool { return c < count }

func (c Challenge) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownChallenge, uint8(c))
	}
	return []byte(names[c]), nil
}

func (c *Challenge) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
