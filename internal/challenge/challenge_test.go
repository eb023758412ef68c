package challenge

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestCatalogHasSixteenMembers(t *testing.T) {
	require.Len(t, All(), 16)
	require.Len(t, Names(), 16)
	require.Equal(t, "a_fire_hydrant", AFireHydrant.String())
	require.Equal(t, "traffic_lights", TrafficLights.String())
	require.Equal(t, "mountains_or_hills", MountainsOrHills.String())
}

func TestParseRoundTrip(t *testing.T) {
	for _, c := range All() {
		got, err := Parse(c.String())
		require.NoError(t, err)
		require.Equal(t, c, got)
	}
}

func TestParseRoundTrip_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := Challenge(rapid.IntRange(0, int(count)-1).Draw(rt, "challenge"))
		got, err := Parse(c.String())
		if err != nil {
			rt.Fatalf("parse %q: %v", c.String(), err)
		}
		if got != c {
			rt.Fatalf("round trip %v -> %v", c, got)
		}
	})
}

func TestParseRejectsUnknownAndWrongCase(t *testing.T) {
	for _, name := range []string{"", "Bus", "BUS", "bus ", "traffic lights", "TrafficLights", "boats"} {
		_, err := Parse(name)
		require.Error(t, err, name)
		require.True(t, errors.Is(err, ErrUnknownChallenge), name)
	}
}

func TestIsValidName_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := rapid.String().Draw(rt, "name")
		_, err := Parse(s)
		if IsValidName(s) != (err == nil) {
			rt.Fatalf("IsValidName(%q)=%v disagrees with Parse err=%v", s, IsValidName(s), err)
		}
	})
}

func TestIsValidNameBytes(t *testing.T) {
	require.True(t, IsValidNameBytes([]byte("bus")))
	require.False(t, IsValidNameBytes([]byte("bus.txt")))
	require.False(t, IsValidNameBytes([]byte{0xff, 0xfe, 'b'}))
	require.False(t, IsValidNameBytes(nil))
}

func TestStringOutOfRange(t *testing.T) {
	c := Challenge(200)
	require.False(t, c.Valid())
	require.Equal(t, "Challenge(200)", c.String())
	_, err := c.MarshalText()
	require.Error(t, err)
}

func TestJSONUsesCanonicalName(t *testing.T) {
	type req struct {
		Challenge Challenge `json:"challenge"`
	}
	b, err := json.Marshal(req{Challenge: ParkingMeters})
	require.NoError(t, err)
	require.JSONEq(t, `{"challenge":"parking_meters"}`, string(b))

	var out req
	require.NoError(t, json.Unmarshal([]byte(`{"challenge":"store_front"}`), &out))
	require.Equal(t, StoreFront, out.Challenge)

	require.Error(t, json.Unmarshal([]byte(`{"challenge":"store front"}`), &out))
}
