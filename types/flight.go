package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// FlightStatus is the resolution state of a flight. The numeric codes
// are part of the public interface and match the oracle reporting
// convention (multiples of ten, zero meaning unresolved).
type FlightStatus uint32

const (
	FlightStatusUnknown       FlightStatus = 0
	FlightStatusOnTime        FlightStatus = 10
	FlightStatusLateAirline   FlightStatus = 20
	FlightStatusLateWeather   FlightStatus = 30
	FlightStatusLateTechnical FlightStatus = 40
	FlightStatusLateOther     FlightStatus = 50
)

// Valid reports whether s is one of the defined status codes.
func (s FlightStatus) Valid() bool {
	switch s {
	case FlightStatusUnknown, FlightStatusOnTime, FlightStatusLateAirline,
		FlightStatusLateWeather, FlightStatusLateTechnical, FlightStatusLateOther:
		return true
	}
	return false
}

// Terminal reports whether s is a final status. A flight transitions
// from Unknown to a terminal status exactly once.
func (s FlightStatus) Terminal() bool {
	return s.Valid() && s != FlightStatusUnknown
}

// AirlineFault reports whether the status makes the airline liable for
// insurance payouts.
func (s FlightStatus) AirlineFault() bool {
	return s == FlightStatusLateAirline
}

func (s FlightStatus) String() string {
	switch s {
	case FlightStatusUnknown:
		return "unknown"
	case FlightStatusOnTime:
		return "onTime"
	case FlightStatusLateAirline:
		return "lateAirline"
	case FlightStatusLateWeather:
		return "lateWeather"
	case FlightStatusLateTechnical:
		return "lateTechnical"
	case FlightStatusLateOther:
		return "lateOther"
	}
	return fmt.Sprintf("invalid(%d)", uint32(s))
}

// FlightKey identifies a flight uniquely within the registry.
type FlightKey struct {
	Airline       common.Address `json:"airline"`
	Number        string         `json:"number"`
	DepartureTime int64          `json:"departureTime"`
}

// String renders the key in a stable, human-readable form also used
// for database keys.
func (k FlightKey) String() string {
	return fmt.Sprintf("%s/%s/%d", k.Airline.Hex(), k.Number, k.DepartureTime)
}

// Bytes returns the key in its serialized form.
func (k FlightKey) Bytes() []byte {
	return []byte(k.String())
}
