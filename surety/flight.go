package surety

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/flightsurety/suretynode/log"
	"github.com/flightsurety/suretynode/types"
)

// Flight is a registry entry created by a funded airline. Its status
// starts Unknown and is mutated exactly once, by the oracle consensus
// engine, to a terminal status. Immutable thereafter.
type Flight struct {
	Key    types.FlightKey    `json:"key"`
	Status types.FlightStatus `json:"status"`
	Seq    uint64             `json:"seq"`
}

// RegisterFlight creates a new flight with status Unknown. The caller
// must be a funded airline, and the (airline, number, departureTime)
// key must not exist yet: duplicate registration is rejected.
func (v *State) RegisterFlight(caller common.Address, number string, departureTime int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.requireOperational(); err != nil {
		return err
	}
	airline := v.airlines[caller]
	if airline == nil || !airline.Registered || !airline.Funded {
		return fmt.Errorf("registerFlight: caller must be a funded airline: %w", ErrAccessDenied)
	}
	if number == "" {
		return fmt.Errorf("registerFlight: empty flight number")
	}
	key := types.FlightKey{Airline: caller, Number: number, DepartureTime: departureTime}
	if _, exists := v.flights[key]; exists {
		return fmt.Errorf("registerFlight: %s: %w", key, ErrDuplicateFlight)
	}

	m := v.meta
	flight := &Flight{Key: key, Status: types.FlightStatusUnknown, Seq: m.Seq}
	m.Seq++

	tx := v.store.WriteTx()
	defer tx.Discard()
	if err := txSetJSON(tx, flightDBKey(key), flight); err != nil {
		return err
	}
	if err := txSetJSON(tx, metaDBKey, &m); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	v.meta = m
	v.flights[key] = flight
	v.flightOrder = append(v.flightOrder, key)

	log.Infow("flight registered", "flight", key.String())
	for _, l := range v.eventListeners {
		l.OnFlightRegistered(key)
	}
	return nil
}

// IsFlightRegistered reports whether the flight key exists.
func (v *State) IsFlightRegistered(key types.FlightKey) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, exists := v.flights[key]
	return exists
}

// FlightKeys returns all registered flight keys in stable insertion
// order.
func (v *State) FlightKeys() []types.FlightKey {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]types.FlightKey(nil), v.flightOrder...)
}

// Flight returns a copy of the flight record for key.
func (v *State) Flight(key types.FlightKey) (*Flight, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	flight, exists := v.flights[key]
	if !exists {
		return nil, fmt.Errorf("flight %s: %w", key, ErrUnknownFlight)
	}
	f := *flight
	return &f, nil
}

// FlightStatus returns the current status of the flight for key.
func (v *State) FlightStatus(key types.FlightKey) (types.FlightStatus, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	flight, exists := v.flights[key]
	if !exists {
		return types.FlightStatusUnknown, fmt.Errorf("flight %s: %w", key, ErrUnknownFlight)
	}
	return flight.Status, nil
}
