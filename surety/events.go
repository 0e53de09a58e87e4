package surety

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/flightsurety/suretynode/types"
)

// EventListener is an interface used for executing custom functions on
// state machine events. Events fire after the triggering operation has
// committed, while the state lock is still held: a listener must not
// call back into State synchronously, or it will deadlock. Listeners
// that need to react with further operations (such as the oracle
// operator) should enqueue the event and process it from their own
// goroutine.
type EventListener interface {
	// OnAirlineRegistered fires when a candidate becomes a registered
	// airline, either freely during bootstrap or by reaching the vote
	// threshold.
	OnAirlineRegistered(airline common.Address, votes int)
	// OnAirlineFunded fires on every accepted airline deposit. funded
	// reports whether the airline holds the funded status afterwards.
	OnAirlineFunded(airline common.Address, amount types.Value, funded bool)
	// OnFlightRegistered fires when a new flight enters the registry.
	OnFlightRegistered(key types.FlightKey)
	// OnInsurancePurchased fires when a passenger buys a policy.
	OnInsurancePurchased(passenger common.Address, key types.FlightKey, premium types.Value)
	// OnStatusRequested fires when a status request opens. This is the
	// event the external oracle operator consumes: only oracles
	// holding the given index may respond.
	OnStatusRequested(index uint8, key types.FlightKey)
	// OnStatusFinalized fires when enough matching oracle responses
	// arrive and the flight transitions to a terminal status.
	OnStatusFinalized(key types.FlightKey, status types.FlightStatus)
	// OnInsureeCredited fires, within the same finalization, for every
	// policy credited after an airline-attributable delay.
	OnInsureeCredited(passenger common.Address, key types.FlightKey, credit types.Value)
	// OnCreditWithdrawn fires when a passenger withdraws owed credit.
	OnCreditWithdrawn(passenger common.Address, key types.FlightKey, amount types.Value)
}

// AddEventListener adds a new event listener, to receive method calls
// on state events as documented in EventListener.
func (v *State) AddEventListener(l EventListener) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.eventListeners = append(v.eventListeners, l)
}

// CleanEventListeners removes all event listeners.
func (v *State) CleanEventListeners() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.eventListeners = nil
}
