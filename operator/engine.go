package operator

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/flightsurety/suretynode/api"
	"github.com/flightsurety/suretynode/crypto/ethereum"
	"github.com/flightsurety/suretynode/surety"
	"github.com/flightsurety/suretynode/types"
)

// StateEngine adapts an in-process state machine to the Engine
// interface, so an embedded operator can skip the HTTP round trip.
type StateEngine struct {
	state *surety.State
}

func NewStateEngine(state *surety.State) *StateEngine {
	return &StateEngine{state: state}
}

func (e *StateEngine) RegisterOracle(signer *ethereum.SignKeys, fee types.Value) ([]uint8, error) {
	indexes, err := e.state.RegisterOracle(signer.Address(), fee)
	if err != nil {
		return nil, err
	}
	return indexes[:], nil
}

func (e *StateEngine) SubmitOracleResponse(signer *ethereum.SignKeys, index uint8,
	ref api.FlightRef, status types.FlightStatus,
) error {
	return e.state.SubmitOracleResponse(signer.Address(), index, ref.Key(), status)
}

func (e *StateEngine) PendingRequests() ([]api.PendingRequestInfo, error) {
	pending := e.state.PendingRequests()
	list := make([]api.PendingRequestInfo, 0, len(pending))
	for _, rk := range pending {
		list = append(list, api.PendingRequestInfo{
			Index: rk.Index,
			Flight: api.FlightRef{
				Airline:       rk.Flight.Airline,
				Number:        rk.Flight.Number,
				DepartureTime: rk.Flight.DepartureTime,
			},
		})
	}
	return list, nil
}

// The operator doubles as a state event listener: wiring it with
// AddEventListener makes it react to status requests without polling.
// Events fire while the state lock is held, so the listener only
// enqueues and the worker goroutine does the actual responding.
var _ surety.EventListener = (*Operator)(nil)

func (op *Operator) OnStatusRequested(index uint8, key types.FlightKey) {
	op.enqueue(api.PendingRequestInfo{
		Index: index,
		Flight: api.FlightRef{
			Airline:       key.Airline,
			Number:        key.Number,
			DepartureTime: key.DepartureTime,
		},
	})
}

func (*Operator) OnAirlineRegistered(common.Address, int) {}

func (*Operator) OnAirlineFunded(common.Address, types.Value, bool) {}

func (*Operator) OnFlightRegistered(types.FlightKey) {}

func (*Operator) OnInsurancePurchased(common.Address, types.FlightKey, types.Value) {}

func (*Operator) OnStatusFinalized(types.FlightKey, types.FlightStatus) {}

func (*Operator) OnInsureeCredited(common.Address, types.FlightKey, types.Value) {}

func (*Operator) OnCreditWithdrawn(common.Address, types.FlightKey, types.Value) {}
