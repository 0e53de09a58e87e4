package surety

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"

	"github.com/flightsurety/suretynode/types"
)

// oraclesHoldingIndex registers fresh oracles until at least n of them
// hold the given index, returning those.
func oraclesHoldingIndex(t *testing.T, state *State, index uint8, n int) []common.Address {
	t.Helper()
	var match []common.Address
	for i := 0; len(match) < n && i < 500; i++ {
		addr := randAddress()
		indexes, err := state.RegisterOracle(addr, OracleRegistrationFee)
		qt.Assert(t, err, qt.IsNil)
		for _, idx := range indexes {
			if idx == index {
				match = append(match, addr)
				break
			}
		}
	}
	qt.Assert(t, len(match) >= n, qt.IsTrue,
		qt.Commentf("could not gather %d oracles holding index %d", n, index))
	return match
}

// finalizeFlightStatus drives a full oracle consensus round for the
// flight: opens a request and submits the status from enough matching
// oracles.
func finalizeFlightStatus(t *testing.T, state *State, key types.FlightKey, status types.FlightStatus) {
	t.Helper()
	index, err := state.FetchFlightStatus(key)
	qt.Assert(t, err, qt.IsNil)
	for _, oracle := range oraclesHoldingIndex(t, state, index, OracleConsensusThreshold) {
		qt.Assert(t, state.SubmitOracleResponse(oracle, index, key, status), qt.IsNil)
	}
	got, err := state.FlightStatus(key)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, got, qt.Equals, status)
}

func TestRegisterOracle(t *testing.T) {
	state, _ := newTestState(t)
	oracle := randAddress()

	_, err := state.RegisterOracle(oracle, OracleRegistrationFee/2)
	qt.Assert(t, err, qt.ErrorIs, ErrInvalidAmount)

	before := state.PoolBalance()
	indexes, err := state.RegisterOracle(oracle, OracleRegistrationFee)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, state.PoolBalance(), qt.Equals, before+OracleRegistrationFee)

	// three distinct indexes within range
	seen := make(map[uint8]bool)
	for _, idx := range indexes {
		qt.Assert(t, idx < OracleIndexRange, qt.IsTrue)
		qt.Assert(t, seen[idx], qt.IsFalse)
		seen[idx] = true
	}

	// they are queryable and stable
	got, err := state.OracleIndexes(oracle)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, got, qt.Equals, indexes)

	_, err = state.RegisterOracle(oracle, OracleRegistrationFee)
	qt.Assert(t, err, qt.ErrorIs, ErrAlreadyRegistered)
}

func TestFetchFlightStatus(t *testing.T) {
	state, owner := newTestState(t)

	_, err := state.FetchFlightStatus(types.FlightKey{Airline: owner, Number: "XX000"})
	qt.Assert(t, err, qt.ErrorIs, ErrUnknownFlight)

	key := fundedAirlineWithFlight(t, state, owner)
	index, err := state.FetchFlightStatus(key)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, index < OracleIndexRange, qt.IsTrue)
	qt.Assert(t, state.PendingRequests(), qt.HasLen, 1)

	finalizeFlightStatus(t, state, key, types.FlightStatusOnTime)

	// a finalized flight cannot be requested again
	_, err = state.FetchFlightStatus(key)
	qt.Assert(t, err, qt.ErrorIs, ErrUnknownFlight)
}

func TestSubmitOracleResponseValidation(t *testing.T) {
	state, owner := newTestState(t)
	key := fundedAirlineWithFlight(t, state, owner)
	index, err := state.FetchFlightStatus(key)
	qt.Assert(t, err, qt.IsNil)

	// unregistered caller
	err = state.SubmitOracleResponse(randAddress(), index, key, types.FlightStatusOnTime)
	qt.Assert(t, err, qt.ErrorIs, ErrAccessDenied)

	oracle := randAddress()
	indexes, err := state.RegisterOracle(oracle, OracleRegistrationFee)
	qt.Assert(t, err, qt.IsNil)

	// an index outside the oracle's assigned three is rejected
	var foreign uint8
	for foreign = 0; foreign < OracleIndexRange; foreign++ {
		held := false
		for _, idx := range indexes {
			if idx == foreign {
				held = true
			}
		}
		if !held {
			break
		}
	}
	err = state.SubmitOracleResponse(oracle, foreign, key, types.FlightStatusOnTime)
	qt.Assert(t, err, qt.ErrorIs, ErrInvalidOracleIndex)

	// responses require an open matching request
	err = state.SubmitOracleResponse(oracle, indexes[0],
		types.FlightKey{Airline: owner, Number: "XX000"}, types.FlightStatusOnTime)
	qt.Assert(t, err, qt.ErrorIs, ErrNoMatchingRequest)

	// a non-terminal status code is rejected
	if indexes[0] == index || indexes[1] == index || indexes[2] == index {
		err = state.SubmitOracleResponse(oracle, index, key, types.FlightStatusUnknown)
		qt.Assert(t, err, qt.ErrorIs, ErrInvalidStatusCode)
	}

	// flight stays unresolved through all of the above
	status, err := state.FlightStatus(key)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, status, qt.Equals, types.FlightStatusUnknown)
}

func TestOracleResponseDeduplication(t *testing.T) {
	state, owner := newTestState(t)
	key := fundedAirlineWithFlight(t, state, owner)
	index, err := state.FetchFlightStatus(key)
	qt.Assert(t, err, qt.IsNil)

	oracles := oraclesHoldingIndex(t, state, index, 2)
	rk := RequestKey{Index: index, Flight: key}

	qt.Assert(t, state.SubmitOracleResponse(oracles[0], index, key, types.FlightStatusLateWeather), qt.IsNil)
	err = state.SubmitOracleResponse(oracles[0], index, key, types.FlightStatusLateWeather)
	qt.Assert(t, err, qt.ErrorIs, ErrDuplicateVote)
	// changing the reported code does not bypass the dedup either
	err = state.SubmitOracleResponse(oracles[0], index, key, types.FlightStatusOnTime)
	qt.Assert(t, err, qt.ErrorIs, ErrDuplicateVote)
	qt.Assert(t, state.ResponseVotes(rk, types.FlightStatusLateWeather), qt.Equals, 1)

	qt.Assert(t, state.SubmitOracleResponse(oracles[1], index, key, types.FlightStatusLateWeather), qt.IsNil)
	qt.Assert(t, state.ResponseVotes(rk, types.FlightStatusLateWeather), qt.Equals, 2)
}

func TestConsensusFinalization(t *testing.T) {
	state, owner := newTestState(t)
	key := fundedAirlineWithFlight(t, state, owner)
	passenger := randAddress()
	qt.Assert(t, state.BuyInsurance(passenger, key, types.OneUnit/2), qt.IsNil)

	index, err := state.FetchFlightStatus(key)
	qt.Assert(t, err, qt.IsNil)
	oracles := oraclesHoldingIndex(t, state, index, OracleConsensusThreshold+1)

	for i := 0; i < OracleConsensusThreshold; i++ {
		qt.Assert(t, state.SubmitOracleResponse(oracles[i], index, key, types.FlightStatusLateAirline), qt.IsNil)
	}
	status, err := state.FlightStatus(key)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, status, qt.Equals, types.FlightStatusLateAirline)

	// the request is closed for late arrivals
	err = state.SubmitOracleResponse(oracles[OracleConsensusThreshold], index, key, types.FlightStatusLateAirline)
	qt.Assert(t, err, qt.ErrorIs, ErrRequestClosed)
	qt.Assert(t, state.PendingRequests(), qt.HasLen, 0)

	// every policy is credited exactly 1.5x its premium
	qt.Assert(t, state.PassengerCredit(passenger, key), qt.Equals,
		types.OneUnit/2+types.OneUnit/4)
}

func TestFinalizationClosesConcurrentRequests(t *testing.T) {
	state, owner := newTestState(t)
	key := fundedAirlineWithFlight(t, state, owner)
	passenger := randAddress()
	qt.Assert(t, state.BuyInsurance(passenger, key, types.OneUnit), qt.IsNil)

	// open two requests for the same flight under distinct indexes
	first, err := state.FetchFlightStatus(key)
	qt.Assert(t, err, qt.IsNil)
	second := first
	for i := 0; second == first && i < 100; i++ {
		second, err = state.FetchFlightStatus(key)
		qt.Assert(t, err, qt.IsNil)
	}
	qt.Assert(t, second, qt.Not(qt.Equals), first)
	qt.Assert(t, state.PendingRequests(), qt.HasLen, 2)

	secondOracles := oraclesHoldingIndex(t, state, second, OracleConsensusThreshold)

	// on-time consensus through the first request finalizes the flight
	for _, oracle := range oraclesHoldingIndex(t, state, first, OracleConsensusThreshold) {
		qt.Assert(t, state.SubmitOracleResponse(oracle, first, key, types.FlightStatusOnTime), qt.IsNil)
	}
	status, err := state.FlightStatus(key)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, status, qt.Equals, types.FlightStatusOnTime)

	// the second request closed with it and cannot re-finalize the flight
	qt.Assert(t, state.PendingRequests(), qt.HasLen, 0)
	for _, oracle := range secondOracles {
		err = state.SubmitOracleResponse(oracle, second, key, types.FlightStatusLateAirline)
		qt.Assert(t, err, qt.ErrorIs, ErrRequestClosed)
	}
	status, err = state.FlightStatus(key)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, status, qt.Equals, types.FlightStatusOnTime)
	qt.Assert(t, state.PassengerCredit(passenger, key), qt.Equals, types.Value(0))
}

func TestNonAirlineFaultLeavesNoCredit(t *testing.T) {
	state, owner := newTestState(t)
	key := fundedAirlineWithFlight(t, state, owner)
	passenger := randAddress()
	qt.Assert(t, state.BuyInsurance(passenger, key, types.OneUnit), qt.IsNil)

	finalizeFlightStatus(t, state, key, types.FlightStatusLateWeather)
	qt.Assert(t, state.PassengerCredit(passenger, key), qt.Equals, types.Value(0))
	_, err := state.WithdrawPassengerCredit(passenger, key)
	qt.Assert(t, err, qt.ErrorIs, ErrNoCredit)
}

func TestFullInsuranceScenario(t *testing.T) {
	state, owner := newTestState(t)

	// airline funds 10 units and registers flights F1..F5
	qt.Assert(t, state.FundAirline(owner, 10*types.OneUnit), qt.IsNil)
	numbers := []string{"ND001", "ND002", "ND003", "ND004", "ND005"}
	for _, number := range numbers {
		qt.Assert(t, state.RegisterFlight(owner, number, 1700000000), qt.IsNil)
	}
	f1 := types.FlightKey{Airline: owner, Number: "ND001", DepartureTime: 1700000000}

	// passenger buys 1 unit of insurance on F1
	passenger := randAddress()
	qt.Assert(t, state.BuyInsurance(passenger, f1, types.OneUnit), qt.IsNil)
	poolAfterPurchase := state.PoolBalance()

	// oracle consensus resolves F1 as airline-attributable delay
	finalizeFlightStatus(t, state, f1, types.FlightStatusLateAirline)
	credit := state.PassengerCredit(passenger, f1)
	qt.Assert(t, credit, qt.Equals, types.OneUnit+types.OneUnit/2)

	// withdrawal pays 1.5 units out of the pool. Oracle registrations
	// during consensus deposited fees too, so compare against the
	// balance right before withdrawing.
	beforeWithdraw := state.PoolBalance()
	qt.Assert(t, beforeWithdraw >= poolAfterPurchase, qt.IsTrue)
	paid, err := state.WithdrawPassengerCredit(passenger, f1)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, paid, qt.Equals, credit)
	qt.Assert(t, state.PoolBalance(), qt.Equals, beforeWithdraw-credit)
	qt.Assert(t, state.TotalPayouts(), qt.Equals, credit)
}
