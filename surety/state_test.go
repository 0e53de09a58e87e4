package surety

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"

	"github.com/flightsurety/suretynode/db"
	"github.com/flightsurety/suretynode/db/badgerdb"
	"github.com/flightsurety/suretynode/types"
	"github.com/flightsurety/suretynode/util"
)

func randAddress() common.Address {
	return common.BytesToAddress(util.RandomBytes(20))
}

// newTestState bootstraps a state on a temporary store. The returned
// owner is the pre-registered first airline.
func newTestState(t *testing.T) (*State, common.Address) {
	t.Helper()
	store, err := badgerdb.New(db.Options{Path: t.TempDir()})
	qt.Assert(t, err, qt.IsNil)
	t.Cleanup(func() { store.Close() })
	owner := randAddress()
	state, err := NewState(store, owner)
	qt.Assert(t, err, qt.IsNil)
	return state, owner
}

func TestInitialOperationalStatus(t *testing.T) {
	state, owner := newTestState(t)
	qt.Assert(t, state.IsOperational(), qt.IsTrue)
	qt.Assert(t, state.Owner(), qt.Equals, owner)
	qt.Assert(t, state.IsAirlineRegistered(owner), qt.IsTrue)
	qt.Assert(t, state.AirlinesCount(), qt.Equals, 1)
}

func TestSetOperatingStatusOwnerOnly(t *testing.T) {
	state, owner := newTestState(t)

	err := state.SetOperatingStatus(randAddress(), false)
	qt.Assert(t, err, qt.ErrorIs, ErrAccessDenied)
	qt.Assert(t, state.IsOperational(), qt.IsTrue)

	qt.Assert(t, state.SetOperatingStatus(owner, false), qt.IsNil)
	qt.Assert(t, state.IsOperational(), qt.IsFalse)

	// every mutating operation is gated while disabled
	err = state.FundAirline(owner, MinAirlineFunding)
	qt.Assert(t, err, qt.ErrorIs, ErrNotOperational)
	_, err = state.RegisterAirline(owner, randAddress())
	qt.Assert(t, err, qt.ErrorIs, ErrNotOperational)

	// toggling back is always permitted for the owner
	qt.Assert(t, state.SetOperatingStatus(owner, true), qt.IsNil)
	qt.Assert(t, state.IsOperational(), qt.IsTrue)
}

func TestPoolBalanceInvariant(t *testing.T) {
	state, owner := newTestState(t)
	qt.Assert(t, state.FundAirline(owner, MinAirlineFunding), qt.IsNil)

	passenger := randAddress()
	qt.Assert(t, state.RegisterFlight(owner, "GD001", 1700000000), qt.IsNil)
	key := types.FlightKey{Airline: owner, Number: "GD001", DepartureTime: 1700000000}
	qt.Assert(t, state.BuyInsurance(passenger, key, types.OneUnit), qt.IsNil)
	_, err := state.RegisterOracle(randAddress(), OracleRegistrationFee)
	qt.Assert(t, err, qt.IsNil)

	qt.Assert(t, state.TotalDeposits(), qt.Equals, MinAirlineFunding+types.OneUnit+OracleRegistrationFee)
	qt.Assert(t, state.TotalPayouts(), qt.Equals, types.Value(0))
	qt.Assert(t, state.PoolBalance(), qt.Equals, state.TotalDeposits()-state.TotalPayouts())
}

func TestStateRestore(t *testing.T) {
	dir := t.TempDir()
	owner := randAddress()
	passenger := randAddress()
	key := types.FlightKey{Airline: owner, Number: "ND1309", DepartureTime: 1700000000}

	store, err := badgerdb.New(db.Options{Path: dir})
	qt.Assert(t, err, qt.IsNil)
	state, err := NewState(store, owner)
	qt.Assert(t, err, qt.IsNil)

	qt.Assert(t, state.FundAirline(owner, MinAirlineFunding), qt.IsNil)
	qt.Assert(t, state.RegisterFlight(owner, "ND1309", 1700000000), qt.IsNil)
	qt.Assert(t, state.BuyInsurance(passenger, key, types.OneUnit/2), qt.IsNil)
	second := randAddress()
	registered, err := state.RegisterAirline(owner, second)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, registered, qt.IsTrue)
	qt.Assert(t, store.Close(), qt.IsNil)

	// reopen: every committed operation must be recovered
	store2, err := badgerdb.New(db.Options{Path: dir})
	qt.Assert(t, err, qt.IsNil)
	defer store2.Close()
	restored, err := NewState(store2, owner)
	qt.Assert(t, err, qt.IsNil)

	qt.Assert(t, restored.IsAirlineFunded(owner), qt.IsTrue)
	qt.Assert(t, restored.IsAirlineRegistered(second), qt.IsTrue)
	qt.Assert(t, restored.AirlinesCount(), qt.Equals, 2)
	qt.Assert(t, restored.IsFlightRegistered(key), qt.IsTrue)
	qt.Assert(t, restored.FlightKeys(), qt.DeepEquals, []types.FlightKey{key})
	policies := restored.Policies(key)
	qt.Assert(t, policies, qt.HasLen, 1)
	qt.Assert(t, policies[0].Passenger, qt.Equals, passenger)
	qt.Assert(t, policies[0].Premium, qt.Equals, types.OneUnit/2)
	qt.Assert(t, restored.PoolBalance(), qt.Equals, MinAirlineFunding+types.OneUnit/2)
}
