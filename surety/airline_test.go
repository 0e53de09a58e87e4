package surety

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"

	"github.com/flightsurety/suretynode/types"
)

func TestRegisterAirlineRequiresFundedCaller(t *testing.T) {
	state, owner := newTestState(t)

	// the first airline is registered but not funded yet
	_, err := state.RegisterAirline(owner, randAddress())
	qt.Assert(t, err, qt.ErrorIs, ErrAccessDenied)

	// a stranger cannot register airlines either
	_, err = state.RegisterAirline(randAddress(), randAddress())
	qt.Assert(t, err, qt.ErrorIs, ErrAccessDenied)
}

func TestFundAirline(t *testing.T) {
	state, owner := newTestState(t)

	err := state.FundAirline(randAddress(), MinAirlineFunding)
	qt.Assert(t, err, qt.ErrorIs, ErrAccessDenied)

	err = state.FundAirline(owner, 0)
	qt.Assert(t, err, qt.ErrorIs, ErrInvalidAmount)

	// a sub-threshold deposit accumulates but does not unlock funding
	qt.Assert(t, state.FundAirline(owner, types.OneUnit), qt.IsNil)
	qt.Assert(t, state.IsAirlineFunded(owner), qt.IsFalse)
	qt.Assert(t, state.PoolBalance(), qt.Equals, 1*types.OneUnit)

	qt.Assert(t, state.FundAirline(owner, MinAirlineFunding), qt.IsNil)
	qt.Assert(t, state.IsAirlineFunded(owner), qt.IsTrue)
	qt.Assert(t, state.PoolBalance(), qt.Equals, 11*types.OneUnit)
}

func TestFoundingAirlinesRegisterFreely(t *testing.T) {
	state, owner := newTestState(t)
	qt.Assert(t, state.FundAirline(owner, MinAirlineFunding), qt.IsNil)

	var airlines []common.Address
	for i := 0; i < 3; i++ {
		addr := randAddress()
		registered, err := state.RegisterAirline(owner, addr)
		qt.Assert(t, err, qt.IsNil)
		qt.Assert(t, registered, qt.IsTrue)
		airlines = append(airlines, addr)
	}
	qt.Assert(t, state.AirlinesCount(), qt.Equals, 4)

	// the 5th airline is not registered with a single vote
	fifth := randAddress()
	registered, err := state.RegisterAirline(owner, fifth)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, registered, qt.IsFalse)
	qt.Assert(t, state.IsAirlineRegistered(fifth), qt.IsFalse)
	qt.Assert(t, state.AirlinesCount(), qt.Equals, 4)
	qt.Assert(t, state.AirlineVotesCount(fifth), qt.Equals, 1)

	// a duplicate vote is rejected and never counted twice
	_, err = state.RegisterAirline(owner, fifth)
	qt.Assert(t, err, qt.ErrorIs, ErrDuplicateVote)
	qt.Assert(t, state.AirlineVotesCount(fifth), qt.Equals, 1)

	// a second distinct vote reaches half of the 4 registered airlines
	qt.Assert(t, state.FundAirline(airlines[0], MinAirlineFunding), qt.IsNil)
	registered, err = state.RegisterAirline(airlines[0], fifth)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, registered, qt.IsTrue)
	qt.Assert(t, state.AirlinesCount(), qt.Equals, 5)

	// voting for an already registered airline is rejected
	_, err = state.RegisterAirline(owner, fifth)
	qt.Assert(t, err, qt.ErrorIs, ErrAlreadyRegistered)
}

func TestConsensusThresholdRecomputed(t *testing.T) {
	state, owner := newTestState(t)
	qt.Assert(t, state.FundAirline(owner, MinAirlineFunding), qt.IsNil)

	var funded []common.Address
	for i := 0; i < 3; i++ {
		addr := randAddress()
		_, err := state.RegisterAirline(owner, addr)
		qt.Assert(t, err, qt.IsNil)
		qt.Assert(t, state.FundAirline(addr, MinAirlineFunding), qt.IsNil)
		funded = append(funded, addr)
	}

	// 5th requires 2 of 4; register it
	fifth := randAddress()
	_, err := state.RegisterAirline(owner, fifth)
	qt.Assert(t, err, qt.IsNil)
	registered, err := state.RegisterAirline(funded[0], fifth)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, registered, qt.IsTrue)

	// 6th now requires 3 of 5, recomputed at each vote
	sixth := randAddress()
	registered, err = state.RegisterAirline(owner, sixth)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, registered, qt.IsFalse)
	registered, err = state.RegisterAirline(funded[0], sixth)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, registered, qt.IsFalse)
	registered, err = state.RegisterAirline(funded[1], sixth)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, registered, qt.IsTrue)
}
