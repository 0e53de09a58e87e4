package surety

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/flightsurety/suretynode/log"
	"github.com/flightsurety/suretynode/types"
)

// Airline represents a membership registry entry. A candidate enters
// the registry on its first vote and becomes Registered either freely
// (while fewer than FoundingAirlines are registered) or once at least
// half of the registered airlines voted for it. Airlines are never
// deleted.
type Airline struct {
	Address    common.Address   `json:"address"`
	Registered bool             `json:"registered"`
	Funded     bool             `json:"funded"`
	Funding    types.Value      `json:"funding"`
	Votes      []common.Address `json:"votes,omitempty"`
	Seq        uint64           `json:"seq"`
}

// HasVoted checks if voter already voted for the airline.
func (a *Airline) HasVoted(voter common.Address) bool {
	for _, v := range a.Votes {
		if v == voter {
			return true
		}
	}
	return false
}

// AddVote records a vote from voter. Duplicated votes are rejected and
// never counted twice.
func (a *Airline) AddVote(voter common.Address) error {
	if a.HasVoted(voter) {
		return fmt.Errorf("airline %s: %w", a.Address.Hex(), ErrDuplicateVote)
	}
	a.Votes = append(a.Votes, voter)
	return nil
}

// clone returns a deep copy, so staged mutations never touch the
// committed entity.
func (a *Airline) clone() *Airline {
	c := *a
	c.Votes = append([]common.Address(nil), a.Votes...)
	return &c
}

// RegisterAirline registers candidate or records the caller's vote for
// it. The caller must be a funded, registered airline. While fewer than
// FoundingAirlines airlines are registered the candidate enters
// immediately; afterwards it is registered once its distinct votes
// reach at least half of the currently registered airlines, recomputed
// on every vote. Returns whether the candidate is registered after the
// call.
func (v *State) RegisterAirline(caller, candidate common.Address) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.requireOperational(); err != nil {
		return false, err
	}
	voter := v.airlines[caller]
	if voter == nil || !voter.Registered || !voter.Funded {
		return false, fmt.Errorf("registerAirline: caller must be a funded airline: %w", ErrAccessDenied)
	}
	if existing := v.airlines[candidate]; existing != nil && existing.Registered {
		return false, fmt.Errorf("registerAirline: airline %s: %w", candidate.Hex(), ErrAlreadyRegistered)
	}

	m := v.meta
	var cand *Airline
	if existing := v.airlines[candidate]; existing != nil {
		cand = existing.clone()
	} else {
		cand = &Airline{Address: candidate, Seq: m.Seq}
		m.Seq++
	}
	if v.registeredCount < FoundingAirlines {
		cand.Registered = true
	} else {
		if err := cand.AddVote(caller); err != nil {
			return false, fmt.Errorf("registerAirline: %w", err)
		}
		if len(cand.Votes)*2 >= v.registeredCount {
			cand.Registered = true
		}
	}

	tx := v.store.WriteTx()
	defer tx.Discard()
	if err := txSetJSON(tx, airlineDBKey(candidate), cand); err != nil {
		return false, err
	}
	if err := txSetJSON(tx, metaDBKey, &m); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	v.meta = m
	v.putAirline(cand)

	if cand.Registered {
		log.Infow("airline registered", "airline", candidate.Hex(),
			"votes", len(cand.Votes), "registered", v.registeredCount)
		for _, l := range v.eventListeners {
			l.OnAirlineRegistered(candidate, len(cand.Votes))
		}
	} else {
		log.Debugw("airline vote recorded", "airline", candidate.Hex(),
			"voter", caller.Hex(), "votes", len(cand.Votes))
	}
	return cand.Registered, nil
}

// FundAirline deposits amount into the funds pool on behalf of a
// registered airline. A deposit of at least MinAirlineFunding unlocks
// the funded status; smaller deposits accumulate in the pool without
// unlocking it. Funded status is monotonic.
func (v *State) FundAirline(caller common.Address, amount types.Value) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.requireOperational(); err != nil {
		return err
	}
	airline := v.airlines[caller]
	if airline == nil || !airline.Registered {
		return fmt.Errorf("fundAirline: caller is not a registered airline: %w", ErrAccessDenied)
	}
	if amount == 0 {
		return fmt.Errorf("fundAirline: deposit cannot be zero: %w", ErrInvalidAmount)
	}

	m := v.meta
	if err := m.deposit(amount); err != nil {
		return fmt.Errorf("fundAirline: %w", err)
	}
	a := airline.clone()
	a.Funding += amount
	if amount >= MinAirlineFunding {
		a.Funded = true
	}

	tx := v.store.WriteTx()
	defer tx.Discard()
	if err := txSetJSON(tx, airlineDBKey(caller), a); err != nil {
		return err
	}
	if err := txSetJSON(tx, metaDBKey, &m); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	v.meta = m
	v.airlines[caller] = a

	log.Infow("airline funded", "airline", caller.Hex(),
		"amount", amount.String(), "funded", a.Funded)
	for _, l := range v.eventListeners {
		l.OnAirlineFunded(caller, amount, a.Funded)
	}
	return nil
}

// IsAirlineRegistered reports whether addr is a registered airline.
func (v *State) IsAirlineRegistered(addr common.Address) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	a := v.airlines[addr]
	return a != nil && a.Registered
}

// IsAirlineFunded reports whether addr holds the funded status.
func (v *State) IsAirlineFunded(addr common.Address) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	a := v.airlines[addr]
	return a != nil && a.Funded
}

// AirlinesCount returns the number of currently registered airlines.
func (v *State) AirlinesCount() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.registeredCount
}

// AirlineVotesCount returns how many distinct votes addr has collected.
func (v *State) AirlineVotesCount(addr common.Address) int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	a := v.airlines[addr]
	if a == nil {
		return 0
	}
	return len(a.Votes)
}

// Airline returns a copy of the registry entry for addr.
func (v *State) Airline(addr common.Address) (*Airline, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	a := v.airlines[addr]
	if a == nil {
		return nil, fmt.Errorf("airline %s not found", addr.Hex())
	}
	return a.clone(), nil
}

// Airlines returns the addresses of all registry entries in insertion
// order, including unregistered candidates.
func (v *State) Airlines() []common.Address {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]common.Address(nil), v.airlineOrder...)
}
