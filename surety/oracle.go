package surety

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/flightsurety/suretynode/log"
	"github.com/flightsurety/suretynode/types"
	"github.com/flightsurety/suretynode/util"
)

// Oracle is a registered oracle identity with its assigned response
// indexes. Immutable after registration.
type Oracle struct {
	Address common.Address          `json:"address"`
	Indexes [OracleIndexCount]uint8 `json:"indexes"`
}

// HasIndex checks if idx is one of the oracle's assigned indexes.
func (o *Oracle) HasIndex(idx uint8) bool {
	for _, i := range o.Indexes {
		if i == idx {
			return true
		}
	}
	return false
}

// RequestKey identifies an open status request: only oracles holding
// Index may respond for the flight.
type RequestKey struct {
	Index  uint8           `json:"index"`
	Flight types.FlightKey `json:"flight"`
}

func (k RequestKey) String() string {
	return fmt.Sprintf("%d/%s", k.Index, k.Flight)
}

// StatusRequest tallies oracle responses for one request key. Requests
// are transient: they live in memory until consensus closes them, or
// forever if not enough responses arrive (there is no expiry).
type StatusRequest struct {
	Key    RequestKey
	Closed bool
	tally  map[types.FlightStatus][]common.Address
}

func (r *StatusRequest) hasResponded(oracle common.Address) bool {
	for _, voters := range r.tally {
		for _, voter := range voters {
			if voter == oracle {
				return true
			}
		}
	}
	return false
}

// generateOracleIndexes draws OracleIndexCount distinct values from
// [0, OracleIndexRange) using the operating system CSPRNG. The original
// system seeded this from block data, a weak and minable entropy
// source; strong randomness here only affects which oracles may answer
// a request, never the consensus outcome itself.
func generateOracleIndexes() [OracleIndexCount]uint8 {
	var indexes [OracleIndexCount]uint8
	picked := make(map[uint8]bool, OracleIndexCount)
	for i := 0; i < OracleIndexCount; {
		idx := uint8(util.RandomInt(0, OracleIndexRange))
		if picked[idx] {
			continue
		}
		picked[idx] = true
		indexes[i] = idx
		i++
	}
	return indexes
}

// RegisterOracle registers the caller as an oracle against payment of
// the exact registration fee, assigning it three distinct indexes.
func (v *State) RegisterOracle(caller common.Address, fee types.Value) ([OracleIndexCount]uint8, error) {
	var none [OracleIndexCount]uint8
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.requireOperational(); err != nil {
		return none, err
	}
	if fee != OracleRegistrationFee {
		return none, fmt.Errorf("registerOracle: fee %s, expected %s: %w",
			fee, types.Value(OracleRegistrationFee), ErrInvalidAmount)
	}
	if _, exists := v.oracles[caller]; exists {
		return none, fmt.Errorf("registerOracle: oracle %s: %w", caller.Hex(), ErrAlreadyRegistered)
	}

	m := v.meta
	if err := m.deposit(fee); err != nil {
		return none, fmt.Errorf("registerOracle: %w", err)
	}
	oracle := &Oracle{Address: caller, Indexes: generateOracleIndexes()}

	tx := v.store.WriteTx()
	defer tx.Discard()
	if err := txSetJSON(tx, oracleDBKey(caller), oracle); err != nil {
		return none, err
	}
	if err := txSetJSON(tx, metaDBKey, &m); err != nil {
		return none, err
	}
	if err := tx.Commit(); err != nil {
		return none, err
	}
	v.meta = m
	v.oracles[caller] = oracle

	log.Infow("oracle registered", "oracle", caller.Hex(), "indexes", oracle.Indexes)
	return oracle.Indexes, nil
}

// OracleIndexes returns the indexes assigned to a registered oracle.
func (v *State) OracleIndexes(oracle common.Address) ([OracleIndexCount]uint8, error) {
	var none [OracleIndexCount]uint8
	v.mu.RLock()
	defer v.mu.RUnlock()
	o := v.oracles[oracle]
	if o == nil {
		return none, fmt.Errorf("oracle %s is not registered: %w", oracle.Hex(), ErrAccessDenied)
	}
	return o.Indexes, nil
}

// IsOracleRegistered reports whether addr is a registered oracle.
func (v *State) IsOracleRegistered(addr common.Address) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, exists := v.oracles[addr]
	return exists
}

// OraclesCount returns the number of registered oracles.
func (v *State) OraclesCount() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.oracles)
}

// FetchFlightStatus opens a status request for the flight under a
// pseudo-randomly selected index and emits the request event consumed
// by the oracle operator. Callable by anyone. Requesting a flight that
// is unregistered or already finalized fails with ErrUnknownFlight.
// Re-requesting an open (index, flight) pair resets its tally.
func (v *State) FetchFlightStatus(key types.FlightKey) (uint8, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.requireOperational(); err != nil {
		return 0, err
	}
	flight, exists := v.flights[key]
	if !exists || flight.Status.Terminal() {
		return 0, fmt.Errorf("fetchFlightStatus: flight %s: %w", key, ErrUnknownFlight)
	}

	index := uint8(util.RandomInt(0, OracleIndexRange))
	rk := RequestKey{Index: index, Flight: key}
	v.requests[rk] = &StatusRequest{
		Key:   rk,
		tally: make(map[types.FlightStatus][]common.Address),
	}

	log.Infow("flight status requested", "flight", key.String(), "index", index)
	for _, l := range v.eventListeners {
		l.OnStatusRequested(index, key)
	}
	return index, nil
}

// SubmitOracleResponse records the caller's status vote for an open
// request. The caller must be a registered oracle holding the index.
// Votes are deduplicated per oracle: a repeated submission for the same
// request never adds a second count. When the distinct votes for one
// status code reach OracleConsensusThreshold, that code is finalized:
// the flight transitions to it, every open request for the flight
// closes, and after an airline-attributable delay every policy for the
// flight is credited 1.5x its premium, all in the same atomic step.
// Competing codes that did not reach the threshold are abandoned.
func (v *State) SubmitOracleResponse(caller common.Address, index uint8,
	key types.FlightKey, status types.FlightStatus) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.requireOperational(); err != nil {
		return err
	}
	oracle := v.oracles[caller]
	if oracle == nil {
		return fmt.Errorf("submitOracleResponse: caller is not a registered oracle: %w", ErrAccessDenied)
	}
	if !oracle.HasIndex(index) {
		return fmt.Errorf("submitOracleResponse: index %d: %w", index, ErrInvalidOracleIndex)
	}
	if !status.Terminal() {
		return fmt.Errorf("submitOracleResponse: code %d: %w", status, ErrInvalidStatusCode)
	}
	rk := RequestKey{Index: index, Flight: key}
	req := v.requests[rk]
	if req == nil {
		return fmt.Errorf("submitOracleResponse: %s: %w", rk, ErrNoMatchingRequest)
	}
	if req.Closed {
		return fmt.Errorf("submitOracleResponse: %s: %w", rk, ErrRequestClosed)
	}
	if flight := v.flights[key]; flight == nil || flight.Status.Terminal() {
		return fmt.Errorf("submitOracleResponse: flight %s is already finalized: %w", key, ErrRequestClosed)
	}
	if req.hasResponded(caller) {
		return fmt.Errorf("submitOracleResponse: oracle %s: %w", caller.Hex(), ErrDuplicateVote)
	}

	req.tally[status] = append(req.tally[status], caller)
	votes := len(req.tally[status])
	log.Debugw("oracle response accepted", "oracle", caller.Hex(),
		"request", rk.String(), "status", status.String(), "votes", votes)
	if votes < OracleConsensusThreshold {
		return nil
	}
	return v.finalizeStatus(req, status)
}

// finalizeStatus commits the terminal status of the request's flight
// and credits insurees when the airline is at fault. Caller must hold
// the write lock.
func (v *State) finalizeStatus(req *StatusRequest, status types.FlightStatus) error {
	key := req.Key.Flight
	flight := *v.flights[key]
	flight.Status = status

	var credited []*Policy
	if status.AirlineFault() {
		for _, p := range v.policies[key] {
			if p.Withdrawn {
				continue
			}
			c := *p
			c.Credit = creditFor(c.Premium)
			credited = append(credited, &c)
		}
	}

	tx := v.store.WriteTx()
	defer tx.Discard()
	if err := txSetJSON(tx, flightDBKey(key), &flight); err != nil {
		return err
	}
	for _, p := range credited {
		if err := txSetJSON(tx, policyDBKey(key, p.Seq), p); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	v.flights[key] = &flight
	for i, p := range v.policies[key] {
		for _, c := range credited {
			if p.Seq == c.Seq {
				v.policies[key][i] = c
			}
		}
	}
	// Close every request for the flight, not just the winning one:
	// FetchFlightStatus may have opened several under different indexes,
	// and none may finalize the flight a second time.
	for _, r := range v.requests {
		if r.Key.Flight == key {
			r.Closed = true
		}
	}

	log.Infow("flight status finalized", "flight", key.String(),
		"status", status.String(), "credited", len(credited))
	for _, l := range v.eventListeners {
		l.OnStatusFinalized(key, status)
	}
	for _, c := range credited {
		for _, l := range v.eventListeners {
			l.OnInsureeCredited(c.Passenger, key, c.Credit)
		}
	}
	return nil
}

// PendingRequests returns the keys of all open status requests, sorted
// for deterministic output.
func (v *State) PendingRequests() []RequestKey {
	v.mu.RLock()
	defer v.mu.RUnlock()
	keys := make([]RequestKey, 0, len(v.requests))
	for rk, req := range v.requests {
		if !req.Closed {
			keys = append(keys, rk)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// ResponseVotes returns how many distinct oracles voted the given
// status under an open or closed request key.
func (v *State) ResponseVotes(rk RequestKey, status types.FlightStatus) int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	req := v.requests[rk]
	if req == nil {
		return 0
	}
	return len(req.tally[status])
}
