// Package surety implements the state machine backing the flight-delay
// insurance product: airline membership consensus, custody of pooled
// funds, flight and insurance registries and the oracle consensus
// engine that finalizes flight statuses and triggers payouts.
//
// Every public operation is atomic and totally ordered with respect to
// all others: the state lock serializes mutations, and each operation
// either commits fully (storage write plus in-memory update) or fails
// leaving the state untouched.
package surety

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/flightsurety/suretynode/db"
	"github.com/flightsurety/suretynode/log"
	"github.com/flightsurety/suretynode/types"
)

// State is the single-writer transactional store of the insurance
// product. All entities are exclusively owned by State and mutated only
// through its methods.
type State struct {
	store db.Database

	mu   sync.RWMutex
	meta meta

	airlines        map[common.Address]*Airline
	airlineOrder    []common.Address
	registeredCount int

	flights     map[types.FlightKey]*Flight
	flightOrder []types.FlightKey

	policies map[types.FlightKey][]*Policy

	oracles map[common.Address]*Oracle

	// requests are transient: open status requests do not survive a
	// restart, matching the event-driven oracle protocol.
	requests map[RequestKey]*StatusRequest

	eventListeners []EventListener
}

// meta carries the global counters and switches persisted under a
// single key.
type meta struct {
	Owner       common.Address `json:"owner"`
	Operational bool           `json:"operational"`
	Deposits    types.Value    `json:"deposits"`
	Payouts     types.Value    `json:"payouts"`
	Seq         uint64         `json:"seq"`
}

var metaDBKey = []byte("m/meta")

func airlineDBKey(addr common.Address) []byte {
	return []byte("a/" + addr.Hex())
}

func flightDBKey(key types.FlightKey) []byte {
	return []byte("f/" + key.String())
}

func policyDBKey(key types.FlightKey, seq uint64) []byte {
	return []byte(fmt.Sprintf("p/%s/%d", key, seq))
}

func oracleDBKey(addr common.Address) []byte {
	return []byte("o/" + addr.Hex())
}

// NewState restores the state machine from the given storage, or
// bootstraps a fresh one with owner as the designated owner and the
// single pre-registered airline.
func NewState(store db.Database, owner common.Address) (*State, error) {
	v := &State{
		store:    store,
		airlines: make(map[common.Address]*Airline),
		flights:  make(map[types.FlightKey]*Flight),
		policies: make(map[types.FlightKey][]*Policy),
		oracles:  make(map[common.Address]*Oracle),
		requests: make(map[RequestKey]*StatusRequest),
	}
	raw, err := store.Get(metaDBKey)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		if err := v.bootstrap(owner); err != nil {
			return nil, fmt.Errorf("cannot bootstrap state: %w", err)
		}
		log.Infow("bootstrapped new surety state", "owner", owner.Hex())
		return v, nil
	case err != nil:
		return nil, err
	}
	if err := json.Unmarshal(raw, &v.meta); err != nil {
		return nil, fmt.Errorf("cannot unmarshal state meta: %w", err)
	}
	if v.meta.Owner != owner {
		log.Warnf("configured owner %s differs from stored owner %s, keeping stored",
			owner.Hex(), v.meta.Owner.Hex())
	}
	if err := v.load(); err != nil {
		return nil, fmt.Errorf("cannot load state: %w", err)
	}
	log.Infow("restored surety state",
		"airlines", len(v.airlines), "flights", len(v.flights),
		"oracles", len(v.oracles), "pool", v.meta.Deposits-v.meta.Payouts)
	return v, nil
}

// bootstrap initializes an empty store: the switch starts enabled and
// the owner enters the registry as the first registered airline.
func (v *State) bootstrap(owner common.Address) error {
	m := meta{Owner: owner, Operational: true, Seq: 1}
	first := &Airline{Address: owner, Registered: true, Seq: 0}
	tx := v.store.WriteTx()
	defer tx.Discard()
	if err := txSetJSON(tx, metaDBKey, &m); err != nil {
		return err
	}
	if err := txSetJSON(tx, airlineDBKey(owner), first); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	v.meta = m
	v.putAirline(first)
	return nil
}

// load rebuilds the in-memory indexes from storage, restoring the
// insertion order of every registry.
func (v *State) load() error {
	var lerr error
	unmarshal := func(value []byte, obj interface{}) bool {
		if err := json.Unmarshal(value, obj); err != nil {
			lerr = err
			return false
		}
		return true
	}
	var airlines []*Airline
	if err := v.store.Iterate([]byte("a/"), func(_, value []byte) bool {
		a := &Airline{}
		if !unmarshal(value, a) {
			return false
		}
		airlines = append(airlines, a)
		return true
	}); err != nil {
		return err
	}
	var flights []*Flight
	if err := v.store.Iterate([]byte("f/"), func(_, value []byte) bool {
		f := &Flight{}
		if !unmarshal(value, f) {
			return false
		}
		flights = append(flights, f)
		return true
	}); err != nil {
		return err
	}
	var policies []*Policy
	if err := v.store.Iterate([]byte("p/"), func(_, value []byte) bool {
		p := &Policy{}
		if !unmarshal(value, p) {
			return false
		}
		policies = append(policies, p)
		return true
	}); err != nil {
		return err
	}
	if err := v.store.Iterate([]byte("o/"), func(_, value []byte) bool {
		o := &Oracle{}
		if !unmarshal(value, o) {
			return false
		}
		v.oracles[o.Address] = o
		return true
	}); err != nil {
		return err
	}
	if lerr != nil {
		return lerr
	}
	sort.Slice(airlines, func(i, j int) bool { return airlines[i].Seq < airlines[j].Seq })
	for _, a := range airlines {
		v.putAirline(a)
	}
	sort.Slice(flights, func(i, j int) bool { return flights[i].Seq < flights[j].Seq })
	for _, f := range flights {
		v.flights[f.Key] = f
		v.flightOrder = append(v.flightOrder, f.Key)
	}
	sort.Slice(policies, func(i, j int) bool { return policies[i].Seq < policies[j].Seq })
	for _, p := range policies {
		v.policies[p.Flight] = append(v.policies[p.Flight], p)
	}
	return nil
}

// putAirline indexes an airline in memory, keeping insertion order and
// the registered counter.
func (v *State) putAirline(a *Airline) {
	if _, known := v.airlines[a.Address]; !known {
		v.airlineOrder = append(v.airlineOrder, a.Address)
	}
	v.airlines[a.Address] = a
	v.registeredCount = 0
	for _, addr := range v.airlineOrder {
		if v.airlines[addr].Registered {
			v.registeredCount++
		}
	}
}

// Owner returns the designated owner address.
func (v *State) Owner() common.Address {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.meta.Owner
}

// IsOperational reports the global operational switch.
func (v *State) IsOperational() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.meta.Operational
}

// SetOperatingStatus toggles the global switch. Only the owner may call
// it, and the owner may always call it, even while disabled, so the
// system can recover.
func (v *State) SetOperatingStatus(caller common.Address, operational bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if caller != v.meta.Owner {
		return fmt.Errorf("setOperatingStatus: %w", ErrAccessDenied)
	}
	m := v.meta
	m.Operational = operational
	if err := v.commitMeta(m); err != nil {
		return err
	}
	log.Infow("operational status changed", "operational", operational)
	return nil
}

// PoolBalance returns the current balance of the funds pool.
func (v *State) PoolBalance() types.Value {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.meta.Deposits - v.meta.Payouts
}

// TotalDeposits returns the sum of all accepted deposits.
func (v *State) TotalDeposits() types.Value {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.meta.Deposits
}

// TotalPayouts returns the sum of all accepted payouts.
func (v *State) TotalPayouts() types.Value {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.meta.Payouts
}

// requireOperational is the gate checked by every mutating operation.
// Callers must hold the lock.
func (v *State) requireOperational() error {
	if !v.meta.Operational {
		return ErrNotOperational
	}
	return nil
}

// deposit stages amount into the pool counters of m. The caller commits
// m within the same transaction as the triggering operation, so balance
// mutations are never observable halfway.
func (m *meta) deposit(amount types.Value) error {
	if m.Deposits+amount < m.Deposits {
		return fmt.Errorf("deposit: pool overflow")
	}
	m.Deposits += amount
	return nil
}

// withdraw stages amount out of the pool counters of m. Failing the
// balance check here means the accounting invariant is broken: it is a
// bug indicator, not a normal error path.
func (m *meta) withdraw(amount types.Value) error {
	if m.Deposits-m.Payouts < amount {
		return fmt.Errorf("withdraw %s exceeds pool balance %s: %w",
			amount, m.Deposits-m.Payouts, ErrNotEnoughFunds)
	}
	m.Payouts += amount
	return nil
}

// commitMeta persists m and adopts it in memory.
func (v *State) commitMeta(m meta) error {
	tx := v.store.WriteTx()
	defer tx.Discard()
	if err := txSetJSON(tx, metaDBKey, &m); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	v.meta = m
	return nil
}

// txSetJSON marshals obj and stages it under key.
func txSetJSON(tx db.WriteTx, key []byte, obj interface{}) error {
	raw, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return tx.Set(key, raw)
}
