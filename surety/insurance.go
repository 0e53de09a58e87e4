package surety

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/flightsurety/suretynode/log"
	"github.com/flightsurety/suretynode/types"
)

// Policy is an insurance ledger entry. A passenger may hold several
// independent policies for the same flight; no deduplication is
// enforced. Credit is set at most once, by status finalization, and
// zeroed on withdrawal.
type Policy struct {
	Passenger common.Address  `json:"passenger"`
	Flight    types.FlightKey `json:"flight"`
	Premium   types.Value     `json:"premium"`
	Credit    types.Value     `json:"credit"`
	Withdrawn bool            `json:"withdrawn"`
	Seq       uint64          `json:"seq"`
}

// BuyInsurance creates a policy for the given flight, paid with
// premium. Any identity may buy. The premium must be positive and not
// exceed MaxInsurancePremium, and is deposited into the funds pool
// immediately.
func (v *State) BuyInsurance(passenger common.Address, key types.FlightKey, premium types.Value) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.requireOperational(); err != nil {
		return err
	}
	if _, exists := v.flights[key]; !exists {
		return fmt.Errorf("buyInsurance: flight %s: %w", key, ErrUnknownFlight)
	}
	if premium == 0 || premium > MaxInsurancePremium {
		return fmt.Errorf("buyInsurance: premium %s out of range (0, %s]: %w",
			premium, types.Value(MaxInsurancePremium), ErrInvalidAmount)
	}

	m := v.meta
	if err := m.deposit(premium); err != nil {
		return fmt.Errorf("buyInsurance: %w", err)
	}
	policy := &Policy{
		Passenger: passenger,
		Flight:    key,
		Premium:   premium,
		Seq:       m.Seq,
	}
	m.Seq++

	tx := v.store.WriteTx()
	defer tx.Discard()
	if err := txSetJSON(tx, policyDBKey(key, policy.Seq), policy); err != nil {
		return err
	}
	if err := txSetJSON(tx, metaDBKey, &m); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	v.meta = m
	v.policies[key] = append(v.policies[key], policy)

	log.Infow("insurance purchased", "passenger", passenger.Hex(),
		"flight", key.String(), "premium", premium.String())
	for _, l := range v.eventListeners {
		l.OnInsurancePurchased(passenger, key, premium)
	}
	return nil
}

// PassengerCredit returns the credit owed to passenger across all its
// non-withdrawn policies for the flight.
func (v *State) PassengerCredit(passenger common.Address, key types.FlightKey) types.Value {
	v.mu.RLock()
	defer v.mu.RUnlock()
	var total types.Value
	for _, p := range v.policies[key] {
		if p.Passenger == passenger && !p.Withdrawn {
			total += p.Credit
		}
	}
	return total
}

// Policies returns copies of all policies held for the flight, in
// purchase order.
func (v *State) Policies(key types.FlightKey) []*Policy {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]*Policy, 0, len(v.policies[key]))
	for _, p := range v.policies[key] {
		c := *p
		out = append(out, &c)
	}
	return out
}

// WithdrawPassengerCredit pays out the summed credit owed to passenger
// for the flight and zeroes it on every matching policy in the same
// atomic step, so a retried call can never pay twice.
func (v *State) WithdrawPassengerCredit(passenger common.Address, key types.FlightKey) (types.Value, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.requireOperational(); err != nil {
		return 0, err
	}
	var total types.Value
	var matching []*Policy
	for _, p := range v.policies[key] {
		if p.Passenger == passenger && !p.Withdrawn {
			total += p.Credit
			matching = append(matching, p)
		}
	}
	if total == 0 {
		return 0, fmt.Errorf("withdrawPassengerCredit: %w", ErrNoCredit)
	}

	m := v.meta
	if err := m.withdraw(total); err != nil {
		return 0, fmt.Errorf("withdrawPassengerCredit: %w", err)
	}
	updated := make([]*Policy, 0, len(matching))
	for _, p := range matching {
		c := *p
		c.Credit = 0
		c.Withdrawn = true
		updated = append(updated, &c)
	}

	tx := v.store.WriteTx()
	defer tx.Discard()
	for _, p := range updated {
		if err := txSetJSON(tx, policyDBKey(key, p.Seq), p); err != nil {
			return 0, err
		}
	}
	if err := txSetJSON(tx, metaDBKey, &m); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	v.meta = m
	for i, p := range v.policies[key] {
		for _, u := range updated {
			if p.Seq == u.Seq {
				v.policies[key][i] = u
			}
		}
	}

	log.Infow("credit withdrawn", "passenger", passenger.Hex(),
		"flight", key.String(), "amount", total.String())
	for _, l := range v.eventListeners {
		l.OnCreditWithdrawn(passenger, key, total)
	}
	return total, nil
}
