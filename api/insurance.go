package api

import (
	"net/http"
)

// buyInsuranceHandler buys a policy for the caller on the given flight,
// funded with the request amount.
func (a *API) buyInsuranceHandler(w http.ResponseWriter, r *http.Request) {
	var req BuyInsuranceRequest
	caller, ok := a.signedRequest(w, r, &req)
	if !ok {
		return
	}
	if err := a.state.BuyInsurance(caller, req.Flight.Key(), req.Amount); err != nil {
		writeErr(w, fromState(err))
		return
	}
	writeJSON(w, OKResponse{OK: true})
}

// withdrawCreditHandler pays out the caller's accumulated credit for
// the given flight.
func (a *API) withdrawCreditHandler(w http.ResponseWriter, r *http.Request) {
	var req WithdrawCreditRequest
	caller, ok := a.signedRequest(w, r, &req)
	if !ok {
		return
	}
	amount, err := a.state.WithdrawPassengerCredit(caller, req.Flight.Key())
	if err != nil {
		writeErr(w, fromState(err))
		return
	}
	writeJSON(w, WithdrawCreditResponse{Amount: amount})
}

func (a *API) policiesHandler(w http.ResponseWriter, r *http.Request) {
	key, ok := urlFlightKey(w, r)
	if !ok {
		return
	}
	if !a.state.IsFlightRegistered(key) {
		writeErr(w, ErrUnknownFlight.Withf("%s", key))
		return
	}
	policies := a.state.Policies(key)
	list := make([]PolicyInfo, 0, len(policies))
	for _, p := range policies {
		list = append(list, PolicyInfo{
			Passenger: p.Passenger,
			Premium:   p.Premium,
			Credit:    p.Credit,
			Withdrawn: p.Withdrawn,
		})
	}
	writeJSON(w, list)
}

func (a *API) creditHandler(w http.ResponseWriter, r *http.Request) {
	key, ok := urlFlightKey(w, r)
	if !ok {
		return
	}
	passenger, ok := urlAddress(w, r, "passenger")
	if !ok {
		return
	}
	writeJSON(w, CreditResponse{Credit: a.state.PassengerCredit(passenger, key)})
}
