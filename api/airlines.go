package api

import (
	"net/http"
)

// registerAirlineHandler registers a candidate airline or records the
// caller's vote for it, depending on how many airlines are already
// registered.
func (a *API) registerAirlineHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterAirlineRequest
	caller, ok := a.signedRequest(w, r, &req)
	if !ok {
		return
	}
	registered, err := a.state.RegisterAirline(caller, req.Airline)
	if err != nil {
		writeErr(w, fromState(err))
		return
	}
	writeJSON(w, RegisterAirlineResponse{
		Registered: registered,
		Votes:      a.state.AirlineVotesCount(req.Airline),
	})
}

// fundAirlineHandler deposits the given amount on behalf of the
// calling airline.
func (a *API) fundAirlineHandler(w http.ResponseWriter, r *http.Request) {
	var req FundAirlineRequest
	caller, ok := a.signedRequest(w, r, &req)
	if !ok {
		return
	}
	if err := a.state.FundAirline(caller, req.Amount); err != nil {
		writeErr(w, fromState(err))
		return
	}
	airline, err := a.state.Airline(caller)
	if err != nil {
		writeErr(w, fromState(err))
		return
	}
	writeJSON(w, airlineInfo(airline))
}

func (a *API) airlineListHandler(w http.ResponseWriter, _ *http.Request) {
	addrs := a.state.Airlines()
	list := make([]AirlineInfo, 0, len(addrs))
	for _, addr := range addrs {
		airline, err := a.state.Airline(addr)
		if err != nil {
			continue
		}
		list = append(list, airlineInfo(airline))
	}
	writeJSON(w, list)
}

func (a *API) airlineHandler(w http.ResponseWriter, r *http.Request) {
	addr, ok := urlAddress(w, r, "address")
	if !ok {
		return
	}
	airline, err := a.state.Airline(addr)
	if err != nil {
		writeErr(w, ErrAirlineNotFound.Withf("%s", addr.Hex()))
		return
	}
	writeJSON(w, airlineInfo(airline))
}
