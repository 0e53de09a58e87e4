package api

import (
	"net/http"

	"github.com/flightsurety/suretynode/types"
)

// registerFlightHandler creates a flight owned by the calling airline.
func (a *API) registerFlightHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterFlightRequest
	caller, ok := a.signedRequest(w, r, &req)
	if !ok {
		return
	}
	if err := a.state.RegisterFlight(caller, req.Number, req.DepartureTime); err != nil {
		writeErr(w, fromState(err))
		return
	}
	writeJSON(w, FlightInfo{
		Flight: FlightRef{Airline: caller, Number: req.Number, DepartureTime: req.DepartureTime},
		Status: types.FlightStatusUnknown,
	})
}

func (a *API) flightListHandler(w http.ResponseWriter, _ *http.Request) {
	keys := a.state.FlightKeys()
	list := make([]FlightInfo, 0, len(keys))
	for _, key := range keys {
		status, err := a.state.FlightStatus(key)
		if err != nil {
			continue
		}
		list = append(list, FlightInfo{Flight: flightRef(key), Status: status})
	}
	writeJSON(w, list)
}

func (a *API) flightHandler(w http.ResponseWriter, r *http.Request) {
	key, ok := urlFlightKey(w, r)
	if !ok {
		return
	}
	status, found := a.finalizedStatus(key)
	if !found {
		var err error
		status, err = a.state.FlightStatus(key)
		if err != nil {
			writeErr(w, fromState(err))
			return
		}
		if status.Terminal() {
			a.finalized.Add(key.String(), status)
		}
	}
	writeJSON(w, FlightInfo{Flight: flightRef(key), Status: status})
}

// finalizedStatus checks the cache of flights that already reached a
// terminal status.
func (a *API) finalizedStatus(key types.FlightKey) (types.FlightStatus, bool) {
	v, ok := a.finalized.Get(key.String())
	if !ok {
		return types.FlightStatusUnknown, false
	}
	return v.(types.FlightStatus), true
}
