package api

import (
	"net/http"
)

// registerOracleHandler registers the caller as an oracle, paying the
// registration fee, and returns its three assigned indexes.
func (a *API) registerOracleHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterOracleRequest
	caller, ok := a.signedRequest(w, r, &req)
	if !ok {
		return
	}
	indexes, err := a.state.RegisterOracle(caller, req.Fee)
	if err != nil {
		writeErr(w, fromState(err))
		return
	}
	writeJSON(w, OracleIndexesResponse{Indexes: indexes[:]})
}

// oracleIndexesHandler returns the caller's assigned indexes. The
// indexes are only revealed to the oracle itself, hence the signed
// request instead of a plain GET.
func (a *API) oracleIndexesHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.signedRequest(w, r, nil)
	if !ok {
		return
	}
	indexes, err := a.state.OracleIndexes(caller)
	if err != nil {
		writeErr(w, fromState(err))
		return
	}
	writeJSON(w, OracleIndexesResponse{Indexes: indexes[:]})
}

// oracleResponseHandler records the caller's status response for an
// open request.
func (a *API) oracleResponseHandler(w http.ResponseWriter, r *http.Request) {
	var req OracleResponseRequest
	caller, ok := a.signedRequest(w, r, &req)
	if !ok {
		return
	}
	if err := a.state.SubmitOracleResponse(caller, req.Index, req.Flight.Key(), req.Status); err != nil {
		writeErr(w, fromState(err))
		return
	}
	writeJSON(w, OKResponse{OK: true})
}

// fetchStatusHandler opens (or reopens) a status request for a flight
// and returns the index drawn for it. Any signed caller may request.
func (a *API) fetchStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req FetchStatusRequest
	_, ok := a.signedRequest(w, r, &req)
	if !ok {
		return
	}
	index, err := a.state.FetchFlightStatus(req.Flight.Key())
	if err != nil {
		writeErr(w, fromState(err))
		return
	}
	writeJSON(w, FetchStatusResponse{Index: index, Flight: req.Flight})
}

func (a *API) pendingRequestsHandler(w http.ResponseWriter, _ *http.Request) {
	pending := a.state.PendingRequests()
	list := make([]PendingRequestInfo, 0, len(pending))
	for _, rk := range pending {
		list = append(list, PendingRequestInfo{Index: rk.Index, Flight: flightRef(rk.Flight)})
	}
	writeJSON(w, list)
}
