package api

import (
	"net/http"
)

// statusHandler returns the operational flag, the owner address, the
// funds pool counters and the registry sizes.
func (a *API) statusHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, NodeStatus{
		Operational:     a.state.IsOperational(),
		Owner:           a.state.Owner(),
		PoolBalance:     a.state.PoolBalance(),
		TotalDeposits:   a.state.TotalDeposits(),
		TotalPayouts:    a.state.TotalPayouts(),
		Airlines:        a.state.AirlinesCount(),
		Oracles:         a.state.OraclesCount(),
		Flights:         len(a.state.FlightKeys()),
		PendingRequests: len(a.state.PendingRequests()),
	})
}

// setOperationalHandler pauses or resumes the state machine. Only the
// owner may call it, and it works even while paused.
func (a *API) setOperationalHandler(w http.ResponseWriter, r *http.Request) {
	var req OperationalRequest
	caller, ok := a.signedRequest(w, r, &req)
	if !ok {
		return
	}
	if err := a.state.SetOperatingStatus(caller, req.Operational); err != nil {
		writeErr(w, fromState(err))
		return
	}
	writeJSON(w, OKResponse{OK: true})
}
