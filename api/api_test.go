package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/flightsurety/suretynode/crypto/ethereum"
	"github.com/flightsurety/suretynode/db"
	"github.com/flightsurety/suretynode/db/badgerdb"
	"github.com/flightsurety/suretynode/surety"
	"github.com/flightsurety/suretynode/types"
)

func newTestServer(t *testing.T) (*httptest.Server, *surety.State, *ethereum.SignKeys) {
	store, err := badgerdb.New(db.Options{Path: t.TempDir()})
	qt.Assert(t, err, qt.IsNil)
	t.Cleanup(func() { store.Close() })

	owner := ethereum.NewSignKeys()
	qt.Assert(t, owner.Generate(), qt.IsNil)
	state, err := surety.NewState(store, owner.Address())
	qt.Assert(t, err, qt.IsNil)

	srv := httptest.NewServer(NewAPI(state))
	t.Cleanup(srv.Close)
	return srv, state, owner
}

// doSigned marshals body, signs the raw bytes with signer and posts the
// envelope to path. The decoded response body is returned along with
// the HTTP status code.
func doSigned(t *testing.T, srv *httptest.Server, signer *ethereum.SignKeys,
	path string, body any,
) (int, []byte) {
	raw, err := json.Marshal(body)
	qt.Assert(t, err, qt.IsNil)
	signature, err := signer.Sign(raw)
	qt.Assert(t, err, qt.IsNil)
	env, err := json.Marshal(RequestMessage{Request: raw, Signature: signature})
	qt.Assert(t, err, qt.IsNil)

	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(env))
	qt.Assert(t, err, qt.IsNil)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	qt.Assert(t, err, qt.IsNil)
	return resp.StatusCode, data
}

func doGet(t *testing.T, srv *httptest.Server, path string) (int, []byte) {
	resp, err := http.Get(srv.URL + path)
	qt.Assert(t, err, qt.IsNil)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	qt.Assert(t, err, qt.IsNil)
	return resp.StatusCode, data
}

func TestStatusEndpoint(t *testing.T) {
	srv, _, owner := newTestServer(t)

	code, data := doGet(t, srv, "/status")
	qt.Assert(t, code, qt.Equals, http.StatusOK)
	var status NodeStatus
	qt.Assert(t, json.Unmarshal(data, &status), qt.IsNil)
	qt.Assert(t, status.Operational, qt.IsTrue)
	qt.Assert(t, status.Owner, qt.Equals, owner.Address())
	qt.Assert(t, status.Airlines, qt.Equals, 1)
	qt.Assert(t, status.PoolBalance, qt.Equals, types.Value(0))
}

func TestOperationalToggle(t *testing.T) {
	srv, state, owner := newTestServer(t)

	stranger := ethereum.NewSignKeys()
	qt.Assert(t, stranger.Generate(), qt.IsNil)

	code, data := doSigned(t, srv, stranger, "/operational", OperationalRequest{Operational: false})
	qt.Assert(t, code, qt.Equals, http.StatusForbidden)
	var apiErr struct {
		Kind string `json:"kind"`
		Code int    `json:"code"`
	}
	qt.Assert(t, json.Unmarshal(data, &apiErr), qt.IsNil)
	qt.Assert(t, apiErr.Kind, qt.Equals, "accessDenied")
	qt.Assert(t, state.IsOperational(), qt.IsTrue)

	code, _ = doSigned(t, srv, owner, "/operational", OperationalRequest{Operational: false})
	qt.Assert(t, code, qt.Equals, http.StatusOK)
	qt.Assert(t, state.IsOperational(), qt.IsFalse)

	// paused state machine rejects everything but the toggle itself
	code, _ = doSigned(t, srv, owner, "/airlines/fund",
		FundAirlineRequest{Amount: surety.MinAirlineFunding})
	qt.Assert(t, code, qt.Equals, http.StatusServiceUnavailable)

	code, _ = doSigned(t, srv, owner, "/operational", OperationalRequest{Operational: true})
	qt.Assert(t, code, qt.Equals, http.StatusOK)
}

func TestBadSignature(t *testing.T) {
	srv, _, _ := newTestServer(t)

	raw := json.RawMessage(`{"operational":false}`)
	env, err := json.Marshal(RequestMessage{Request: raw, Signature: "deadbeef"})
	qt.Assert(t, err, qt.IsNil)
	resp, err := http.Post(srv.URL+"/operational", "application/json", bytes.NewReader(env))
	qt.Assert(t, err, qt.IsNil)
	defer resp.Body.Close()
	qt.Assert(t, resp.StatusCode, qt.Equals, http.StatusUnauthorized)
}

func TestAirlineAndFlightFlow(t *testing.T) {
	srv, _, owner := newTestServer(t)

	// fund the owner airline above the participation threshold
	code, data := doSigned(t, srv, owner, "/airlines/fund",
		FundAirlineRequest{Amount: surety.MinAirlineFunding})
	qt.Assert(t, code, qt.Equals, http.StatusOK)
	var airline AirlineInfo
	qt.Assert(t, json.Unmarshal(data, &airline), qt.IsNil)
	qt.Assert(t, airline.Funded, qt.IsTrue)

	// register a second airline
	second := ethereum.NewSignKeys()
	qt.Assert(t, second.Generate(), qt.IsNil)
	code, data = doSigned(t, srv, owner, "/airlines",
		RegisterAirlineRequest{Airline: second.Address()})
	qt.Assert(t, code, qt.Equals, http.StatusOK)
	var reg RegisterAirlineResponse
	qt.Assert(t, json.Unmarshal(data, &reg), qt.IsNil)
	qt.Assert(t, reg.Registered, qt.IsTrue)

	// the new airline cannot register flights before funding
	code, _ = doSigned(t, srv, second, "/flights",
		RegisterFlightRequest{Number: "ND101", DepartureTime: 1700000000})
	qt.Assert(t, code, qt.Equals, http.StatusForbidden)

	// the funded owner can
	code, data = doSigned(t, srv, owner, "/flights",
		RegisterFlightRequest{Number: "ND101", DepartureTime: 1700000000})
	qt.Assert(t, code, qt.Equals, http.StatusOK)
	var flight FlightInfo
	qt.Assert(t, json.Unmarshal(data, &flight), qt.IsNil)
	qt.Assert(t, flight.Status, qt.Equals, types.FlightStatusUnknown)

	code, data = doGet(t, srv, "/flights")
	qt.Assert(t, code, qt.Equals, http.StatusOK)
	var flights []FlightInfo
	qt.Assert(t, json.Unmarshal(data, &flights), qt.IsNil)
	qt.Assert(t, flights, qt.HasLen, 1)

	path := fmt.Sprintf("/flights/%s/ND101/1700000000", owner.Address().Hex())
	code, data = doGet(t, srv, path)
	qt.Assert(t, code, qt.Equals, http.StatusOK)
	qt.Assert(t, json.Unmarshal(data, &flight), qt.IsNil)
	qt.Assert(t, flight.Flight.Number, qt.Equals, "ND101")
}

func TestInsuranceFlow(t *testing.T) {
	srv, state, owner := newTestServer(t)

	code, _ := doSigned(t, srv, owner, "/airlines/fund",
		FundAirlineRequest{Amount: surety.MinAirlineFunding})
	qt.Assert(t, code, qt.Equals, http.StatusOK)
	code, _ = doSigned(t, srv, owner, "/flights",
		RegisterFlightRequest{Number: "ND101", DepartureTime: 1700000000})
	qt.Assert(t, code, qt.Equals, http.StatusOK)

	passenger := ethereum.NewSignKeys()
	qt.Assert(t, passenger.Generate(), qt.IsNil)
	ref := FlightRef{Airline: owner.Address(), Number: "ND101", DepartureTime: 1700000000}

	// over the premium cap
	code, _ = doSigned(t, srv, passenger, "/insurance",
		BuyInsuranceRequest{Flight: ref, Amount: surety.MaxInsurancePremium + 1})
	qt.Assert(t, code, qt.Equals, http.StatusBadRequest)

	code, _ = doSigned(t, srv, passenger, "/insurance",
		BuyInsuranceRequest{Flight: ref, Amount: surety.MaxInsurancePremium})
	qt.Assert(t, code, qt.Equals, http.StatusOK)
	qt.Assert(t, state.PoolBalance(), qt.Equals, surety.MinAirlineFunding+surety.MaxInsurancePremium)

	path := fmt.Sprintf("/flights/%s/ND101/1700000000/policies", owner.Address().Hex())
	code, data := doGet(t, srv, path)
	qt.Assert(t, code, qt.Equals, http.StatusOK)
	var policies []PolicyInfo
	qt.Assert(t, json.Unmarshal(data, &policies), qt.IsNil)
	qt.Assert(t, policies, qt.HasLen, 1)
	qt.Assert(t, policies[0].Passenger, qt.Equals, passenger.Address())

	// no credit before finalization
	code, _ = doSigned(t, srv, passenger, "/insurance/withdraw",
		WithdrawCreditRequest{Flight: ref})
	qt.Assert(t, code, qt.Equals, http.StatusBadRequest)
}

func TestOracleFlow(t *testing.T) {
	srv, state, owner := newTestServer(t)

	code, _ := doSigned(t, srv, owner, "/airlines/fund",
		FundAirlineRequest{Amount: surety.MinAirlineFunding})
	qt.Assert(t, code, qt.Equals, http.StatusOK)
	code, _ = doSigned(t, srv, owner, "/flights",
		RegisterFlightRequest{Number: "ND101", DepartureTime: 1700000000})
	qt.Assert(t, code, qt.Equals, http.StatusOK)

	oracle := ethereum.NewSignKeys()
	qt.Assert(t, oracle.Generate(), qt.IsNil)

	// wrong fee
	code, _ = doSigned(t, srv, oracle, "/oracles",
		RegisterOracleRequest{Fee: surety.OracleRegistrationFee - 1})
	qt.Assert(t, code, qt.Equals, http.StatusBadRequest)

	code, data := doSigned(t, srv, oracle, "/oracles",
		RegisterOracleRequest{Fee: surety.OracleRegistrationFee})
	qt.Assert(t, code, qt.Equals, http.StatusOK)
	var indexes OracleIndexesResponse
	qt.Assert(t, json.Unmarshal(data, &indexes), qt.IsNil)
	qt.Assert(t, indexes.Indexes, qt.HasLen, surety.OracleIndexCount)

	// the oracle can fetch its indexes back
	code, data = doSigned(t, srv, oracle, "/oracles/indexes", struct{}{})
	qt.Assert(t, code, qt.Equals, http.StatusOK)
	var again OracleIndexesResponse
	qt.Assert(t, json.Unmarshal(data, &again), qt.IsNil)
	qt.Assert(t, again.Indexes, qt.DeepEquals, indexes.Indexes)

	// open a status request
	ref := FlightRef{Airline: owner.Address(), Number: "ND101", DepartureTime: 1700000000}
	code, data = doSigned(t, srv, owner, "/requests", FetchStatusRequest{Flight: ref})
	qt.Assert(t, code, qt.Equals, http.StatusOK)
	var fetch FetchStatusResponse
	qt.Assert(t, json.Unmarshal(data, &fetch), qt.IsNil)
	qt.Assert(t, len(state.PendingRequests()), qt.Equals, 1)

	code, data = doGet(t, srv, "/requests")
	qt.Assert(t, code, qt.Equals, http.StatusOK)
	var pending []PendingRequestInfo
	qt.Assert(t, json.Unmarshal(data, &pending), qt.IsNil)
	qt.Assert(t, pending, qt.HasLen, 1)
	qt.Assert(t, pending[0].Index, qt.Equals, fetch.Index)

	// a non-terminal status code is a client error, not an internal one
	code, data = doSigned(t, srv, oracle, "/oracles/response",
		OracleResponseRequest{Index: indexes.Indexes[0], Flight: ref, Status: types.FlightStatusUnknown})
	qt.Assert(t, code, qt.Equals, http.StatusBadRequest)
	var apiErr struct {
		Kind string `json:"kind"`
	}
	qt.Assert(t, json.Unmarshal(data, &apiErr), qt.IsNil)
	qt.Assert(t, apiErr.Kind, qt.Equals, "invalidStatusCode")

	// a response for an index the oracle does not hold is rejected,
	// one for its own index on the open request is accepted
	holds := false
	for _, idx := range indexes.Indexes {
		if idx == fetch.Index {
			holds = true
		}
	}
	resp := OracleResponseRequest{Index: fetch.Index, Flight: ref, Status: types.FlightStatusLateAirline}
	code, _ = doSigned(t, srv, oracle, "/oracles/response", resp)
	if holds {
		qt.Assert(t, code, qt.Equals, http.StatusOK)
	} else {
		qt.Assert(t, code, qt.Equals, http.StatusForbidden)
	}
}
