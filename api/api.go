// Package api exposes the surety state machine as a JSON HTTP API.
// Read only endpoints are plain GETs; every state changing endpoint
// takes a RequestMessage envelope whose signature identifies the
// caller.
package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"

	"github.com/flightsurety/suretynode/crypto/ethereum"
	"github.com/flightsurety/suretynode/log"
	"github.com/flightsurety/suretynode/surety"
	"github.com/flightsurety/suretynode/types"
)

const (
	maxRequestBody = 1 << 18 // 256 KiB

	// finalized flight statuses never change again, so they are safe
	// to serve from a small cache without taking the state lock
	finalizedCacheSize = 1024
)

// API wires the surety state machine into a chi router.
type API struct {
	state     *surety.State
	router    chi.Router
	finalized *lru.Cache
}

// NewAPI returns an API serving the given state.
func NewAPI(state *surety.State) *API {
	finalized, err := lru.New(finalizedCacheSize)
	if err != nil {
		// lru.New only fails on a non-positive size
		panic(err)
	}
	a := &API{state: state, finalized: finalized}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.Compress(5))
	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}).Handler)

	r.Get("/status", a.statusHandler)
	r.Post("/operational", a.setOperationalHandler)

	r.Post("/airlines", a.registerAirlineHandler)
	r.Post("/airlines/fund", a.fundAirlineHandler)
	r.Get("/airlines", a.airlineListHandler)
	r.Get("/airlines/{address}", a.airlineHandler)

	r.Post("/flights", a.registerFlightHandler)
	r.Get("/flights", a.flightListHandler)
	r.Get("/flights/{airline}/{number}/{departure}", a.flightHandler)
	r.Get("/flights/{airline}/{number}/{departure}/policies", a.policiesHandler)
	r.Get("/flights/{airline}/{number}/{departure}/credit/{passenger}", a.creditHandler)

	r.Post("/insurance", a.buyInsuranceHandler)
	r.Post("/insurance/withdraw", a.withdrawCreditHandler)

	r.Post("/oracles", a.registerOracleHandler)
	r.Post("/oracles/indexes", a.oracleIndexesHandler)
	r.Post("/oracles/response", a.oracleResponseHandler)

	r.Post("/requests", a.fetchStatusHandler)
	r.Get("/requests", a.pendingRequestsHandler)

	a.router = r
	return a
}

// Router returns the underlying chi router, so callers can mount extra
// handlers (such as the metrics endpoint) on it.
func (a *API) Router() chi.Router { return a.router }

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// requestID tags every request with a unique id, echoed back in the
// X-Request-Id header and attached to the request log line.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)
		log.Debugw("api request", "id", id, "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		writeErr(w, ErrInternal.WithErr(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(data); err != nil {
		log.Warnf("cannot write response: %v", err)
	}
}

func writeErr(w http.ResponseWriter, e Error) {
	data, err := json.Marshal(e)
	if err != nil {
		log.Warn(err)
		http.Error(w, "marshal failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.HTTPstatus)
	if _, err := w.Write(data); err != nil {
		log.Warnf("cannot write response: %v", err)
	}
}

// signedRequest reads and verifies a RequestMessage envelope, unmarshals
// the inner request into dst (unless nil) and returns the address
// recovered from the signature. On failure it replies with the error
// and returns false.
func (a *API) signedRequest(w http.ResponseWriter, r *http.Request, dst any) (common.Address, bool) {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeErr(w, ErrCantParseRequestBody.WithErr(err))
		return common.Address{}, false
	}
	var env RequestMessage
	if err := json.Unmarshal(body, &env); err != nil {
		writeErr(w, ErrCantParseRequestBody.WithErr(err))
		return common.Address{}, false
	}
	caller, err := ethereum.AddrFromSignature(env.Request, env.Signature)
	if err != nil {
		writeErr(w, ErrSignatureInvalid.WithErr(err))
		return common.Address{}, false
	}
	if dst != nil {
		if err := json.Unmarshal(env.Request, dst); err != nil {
			writeErr(w, ErrCantParseRequestBody.WithErr(err))
			return common.Address{}, false
		}
	}
	return caller, true
}

// urlAddress parses the named chi URL parameter as an ethereum address.
func urlAddress(w http.ResponseWriter, r *http.Request, param string) (common.Address, bool) {
	raw := chi.URLParam(r, param)
	if !common.IsHexAddress(raw) {
		writeErr(w, ErrAddressMalformed.Withf("%s", raw))
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}

// urlFlightKey parses the {airline}/{number}/{departure} URL parameters.
func urlFlightKey(w http.ResponseWriter, r *http.Request) (types.FlightKey, bool) {
	airline, ok := urlAddress(w, r, "airline")
	if !ok {
		return types.FlightKey{}, false
	}
	number := chi.URLParam(r, "number")
	if number == "" {
		writeErr(w, ErrFlightRefMalformed.Withf("empty flight number"))
		return types.FlightKey{}, false
	}
	departure, err := strconv.ParseInt(chi.URLParam(r, "departure"), 10, 64)
	if err != nil {
		writeErr(w, ErrFlightRefMalformed.WithErr(err))
		return types.FlightKey{}, false
	}
	return types.FlightKey{Airline: airline, Number: number, DepartureTime: departure}, true
}
