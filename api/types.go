package api

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"

	"github.com/flightsurety/suretynode/surety"
	"github.com/flightsurety/suretynode/types"
)

// RequestMessage is the envelope of every state changing request. The
// request field carries the operation body and the signature is the
// ethereum signature of those exact raw bytes. The caller identity is
// the address recovered from the signature, so the envelope needs no
// explicit from field.
type RequestMessage struct {
	Request   json.RawMessage `json:"request"`
	Signature string          `json:"signature"`
}

// FlightRef identifies a flight in request and response bodies.
type FlightRef struct {
	Airline       common.Address `json:"airline"`
	Number        string         `json:"number"`
	DepartureTime int64          `json:"departureTime"`
}

func (f FlightRef) Key() types.FlightKey {
	return types.FlightKey{
		Airline:       f.Airline,
		Number:        f.Number,
		DepartureTime: f.DepartureTime,
	}
}

func flightRef(k types.FlightKey) FlightRef {
	return FlightRef{
		Airline:       k.Airline,
		Number:        k.Number,
		DepartureTime: k.DepartureTime,
	}
}

// Signed request bodies.

type OperationalRequest struct {
	Operational bool `json:"operational"`
}

type RegisterAirlineRequest struct {
	Airline common.Address `json:"airline"`
}

type FundAirlineRequest struct {
	Amount types.Value `json:"amount"`
}

type RegisterFlightRequest struct {
	Number        string `json:"number"`
	DepartureTime int64  `json:"departureTime"`
}

type BuyInsuranceRequest struct {
	Flight FlightRef   `json:"flight"`
	Amount types.Value `json:"amount"`
}

type WithdrawCreditRequest struct {
	Flight FlightRef `json:"flight"`
}

type RegisterOracleRequest struct {
	Fee types.Value `json:"fee"`
}

type FetchStatusRequest struct {
	Flight FlightRef `json:"flight"`
}

type OracleResponseRequest struct {
	Index  uint8              `json:"index"`
	Flight FlightRef          `json:"flight"`
	Status types.FlightStatus `json:"status"`
}

// Response bodies.

type NodeStatus struct {
	Operational     bool           `json:"operational"`
	Owner           common.Address `json:"owner"`
	PoolBalance     types.Value    `json:"poolBalance"`
	TotalDeposits   types.Value    `json:"totalDeposits"`
	TotalPayouts    types.Value    `json:"totalPayouts"`
	Airlines        int            `json:"airlines"`
	Oracles         int            `json:"oracles"`
	Flights         int            `json:"flights"`
	PendingRequests int            `json:"pendingRequests"`
}

type AirlineInfo struct {
	Address    common.Address `json:"address"`
	Registered bool           `json:"registered"`
	Funded     bool           `json:"funded"`
	Funding    types.Value    `json:"funding"`
	Votes      int            `json:"votes"`
}

func airlineInfo(a *surety.Airline) AirlineInfo {
	return AirlineInfo{
		Address:    a.Address,
		Registered: a.Registered,
		Funded:     a.Funded,
		Funding:    a.Funding,
		Votes:      len(a.Votes),
	}
}

type RegisterAirlineResponse struct {
	Registered bool `json:"registered"`
	Votes      int  `json:"votes"`
}

type FlightInfo struct {
	Flight FlightRef          `json:"flight"`
	Status types.FlightStatus `json:"status"`
}

type PolicyInfo struct {
	Passenger common.Address `json:"passenger"`
	Premium   types.Value    `json:"premium"`
	Credit    types.Value    `json:"credit"`
	Withdrawn bool           `json:"withdrawn"`
}

type CreditResponse struct {
	Credit types.Value `json:"credit"`
}

type WithdrawCreditResponse struct {
	Amount types.Value `json:"amount"`
}

type OracleIndexesResponse struct {
	Indexes []uint8 `json:"indexes"`
}

type FetchStatusResponse struct {
	Index  uint8     `json:"index"`
	Flight FlightRef `json:"flight"`
}

type PendingRequestInfo struct {
	Index  uint8     `json:"index"`
	Flight FlightRef `json:"flight"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}
