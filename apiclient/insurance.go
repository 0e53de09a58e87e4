package apiclient

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/flightsurety/suretynode/api"
	"github.com/flightsurety/suretynode/crypto/ethereum"
	"github.com/flightsurety/suretynode/types"
)

// RegisterFlight registers a flight owned by the signing airline.
func (c *HTTPclient) RegisterFlight(signer *ethereum.SignKeys,
	number string, departureTime int64,
) (*api.FlightInfo, error) {
	info := &api.FlightInfo{}
	req := api.RegisterFlightRequest{Number: number, DepartureTime: departureTime}
	if err := c.post(signer, req, info, "flights"); err != nil {
		return nil, err
	}
	return info, nil
}

// Flights lists every registered flight with its current status.
func (c *HTTPclient) Flights() ([]api.FlightInfo, error) {
	var list []api.FlightInfo
	if err := c.get(&list, "flights"); err != nil {
		return nil, err
	}
	return list, nil
}

// Flight fetches a single flight with its current status.
func (c *HTTPclient) Flight(ref api.FlightRef) (*api.FlightInfo, error) {
	info := &api.FlightInfo{}
	if err := c.get(info, flightPath(ref)...); err != nil {
		return nil, err
	}
	return info, nil
}

// BuyInsurance buys a policy for the signer on the given flight.
func (c *HTTPclient) BuyInsurance(signer *ethereum.SignKeys, ref api.FlightRef, premium types.Value) error {
	return c.post(signer, api.BuyInsuranceRequest{Flight: ref, Amount: premium}, nil, "insurance")
}

// Policies lists the policies bought for the given flight.
func (c *HTTPclient) Policies(ref api.FlightRef) ([]api.PolicyInfo, error) {
	var list []api.PolicyInfo
	if err := c.get(&list, append(flightPath(ref), "policies")...); err != nil {
		return nil, err
	}
	return list, nil
}

// Credit returns the credit owed to passenger for the given flight.
func (c *HTTPclient) Credit(ref api.FlightRef, passenger common.Address) (types.Value, error) {
	resp := &api.CreditResponse{}
	if err := c.get(resp, append(flightPath(ref), "credit", passenger.Hex())...); err != nil {
		return 0, err
	}
	return resp.Credit, nil
}

// WithdrawCredit pays out the signer's credit for the given flight and
// returns the amount transferred.
func (c *HTTPclient) WithdrawCredit(signer *ethereum.SignKeys, ref api.FlightRef) (types.Value, error) {
	resp := &api.WithdrawCreditResponse{}
	if err := c.post(signer, api.WithdrawCreditRequest{Flight: ref}, resp, "insurance", "withdraw"); err != nil {
		return 0, err
	}
	return resp.Amount, nil
}

func flightPath(ref api.FlightRef) []string {
	return []string{"flights", ref.Airline.Hex(), ref.Number, fmt.Sprintf("%d", ref.DepartureTime)}
}
