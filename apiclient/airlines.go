package apiclient

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/flightsurety/suretynode/api"
	"github.com/flightsurety/suretynode/crypto/ethereum"
	"github.com/flightsurety/suretynode/types"
)

// SetOperational pauses or resumes the remote state machine. The signer
// must be the contract owner.
func (c *HTTPclient) SetOperational(signer *ethereum.SignKeys, operational bool) error {
	return c.post(signer, api.OperationalRequest{Operational: operational}, nil, "operational")
}

// RegisterAirline registers (or votes for) the candidate airline on
// behalf of the signer.
func (c *HTTPclient) RegisterAirline(signer *ethereum.SignKeys,
	candidate common.Address,
) (*api.RegisterAirlineResponse, error) {
	resp := &api.RegisterAirlineResponse{}
	if err := c.post(signer, api.RegisterAirlineRequest{Airline: candidate}, resp, "airlines"); err != nil {
		return nil, err
	}
	return resp, nil
}

// FundAirline deposits amount for the signing airline.
func (c *HTTPclient) FundAirline(signer *ethereum.SignKeys, amount types.Value) (*api.AirlineInfo, error) {
	info := &api.AirlineInfo{}
	if err := c.post(signer, api.FundAirlineRequest{Amount: amount}, info, "airlines", "fund"); err != nil {
		return nil, err
	}
	return info, nil
}

// Airlines lists every airline known to the registry.
func (c *HTTPclient) Airlines() ([]api.AirlineInfo, error) {
	var list []api.AirlineInfo
	if err := c.get(&list, "airlines"); err != nil {
		return nil, err
	}
	return list, nil
}

// Airline fetches a single airline by address.
func (c *HTTPclient) Airline(addr common.Address) (*api.AirlineInfo, error) {
	info := &api.AirlineInfo{}
	if err := c.get(info, "airlines", addr.Hex()); err != nil {
		return nil, err
	}
	return info, nil
}
