package apiclient

import (
	"github.com/flightsurety/suretynode/api"
	"github.com/flightsurety/suretynode/crypto/ethereum"
	"github.com/flightsurety/suretynode/types"
)

// RegisterOracle registers the signer as an oracle, paying fee, and
// returns its assigned indexes.
func (c *HTTPclient) RegisterOracle(signer *ethereum.SignKeys, fee types.Value) ([]uint8, error) {
	resp := &api.OracleIndexesResponse{}
	if err := c.post(signer, api.RegisterOracleRequest{Fee: fee}, resp, "oracles"); err != nil {
		return nil, err
	}
	return resp.Indexes, nil
}

// OracleIndexes fetches the indexes assigned to the signing oracle.
func (c *HTTPclient) OracleIndexes(signer *ethereum.SignKeys) ([]uint8, error) {
	resp := &api.OracleIndexesResponse{}
	if err := c.post(signer, struct{}{}, resp, "oracles", "indexes"); err != nil {
		return nil, err
	}
	return resp.Indexes, nil
}

// FetchFlightStatus opens a status request for the given flight and
// returns the index drawn for it.
func (c *HTTPclient) FetchFlightStatus(signer *ethereum.SignKeys, ref api.FlightRef) (*api.FetchStatusResponse, error) {
	resp := &api.FetchStatusResponse{}
	if err := c.post(signer, api.FetchStatusRequest{Flight: ref}, resp, "requests"); err != nil {
		return nil, err
	}
	return resp, nil
}

// PendingRequests lists the currently open status requests.
func (c *HTTPclient) PendingRequests() ([]api.PendingRequestInfo, error) {
	var list []api.PendingRequestInfo
	if err := c.get(&list, "requests"); err != nil {
		return nil, err
	}
	return list, nil
}

// SubmitOracleResponse submits the signer's status response for an open
// request.
func (c *HTTPclient) SubmitOracleResponse(signer *ethereum.SignKeys,
	index uint8, ref api.FlightRef, status types.FlightStatus,
) error {
	req := api.OracleResponseRequest{Index: index, Flight: ref, Status: status}
	return c.post(signer, req, nil, "oracles", "response")
}
