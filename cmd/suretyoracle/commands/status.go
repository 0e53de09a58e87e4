package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flightsurety/suretynode/api"
	"github.com/flightsurety/suretynode/crypto/ethereum"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "print the node status",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := client.Status()
		if err != nil {
			return err
		}
		return printJSON(status)
	},
}

var requestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "list the open flight status requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		pending, err := client.PendingRequests()
		if err != nil {
			return err
		}
		return printJSON(pending)
	},
}

var fetchOpt struct {
	airline   string
	number    string
	departure int64
}

// fetchCmd opens a status request, the way a passenger dapp would. The
// request is signed with a throwaway key since any identity may ask.
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "open a status request for a flight",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !ethcommon.IsHexAddress(fetchOpt.airline) {
			return fmt.Errorf("invalid airline address %q", fetchOpt.airline)
		}
		signer := ethereum.NewSignKeys()
		if err := signer.Generate(); err != nil {
			return err
		}
		resp, err := client.FetchFlightStatus(signer, api.FlightRef{
			Airline:       ethcommon.HexToAddress(fetchOpt.airline),
			Number:        fetchOpt.number,
			DepartureTime: fetchOpt.departure,
		})
		if err != nil {
			return err
		}
		return printJSON(resp)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(requestsCmd)
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().StringVar(&fetchOpt.airline, "airline", "", "airline address of the flight")
	fetchCmd.Flags().StringVar(&fetchOpt.number, "number", "", "flight number")
	fetchCmd.Flags().Int64Var(&fetchOpt.departure, "departure", 0, "departure unix timestamp")
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
