package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/flightsurety/suretynode/log"
	"github.com/flightsurety/suretynode/operator"
	"github.com/flightsurety/suretynode/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "register a fleet of oracles and answer status requests until interrupted",
	RunE:  runOperator,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().IntVarP(&opCfg.Oracles, "oracles", "n", 20,
		"number of oracle identities to register")
	runCmd.Flags().Uint32VarP(&opCfg.Status, "status", "s", 0,
		"flight status code to answer (0 for random)")
	runCmd.Flags().DurationVarP(&opCfg.PollInterval, "interval", "i", 5*time.Second,
		"polling interval for pending status requests")
}

func runOperator(cmd *cobra.Command, args []string) error {
	op, err := operator.New(client, opCfg.Oracles,
		types.FlightStatus(opCfg.Status), opCfg.PollInterval)
	if err != nil {
		return err
	}
	if err := op.Bootstrap(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	op.Start(ctx)
	log.Infof("operator running with %d oracles, press ctrl-c to stop", op.OraclesCount())
	<-ctx.Done()
	op.Stop()
	return nil
}
