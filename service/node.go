// Package service assembles the suretynode pieces: storage, state
// machine, metrics, HTTP API and the optional embedded oracle operator.
package service

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/flightsurety/suretynode/api"
	"github.com/flightsurety/suretynode/config"
	"github.com/flightsurety/suretynode/crypto/ethereum"
	"github.com/flightsurety/suretynode/db"
	"github.com/flightsurety/suretynode/db/badgerdb"
	"github.com/flightsurety/suretynode/log"
	"github.com/flightsurety/suretynode/metrics"
	"github.com/flightsurety/suretynode/operator"
	"github.com/flightsurety/suretynode/surety"
	"github.com/flightsurety/suretynode/types"
)

// Node is a fully wired suretynode instance.
type Node struct {
	State    *surety.State
	API      *api.API
	Operator *operator.Operator
	Owner    *ethereum.SignKeys

	cfg   *config.NodeCfg
	store db.Database
	srv   *http.Server
}

// NewNode builds a node from the given config. Start must be called
// next.
func NewNode(cfg *config.NodeCfg) (*Node, error) {
	owner := ethereum.NewSignKeys()
	if cfg.OwnerKey != "" {
		if err := owner.AddHexKey(cfg.OwnerKey); err != nil {
			return nil, fmt.Errorf("cannot import owner key: %w", err)
		}
	} else {
		if err := owner.Generate(); err != nil {
			return nil, err
		}
		_, priv := owner.HexString()
		log.Infof("generated new owner key %s", priv)
	}
	log.Infof("contract owner and first airline is %s", owner.AddressString())

	store, err := badgerdb.New(db.Options{Path: filepath.Join(cfg.DataDir, "state")})
	if err != nil {
		return nil, fmt.Errorf("cannot open state storage: %w", err)
	}
	state, err := surety.NewState(store, owner.Address())
	if err != nil {
		store.Close()
		return nil, err
	}

	n := &Node{
		State: state,
		API:   api.NewAPI(state),
		Owner: owner,
		cfg:   cfg,
		store: store,
	}

	if cfg.Metrics {
		state.AddEventListener(metrics.NewStateMetrics(state))
		metrics.RegisterOn(n.API.Router(), cfg.MetricsPath)
	}

	if cfg.Operator.Oracles > 0 {
		// The embedded operator is fed by state events; PollInterval adds
		// a periodic sweep that picks up requests dropped by a full queue.
		op, err := operator.New(operator.NewStateEngine(state),
			cfg.Operator.Oracles, types.FlightStatus(cfg.Operator.Status),
			cfg.Operator.PollInterval)
		if err != nil {
			store.Close()
			return nil, err
		}
		n.Operator = op
	}
	return n, nil
}

// demo flight schedule seeded by --bootstrap, matching the flights the
// original dapp ships with
var demoFlights = []string{"ND101", "ND102", "ND103", "ND104", "ND105"}

// bootstrapDemo funds the owner airline and registers the demo flights.
// It only acts on a fresh state, so restarts do not duplicate flights.
func (n *Node) bootstrapDemo() error {
	if len(n.State.FlightKeys()) > 0 {
		log.Debug("state already has flights, skipping demo bootstrap")
		return nil
	}
	if !n.State.IsAirlineFunded(n.Owner.Address()) {
		if err := n.State.FundAirline(n.Owner.Address(), surety.MinAirlineFunding); err != nil {
			return err
		}
	}
	departure := time.Now().Add(24 * time.Hour).Truncate(time.Hour).Unix()
	for _, number := range demoFlights {
		if err := n.State.RegisterFlight(n.Owner.Address(), number, departure); err != nil {
			return err
		}
	}
	log.Infof("seeded %d demo flights departing at %d", len(demoFlights), departure)
	return nil
}

// Start bootstraps the embedded operator and serves the API until the
// context is done or Close is called.
func (n *Node) Start(ctx context.Context) error {
	if n.cfg.Bootstrap {
		if err := n.bootstrapDemo(); err != nil {
			return fmt.Errorf("cannot seed demo data: %w", err)
		}
	}
	if n.Operator != nil {
		if err := n.Operator.Bootstrap(); err != nil {
			return fmt.Errorf("cannot bootstrap oracle operator: %w", err)
		}
		n.State.AddEventListener(n.Operator)
		n.Operator.Start(ctx)
	}

	addr := net.JoinHostPort(n.cfg.ListenHost, fmt.Sprintf("%d", n.cfg.ListenPort))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	n.srv = &http.Server{
		Handler:           n.API,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}
	go func() {
		if err := n.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()
	log.Infof("API ready at http://%s", ln.Addr())
	return nil
}

// Close shuts down the HTTP server, the operator and the storage.
func (n *Node) Close() error {
	if n.srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := n.srv.Shutdown(ctx); err != nil {
			log.Warnf("cannot shutdown http server: %v", err)
		}
	}
	if n.Operator != nil {
		n.Operator.Stop()
	}
	return n.store.Close()
}
