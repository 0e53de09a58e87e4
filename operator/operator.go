// Package operator runs a fleet of simulated flight status oracles. It
// registers a configurable number of oracle identities, watches for
// open status requests and answers each one with every controlled
// oracle that holds the request index. The answered status is either a
// fixed code or drawn at random, which is enough to drive the insurance
// payout flow end to end.
package operator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/flightsurety/suretynode/api"
	"github.com/flightsurety/suretynode/apiclient"
	"github.com/flightsurety/suretynode/crypto/ethereum"
	"github.com/flightsurety/suretynode/log"
	"github.com/flightsurety/suretynode/surety"
	"github.com/flightsurety/suretynode/types"
	"github.com/flightsurety/suretynode/util"
)

const requestQueueSize = 1024

// Engine is the surface the operator needs from the surety node. It is
// implemented by apiclient.HTTPclient for remote nodes and by
// StateEngine for an embedded state machine.
type Engine interface {
	RegisterOracle(signer *ethereum.SignKeys, fee types.Value) ([]uint8, error)
	SubmitOracleResponse(signer *ethereum.SignKeys, index uint8,
		ref api.FlightRef, status types.FlightStatus) error
	PendingRequests() ([]api.PendingRequestInfo, error)
}

type oracleIdentity struct {
	keys    *ethereum.SignKeys
	indexes []uint8
}

func (o *oracleIdentity) hasIndex(idx uint8) bool {
	for _, i := range o.indexes {
		if i == idx {
			return true
		}
	}
	return false
}

// Operator drives a set of oracle identities against an Engine.
type Operator struct {
	engine  Engine
	oracles []*oracleIdentity

	// status answered to every request; FlightStatusUnknown means a
	// random terminal status per response
	status types.FlightStatus

	// polling period for PendingRequests; zero disables polling, which
	// is the mode used when the operator is wired as a state event
	// listener
	pollInterval time.Duration

	queue  chan api.PendingRequestInfo
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an operator with numOracles freshly generated identities.
// Bootstrap must be called before Start.
func New(engine Engine, numOracles int, status types.FlightStatus, pollInterval time.Duration) (*Operator, error) {
	if status != types.FlightStatusUnknown && !status.Terminal() {
		return nil, errors.New("status must be a terminal flight status code or unknown for random")
	}
	op := &Operator{
		engine:       engine,
		status:       status,
		pollInterval: pollInterval,
		queue:        make(chan api.PendingRequestInfo, requestQueueSize),
	}
	for i := 0; i < numOracles; i++ {
		keys := ethereum.NewSignKeys()
		if err := keys.Generate(); err != nil {
			return nil, err
		}
		op.oracles = append(op.oracles, &oracleIdentity{keys: keys})
	}
	return op, nil
}

// Bootstrap registers every controlled oracle, paying the registration
// fee, and stores the assigned indexes.
func (op *Operator) Bootstrap() error {
	for _, oracle := range op.oracles {
		indexes, err := op.engine.RegisterOracle(oracle.keys, surety.OracleRegistrationFee)
		if err != nil {
			return err
		}
		oracle.indexes = indexes
		log.Debugw("oracle registered", "address", oracle.keys.AddressString(), "indexes", indexes)
	}
	log.Infof("oracle operator ready with %d oracles", len(op.oracles))
	return nil
}

// OraclesCount returns the number of controlled oracle identities.
func (op *Operator) OraclesCount() int { return len(op.oracles) }

// Start launches the background workers. Stop (or the context) ends
// them.
func (op *Operator) Start(ctx context.Context) {
	ctx, op.cancel = context.WithCancel(ctx)
	op.wg.Add(1)
	go op.worker(ctx)
	if op.pollInterval > 0 {
		op.wg.Add(1)
		go op.poller(ctx)
	}
}

// Stop terminates the background workers and waits for them.
func (op *Operator) Stop() {
	if op.cancel != nil {
		op.cancel()
	}
	op.wg.Wait()
}

func (op *Operator) worker(ctx context.Context) {
	defer op.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-op.queue:
			op.handle(req)
		}
	}
}

func (op *Operator) poller(ctx context.Context) {
	defer op.wg.Done()
	ticker := time.NewTicker(op.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pending, err := op.engine.PendingRequests()
			if err != nil {
				log.Warnf("cannot poll pending requests: %v", err)
				continue
			}
			for _, req := range pending {
				op.enqueue(req)
			}
		}
	}
}

func (op *Operator) enqueue(req api.PendingRequestInfo) {
	select {
	case op.queue <- req:
	default:
		log.Warnw("request queue full, dropping", "index", req.Index, "flight", req.Flight.Key().String())
	}
}

// handle answers one status request with every oracle holding its
// index. Responses rejected because the request closed meanwhile, or
// because this oracle already answered, are expected and ignored.
func (op *Operator) handle(req api.PendingRequestInfo) {
	for _, oracle := range op.oracles {
		if !oracle.hasIndex(req.Index) {
			continue
		}
		status := op.responseStatus()
		err := op.engine.SubmitOracleResponse(oracle.keys, req.Index, req.Flight, status)
		switch {
		case err == nil:
			log.Debugw("oracle response submitted",
				"oracle", oracle.keys.AddressString(),
				"flight", req.Flight.Key().String(),
				"status", status.String())
		case benign(err):
			if kindOf(err) == "requestClosed" {
				return
			}
		default:
			log.Warnf("oracle response failed: %v", err)
		}
	}
}

func (op *Operator) responseStatus() types.FlightStatus {
	if op.status != types.FlightStatusUnknown {
		return op.status
	}
	codes := []types.FlightStatus{
		types.FlightStatusOnTime,
		types.FlightStatusLateAirline,
		types.FlightStatusLateWeather,
		types.FlightStatusLateTechnical,
		types.FlightStatusLateOther,
	}
	return codes[util.RandomInt(0, len(codes))]
}

// expected rejections while many oracles race to answer one request
var benignSentinels = []error{
	surety.ErrInvalidOracleIndex,
	surety.ErrNoMatchingRequest,
	surety.ErrRequestClosed,
	surety.ErrDuplicateVote,
}

func kindOf(err error) string {
	if kind := apiclient.ErrorKind(err); kind != "" {
		return kind
	}
	return surety.Kind(err)
}

func benign(err error) bool {
	switch apiclient.ErrorKind(err) {
	case "invalidOracleIndex", "noMatchingRequest", "requestClosed", "duplicateVote":
		return true
	}
	for _, sentinel := range benignSentinels {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
