package config

import "time"

// NodeCfg stores the global configs for a suretynode
type NodeCfg struct {
	// DataDir is the storage location for the state database
	DataDir string
	// LogLevel is one of debug, info, warn, error or fatal
	LogLevel string
	// LogOutput is stdout, stderr or a file path
	LogOutput string
	// ListenHost is the network interface the API binds to
	ListenHost string
	// ListenPort is the TCP port the API binds to
	ListenPort int
	// OwnerKey is the hex private key of the contract owner and first
	// airline. A new key is generated (and logged) when empty
	OwnerKey string
	// Metrics enables the prometheus endpoint at MetricsPath
	Metrics     bool
	MetricsPath string
	// Bootstrap seeds the demo flight schedule on an empty state
	Bootstrap bool
	// Operator configures the embedded oracle operator
	Operator OperatorCfg
	// SaveConfig overwrites the config file with the current flags
	SaveConfig bool
}

// OperatorCfg stores the configs for the oracle operator, either
// embedded in the node or running standalone against a remote node
type OperatorCfg struct {
	// Oracles is the number of simulated oracle identities; zero
	// disables the operator
	Oracles int
	// Status is the flight status code answered to every request;
	// zero means a random terminal code per response
	Status uint32
	// PollInterval is how often the operator sweeps for pending
	// requests; for the embedded operator zero means event-driven only
	PollInterval time.Duration
	// URL of the remote node API, for the standalone operator
	URL string
}

// NewNodeCfg returns a NodeCfg with the default values
func NewNodeCfg() *NodeCfg {
	return &NodeCfg{
		DataDir:     "",
		LogLevel:    "info",
		LogOutput:   "stdout",
		ListenHost:  "0.0.0.0",
		ListenPort:  9095,
		Metrics:     true,
		MetricsPath: "/metrics",
		Operator: OperatorCfg{
			Oracles:      20,
			Status:       0,
			PollInterval: 5 * time.Second,
		},
	}
}
