package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/flightsurety/suretynode/config"
	"github.com/flightsurety/suretynode/crypto/ethereum"
	"github.com/flightsurety/suretynode/log"
	"github.com/flightsurety/suretynode/service"
)

func main() {
	cfg := config.NewNodeCfg()
	home, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}
	flag.StringVar(&cfg.DataDir, "dataDir", filepath.Join(home, ".suretynode"), "storage data directory")
	flag.StringVar(&cfg.LogLevel, "logLevel", cfg.LogLevel, "log level (debug, info, warn, error, fatal)")
	flag.StringVar(&cfg.LogOutput, "logOutput", cfg.LogOutput, "log output (stdout, stderr or file path)")
	flag.StringVar(&cfg.ListenHost, "listenHost", cfg.ListenHost, "network interface for the HTTP API")
	flag.IntVar(&cfg.ListenPort, "listenPort", cfg.ListenPort, "network port for the HTTP API")
	flag.StringVar(&cfg.OwnerKey, "ownerKey", "", "contract owner private hexadecimal key")
	flag.BoolVar(&cfg.Metrics, "metrics", cfg.Metrics, "enable the prometheus metrics endpoint")
	flag.IntVar(&cfg.Operator.Oracles, "oracles", cfg.Operator.Oracles,
		"number of embedded simulated oracles (0 disables the operator)")
	flag.Uint32Var(&cfg.Operator.Status, "oracleStatus", cfg.Operator.Status,
		"flight status code answered by the embedded oracles (0 for random)")
	flag.DurationVar(&cfg.Operator.PollInterval, "oraclePoll", cfg.Operator.PollInterval,
		"pending-request sweep interval of the embedded operator (0 disables)")
	flag.BoolVar(&cfg.Bootstrap, "bootstrap", false, "seed the demo flight schedule on an empty state")
	flag.BoolVar(&cfg.SaveConfig, "saveConfig", false, "overwrite the config file with the current flags")
	flag.CommandLine.SortFlags = false
	flag.Parse()

	pviper := viper.New()
	pviper.SetConfigName("suretynode")
	pviper.SetConfigType("yml")
	pviper.SetEnvPrefix("SURETYNODE")
	pviper.AutomaticEnv()
	pviper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// dataDir is needed first, to know where the config file lives
	if err := pviper.BindPFlag("dataDir", flag.Lookup("dataDir")); err != nil {
		panic(err)
	}
	cfg.DataDir = pviper.GetString("dataDir")
	pviper.AddConfigPath(cfg.DataDir)
	_ = pviper.ReadInConfig()

	for viperKey, flagName := range map[string]string{
		"logLevel":              "logLevel",
		"logOutput":             "logOutput",
		"listenHost":            "listenHost",
		"listenPort":            "listenPort",
		"ownerKey":              "ownerKey",
		"metrics":               "metrics",
		"operator.oracles":      "oracles",
		"operator.status":       "oracleStatus",
		"operator.pollInterval": "oraclePoll",
		"bootstrap":             "bootstrap",
	} {
		if err := pviper.BindPFlag(viperKey, flag.Lookup(flagName)); err != nil {
			panic(err)
		}
	}
	cfg.LogLevel = pviper.GetString("logLevel")
	cfg.LogOutput = pviper.GetString("logOutput")
	cfg.ListenHost = pviper.GetString("listenHost")
	cfg.ListenPort = pviper.GetInt("listenPort")
	cfg.OwnerKey = pviper.GetString("ownerKey")
	cfg.Metrics = pviper.GetBool("metrics")
	cfg.Operator.Oracles = pviper.GetInt("operator.oracles")
	cfg.Operator.Status = pviper.GetUint32("operator.status")
	cfg.Operator.PollInterval = pviper.GetDuration("operator.pollInterval")
	cfg.Bootstrap = pviper.GetBool("bootstrap")

	// write the initial config file on the first run
	if _, err := os.Stat(filepath.Join(cfg.DataDir, "suretynode.yml")); err != nil {
		if !os.IsNotExist(err) {
			panic(err)
		}
		if err := os.MkdirAll(cfg.DataDir, os.ModePerm); err != nil {
			panic(err)
		}
		if err := pviper.SafeWriteConfig(); err != nil {
			panic(err)
		}
	}

	// generate a new owner key if not provided and save it, so restarts
	// keep the same owner and first airline
	if cfg.OwnerKey == "" {
		fmt.Println("generating new random key for the contract owner")
		ownerKey := ethereum.SignKeys{}
		if err := ownerKey.Generate(); err != nil {
			panic(err)
		}
		cfg.OwnerKey = hex.EncodeToString(ownerKey.PrivateKey())
		pviper.Set("ownerKey", cfg.OwnerKey)
	}
	if cfg.SaveConfig {
		if err := pviper.WriteConfig(); err != nil {
			panic(err)
		}
	}

	log.Init(cfg.LogLevel, cfg.LogOutput)
	log.Infof("starting %s", filepath.Base(os.Args[0]))
	log.Infof("using data directory at %s", cfg.DataDir)

	node, err := service.NewNode(cfg)
	if err != nil {
		log.Fatal(err)
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if err := node.Start(ctx); err != nil {
		log.Fatal(err)
	}

	<-ctx.Done()
	log.Info("shutting down")
	if err := node.Close(); err != nil {
		log.Errorf("error during shutdown: %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	os.Exit(0)
}
