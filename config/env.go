package config

import (
	"fmt"
	"reflect"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "SMH"

// envOverrides mirrors the config keys as SMH_* variables. Values are
// kept as strings and applied through the same parser as the config
// file, so an unset variable leaves the setting alone.
type envOverrides struct {
	Network     string `envconfig:"NETWORK" conf:"network"`
	Genesis     string `envconfig:"GENESIS" conf:"genesis"`
	Destination string `envconfig:"DESTINATION" conf:"destination"`

	RPCURL     string `envconfig:"RPC_URL" conf:"rpc.url"`
	RPCTimeout string `envconfig:"RPC_TIMEOUT" conf:"rpc.timeout"`

	Accounts string `envconfig:"SCAN_ACCOUNTS" conf:"scan.accounts"`
	Batch    string `envconfig:"SCAN_BATCH" conf:"scan.batch"`
	Parallel string `envconfig:"SCAN_PARALLEL" conf:"scan.parallel"`

	FeeSpawn string `envconfig:"FEE_SPAWN" conf:"fee.spawn"`
	FeeSpend string `envconfig:"FEE_SPEND" conf:"fee.spend"`

	LayerTime   string `envconfig:"LAYER_TIME" conf:"layer.time"`
	MaxAttempts string `envconfig:"POLL_MAX_ATTEMPTS" conf:"poll.max_attempts"`
	WaitSpend   string `envconfig:"SWEEP_WAIT_SPEND" conf:"sweep.wait_spend"`

	LogLevel string `envconfig:"LOG_LEVEL" conf:"log.level"`
	LogFile  string `envconfig:"LOG_FILE" conf:"log.file"`
	LogJSON  string `envconfig:"LOG_JSON" conf:"log.json"`
}

// LoadEnv reads SMH_* environment variables into config key/values.
func LoadEnv() (map[string]string, error) {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	values := make(map[string]string)
	v := reflect.ValueOf(env)
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if s := v.Field(i).String(); s != "" {
			values[t.Field(i).Tag.Get("conf")] = s
		}
	}
	return values, nil
}

// EnvUsage returns the list of recognised environment variables.
func EnvUsage() []string {
	t := reflect.TypeOf(envOverrides{})
	out := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		out = append(out, EnvPrefix+"_"+t.Field(i).Tag.Get("envconfig"))
	}
	return out
}
