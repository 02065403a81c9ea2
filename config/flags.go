package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Version is the release version.
const Version = "0.1.0"

// ErrExit is returned by Load when a command such as --help or --version
// has been handled and the program should exit successfully.
var ErrExit = errors.New("exit requested")

// Flags holds parsed command-line flags.
type Flags struct {
	// Commands
	Help        bool
	Version     bool
	WriteConfig string

	// Core
	Network     string
	Testnet     bool
	Genesis     string
	Destination string
	Config      string
	NoPrompt    bool

	// RPC
	RPC        string
	RPCTimeout time.Duration

	// Scan
	Accounts uint
	Batch    int
	Parallel int

	// Fees and timing
	FeeSpawn    uint64
	FeeSpend    uint64
	LayerTime   time.Duration
	MaxAttempts int
	WaitSpend   bool

	// Logging
	LogLevel string
	LogFile  string
	LogJSON  bool

	// Remaining args
	Args []string

	// Names of flags given on the command line.
	set map[string]bool
}

// IsSet reports whether the named flag was given explicitly.
func (f *Flags) IsSet(name string) bool {
	return f.set[name]
}

// ParseFlags parses command-line arguments (without the program name).
func ParseFlags(args []string, output io.Writer) (*Flags, error) {
	f := &Flags{set: make(map[string]bool)}
	fs := flag.NewFlagSet("smh-collector", flag.ContinueOnError)
	fs.SetOutput(output)

	// Commands
	fs.BoolVar(&f.Help, "help", false, "Show help message")
	fs.BoolVar(&f.Help, "h", false, "Show help message (shorthand)")
	fs.BoolVar(&f.Version, "version", false, "Show version information")
	fs.BoolVar(&f.Version, "v", false, "Show version (shorthand)")
	fs.StringVar(&f.WriteConfig, "write-config", "", "Write a default config file to the path and exit")

	// Core
	fs.StringVar(&f.Network, "network", "", "Network: mainnet, testnet or standalone")
	fs.BoolVar(&f.Testnet, "testnet", false, "Shorthand for --network=testnet")
	fs.StringVar(&f.Genesis, "genesis", "", "Genesis ID (hex)")
	fs.StringVar(&f.Destination, "destination", "", "Destination address")
	fs.StringVar(&f.Destination, "to", "", "Destination address (shorthand)")
	fs.StringVar(&f.Config, "config", "", "Config file path")
	fs.StringVar(&f.Config, "c", "", "Config file path (shorthand)")
	fs.BoolVar(&f.NoPrompt, "no-prompt", false, "Never prompt; fail when a setting is missing")

	// RPC
	fs.StringVar(&f.RPC, "rpc", "", "JSON API URL")
	fs.DurationVar(&f.RPCTimeout, "rpc-timeout", 0, "Timeout per API request")

	// Scan
	fs.UintVar(&f.Accounts, "accounts", 0, "Number of accounts to check")
	fs.UintVar(&f.Accounts, "n", 0, "Number of accounts to check (shorthand)")
	fs.IntVar(&f.Batch, "batch", 0, "Addresses per balance request")
	fs.IntVar(&f.Parallel, "parallel", 0, "Concurrent balance requests (0 = unlimited)")

	// Fees and timing
	fs.Uint64Var(&f.FeeSpawn, "fee-spawn", 0, "Spawn transaction fee in Smidge")
	fs.Uint64Var(&f.FeeSpend, "fee-spend", 0, "Spend transaction fee in Smidge")
	fs.DurationVar(&f.LayerTime, "layer-time", 0, "Layer duration")
	fs.IntVar(&f.MaxAttempts, "max-polls", 0, "Status polls per transaction (0 = until final)")
	fs.BoolVar(&f.WaitSpend, "wait-spend", false, "Wait for spend transactions to be processed")

	// Logging
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file path")
	fs.BoolVar(&f.LogJSON, "log-json", false, "Output logs as JSON")

	fs.Usage = func() {
		printUsage(output)
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, ErrExit
		}
		return nil, err
	}

	fs.Visit(func(fl *flag.Flag) {
		f.set[fl.Name] = true
	})
	// Shorthands count as their long form.
	aliases := map[string]string{"to": "destination", "n": "accounts", "c": "config", "h": "help", "v": "version"}
	for short, long := range aliases {
		if f.set[short] {
			f.set[long] = true
		}
	}
	if f.Testnet {
		f.Network = string(Testnet)
		f.set["network"] = true
	}

	f.Args = fs.Args()
	if len(f.Args) > 0 {
		return nil, fmt.Errorf("unexpected argument %q", f.Args[0])
	}
	return f, nil
}

// ApplyFlags applies command-line flags to a Config struct.
func ApplyFlags(cfg *Config, f *Flags) error {
	values := make(map[string]string)

	// Core
	if f.IsSet("network") {
		values["network"] = f.Network
	}
	if f.IsSet("genesis") {
		values["genesis"] = f.Genesis
	}
	if f.IsSet("destination") {
		values["destination"] = f.Destination
	}

	// RPC
	if f.IsSet("rpc") {
		values["rpc.url"] = f.RPC
	}
	if f.IsSet("rpc-timeout") {
		values["rpc.timeout"] = f.RPCTimeout.String()
	}

	// Scan
	if f.IsSet("accounts") {
		values["scan.accounts"] = strconv.FormatUint(uint64(f.Accounts), 10)
	}
	if f.IsSet("batch") {
		values["scan.batch"] = strconv.Itoa(f.Batch)
	}
	if f.IsSet("parallel") {
		values["scan.parallel"] = strconv.Itoa(f.Parallel)
	}

	// Fees and timing
	if f.IsSet("fee-spawn") {
		values["fee.spawn"] = strconv.FormatUint(f.FeeSpawn, 10)
	}
	if f.IsSet("fee-spend") {
		values["fee.spend"] = strconv.FormatUint(f.FeeSpend, 10)
	}
	if f.IsSet("layer-time") {
		values["layer.time"] = f.LayerTime.String()
	}
	if f.IsSet("max-polls") {
		values["poll.max_attempts"] = strconv.Itoa(f.MaxAttempts)
	}
	if f.IsSet("wait-spend") {
		values["sweep.wait_spend"] = strconv.FormatBool(f.WaitSpend)
	}

	// Logging
	if f.IsSet("log-level") {
		values["log.level"] = f.LogLevel
	}
	if f.IsSet("log-file") {
		values["log.file"] = f.LogFile
	}
	if f.IsSet("log-json") {
		values["log.json"] = strconv.FormatBool(f.LogJSON)
	}

	return ApplyFileConfig(cfg, values)
}

func printUsage(w io.Writer) {
	usage := `smh-collector - sweep every funded account of a seed phrase into one address

Usage:
  smh-collector [options]
  smh-collector --help

The seed phrase is always read from the terminal (hidden) or from stdin.
Any other setting not given below is asked for interactively.

Commands:
  --help, -h          Show this help message
  --version, -v       Show version information
  --write-config      Write a default config file to the given path

Core Options:
  --network           Network: mainnet, testnet or standalone
  --testnet           Shorthand for --network=testnet
  --genesis           Genesis ID in hex (default: network's well-known ID)
  --destination, --to Address that receives the funds
  --config, -c        Config file path (default: ` + DefaultConfigFile() + `)
  --no-prompt         Fail instead of prompting for missing settings

API Options:
  --rpc               JSON API URL (default: network's public API)
  --rpc-timeout       Timeout per API request (default: 10s)

Scan Options:
  --accounts, -n      Number of accounts to check (default: 100)
  --batch             Addresses per balance request (default: 2, max 100)
  --parallel          Concurrent balance requests (default: 0 = unlimited)

Transaction Options:
  --fee-spawn         Spawn fee in Smidge (default: 100432)
  --fee-spend         Spend fee in Smidge (default: 36218)
  --layer-time        Layer duration (default: 6s)
  --max-polls         Status polls per transaction (default: 0 = until final)
  --wait-spend        Wait for spend transactions to be processed

Logging Options:
  --log-level         Log level: debug, info, warn, error (default: info)
  --log-file          Log file path (default: stdout)
  --log-json          Output logs as JSON

Environment:
  ` + strings.Join(EnvUsage(), "\n  ") + `

Exit codes:
  0  success or cancelled
  1  spawn transaction could not be published
  2  spend transaction could not be published
  3  a transaction finished in a failed state
  4  any other error

Examples:
  # Interactive sweep on mainnet
  smh-collector

  # Sweep 20 testnet accounts without prompts (seed phrase on stdin)
  smh-collector --testnet -n 20 --to stest1... --no-prompt < phrase.txt
`
	fmt.Fprint(w, usage)
}

// Load builds the configuration from args with the following precedence:
// 1. Default values
// 2. Config file
// 3. SMH_* environment variables
// 4. Command-line flags
func Load(args []string, output io.Writer) (*Config, *Flags, error) {
	flags, err := ParseFlags(args, output)
	if err != nil {
		return nil, nil, err
	}

	if flags.Help {
		printUsage(output)
		return nil, flags, ErrExit
	}
	if flags.Version {
		fmt.Fprintf(output, "smh-collector version %s\n", Version)
		return nil, flags, ErrExit
	}
	if flags.WriteConfig != "" {
		if err := WriteDefaultConfig(flags.WriteConfig); err != nil {
			return nil, flags, fmt.Errorf("writing config file: %w", err)
		}
		fmt.Fprintf(output, "Wrote %s\n", flags.WriteConfig)
		return nil, flags, ErrExit
	}

	cfg := Default()

	configPath := flags.Config
	if configPath == "" {
		configPath = DefaultConfigFile()
	} else if _, err := os.Stat(configPath); err != nil {
		return nil, flags, fmt.Errorf("config file: %w", err)
	}

	fileValues, err := LoadFile(configPath)
	if err != nil {
		return nil, flags, fmt.Errorf("loading config file: %w", err)
	}
	if err := ApplyFileConfig(cfg, fileValues); err != nil {
		return nil, flags, fmt.Errorf("applying config file: %w", err)
	}

	envValues, err := LoadEnv()
	if err != nil {
		return nil, flags, err
	}
	if err := ApplyFileConfig(cfg, envValues); err != nil {
		return nil, flags, fmt.Errorf("applying environment: %w", err)
	}

	if err := ApplyFlags(cfg, flags); err != nil {
		return nil, flags, fmt.Errorf("applying flags: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, flags, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, flags, nil
}
