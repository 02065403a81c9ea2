package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// LoadFile loads configuration from a .conf file.
// Format: key = value (one per line, # for comments). A missing file
// yields no values.
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		values[key] = value
	}

	return values, scanner.Err()
}

// ApplyFileConfig applies key/value settings to a Config struct.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

// setConfigValue sets a config value by key.
func setConfigValue(cfg *Config, key, value string) error {
	switch key {
	// Core
	case "network":
		if value == "" {
			cfg.Network = ""
			return nil
		}
		n, err := ParseNetwork(value)
		if err != nil {
			return err
		}
		cfg.Network = n
	case "genesis":
		cfg.Genesis = value
	case "destination":
		cfg.Destination = value

	// RPC
	case "rpc.url", "rpc":
		cfg.RPC.URL = value
	case "rpc.timeout":
		d, err := parseDuration(value)
		if err != nil {
			return err
		}
		cfg.RPC.Timeout = d

	// Scan
	case "scan.accounts", "accounts":
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return err
		}
		cfg.Scan.Accounts = uint32(n)
	case "scan.batch":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Scan.Batch = n
	case "scan.parallel":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Scan.Parallel = n

	// Fees
	case "fee.spawn":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		cfg.Fees.Spawn = n
	case "fee.spend":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		cfg.Fees.Spend = n

	// Timing
	case "layer.time":
		d, err := parseDuration(value)
		if err != nil {
			return err
		}
		cfg.LayerTime = d
	case "poll.max_attempts":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Poll.MaxAttempts = n

	// Sweep
	case "sweep.wait_spend":
		cfg.Sweep.WaitSpend = parseBool(value)

	// Logging
	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)

	case "mnemonic":
		return fmt.Errorf("the seed phrase cannot be stored in configuration")

	default:
		// Unknown keys are ignored
	}
	return nil
}

// parseBool parses a boolean value.
func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// parseDuration accepts Go durations ("6s", "500ms") or whole seconds.
func parseDuration(s string) (time.Duration, error) {
	if n, err := strconv.ParseUint(s, 10, 32); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

// WriteDefaultConfig writes a commented default configuration file.
func WriteDefaultConfig(path string) error {
	d := Default()
	content := `# smh-collector configuration
#
# Every setting can also be given as an SMH_* environment variable
# (e.g. SMH_RPC_URL) or a command-line flag. Settings left empty are
# asked for interactively. The seed phrase is never read from here.

# Network: mainnet, testnet or standalone
# network = mainnet

# Genesis ID (hex). Defaults to the network's well-known ID.
# genesis =

# Address that receives the swept funds
# destination =

# ============================================================================
# Ledger API
# ============================================================================

# rpc.url = ` + MainnetRPCURL + `
rpc.timeout = ` + d.RPC.Timeout.String() + `

# ============================================================================
# Account scan
# ============================================================================

# Number of derived accounts to check
# scan.accounts = ` + strconv.Itoa(DefaultAccounts) + `

# Addresses per balance request (1-100)
scan.batch = ` + strconv.Itoa(d.Scan.Batch) + `

# Concurrent balance requests (0 = unlimited)
scan.parallel = ` + strconv.Itoa(d.Scan.Parallel) + `

# ============================================================================
# Fees (Smidge) and timing
# ============================================================================

fee.spawn = ` + strconv.FormatUint(d.Fees.Spawn, 10) + `
fee.spend = ` + strconv.FormatUint(d.Fees.Spend, 10) + `
layer.time = ` + d.LayerTime.String() + `

# Status polls per transaction before giving up (0 = until final)
poll.max_attempts = 0

# Also wait for spend transactions to be processed
sweep.wait_spend = false

# ============================================================================
# Logging
# ============================================================================

log.level = ` + d.Log.Level + `
# log.file =
log.json = false
`
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	return os.WriteFile(path, []byte(content), 0644)
}
