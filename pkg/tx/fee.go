package tx

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// Default network fees in Smidge, at DefaultGasPrice.
const (
	DefaultSpawnFee = 100432
	DefaultSpendFee = 36218
)

// FeeSchedule holds the fixed per-transaction fees for a run.
type FeeSchedule struct {
	Spawn sdkmath.Uint
	Spend sdkmath.Uint
}

// DefaultFees returns the network's reference fee schedule.
func DefaultFees() FeeSchedule {
	return FeeSchedule{
		Spawn: sdkmath.NewUint(DefaultSpawnFee),
		Spend: sdkmath.NewUint(DefaultSpendFee),
	}
}

// IsUnset reports whether the schedule is the zero value.
func (f FeeSchedule) IsUnset() bool {
	return f == (FeeSchedule{})
}

// SweepCost returns the total fees paid to sweep an account, including the
// spawn fee when the account still has to be activated.
func (f FeeSchedule) SweepCost(needsSpawn bool) sdkmath.Uint {
	if needsSpawn {
		return f.Spawn.Add(f.Spend)
	}
	return f.Spend
}

// SendableAmount returns balance minus the spend fee, and minus the spawn
// fee when the account was spawned in this run. Balances that do not
// exceed the fees are rejected rather than underflowing.
func (f FeeSchedule) SendableAmount(balance sdkmath.Uint, justSpawned bool) (sdkmath.Uint, error) {
	cost := f.SweepCost(justSpawned)
	if balance.LTE(cost) {
		return sdkmath.ZeroUint(), fmt.Errorf("balance %s does not cover fees %s", balance, cost)
	}
	return balance.Sub(cost), nil
}

// AmountUint64 narrows an amount to the wire width of a spend amount.
func AmountUint64(amount sdkmath.Uint) (uint64, error) {
	if !amount.BigInt().IsUint64() {
		return 0, fmt.Errorf("amount %s exceeds uint64", amount)
	}
	return amount.Uint64(), nil
}
