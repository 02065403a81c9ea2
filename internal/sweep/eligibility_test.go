package sweep

import (
	"testing"

	"github.com/spacemeshos/smh-collector/pkg/tx"
)

func TestEligible(t *testing.T) {
	fees := tx.DefaultFees()
	spawnAndSpend := uint64(tx.DefaultSpawnFee + tx.DefaultSpendFee)

	tests := []struct {
		name      string
		counter   uint64
		projected uint64
		balance   uint64
		want      bool
	}{
		{"unspawned at fee sum", 0, 0, spawnAndSpend, false},
		{"unspawned above fee sum", 0, 0, spawnAndSpend + 1, true},
		{"unspawned below spawn fee", 0, 0, tx.DefaultSpawnFee, false},
		{"spawned at spend fee", 1, 1, tx.DefaultSpendFee, false},
		{"spawned above spend fee", 1, 1, tx.DefaultSpendFee + 1, true},
		{"spawned empty", 4, 4, 0, false},
		{"pending transaction", 1, 2, 1 << 40, false},
		{"pending spawn", 0, 1, 1 << 40, false},
		{"unspawned empty", 0, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := state("a", tt.counter, tt.projected, tt.balance)
			if got := Eligible(s, fees); got != tt.want {
				t.Fatalf("Eligible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEligible_CustomFees(t *testing.T) {
	fees := tx.FeeSchedule{Spawn: sdkUint(10), Spend: sdkUint(5)}
	if !Eligible(state("a", 0, 0, 16), fees) {
		t.Fatal("balance 16 should cover 10+5")
	}
	if Eligible(state("a", 0, 0, 15), fees) {
		t.Fatal("balance 15 should not cover 10+5")
	}
	if !Eligible(state("a", 2, 2, 6), fees) {
		t.Fatal("balance 6 should cover 5")
	}
}

func TestNeedsSpawn(t *testing.T) {
	if !NeedsSpawn(state("a", 0, 0, 1)) {
		t.Fatal("counter 0 should need spawn")
	}
	if NeedsSpawn(state("a", 1, 1, 1)) {
		t.Fatal("counter 1 should not need spawn")
	}
}

func TestFilter_KeepsOrder(t *testing.T) {
	accounts := testAccounts(t, 4)
	fees := tx.DefaultFees()
	cands := []Candidate{
		{Account: accounts[0], State: state(accounts[0].Address, 1, 1, 1_000_000)},
		{Account: accounts[1], State: state(accounts[1].Address, 1, 2, 1_000_000)},
		{Account: accounts[2], State: state(accounts[2].Address, 0, 0, 1_000_000)},
		{Account: accounts[3], State: state(accounts[3].Address, 0, 0, 10)},
	}
	got := Filter(cands, fees)
	if len(got) != 2 || got[0].Account != accounts[0] || got[1].Account != accounts[2] {
		t.Fatalf("Filter() kept %d candidates", len(got))
	}
}
