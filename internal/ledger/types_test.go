package ledger

import (
	"encoding/json"
	"testing"
)

func TestTxState_Classification(t *testing.T) {
	tests := []struct {
		state   TxState
		pending bool
		success bool
	}{
		{TxStateUnspecified, true, false},
		{TxStateMempool, true, false},
		{TxStateMesh, true, false},
		{TxStateProcessed, false, true},
		{TxStateRejected, false, false},
		{TxStateInsufficientFunds, false, false},
		{TxStateConflicting, false, false},
	}
	for _, tt := range tests {
		if got := tt.state.IsPending(); got != tt.pending {
			t.Errorf("%s.IsPending() = %v, want %v", tt.state, got, tt.pending)
		}
		if got := tt.state.IsTerminal(); got == tt.pending {
			t.Errorf("%s.IsTerminal() = %v", tt.state, got)
		}
		if got := tt.state.IsSuccess(); got != tt.success {
			t.Errorf("%s.IsSuccess() = %v, want %v", tt.state, got, tt.success)
		}
	}
}

func TestParseTxState(t *testing.T) {
	for state, name := range txStateNames {
		got, err := ParseTxState(name)
		if err != nil {
			t.Fatalf("ParseTxState(%q) error: %v", name, err)
		}
		if got != state {
			t.Fatalf("ParseTxState(%q) = %v, want %v", name, got, state)
		}
	}
	if _, err := ParseTxState("PROCESSED"); err == nil {
		t.Fatal("expected error for short name")
	}
}

func TestTxState_JSON(t *testing.T) {
	s := TxStateMesh
	data, err := json.Marshal(&s)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if string(data) != `"TRANSACTION_STATE_MESH"` {
		t.Fatalf("Marshal() = %s", data)
	}
	var back TxState
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if back != s {
		t.Fatalf("Unmarshal() = %v", back)
	}
}

func TestDecimal(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{`"123"`, "123", false},
		{`123`, "123", false},
		{`"0"`, "0", false},
		{`null`, "", false},
		{`"-5"`, "", true},
		{`1e3`, "", true},
		{`"12a"`, "", true},
	}
	for _, tt := range tests {
		var d Decimal
		err := json.Unmarshal([]byte(tt.in), &d)
		if (err != nil) != tt.wantErr {
			t.Fatalf("Unmarshal(%s) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if err == nil && string(d) != tt.want {
			t.Fatalf("Unmarshal(%s) = %q, want %q", tt.in, d, tt.want)
		}
	}

	if _, err := Decimal("").Uint64(); err == nil {
		t.Fatal("expected error for missing value")
	}
	if _, err := Decimal("18446744073709551616").Uint64(); err == nil {
		t.Fatal("expected overflow error")
	}
	u, err := Decimal("18446744073709551616").Uint()
	if err != nil {
		t.Fatalf("Uint() error: %v", err)
	}
	if u.String() != "18446744073709551616" {
		t.Fatalf("Uint() = %s", u)
	}
}

func TestZeroState(t *testing.T) {
	s := ZeroState("sm1x")
	if s.Address != "sm1x" || s.Current.Counter != 0 || !s.Current.Balance.IsZero() || !s.Projected.Balance.IsZero() {
		t.Fatalf("ZeroState() = %+v", s)
	}
}
