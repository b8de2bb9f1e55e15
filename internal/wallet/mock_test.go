package wallet

import (
	"errors"
	"testing"

	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
)

func TestMock_ConnectChecksumsAddress(t *testing.T) {
	w := NewMock(map[string]float64{"usdc": 100})

	got, err := w.Connect("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if got != "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed" {
		t.Errorf("Expected checksummed address, got %s", got)
	}
	if w.Balance("USDC") != 100 {
		t.Errorf("Expected balance 100, got %v", w.Balance("USDC"))
	}
}

func TestMock_RejectsBadAddress(t *testing.T) {
	w := NewMock(nil)
	for _, addr := range []string{"", "hello", "0x123", "0x0000000000000000000000000000000000000000"} {
		if _, err := w.Connect(addr); !errors.Is(err, ErrInvalidAddress) {
			t.Errorf("Connect(%q): expected ErrInvalidAddress, got %v", addr, err)
		}
	}
	if w.State().Connected {
		t.Error("Expected wallet to stay disconnected")
	}
}

func TestMock_DisconnectHidesBalances(t *testing.T) {
	w := NewMock(map[string]float64{"SOL": 2})
	if w.Balance("SOL") != 0 {
		t.Error("Expected no balance before connect")
	}
	if _, err := w.Address(); !errors.Is(err, domain.ErrWalletDisconnected) {
		t.Errorf("Expected ErrWalletDisconnected, got %v", err)
	}

	w.Connect("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	w.SetBalance("sol", 3)
	if w.Balance("SOL") != 3 {
		t.Errorf("Expected 3 SOL, got %v", w.Balance("SOL"))
	}

	w.Disconnect()
	if w.Balance("SOL") != 0 {
		t.Error("Expected no balance after disconnect")
	}
	if s := w.State(); s.Connected || s.Address != "" || s.Balances["SOL"] != 3 {
		t.Errorf("Unexpected state %+v", s)
	}
}
