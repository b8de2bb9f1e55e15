// Package wallet provides a local stand-in for a browser wallet. It only
// tracks an address and balances; nothing is ever signed or submitted.
package wallet

import (
	"errors"
	"fmt"
	"maps"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
)

// ErrInvalidAddress is returned when Connect is given a malformed address.
var ErrInvalidAddress = errors.New("invalid wallet address")

// State is a point-in-time view of the wallet.
type State struct {
	Connected bool               `json:"connected"`
	Address   string             `json:"address,omitempty"`
	Balances  map[string]float64 `json:"balances"`
}

// Mock is an in-memory wallet.
type Mock struct {
	mu        sync.RWMutex
	address   common.Address
	connected bool
	balances  map[string]float64
}

// NewMock creates a disconnected wallet holding balances.
func NewMock(balances map[string]float64) *Mock {
	b := make(map[string]float64, len(balances))
	for sym, v := range balances {
		b[strings.ToUpper(sym)] = v
	}
	return &Mock{balances: b}
}

// Connect attaches the wallet to a hex address. The stored address is
// EIP-55 checksummed.
func (m *Mock) Connect(address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("wallet: connect %q: %w", address, ErrInvalidAddress)
	}
	addr := common.HexToAddress(address)
	if addr == (common.Address{}) {
		return "", fmt.Errorf("wallet: connect zero address: %w", ErrInvalidAddress)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.address = addr
	m.connected = true
	return addr.Hex(), nil
}

// Disconnect detaches the wallet. Balances are kept.
func (m *Mock) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.address = common.Address{}
	m.connected = false
}

// Balance returns the balance for symbol. A disconnected wallet has none.
func (m *Mock) Balance(symbol string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.connected {
		return 0
	}
	return m.balances[strings.ToUpper(symbol)]
}

// SetBalance overrides one balance.
func (m *Mock) SetBalance(symbol string, v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[strings.ToUpper(symbol)] = v
}

// Address returns the checksummed address of a connected wallet.
func (m *Mock) Address() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.connected {
		return "", domain.ErrWalletDisconnected
	}
	return m.address.Hex(), nil
}

// State returns a snapshot of the wallet.
func (m *Mock) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := State{Connected: m.connected, Balances: maps.Clone(m.balances)}
	if m.connected {
		s.Address = m.address.Hex()
	}
	return s
}
