package cdp

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// StubService is an in-memory Service for tests and local development.
// Accounts get deterministic addresses derived from their names.
type StubService struct {
	mu     sync.Mutex
	byName map[string]*Account
	byAddr map[string]*Account
}

// NewStubService creates an empty stub.
func NewStubService() *StubService {
	return &StubService{
		byName: make(map[string]*Account),
		byAddr: make(map[string]*Account),
	}
}

// Compile-time interface check.
var _ Service = (*StubService)(nil)

func (s *StubService) GetOrCreateAccount(_ context.Context, name string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if acct, ok := s.byName[name]; ok {
		cp := *acct
		return &cp, nil
	}

	sum := sha256.Sum256([]byte(name))
	acct := &Account{Name: name, EVMAddress: "0x" + hex.EncodeToString(sum[:20])}
	s.byName[name] = acct
	s.byAddr[acct.EVMAddress] = acct

	cp := *acct
	return &cp, nil
}

func (s *StubService) GetAccountByName(_ context.Context, name string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.byName[name]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *acct
	return &cp, nil
}

func (s *StubService) GetAccountByAddress(_ context.Context, address string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.byAddr[address]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *acct
	return &cp, nil
}

func (s *StubService) SignMessage(_ context.Context, address, message string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byAddr[address]; !ok {
		return "", ErrNotFound
	}
	sum := sha256.Sum256([]byte(address + "|" + message))
	return "0x" + hex.EncodeToString(sum[:]), nil
}
