package flow

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"

	"miden-wallet-lab/internal/miden"
	"miden-wallet-lab/internal/wallet"
)

// fakeWallet is a scripted wallet.Adapter for flow tests.
type fakeWallet struct {
	mu        sync.Mutex
	addr      miden.AccountID
	connected bool
	txSeq     int

	sendErr    error
	consumeErr error
	scriptErr  error

	sends    []wallet.SendTransaction
	consumes []wallet.ConsumeTransaction
	scripts  []wallet.ScriptTransaction
}

func newFakeWallet(addr miden.AccountID) *fakeWallet {
	return &fakeWallet{addr: addr, connected: true}
}

func (w *fakeWallet) Address() miden.AccountID { return w.addr }
func (w *fakeWallet) Connected() bool          { return w.connected }

func (w *fakeWallet) nextTxID() string {
	w.txSeq++
	return fmt.Sprintf("0xwallettx%04d", w.txSeq)
}

func (w *fakeWallet) RequestSend(_ context.Context, tx wallet.SendTransaction) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.sendErr != nil {
		return "", w.sendErr
	}
	w.sends = append(w.sends, tx)
	return w.nextTxID(), nil
}

func (w *fakeWallet) RequestConsume(_ context.Context, tx wallet.ConsumeTransaction) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.consumeErr != nil {
		return "", w.consumeErr
	}
	w.consumes = append(w.consumes, tx)
	return w.nextTxID(), nil
}

func (w *fakeWallet) RequestScript(_ context.Context, tx wallet.ScriptTransaction) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.scriptErr != nil {
		return "", w.scriptErr
	}
	w.scripts = append(w.scripts, tx)
	return w.nextTxID(), nil
}

var _ wallet.Adapter = (*fakeWallet)(nil)

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}
