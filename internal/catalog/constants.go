// Package catalog holds the fixed chain identifiers and the marketplace
// asset list shared by the demo apps.
package catalog

// DefaultNodeEndpoint is the Miden testnet RPC endpoint.
const DefaultNodeEndpoint = "https://rpc.testnet.miden.io:443"

// Fixed faucet and contract identifiers (testnet).
const (
	// MidenFaucetID is the MIDEN token faucet.
	MidenFaucetID = "mtst1ap2t7nsjausqsgrswk9syfzkcu328yna"
	// HLTFaucetID is the HLT token faucet.
	HLTFaucetID = "mm1arajukt424pyvgrcgg6wxnycwvezgzey"
	// CounterContractAddress is the shared counter demo contract.
	CounterContractAddress = "mtst1arjemrxne8lj5qz4mg9c8mtyxg954483"
)

// TokenDecimals is the base-unit scale for both MIDEN and HLT.
const TokenDecimals uint8 = 8

// MinSupportAmount is the smallest accepted support payment, in whole HLT.
const MinSupportAmount uint64 = 10

// CounterContractCode is the MASM source of the counter contract.
const CounterContractCode = `
  use.miden::active_account
  use.miden::native_account
  use.std::sys

  const.COUNTER_SLOT=0

  export.get_count
      push.COUNTER_SLOT
      exec.active_account::get_item
      movdn.4 dropw
  end

  export.increment_count
      push.COUNTER_SLOT
      exec.active_account::get_item
      add.1
      push.COUNTER_SLOT
      exec.native_account::set_item
      dropw
  end
`
