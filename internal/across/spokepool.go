package across

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const spokePoolABIJSON = `[
 {"type":"function","name":"depositV3","stateMutability":"payable",
  "inputs":[{"name":"depositor","type":"address"},{"name":"recipient","type":"address"},
   {"name":"inputToken","type":"address"},{"name":"outputToken","type":"address"},
   {"name":"inputAmount","type":"uint256"},{"name":"outputAmount","type":"uint256"},
   {"name":"destinationChainId","type":"uint256"},{"name":"exclusiveRelayer","type":"address"},
   {"name":"quoteTimestamp","type":"uint32"},{"name":"fillDeadline","type":"uint32"},
   {"name":"exclusivityDeadline","type":"uint32"},{"name":"message","type":"bytes"}],"outputs":[]}
]`

var spokePoolABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(spokePoolABIJSON))
	if err != nil {
		panic(fmt.Sprintf("parse spoke pool abi: %v", err))
	}
	return parsed
}()

// Deposit is a native-token depositV3 call. The input token is the wrapped
// native token on the origin chain and the caller sends InputAmount as value.
type Deposit struct {
	Depositor          common.Address
	Recipient          common.Address
	InputToken         common.Address
	OutputToken        common.Address
	InputAmount        *big.Int
	OutputAmount       *big.Int
	DestinationChainID uint64
	QuoteTimestamp     uint32
	FillDeadline       uint32
}

// Validate rejects deposits the spoke pool would revert or that would lose funds.
func (d Deposit) Validate() error {
	zero := common.Address{}
	switch {
	case d.Depositor == zero || d.Recipient == zero:
		return fmt.Errorf("deposit: depositor and recipient are required")
	case d.InputToken == zero || d.OutputToken == zero:
		return fmt.Errorf("deposit: input and output tokens are required")
	case d.InputAmount == nil || d.InputAmount.Sign() <= 0:
		return fmt.Errorf("deposit: input amount must be positive")
	case d.OutputAmount == nil || d.OutputAmount.Sign() <= 0:
		return fmt.Errorf("deposit: output amount must be positive")
	case d.OutputAmount.Cmp(d.InputAmount) > 0:
		return fmt.Errorf("deposit: output %s exceeds input %s", d.OutputAmount, d.InputAmount)
	case d.DestinationChainID == 0:
		return fmt.Errorf("deposit: destination chain is required")
	}
	return nil
}

// DepositV3Calldata encodes the deposit with no exclusive relayer and an
// empty message.
func DepositV3Calldata(d Deposit) ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	data, err := spokePoolABI.Pack("depositV3",
		d.Depositor, d.Recipient, d.InputToken, d.OutputToken,
		d.InputAmount, d.OutputAmount, new(big.Int).SetUint64(d.DestinationChainID),
		common.Address{}, d.QuoteTimestamp, d.FillDeadline, uint32(0), []byte{},
	)
	if err != nil {
		return nil, fmt.Errorf("encode depositV3: %w", err)
	}
	return data, nil
}
