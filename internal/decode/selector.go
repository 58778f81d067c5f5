package decode

import (
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// wellKnownSignatures maps 4-byte selectors (0x-hex) to function signatures
// that are common enough to resolve without an external lookup.
var wellKnownSignatures = map[string]string{
	"0xa9059cbb": "transfer(address,uint256)",
	"0x23b872dd": "transferFrom(address,address,uint256)",
	"0x095ea7b3": "approve(address,uint256)",
	"0x70a08231": "balanceOf(address)",
	"0x18160ddd": "totalSupply()",
	"0xdd62ed3e": "allowance(address,address)",
	"0x40c10f19": "mint(address,uint256)",
	"0x1249c58b": "mint()",
	"0x42966c68": "burn(uint256)",
	"0xd0e30db0": "deposit()",
	"0x2e1a7d4d": "withdraw(uint256)",
	"0xa22cb465": "setApprovalForAll(address,bool)",
	"0x42842e0e": "safeTransferFrom(address,address,uint256)",
	"0xb88d4fde": "safeTransferFrom(address,address,uint256,bytes)",
	"0x38ed1739": "swapExactTokensForTokens(uint256,uint256,address[],address,uint256)",
	"0x7ff36ab5": "swapExactETHForTokens(uint256,address[],address,uint256)",
}

// Selector returns the 0x-hex 4-byte function selector of the calldata.
func Selector(data []byte) (string, bool) {
	if len(data) < 4 {
		return "", false
	}
	return hexutil.Encode(data[:4]), true
}

// KnownSignature resolves a selector against the static table.
func KnownSignature(selector string) (string, bool) {
	sig, ok := wellKnownSignatures[strings.ToLower(selector)]
	return sig, ok
}

// FunctionName extracts the bare function name from a signature string.
func FunctionName(signature string) string {
	idx := strings.Index(signature, "(")
	if idx <= 0 {
		return signature
	}
	return signature[:idx]
}
