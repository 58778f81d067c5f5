package decode

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ContractAddress derives the address a contract creation deploys to. The
// derivation is the standard keccak over RLP(creator, nonce) and must stay
// byte-identical to it.
func ContractAddress(creator common.Address, nonce uint64) common.Address {
	return crypto.CreateAddress(creator, nonce)
}

// InitCodeHash returns the keccak hash of the creation calldata.
func InitCodeHash(initCode []byte) string {
	return crypto.Keccak256Hash(initCode).Hex()
}
