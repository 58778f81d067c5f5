package tokenmeta

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"evmscope/internal/chain"
	"evmscope/internal/model"
)

// Fetcher resolves token metadata by contract address. Implementations are
// best-effort collaborators; a nil result with an error just leaves the
// token's optional fields null.
type Fetcher interface {
	Fetch(ctx context.Context, address string) (*model.TokenMeta, error)
}

// Cache caches token metadata by address.
type Cache struct {
	mu   sync.RWMutex
	data map[common.Address]model.TokenMeta
}

func NewCache() *Cache {
	return &Cache{data: make(map[common.Address]model.TokenMeta)}
}

func (c *Cache) Get(address common.Address) (model.TokenMeta, bool) {
	c.mu.RLock()
	meta, ok := c.data[address]
	c.mu.RUnlock()
	return meta, ok
}

func (c *Cache) Set(address common.Address, meta model.TokenMeta) {
	c.mu.Lock()
	c.data[address] = meta
	c.mu.Unlock()
}

// ChainFetcher loads ERC20 metadata (name/symbol/decimals) via eth_call,
// trying the string ABI first and the bytes32 variant as a fallback.
type ChainFetcher struct {
	chain        *chain.Client
	cache        *Cache
	logger       *zap.Logger
	maxRetries   int
	retryBackoff time.Duration
}

func NewChainFetcher(chainClient *chain.Client, logger *zap.Logger) *ChainFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChainFetcher{
		chain:        chainClient,
		cache:        NewCache(),
		logger:       logger,
		maxRetries:   2,
		retryBackoff: 200 * time.Millisecond,
	}
}

// Fetch resolves metadata for a token address, using the in-memory cache
// for repeat lookups.
func (f *ChainFetcher) Fetch(ctx context.Context, address string) (*model.TokenMeta, error) {
	if f.chain == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid token address: %s", address)
	}
	token := common.HexToAddress(address)

	if meta, ok := f.cache.Get(token); ok {
		return &meta, nil
	}

	var meta model.TokenMeta
	err := withRetry(ctx, f.maxRetries, f.retryBackoff, func(ctx context.Context) error {
		var err error
		meta, err = fetchTokenMeta(ctx, f.chain, token, f.logger)
		if err != nil {
			f.logger.Debug("token metadata fetch failed", zap.String("token", token.Hex()), zap.Error(err))
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	f.cache.Set(token, meta)
	return &meta, nil
}

func fetchTokenMeta(ctx context.Context, chainClient *chain.Client, token common.Address, logger *zap.Logger) (model.TokenMeta, error) {
	meta := model.TokenMeta{Address: token.Hex()}

	stringABI, err := erc20ABIStringInstance()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := erc20ABIBytes32Instance()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	call := func(method string, parsed abi.ABI) ([]interface{}, error) {
		data, err := parsed.Pack(method)
		if err != nil {
			return nil, fmt.Errorf("pack %s: %w", method, err)
		}
		msg := ethereum.CallMsg{To: &token, Data: data}
		resp, err := chainClient.CallContract(ctx, msg, nil)
		if err != nil {
			return nil, fmt.Errorf("call %s: %w", method, err)
		}
		values, err := parsed.Unpack(method, resp)
		if err != nil {
			return nil, fmt.Errorf("unpack %s: %w", method, err)
		}
		return values, nil
	}

	values, err := call("decimals", stringABI)
	if err != nil {
		return meta, err
	}
	decimals, err := asUint8(values[0])
	if err != nil {
		return meta, err
	}
	meta.Decimals = decimals

	if values, err := call("symbol", stringABI); err == nil {
		if symbol, ok := values[0].(string); ok {
			meta.Symbol = symbol
		}
	} else if values, err := call("symbol", bytes32ABI); err == nil {
		if symbol, ok := bytes32ToString(values[0]); ok {
			meta.Symbol = symbol
		}
	} else if logger != nil {
		logger.Debug("symbol call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	if values, err := call("name", stringABI); err == nil {
		if name, ok := values[0].(string); ok {
			meta.Name = name
		}
	} else if values, err := call("name", bytes32ABI); err == nil {
		if name, ok := bytes32ToString(values[0]); ok {
			meta.Name = name
		}
	} else if logger != nil {
		logger.Debug("name call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	return meta, nil
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case uint16:
		return uint8(v), nil
	case uint32:
		return uint8(v), nil
	case uint64:
		return uint8(v), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}
