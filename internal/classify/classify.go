package classify

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"evmscope/internal/model"
)

// TransferTopic is the event signature of Transfer(address,address,uint256),
// shared by ERC20 and ERC721.
var TransferTopic = common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")

// Kind tags the recognized shape of a log.
type Kind int

const (
	Unrecognized Kind = iota
	TransferEvent
)

// Recognize classifies a single log by its topic shape. A transfer needs
// the transfer signature in topic0 and both address topics indexed.
func Recognize(log model.Log) Kind {
	if len(log.Topics) < 3 {
		return Unrecognized
	}
	if !strings.EqualFold(log.Topics[0], TransferTopic.Hex()) {
		return Unrecognized
	}
	return TransferEvent
}

// Result carries the drafts derived from one transaction's logs.
type Result struct {
	Tokens    []model.Token
	Transfers []model.TokenTransfer
}

// Classify walks decoded logs and emits transfer drafts plus token drafts
// for contract addresses not seen before in this call. Token metadata stays
// empty here; enrichment happens later and only fills null fields.
func Classify(logs []model.Log, txID string, height int64) Result {
	var result Result
	seen := make(map[string]struct{})

	for _, log := range logs {
		if Recognize(log) != TransferEvent {
			continue
		}

		token := strings.ToLower(log.Address)
		result.Transfers = append(result.Transfers, model.TokenTransfer{
			TxID:         txID,
			LogIndex:     log.LogIndex,
			TokenAddress: token,
			FromAddress:  topicAddress(log.Topics[1]),
			ToAddress:    topicAddress(log.Topics[2]),
			Value:        log.Data,
		})

		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		result.Tokens = append(result.Tokens, model.Token{
			Address:         token,
			Type:            model.TokenTypeERC20,
			FirstSeenTx:     txID,
			FirstSeenHeight: height,
		})
	}

	return result
}

// topicAddress takes the last 20 bytes of a 32-byte topic word.
func topicAddress(topic string) string {
	word := common.HexToHash(topic)
	return strings.ToLower(common.BytesToAddress(word.Bytes()[12:]).Hex())
}
