package evm

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	logger "log/slog"

	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/core/domain"
	"github.com/SUBBUAURIGRAPH/MEV-Shield-sub002/internal/infra/rpc"
)

// Adapter reads blocks and the mempool from an EVM node over JSON-RPC.
type Adapter struct {
	client *rpc.Client
	log    logger.Logger
}

func NewAdapter(client *rpc.Client) *Adapter {
	return &Adapter{
		client: client,
		log:    *logger.Default(),
	}
}

// rawTransaction mirrors the JSON-RPC transaction object.
type rawTransaction struct {
	Hash             string `json:"hash"`
	From             string `json:"from"`
	To               string `json:"to"`
	Value            string `json:"value"`
	GasPrice         string `json:"gasPrice"`
	Gas              string `json:"gas"`
	Input            string `json:"input"`
	BlockNumber      string `json:"blockNumber"`
	TransactionIndex string `json:"transactionIndex"`
}

type rawBlock struct {
	Number       string           `json:"number"`
	Hash         string           `json:"hash"`
	Timestamp    string           `json:"timestamp"`
	Transactions []rawTransaction `json:"transactions"`
}

func (a *Adapter) GetLatestBlock(ctx context.Context) (uint64, error) {
	var blockHex string
	if err := a.client.CallInto(ctx, &blockHex, "eth_blockNumber", nil); err != nil {
		return 0, fmt.Errorf("eth_blockNumber failed: %w", err)
	}
	return parseHexUint(blockHex)
}

// GetBlockTransactions returns the transactions of a finalized block in
// their committed order.
func (a *Adapter) GetBlockTransactions(ctx context.Context, blockNumber uint64) ([]*domain.PendingTransaction, error) {
	var block *rawBlock
	blockHex := fmt.Sprintf("0x%x", blockNumber)
	if err := a.client.CallInto(ctx, &block, "eth_getBlockByNumber", []any{blockHex, true}); err != nil {
		return nil, fmt.Errorf("eth_getBlockByNumber failed: %w", err)
	}
	if block == nil {
		return nil, nil // not found / future
	}

	observed := time.Now().UTC()
	txs := make([]*domain.PendingTransaction, 0, len(block.Transactions))
	for i := range block.Transactions {
		tx, err := a.parseTransaction(&block.Transactions[i], false, observed)
		if err != nil {
			a.log.Warn("parse tx failed", "error", err, "index", i)
			continue
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// GetPendingTransactions returns the node's current mempool view. It tries
// txpool_content first and falls back to the pending pseudo-block on nodes
// that do not expose the txpool namespace.
func (a *Adapter) GetPendingTransactions(ctx context.Context) ([]*domain.PendingTransaction, error) {
	observed := time.Now().UTC()

	var pool struct {
		Pending map[string]map[string]rawTransaction `json:"pending"`
	}
	if err := a.client.CallInto(ctx, &pool, "txpool_content", nil); err == nil && pool.Pending != nil {
		var txs []*domain.PendingTransaction
		for _, byNonce := range pool.Pending {
			for i := range byNonce {
				raw := byNonce[i]
				tx, err := a.parseTransaction(&raw, true, observed)
				if err != nil {
					a.log.Warn("parse pending tx failed", "error", err)
					continue
				}
				txs = append(txs, tx)
			}
		}
		return txs, nil
	}

	var block *rawBlock
	if err := a.client.CallInto(ctx, &block, "eth_getBlockByNumber", []any{"pending", true}); err != nil {
		return nil, fmt.Errorf("pending block fetch failed: %w", err)
	}
	if block == nil {
		return nil, nil
	}
	txs := make([]*domain.PendingTransaction, 0, len(block.Transactions))
	for i := range block.Transactions {
		tx, err := a.parseTransaction(&block.Transactions[i], true, observed)
		if err != nil {
			a.log.Warn("parse pending tx failed", "error", err, "index", i)
			continue
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func (a *Adapter) parseTransaction(raw *rawTransaction, pending bool, observed time.Time) (*domain.PendingTransaction, error) {
	if raw.Hash == "" {
		return nil, fmt.Errorf("transaction without hash")
	}

	gasLimit, _ := parseHexUint(raw.Gas)
	tx := &domain.PendingTransaction{
		Hash:       strings.ToLower(raw.Hash),
		From:       strings.ToLower(raw.From),
		To:         strings.ToLower(raw.To),
		Value:      parseHexBig(raw.Value),
		GasPrice:   parseHexBig(raw.GasPrice),
		GasLimit:   gasLimit,
		Input:      parseHexBytes(raw.Input),
		Pending:    pending,
		Index:      -1,
		ObservedAt: observed,
	}
	if !pending {
		tx.BlockNumber, _ = parseHexUint(raw.BlockNumber)
		if idx, err := parseHexUint(raw.TransactionIndex); err == nil {
			tx.Index = int(idx)
		}
	}
	return tx, nil
}

func parseHexUint(hexStr string) (uint64, error) {
	if hexStr == "" {
		return 0, fmt.Errorf("empty hex string")
	}
	n := new(big.Int)
	if _, ok := n.SetString(strings.TrimPrefix(hexStr, "0x"), 16); !ok {
		return 0, fmt.Errorf("invalid hex: %s", hexStr)
	}
	return n.Uint64(), nil
}

// parseHexBig returns zero for empty or malformed quantities. Observation
// must stay total; a bad field never drops the transaction.
func parseHexBig(hexStr string) *big.Int {
	n := new(big.Int)
	if hexStr == "" {
		return n
	}
	if _, ok := n.SetString(strings.TrimPrefix(hexStr, "0x"), 16); !ok {
		return new(big.Int)
	}
	return n
}

func parseHexBytes(hexStr string) []byte {
	s := strings.TrimPrefix(hexStr, "0x")
	if len(s)%2 != 0 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil
	}
	return b
}
