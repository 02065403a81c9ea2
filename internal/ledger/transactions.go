package ledger

import (
	"context"
	"encoding/base64"
	"fmt"
)

type submitRequest struct {
	Transaction string `json:"transaction"`
}

type submitResponse struct {
	TxID string `json:"txId"`
}

type txListRequest struct {
	TxID          []string `json:"txid"`
	IncludeState  bool     `json:"include_state"`
	IncludeResult bool     `json:"include_result"`
	Limit         int      `json:"limit"`
}

type txListResponse struct {
	Transactions []TransactionInfo `json:"transactions"`
}

// SubmitTransaction publishes a signed transaction and returns the id
// assigned to it by the node.
func (c *Client) SubmitTransaction(ctx context.Context, raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("submit transaction: empty payload")
	}
	var resp submitResponse
	req := submitRequest{Transaction: base64.StdEncoding.EncodeToString(raw)}
	if err := c.post(ctx, PathSubmitTransaction, req, &resp); err != nil {
		return "", fmt.Errorf("submit transaction: %w", err)
	}
	if resp.TxID == "" {
		return "", invalid(PathSubmitTransaction, "empty txId")
	}
	return resp.TxID, nil
}

// ListTransactions fetches state and result for the given transaction ids.
// An id the node has not indexed yet is simply absent from the result.
func (c *Client) ListTransactions(ctx context.Context, ids []string) ([]TransactionInfo, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > MaxPerCall {
		return nil, fmt.Errorf("list transactions: %d ids exceeds limit of %d", len(ids), MaxPerCall)
	}

	var resp txListResponse
	req := txListRequest{TxID: ids, IncludeState: true, IncludeResult: true, Limit: MaxPerCall}
	if err := c.post(ctx, PathTransactionList, req, &resp); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	for i, t := range resp.Transactions {
		if t.Tx.ID == "" {
			return nil, invalid(PathTransactionList, "transaction %d: missing id", i)
		}
	}
	return resp.Transactions, nil
}
