// Package fork implements the optional read-through Fork provider:
// a JSON-RPC client that resolves accounts, storage slots, and block
// context from a remote Ethereum node when local State has no record
// of them (SPEC_FULL.md §4.6, §6 "Fork RPC"). Every result flows back
// through state.State's memoization, never written upstream — the fork
// is a source, never a sink.
package fork

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/entropyio/go-evm/common"
	"github.com/entropyio/go-evm/config"
	"github.com/entropyio/go-evm/logger"
)

var log = logger.NewLogger("[fork]")

// Client is a minimal JSON-RPC 2.0 client over net/http. The retrieval
// pack's RPC-speaking projects build exactly this kind of thin client
// rather than pulling in a generic JSON-RPC package; see DESIGN.md for
// why this one component stays on net/http + encoding/json.
type Client struct {
	url        string
	httpClient *http.Client
	nextID     uint64
}

// New returns a Client talking to the node at url, with every call
// bounded by config.DefaultForkTimeout.
func New(url string) *Client {
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: config.DefaultForkTimeout * time.Second,
		},
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      uint64        `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string { return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message) }

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

// call issues one JSON-RPC request and returns its raw result payload.
func (c *Client) call(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	id := atomic.AddUint64(&c.nextID, 1)
	reqBody, err := json.Marshal(rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: id})
	if err != nil {
		return nil, fmt.Errorf("fork: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("fork: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	log.Debugf("-> %s %s", method, params)
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fork: transport: %w", err)
	}
	defer resp.Body.Close()

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, fmt.Errorf("fork: decode response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}
	return rpcResp.Result, nil
}

// hexQuantity decodes a JSON-RPC "0x..." quantity string into a big.Int.
func hexQuantity(raw json.RawMessage) (*big.Int, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("fork: decode quantity: %w", err)
	}
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	if s == "" {
		s = "0"
	}
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return nil, fmt.Errorf("fork: malformed quantity %q", s)
	}
	return n, nil
}

// hexBytes decodes a JSON-RPC "0x..." byte-string into a []byte.
func hexBytes(raw json.RawMessage) ([]byte, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("fork: decode bytes: %w", err)
	}
	return common.Hex2Bytes(s), nil
}
