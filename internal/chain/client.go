// Package chain reads ERC-20 balances and ERC-721 holdings over Ethereum JSON-RPC.
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/racevault/market-server/internal/config"
)

const (
	selectorBalanceOf           = "0x70a08231"
	selectorTokenOfOwnerByIndex = "0x2f745c59"

	tokenDecimals = 18

	// maxOwnedTokens bounds the per-wallet enumeration of NFT ids.
	maxOwnedTokens = 200
)

// Assets is a wallet's on-chain holdings.
type Assets struct {
	Wallet   string          `json:"wallet"`
	Balance  decimal.Decimal `json:"balance"`
	Vehicles []string        `json:"vehicles"`
}

// BalanceFloat returns the token balance as a float for the sync payload.
func (a *Assets) BalanceFloat() float64 {
	f, _ := a.Balance.Float64()
	return f
}

type Client struct {
	rpcURL       string
	tokenAddress string
	nftContract  string
	httpClient   *http.Client
	nextID       atomic.Int64
}

func NewClient(rpcURL, tokenAddress, nftContract string) *Client {
	return &Client{
		rpcURL:       rpcURL,
		tokenAddress: tokenAddress,
		nftContract:  nftContract,
		httpClient:   &http.Client{Timeout: config.ChainRequestTimeout},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type callParams struct {
	To   string `json:"to"`
	Data string `json:"data"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result string    `json:"result"`
	Error  *rpcError `json:"error"`
}

// TokenBalance returns the wallet's ERC-20 balance scaled to whole tokens.
func (c *Client) TokenBalance(ctx context.Context, wallet string) (decimal.Decimal, error) {
	raw, err := c.call(ctx, c.tokenAddress, selectorBalanceOf+word(addressHex(wallet)))
	if err != nil {
		return decimal.Zero, fmt.Errorf("token balance: %w", err)
	}
	return decimal.NewFromBigInt(raw, -tokenDecimals), nil
}

// OwnedTokenIDs enumerates the wallet's NFT ids in index order.
func (c *Client) OwnedTokenIDs(ctx context.Context, wallet string) ([]string, error) {
	owner := word(addressHex(wallet))

	count, err := c.call(ctx, c.nftContract, selectorBalanceOf+owner)
	if err != nil {
		return nil, fmt.Errorf("nft balance: %w", err)
	}

	n := count.Int64()
	if !count.IsInt64() || n > maxOwnedTokens {
		n = maxOwnedTokens
	}

	ids := make([]string, 0, n)
	for i := int64(0); i < n; i++ {
		id, err := c.call(ctx, c.nftContract, selectorTokenOfOwnerByIndex+owner+word(big.NewInt(i).Text(16)))
		if err != nil {
			return nil, fmt.Errorf("token of owner by index %d: %w", i, err)
		}
		ids = append(ids, id.String())
	}
	return ids, nil
}

// Assets reads the token balance and owned NFT ids concurrently.
func (c *Client) Assets(ctx context.Context, wallet string) (*Assets, error) {
	var (
		wg       sync.WaitGroup
		balance  decimal.Decimal
		vehicles []string
		balErr   error
		nftErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		balance, balErr = c.TokenBalance(ctx, wallet)
	}()
	go func() {
		defer wg.Done()
		vehicles, nftErr = c.OwnedTokenIDs(ctx, wallet)
	}()
	wg.Wait()

	if balErr != nil {
		return nil, balErr
	}
	if nftErr != nil {
		return nil, nftErr
	}

	return &Assets{
		Wallet:   wallet,
		Balance:  balance,
		Vehicles: vehicles,
	}, nil
}

func (c *Client) call(ctx context.Context, to, data string) (*big.Int, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  "eth_call",
		Params:  []any{callParams{To: to, Data: data}, "latest"},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rpc request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rpc status %d", resp.StatusCode)
	}

	var out rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode rpc response: %w", err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("rpc error %d: %s", out.Error.Code, out.Error.Message)
	}

	return parseQuantity(out.Result)
}

func parseQuantity(hex string) (*big.Int, error) {
	digits := strings.TrimPrefix(hex, "0x")
	if digits == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(digits, 16)
	if !ok {
		return nil, fmt.Errorf("invalid hex quantity %q", hex)
	}
	return v, nil
}

func addressHex(wallet string) string {
	return strings.ToLower(strings.TrimPrefix(wallet, "0x"))
}

// word left-pads hex digits to a 32-byte ABI word.
func word(hexDigits string) string {
	if len(hexDigits) >= 64 {
		return hexDigits
	}
	return strings.Repeat("0", 64-len(hexDigits)) + hexDigits
}
