// Package across talks to the Across bridge API for fee quotes and deposit
// status, and encodes spoke pool deposits.
package across

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zjrosen/namebridge/internal/chain"
	"github.com/zjrosen/namebridge/internal/log"
)

const (
	MainnetAPI     = "https://app.across.to/api"
	TestnetAPI     = "https://testnet.across.to/api"
	defaultTimeout = 10 * time.Second
	defaultUA      = "namebridge"
)

// Options configures the Client.
type Options struct {
	// Endpoints maps a network profile name to its API base URL. Profiles
	// without an entry fall back to MainnetAPI or TestnetAPI.
	Endpoints map[string]string
	UserAgent string
	Timeout   time.Duration
	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client implements chain.FeeQuoter. It does not retry: a failed call is
// reported to the user as transient.
type Client struct {
	http *http.Client
	opts Options
}

var _ chain.FeeQuoter = (*Client)(nil)

// NewClient creates a Client with defaults filled in.
func NewClient(o Options) *Client {
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	hc := o.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: o.Timeout}
	}
	return &Client{http: hc, opts: o}
}

func (c *Client) baseURL(net chain.Network) string {
	if u := c.opts.Endpoints[net.Name]; u != "" {
		return strings.TrimSuffix(u, "/")
	}
	if net.Testnet {
		return TestnetAPI
	}
	return MainnetAPI
}

type suggestedFees struct {
	TotalRelayFee struct {
		Total string `json:"total"`
	} `json:"totalRelayFee"`
	Timestamp            string `json:"timestamp"`
	FillDeadline         string `json:"fillDeadline"`
	IsAmountTooLow       bool   `json:"isAmountTooLow"`
	SpokePoolAddress     string `json:"spokePoolAddress"`
	EstimatedFillTimeSec int64  `json:"estimatedFillTimeSec"`
}

// Quote prices bridging amount of the native token from the source chain to
// the destination chain of net.
func (c *Client) Quote(ctx context.Context, net chain.Network, amount *big.Int) (chain.Quote, error) {
	q := url.Values{}
	q.Set("inputToken", net.SourceWETH.Hex())
	q.Set("outputToken", net.DestinationWETH.Hex())
	q.Set("originChainId", strconv.FormatUint(net.SourceChainID, 10))
	q.Set("destinationChainId", strconv.FormatUint(net.DestinationChainID, 10))
	q.Set("amount", amount.String())

	var body suggestedFees
	if err := c.get(ctx, c.baseURL(net)+"/suggested-fees?"+q.Encode(), &body); err != nil {
		return chain.Quote{}, err
	}

	fee, ok := new(big.Int).SetString(body.TotalRelayFee.Total, 10)
	if !ok {
		return chain.Quote{}, fmt.Errorf("%w: across fee %q is not an integer", chain.ErrRPC, body.TotalRelayFee.Total)
	}
	ts, err := parseUint32(body.Timestamp)
	if err != nil {
		return chain.Quote{}, fmt.Errorf("%w: across timestamp: %v", chain.ErrRPC, err)
	}
	deadline, err := parseUint32(body.FillDeadline)
	if err != nil {
		return chain.Quote{}, fmt.Errorf("%w: across fill deadline: %v", chain.ErrRPC, err)
	}
	if !common.IsHexAddress(body.SpokePoolAddress) {
		return chain.Quote{}, fmt.Errorf("%w: across spoke pool %q is not an address", chain.ErrRPC, body.SpokePoolAddress)
	}

	quote := chain.Quote{
		FeeWei:         fee,
		EstimatedFill:  time.Duration(body.EstimatedFillTimeSec) * time.Second,
		IsAmountTooLow: body.IsAmountTooLow,
		Timestamp:      ts,
		FillDeadline:   deadline,
		SpokePool:      common.HexToAddress(body.SpokePoolAddress),
	}
	log.Debug(log.CatBridge, "quote received",
		"network", net.Name, "amount", amount.String(), "fee", fee.String(), "too_low", quote.IsAmountTooLow)
	return quote, nil
}

type depositStatus struct {
	Status string `json:"status"`
}

// DepositStatus reports the fill status of a deposit sent in depositTx.
func (c *Client) DepositStatus(ctx context.Context, net chain.Network, depositTx common.Hash) (chain.FillStatus, error) {
	q := url.Values{}
	q.Set("originChainId", strconv.FormatUint(net.SourceChainID, 10))
	q.Set("depositTxHash", depositTx.Hex())

	var body depositStatus
	if err := c.get(ctx, c.baseURL(net)+"/deposit/status?"+q.Encode(), &body); err != nil {
		return "", err
	}
	switch s := chain.FillStatus(body.Status); s {
	case chain.FillPending, chain.FillFilled, chain.FillExpired, chain.FillRefunded:
		return s, nil
	case "":
		// The indexer answers an empty status until it has seen the deposit.
		return chain.FillPending, nil
	default:
		return "", fmt.Errorf("%w: unknown across status %q", chain.ErrRPC, body.Status)
	}
}

func (c *Client) get(ctx context.Context, target string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("%w: build across request: %v", chain.ErrRPC, err)
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: across request: %v", chain.ErrRPC, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: across %s: %s", chain.ErrRPC, resp.Status, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode across response: %v", chain.ErrRPC, err)
	}
	return nil
}

func parseUint32(s string) (uint32, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}
