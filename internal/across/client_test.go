package across

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/namebridge/internal/chain"
)

var testNet = chain.Network{
	Name:               "mainnet",
	DestinationChainID: chain.MainnetChainID,
	SourceChainID:      chain.BaseChainID,
	SourceWETH:         common.HexToAddress("0x4200000000000000000000000000000000000006"),
	DestinationWETH:    common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Options{Endpoints: map[string]string{"mainnet": srv.URL + "/"}})
}

func TestQuote_ParsesSuggestedFees(t *testing.T) {
	var gotQuery map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/suggested-fees", r.URL.Path)
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		_, _ = w.Write([]byte(`{
			"totalRelayFee": {"pct": "45000000000000000", "total": "1000000000000000"},
			"timestamp": "1760000000",
			"fillDeadline": "1760010800",
			"isAmountTooLow": false,
			"spokePoolAddress": "0x09aea4b2242abC8bb4BB78D537A67a245A7bEC64",
			"estimatedFillTimeSec": 4
		}`))
	})

	q, err := c.Quote(context.Background(), testNet, big.NewInt(22_000_000_000_000_000))
	require.NoError(t, err)

	assert.Equal(t, "1000000000000000", q.FeeWei.String())
	assert.Equal(t, uint32(1760000000), q.Timestamp)
	assert.Equal(t, uint32(1760010800), q.FillDeadline)
	assert.Equal(t, 4*time.Second, q.EstimatedFill)
	assert.False(t, q.IsAmountTooLow)
	assert.Equal(t, common.HexToAddress("0x09aea4b2242abC8bb4BB78D537A67a245A7bEC64"), q.SpokePool)

	assert.Equal(t, "8453", gotQuery["originChainId"])
	assert.Equal(t, "1", gotQuery["destinationChainId"])
	assert.Equal(t, "22000000000000000", gotQuery["amount"])
	assert.Equal(t, testNet.SourceWETH.Hex(), gotQuery["inputToken"])
}

func TestQuote_AmountTooLow(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"totalRelayFee":{"total":"5"},"timestamp":"1","isAmountTooLow":true,
			"spokePoolAddress":"0x09aea4b2242abC8bb4BB78D537A67a245A7bEC64"}`))
	})

	q, err := c.Quote(context.Background(), testNet, big.NewInt(10))
	require.NoError(t, err)
	assert.True(t, q.IsAmountTooLow)
	assert.Zero(t, q.FillDeadline)
}

func TestQuote_HTTPErrorIsRPCFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "route not enabled", http.StatusBadRequest)
	})

	_, err := c.Quote(context.Background(), testNet, big.NewInt(10))
	require.Error(t, err)
	assert.True(t, errors.Is(err, chain.ErrRPC))
	assert.Contains(t, err.Error(), "route not enabled")
}

func TestQuote_MalformedFee(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"totalRelayFee":{"total":"abc"},"timestamp":"1",
			"spokePoolAddress":"0x09aea4b2242abC8bb4BB78D537A67a245A7bEC64"}`))
	})

	_, err := c.Quote(context.Background(), testNet, big.NewInt(10))
	require.ErrorIs(t, err, chain.ErrRPC)
}

func TestDepositStatus(t *testing.T) {
	tests := []struct {
		body    string
		want    chain.FillStatus
		wantErr bool
	}{
		{`{"status":"filled"}`, chain.FillFilled, false},
		{`{"status":"pending"}`, chain.FillPending, false},
		{`{"status":"expired"}`, chain.FillExpired, false},
		{`{}`, chain.FillPending, false},
		{`{"status":"teleported"}`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/deposit/status", r.URL.Path)
				require.Equal(t, "8453", r.URL.Query().Get("originChainId"))
				_, _ = w.Write([]byte(tt.body))
			})

			got, err := c.DepositStatus(context.Background(), testNet, common.HexToHash("0x01"))
			if tt.wantErr {
				require.ErrorIs(t, err, chain.ErrRPC)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBaseURL_FallsBackByProfile(t *testing.T) {
	c := NewClient(Options{})
	assert.Equal(t, MainnetAPI, c.baseURL(testNet))

	testnet := testNet
	testnet.Name, testnet.Testnet = "sepolia", true
	assert.Equal(t, TestnetAPI, c.baseURL(testnet))
}
