package main

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"tradelab/internal/api"
	"tradelab/internal/domain"
	"tradelab/internal/marketdata"
	"tradelab/internal/strategy"
	"tradelab/internal/strategy/builtins"
	"tradelab/internal/util"
	"tradelab/pkg/tradelab"
)

func newGRPCBackend(t *testing.T) *grpcBackend {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, 60)
	for i := range bars {
		c := 100 + float64(i)
		bars[i] = domain.Bar{Symbol: "DIA", Timestamp: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c}
	}
	src := marketdata.NewStaticSource()
	src.Add("DIA", bars)
	bt := strategy.NewBacktester(src, builtins.NewRegistry(), strategy.WithLogger(util.Discard()))

	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer()
	api.NewBacktestService(bt, util.Discard()).RegisterGRPC(gs)
	go gs.Serve(lis)
	t.Cleanup(gs.Stop)

	c, err := api.Dial("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	require.NoError(t, err)
	b := &grpcBackend{client: c}
	t.Cleanup(func() { b.Close() })
	return b
}

func TestGRPCBackend(t *testing.T) {
	b := newGRPCBackend(t)
	ctx := context.Background()

	names, err := b.Strategies(ctx)
	require.NoError(t, err)
	assert.Equal(t, builtins.Names, names)

	res, err := b.Run(ctx, tradelab.BacktestRequest{
		Ticker:    "DIA",
		Strategy:  builtins.BuyAndHold,
		StartDate: "2024-01-01",
		EndDate:   "2024-02-29",
	})
	require.NoError(t, err)
	assert.Equal(t, "DIA", res.Ticker)
	assert.Equal(t, 1, res.Trades)
	assert.InDelta(t, 10000*159.0/100.0, res.FinalCapital, 1e-6)

	cmp, err := b.Compare(ctx, "DIA", "2024-01-01", "2024-02-29")
	require.NoError(t, err)
	require.NotEmpty(t, cmp.RankedStrategies)
	assert.Equal(t, cmp.RankedStrategies[0].Name, cmp.BestStrategy)

	_, err = b.Run(ctx, tradelab.BacktestRequest{Ticker: "DIA", Strategy: "vwap_reversion", StartDate: "2024-01-01", EndDate: "2024-02-29"})
	assert.Error(t, err)
}
