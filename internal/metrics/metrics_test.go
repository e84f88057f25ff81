package metrics

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nftreg/internal/ir"
	"github.com/roach88/nftreg/internal/registry"
	"github.com/roach88/nftreg/internal/testutil"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	require.NotNil(t, m.Counter)
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	require.NotNil(t, m.Gauge)
	return m.GetGauge().GetValue()
}

func newRegistry(t *testing.T, c *Collector) *registry.Registry {
	t.Helper()
	reg, err := registry.New(testutil.Account(0),
		registry.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		registry.WithRecorder(c),
		registry.WithObserver(c),
	)
	require.NoError(t, err)
	return reg
}

func TestCollector_RecordsOutcomes(t *testing.T) {
	c := New()
	reg := newRegistry(t, c)
	ctx := context.Background()
	minter, alice, bob := testutil.Account(0), testutil.Account(1), testutil.Account(2)

	_, err := reg.Mint(ctx, minter, alice)
	require.NoError(t, err)
	_, err = reg.Mint(ctx, minter, alice)
	require.NoError(t, err)
	_, err = reg.Mint(ctx, alice, alice)
	require.ErrorIs(t, err, registry.ErrUnauthorized)
	require.NoError(t, reg.Burn(ctx, alice, 1))
	require.ErrorIs(t, reg.Burn(ctx, alice, 1), registry.ErrTokenNotFound)
	require.NoError(t, reg.SetApprovalForAll(ctx, alice, bob, true))

	assert.Equal(t, 2.0, counterValue(t, c.operations.WithLabelValues(registry.OpMint, registry.OutcomeOK)))
	assert.Equal(t, 1.0, counterValue(t, c.operations.WithLabelValues(registry.OpMint, "UNAUTHORIZED")))
	assert.Equal(t, 1.0, counterValue(t, c.operations.WithLabelValues(registry.OpBurn, "TOKEN_NOT_FOUND")))
	assert.Equal(t, 3.0, counterValue(t, c.events.WithLabelValues(string(ir.EventTransfer))))
	assert.Equal(t, 1.0, counterValue(t, c.events.WithLabelValues(string(ir.EventApprovalForAll))))
	assert.Equal(t, 1.0, gaugeValue(t, c.supply))
}

func TestCollector_Stats(t *testing.T) {
	c := New()
	reg := newRegistry(t, c)
	ctx := context.Background()
	minter, alice := testutil.Account(0), testutil.Account(1)

	_, err := reg.Mint(ctx, minter, alice)
	require.NoError(t, err)
	_, err = reg.Mint(ctx, minter, ir.Null)
	require.Error(t, err)

	stats, err := c.Stats()
	require.NoError(t, err)
	assert.Equal(t, []OperationCount{
		{Op: registry.OpMint, Outcome: "INVALID_RECIPIENT", Count: 1},
		{Op: registry.OpMint, Outcome: registry.OutcomeOK, Count: 1},
	}, stats.Operations)
	assert.Equal(t, map[string]uint64{"Transfer": 1}, stats.Events)
	assert.Equal(t, uint64(1), stats.Supply)
}

func TestCollector_SeparateRegistries(t *testing.T) {
	a, b := New(), New()
	a.ObserveOperation(registry.OpMint, registry.OutcomeOK)

	statsB, err := b.Stats()
	require.NoError(t, err)
	assert.Empty(t, statsB.Operations)
}
