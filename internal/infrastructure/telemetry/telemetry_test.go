package telemetry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/erp/rental/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// ============ Provider Tests ============

func TestSetup_Disabled(t *testing.T) {
	ctx := context.Background()
	p, err := Setup(ctx, Options{
		CollectorEndpoint: "localhost:14317",
		ServiceName:       "rental-test",
		SamplingRatio:     1.0,
		Metrics:           true,
		Logs:              true,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, p.TracingEnabled())
	assert.False(t, p.MetricsEnabled())
	assert.False(t, p.LogsEnabled())
	assert.NotNil(t, p.Meter(meterName))

	base := zaptest.NewLogger(t)
	assert.Same(t, base, p.Bridge(base, zapcore.InfoLevel, "rental-test"))

	metrics, err := NewLedgerMetricsFromProvider(p)
	require.NoError(t, err)
	metrics.CollectionRecorded(ctx, "rent")

	assert.NoError(t, p.Shutdown(ctx))
}

func TestProviders_NilIsDisabled(t *testing.T) {
	var p *Providers
	assert.False(t, p.TracingEnabled())
	assert.False(t, p.MetricsEnabled())
	assert.NotNil(t, p.Meter("x"))
}

func TestProviders_LinkProfiles(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	off := &Providers{logger: zap.NewNop()}
	assert.False(t, off.LinkProfiles())
	assert.Same(t, prev, otel.GetTracerProvider())

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	on := &Providers{tracer: tp, logger: zap.NewNop()}
	assert.True(t, on.LinkProfiles())
	_, isSDK := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.False(t, isSDK)
}

func TestLevelFilterCore(t *testing.T) {
	inner := zaptest.NewLogger(t).Core()
	core := &levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}
	assert.False(t, core.Enabled(zapcore.InfoLevel))
	assert.True(t, core.Enabled(zapcore.ErrorLevel))

	with, ok := core.With([]zapcore.Field{zap.String("job", "x")}).(*levelFilterCore)
	require.True(t, ok)
	assert.Equal(t, zapcore.WarnLevel, with.minLevel)
	assert.Nil(t, core.Check(zapcore.Entry{Level: zapcore.DebugLevel}, nil))
}

func TestSamplerFor(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{1.0, "AlwaysOnSampler"},
		{2.0, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
		{0.5, "TraceIDRatioBased{0.5}"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, samplerFor(tt.ratio).Description())
	}
}

// ============ LedgerMetrics Tests ============

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumOf(t *testing.T, data metricdata.Aggregation, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected an int64 sum")
	want := attribute.NewSet(attrs...)
	var total int64
	for _, dp := range sum.DataPoints {
		if dp.Attributes.Equals(&want) {
			total += dp.Value
		}
	}
	return total
}

func TestLedgerMetrics(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(ctx) }()

	m, err := NewLedgerMetrics(provider.Meter(meterName))
	require.NoError(t, err)

	m.CollectionRecorded(ctx, "rent")
	m.CollectionRecorded(ctx, "rent")
	m.CollectionRecorded(ctx, "deposit")
	m.StatementEntriesCreated(ctx, "RENT", 3)
	m.StatementEntriesCreated(ctx, "RENT", 0)
	m.ReconciliationMatched(ctx, "exact")
	m.ReconciliationUnmatched(ctx)

	result := shared.NewBatchResult("recalculate_running_balances")
	result.Created = 4
	result.Skipped = 1
	m.JobCompleted(ctx, result, 1500*time.Millisecond)
	m.JobCompleted(ctx, nil, time.Second)

	data := collect(t, reader)

	assert.Equal(t, int64(2), sumOf(t, data["rental.collections.recorded"], KeyCollectionType.String("rent")))
	assert.Equal(t, int64(1), sumOf(t, data["rental.collections.recorded"], KeyCollectionType.String("deposit")))
	assert.Equal(t, int64(3), sumOf(t, data["rental.statement_entries.created"], KeyEntryType.String("RENT")))
	assert.Equal(t, int64(1), sumOf(t, data["rental.reconciliation.collections"], KeyOutcome.String("matched"), KeyMatcher.String("exact")))
	assert.Equal(t, int64(1), sumOf(t, data["rental.reconciliation.collections"], KeyOutcome.String("unmatched")))

	job := KeyJob.String("recalculate_running_balances")
	assert.Equal(t, int64(4), sumOf(t, data["rental.jobs.items"], job, KeyOutcome.String("created")))
	assert.Equal(t, int64(1), sumOf(t, data["rental.jobs.items"], job, KeyOutcome.String("skipped")))

	hist, ok := data["rental.jobs.duration"].(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	assert.InDelta(t, 1.5, hist.DataPoints[0].Sum, 0.0001)
}

func TestNewLedgerMetrics_NilMeter(t *testing.T) {
	_, err := NewLedgerMetrics(nil)
	assert.ErrorIs(t, err, ErrMeterNil)
}

// ============ Span Helper Tests ============

func useRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = provider.Shutdown(context.Background())
	})
	return recorder
}

func TestTrace(t *testing.T) {
	recorder := useRecorder(t)

	err := Trace(context.Background(), "ledger", "recalculate_tenant", func(ctx context.Context) error {
		assert.NotEmpty(t, TraceID(ctx))
		return errors.New("agreement missing")
	}, TenantAttr("t-1"))
	assert.EqualError(t, err, "agreement missing")

	require.NoError(t, Trace(context.Background(), "ledger", "balance", func(context.Context) error { return nil }))

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "ledger.recalculate_tenant", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.String(AttrTenantID, "t-1"))
	assert.Equal(t, codes.Unset, spans[1].Status().Code)
}

func TestJobSpan(t *testing.T) {
	recorder := useRecorder(t)

	result := shared.NewBatchResult("rebuild_outstanding_dues")
	result.Record("t-1", nil)
	result.Record("t-2", errors.New("no agreement"))
	_, span := StartJobSpan(context.Background(), result.Job)
	EndJobSpan(span, result, nil)

	_, span = StartJobSpan(context.Background(), "cleanup_pending_uploads")
	EndJobSpan(span, nil, errors.New("storage unreachable"))

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	got := spans[0]
	assert.Equal(t, "job.rebuild_outstanding_dues", got.Name())
	assert.Equal(t, codes.Ok, got.Status().Code)
	assert.Contains(t, got.Attributes(), attribute.String(AttrJob, "rebuild_outstanding_dues"))
	assert.Contains(t, got.Attributes(), attribute.Int(AttrProcessed, 2))
	assert.Contains(t, got.Attributes(), attribute.Int(AttrFailed, 1))
	require.Len(t, got.Events(), 1)
	assert.Equal(t, "item_failures", got.Events()[0].Name)

	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "storage unreachable", spans[1].Status().Description)
}

func TestTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, TraceID(context.Background()))
}

func TestLabelPairs(t *testing.T) {
	long := strings.Repeat("x", 200)
	pairs := labelPairs(map[string]string{
		LabelOperation: "ledger.recalculate_tenant",
		LabelJob:       "",
		"request_id":   "req-1",
		"tenant_id":    "t-1",
		LabelRoute:     long,
	})
	assert.Equal(t, []string{LabelOperation, "ledger.recalculate_tenant", LabelRoute, long[:maxLabelValueLength]}, pairs)
	assert.Empty(t, labelPairs(nil))

	ran := false
	WithProfilingLabels(context.Background(), nil, func(context.Context) { ran = true })
	assert.True(t, ran)
}

// ============ DB Tracing Tests ============

type entryRow struct {
	ID   uint
	Note string
}

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entryRow{}))
	return db
}

func TestDBTracingPlugin(t *testing.T) {
	t.Run("disabled registers nothing", func(t *testing.T) {
		db := openDB(t)
		plugin := NewDBTracingPlugin(DefaultDBTracingConfig(), zap.NewNop())
		require.NoError(t, plugin.RegisterOtelGorm(db))
		assert.Nil(t, db.Callback().Query().Get("otel_slow_query:query"))
	})

	t.Run("enabled records query spans", func(t *testing.T) {
		recorder := useRecorder(t)
		db := openDB(t)
		cfg := DefaultDBTracingConfig()
		cfg.Enabled = true
		cfg.DBSystem = "sqlite"
		require.NoError(t, NewDBTracingPlugin(cfg, zaptest.NewLogger(t)).RegisterOtelGorm(db))

		ctx, span := StartSpan(context.Background(), "test.query")
		require.NoError(t, db.WithContext(ctx).Create(&entryRow{Note: "rent"}).Error)
		var rows []entryRow
		require.NoError(t, db.WithContext(ctx).Find(&rows).Error)
		span.End()

		assert.Len(t, rows, 1)
		assert.GreaterOrEqual(t, len(recorder.Ended()), 3, "create, select and the parent span")
	})
	t.Run("slow statements are marked", func(t *testing.T) {
		recorder := useRecorder(t)
		db := openDB(t)
		err := NewDBTracingPlugin(DBTracingConfig{Enabled: true, DBSystem: "sqlite", SlowQueryThresh: time.Nanosecond}, nil).RegisterOtelGorm(db)
		require.NoError(t, err)

		var rows []entryRow
		require.NoError(t, db.WithContext(context.Background()).Find(&rows).Error)

		var slow bool
		for _, span := range recorder.Ended() {
			for _, kv := range span.Attributes() {
				if kv.Key == "db.slow_query" && kv.Value.AsBool() {
					slow = true
				}
			}
		}
		assert.True(t, slow)
	})
}
