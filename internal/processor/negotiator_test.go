package processor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"hr-insights-go/internal/cache"
	"hr-insights-go/internal/intent"
	"hr-insights-go/internal/llm"
	"hr-insights-go/internal/logger"
	"hr-insights-go/internal/pipeline"
	"hr-insights-go/internal/types"
)

const offTopic = "why is the sky blue?"

// opencensus (via the genai SDK) starts a process-lifetime worker in init.
var ignoreOpenCensus = goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start")

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, ignoreOpenCensus)
}

func testDataset() *pipeline.Dataset {
	records := []types.NormalizedRecord{
		{Status: types.StatusCompleted, Duration: 10, DateKey: "2024-05-01", Isyeri: "Ankara Hastanesi", DepartmanClean: "Acil"},
		{Status: types.StatusCompleted, Duration: 20, DateKey: "2024-05-02", Isyeri: "Ankara Hastanesi", DepartmanClean: "Acil"},
		{Status: types.StatusError, Duration: 5, DateKey: "2024-05-02", Isyeri: "İzmir Şubesi", DepartmanClean: "Kardiyoloji", ErrorComment: "SYS: timeout"},
	}
	return pipeline.NewDataset("entry", "Entry", records, 5)
}

// countingCompleter records how often it was called and what it saw.
type countingCompleter struct {
	calls atomic.Int32
	last  llm.Request
	reply string
	err   error
}

func (c *countingCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	c.calls.Add(1)
	c.last = req
	return c.reply, c.err
}

// keyedProvider hands out completers that echo the key they were built with.
type keyedProvider struct{}

func (keyedProvider) Name() string         { return "fake" }
func (keyedProvider) DefaultModel() string { return "fake-model" }
func (keyedProvider) NewCompleter(key string) (llm.Completer, error) {
	if key == "bad" {
		return nil, errors.New("malformed key")
	}
	return llm.CompleterFunc(func(context.Context, llm.Request) (string, error) {
		return "answered with " + key, nil
	}), nil
}

func newTestNegotiator(c llm.Completer) *Negotiator {
	n := New(nil, "", nil, Options{Timeout: time.Second}, logger.Discard())
	if c != nil {
		n = n.WithCompleter(c)
	}
	return n
}

func TestAnswer_EmptyQuestion(t *testing.T) {
	n := newTestNegotiator(nil)

	for _, q := range []string{"", "   ", "\n\t"} {
		_, err := n.Answer(context.Background(), testDataset(), q, "")
		assert.ErrorIs(t, err, ErrEmptyQuestion)
	}
}

func TestAnswer_ResolvedNeverCallsCompleter(t *testing.T) {
	comp := &countingCompleter{reply: "should not be used"}
	n := newTestNegotiator(comp)

	resp, err := n.Answer(context.Background(), testDataset(), "What is the success rate?", "")
	require.NoError(t, err)

	assert.Equal(t, "Success rate: 66.7%", resp.Answer)
	assert.Equal(t, "success_rate", resp.Intent)
	assert.False(t, resp.UsedFallback)
	assert.Nil(t, resp.FallbackError)
	assert.Equal(t, int32(0), comp.calls.Load())
}

func TestAnswer_EntityLookup(t *testing.T) {
	n := newTestNegotiator(nil)

	resp, err := n.Answer(context.Background(), testDataset(), "ankara hastanesi işyeri durumu", "")
	require.NoError(t, err)

	assert.Equal(t, "Ankara Hastanesi (site): total 2, completed 2, errors 0.", resp.Answer)
	assert.Equal(t, "entity:site", resp.Intent)
}

func TestAnswer_FallbackSuccess(t *testing.T) {
	comp := &countingCompleter{reply: "  The sky is out of scope.  "}
	n := newTestNegotiator(comp)
	ds := testDataset()

	resp, err := n.Answer(context.Background(), ds, offTopic, "")
	require.NoError(t, err)

	assert.True(t, resp.UsedFallback)
	assert.Nil(t, resp.FallbackError)
	assert.Equal(t, "The sky is out of scope.", resp.Answer)
	assert.Equal(t, int32(1), comp.calls.Load())
	assert.Equal(t, SystemInstruction, comp.last.SystemInstruction)
	assert.Equal(t, "Context:\n"+ds.Context()+"\n\nQuestion: "+offTopic, comp.last.UserContent)
	assert.Equal(t, DefaultMaxOutputTokens, comp.last.MaxOutputTokens)
}

func TestAnswer_NoCredential(t *testing.T) {
	n := newTestNegotiator(nil)

	resp, err := n.Answer(context.Background(), testDataset(), offTopic, "")
	require.NoError(t, err)

	assert.False(t, resp.UsedFallback)
	assert.Equal(t, intent.UnresolvedMessage, resp.Answer)
	require.NotNil(t, resp.FallbackError)
	assert.Contains(t, *resp.FallbackError, "no completion credential")
}

func TestAnswer_CompleterFailure(t *testing.T) {
	comp := &countingCompleter{err: errors.New("quota exceeded")}
	n := newTestNegotiator(comp)

	resp, err := n.Answer(context.Background(), testDataset(), offTopic, "")
	require.NoError(t, err)

	assert.False(t, resp.UsedFallback)
	assert.Equal(t, intent.UnresolvedMessage, resp.Answer)
	assert.Equal(t, "quota exceeded", resp.ErrorDetail())
}

func TestAnswer_EmptyCompletionIsFailure(t *testing.T) {
	n := newTestNegotiator(&countingCompleter{reply: "   "})

	resp, err := n.Answer(context.Background(), testDataset(), offTopic, "")
	require.NoError(t, err)

	assert.False(t, resp.UsedFallback)
	assert.Equal(t, llm.ErrEmptyCompletion.Error(), resp.ErrorDetail())
}

func TestAnswer_Timeout(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreOpenCensus)

	blocking := llm.CompleterFunc(func(ctx context.Context, _ llm.Request) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	n := New(nil, "", nil, Options{Timeout: 50 * time.Millisecond}, logger.Discard()).WithCompleter(blocking)

	start := time.Now()
	resp, err := n.Answer(context.Background(), testDataset(), offTopic, "")
	require.NoError(t, err)

	assert.Less(t, time.Since(start), time.Second)
	assert.False(t, resp.UsedFallback)
	assert.Contains(t, resp.ErrorDetail(), "timed out")
}

func TestAnswer_RequestCredentialWins(t *testing.T) {
	n := New(keyedProvider{}, "default-key", nil, Options{}, logger.Discard())

	resp, err := n.Answer(context.Background(), testDataset(), offTopic, "user-key")
	require.NoError(t, err)
	assert.Equal(t, "answered with user-key", resp.Answer)

	resp, err = n.Answer(context.Background(), testDataset(), offTopic, "")
	require.NoError(t, err)
	assert.Equal(t, "answered with default-key", resp.Answer)
}

func TestAnswer_BadRequestCredential(t *testing.T) {
	n := New(keyedProvider{}, "", nil, Options{}, logger.Discard())

	resp, err := n.Answer(context.Background(), testDataset(), offTopic, "bad")
	require.NoError(t, err)
	assert.Contains(t, resp.ErrorDetail(), "malformed key")
}

func TestNew_UnusableDefaultKey(t *testing.T) {
	n := New(keyedProvider{}, "bad", nil, Options{}, logger.Discard())

	resp, err := n.Answer(context.Background(), testDataset(), offTopic, "")
	require.NoError(t, err)
	assert.Contains(t, resp.ErrorDetail(), "default completion credential unusable")
	assert.Equal(t, "fake-model", n.opts.Model)
}

func TestAnswer_CacheHit(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rc, err := cache.NewRedis(mr.Addr(), time.Minute)
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()

	comp := &countingCompleter{reply: "cached answer"}
	n := New(nil, "", rc, Options{}, logger.Discard()).WithCompleter(comp)
	ds := testDataset()

	first, err := n.Answer(context.Background(), ds, offTopic, "")
	require.NoError(t, err)
	second, err := n.Answer(context.Background(), ds, "  WHY IS THE SKY BLUE?  ", "")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, second.UsedFallback)
	assert.Equal(t, int32(1), comp.calls.Load())
}

func TestAnswer_Deterministic(t *testing.T) {
	n := newTestNegotiator(nil)
	ds := testDataset()

	a, err := n.Answer(context.Background(), ds, "top error causes", "")
	require.NoError(t, err)
	b, err := n.Answer(context.Background(), ds, "top error causes", "")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
