package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordAnswer(t *testing.T) {
	AnswersTotal.Reset()

	RecordAnswer("entry", OutcomeResolved)
	RecordAnswer("entry", OutcomeResolved)
	RecordAnswer("exit", OutcomeFallbackError)

	assert.Equal(t, 2.0, testutil.ToFloat64(AnswersTotal.WithLabelValues("entry", OutcomeResolved)))
	assert.Equal(t, 1.0, testutil.ToFloat64(AnswersTotal.WithLabelValues("exit", OutcomeFallbackError)))
	assert.Equal(t, 0.0, testutil.ToFloat64(AnswersTotal.WithLabelValues("exit", OutcomeResolved)))
}

func TestRecordIntent(t *testing.T) {
	IntentsTotal.Reset()

	RecordIntent("success_rate")

	assert.Equal(t, 1.0, testutil.ToFloat64(IntentsTotal.WithLabelValues("success_rate")))
}

func TestRecordCompletion(t *testing.T) {
	CompletionDuration.Reset()

	RecordCompletion("openai", nil, 2*time.Second)
	RecordCompletion("openai", errors.New("quota"), time.Second)

	assert.Equal(t, 2, testutil.CollectAndCount(CompletionDuration))
}

func TestSetDatasetRecords(t *testing.T) {
	DatasetRecords.Reset()

	SetDatasetRecords("entry", 10)
	SetDatasetRecords("entry", 12)

	assert.Equal(t, 12.0, testutil.ToFloat64(DatasetRecords.WithLabelValues("entry")))
}

func TestRecordHTTPRequest(t *testing.T) {
	HTTPRequestsTotal.Reset()
	HTTPRequestDuration.Reset()

	RecordHTTPRequest("POST", "/api/chat/:dataset", "200", 100*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/api/chat/:dataset", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(HTTPRequestDuration))
}
