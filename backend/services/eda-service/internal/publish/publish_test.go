package publish

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chargeinsight/backend/services/eda-service/internal/analysis"
)

func sampleInput() Input {
	nan := math.NaN()
	return Input{
		RunID:       "run-1",
		Source:      "events.csv",
		GeneratedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("CET", 3600)),
		Rows:        4,
		Chargers:    []string{"A", "Unknown"},
		Describe: []analysis.Summary{
			{Column: "Total Duration (s)", Count: 4, Mean: 10, Std: 2, Min: 8, P25: 9, P50: 10, P75: 11, Max: 12},
			{Column: "Meter Start (Wh)", Count: 0, Mean: nan, Std: nan, Min: nan, P25: nan, P50: nan, P75: nan, Max: nan},
		},
		Outliers: analysis.FindOutliers([]float64{1, 2, 3, 100}, 0.95),
		Numeric: analysis.CorrelationMatrix([]analysis.Column{
			{Name: "a", Values: []float64{1, 2, 3}},
			{Name: "b", Values: []float64{5, 5, 5}},
		}),
		Plots: []string{"Plots/histograms_overall.png"},
	}
}

func TestNewSummaryMapsUndefinedToNil(t *testing.T) {
	s := NewSummary(sampleInput())

	assert.Equal(t, "run-1", s.RunID)
	assert.Equal(t, time.UTC, s.GeneratedAt.Location())
	require.Len(t, s.Describe, 2)
	require.NotNil(t, s.Describe[0].Mean)
	assert.Equal(t, 10.0, *s.Describe[0].Mean)
	assert.Nil(t, s.Describe[1].Mean)

	assert.Equal(t, 1, s.Outliers.Count)
	assert.Equal(t, 4, s.Outliers.Total)
	require.NotNil(t, s.Outliers.Proportion)
	assert.Equal(t, 25.0, *s.Outliers.Proportion)

	require.Len(t, s.Numeric.Values, 2)
	assert.Equal(t, 1.0, *s.Numeric.Values[0][0])
	assert.Nil(t, s.Numeric.Values[0][1])
	assert.Nil(t, s.Numeric.Values[1][1])
	assert.Empty(t, s.Temporal.Values)
}

func TestSummaryJSONUsesNullForUndefined(t *testing.T) {
	data, err := json.Marshal(NewSummary(sampleInput()))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"mean":null`)
	assert.Contains(t, string(data), `"numeric_correlation":{"names":["a","b"]`)
}

func TestMsgpackCodecKeepsNilFields(t *testing.T) {
	want := NewSummary(sampleInput())

	data, err := EncodeSummary(want)
	require.NoError(t, err)
	got, err := DecodeSummary(data)
	require.NoError(t, err)

	assert.Equal(t, want.RunID, got.RunID)
	assert.True(t, want.GeneratedAt.Equal(got.GeneratedAt))
	assert.Nil(t, got.Describe[1].Max)
	assert.Equal(t, *want.Describe[0].Max, *got.Describe[0].Max)
	assert.Nil(t, got.Numeric.Values[0][1])
}

func TestSummaryKey(t *testing.T) {
	assert.Equal(t, "eda:summary:run-1", SummaryKey("run-1"))
	assert.Equal(t, "eda:summary:latest", SummaryKey(latestRun))
}

func TestRedisStoreReportsUnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond, MaxRetries: -1})
	store := NewRedisStore(client, time.Minute)
	defer store.Close()

	err := store.Publish(context.Background(), NewSummary(sampleInput()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run-1")
}

type recordingClient struct {
	topics   []string
	payloads [][]byte
	retained []bool
	closed   bool
	err      error
}

func (c *recordingClient) Publish(_ context.Context, topic string, payload []byte, retained bool) error {
	if c.err != nil {
		return c.err
	}
	c.topics = append(c.topics, topic)
	c.payloads = append(c.payloads, payload)
	c.retained = append(c.retained, retained)
	return nil
}

func (c *recordingClient) Close() { c.closed = true }

func TestMQTTPublisherSendsRetainedJSON(t *testing.T) {
	client := &recordingClient{}
	pub, err := NewMQTTPublisher(client, " chargeinsight/eda/ ")
	require.NoError(t, err)

	require.NoError(t, pub.Publish(context.Background(), NewSummary(sampleInput())))
	assert.Equal(t, []string{"chargeinsight/eda/run-1", "chargeinsight/eda/latest"}, client.topics)
	assert.Equal(t, []bool{true, true}, client.retained)

	var decoded Summary
	require.NoError(t, json.Unmarshal(client.payloads[0], &decoded))
	assert.Equal(t, 4, decoded.Rows)

	require.NoError(t, pub.Close())
	assert.True(t, client.closed)
}

func TestMQTTPublisherRejectsEmptyTopic(t *testing.T) {
	_, err := NewMQTTPublisher(&recordingClient{}, " / ")
	assert.Error(t, err)
}

type stubPublisher struct {
	calls    int
	err      error
	closeErr error
}

func (s *stubPublisher) Publish(context.Context, Summary) error {
	s.calls++
	return s.err
}

func (s *stubPublisher) Close() error { return s.closeErr }

func TestMultiDeliversToAllAndJoinsErrors(t *testing.T) {
	errA := errors.New("a down")
	a := &stubPublisher{err: errA}
	b := &stubPublisher{}
	m := NewMulti(a, nil, b)

	assert.Equal(t, 2, m.Len())
	err := m.Publish(context.Background(), Summary{RunID: "x"})
	assert.ErrorIs(t, err, errA)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)

	errClose := errors.New("close")
	b.closeErr = errClose
	assert.ErrorIs(t, m.Close(), errClose)
}
