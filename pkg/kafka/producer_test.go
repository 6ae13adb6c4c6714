package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func nopLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestProducer_Publish(t *testing.T) {
	w := &recordingWriter{}
	p := newProducer(w, "clover.configurations", nopLogger())

	err := p.Publish(context.Background(), &ConfigurationEvent{
		EventType:       "configuration.estimated",
		ConfigurationID: "cfg-1",
		Name:            "by birthdate",
		Data:            json.RawMessage(`{"estimated_pairs":12}`),
	})
	require.NoError(t, err)
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, "clover.configurations", msg.Topic)
	assert.Equal(t, []byte("cfg-1"), msg.Key)
	assert.Equal(t, kafka.Header{Key: "event_type", Value: []byte("configuration.estimated")}, msg.Headers[0])

	var decoded ConfigurationEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "by birthdate", decoded.Name)
	assert.False(t, decoded.Timestamp.IsZero())
	assert.JSONEq(t, `{"estimated_pairs":12}`, string(decoded.Data))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducer_PublishWriteError(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker unavailable")}
	p := newProducer(w, "t", nopLogger())

	err := p.Publish(context.Background(), &ConfigurationEvent{EventType: "configuration.estimated"})
	assert.EqualError(t, err, "broker unavailable")
}

func TestCompression(t *testing.T) {
	assert.Equal(t, kafka.Gzip, compression("gzip"))
	assert.Equal(t, kafka.Zstd, compression("zstd"))
	assert.Equal(t, kafka.Compression(0), compression("none"))
	assert.Equal(t, kafka.Snappy, compression(""))
}
