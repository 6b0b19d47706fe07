package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	written []kafka.Message
	err     error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestPublish(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "events")

	err := p.Publish(context.Background(),
		Event{Key: "q1", Type: "search", Value: map[string]int{"hits": 2}},
		Event{Key: "q2", Value: "plain"},
	)
	require.NoError(t, err)
	require.Len(t, w.written, 2)
	assert.Equal(t, []byte("q1"), w.written[0].Key)
	assert.JSONEq(t, `{"hits":2}`, string(w.written[0].Value))
	assert.Equal(t, []kafka.Header{{Key: typeHeader, Value: []byte("search")}}, w.written[0].Headers)
	assert.Empty(t, w.written[1].Headers)

	require.NoError(t, p.Publish(context.Background()))
	assert.Len(t, w.written, 2)
}

func TestPublishErrors(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "events")
	err := p.Publish(context.Background(), Event{Value: make(chan int)})
	require.Error(t, err)
	assert.Empty(t, w.written)

	w.err = errors.New("broker down")
	err = p.Publish(context.Background(), Event{Value: 1})
	assert.ErrorIs(t, err, w.err)
}

type fakeReader struct {
	msgs      []kafka.Message
	committed []kafka.Message
	cancel    context.CancelFunc
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		r.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func TestConsumerRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &fakeReader{
		cancel: cancel,
		msgs: []kafka.Message{
			{Offset: 1, Value: []byte(`1`), Headers: []kafka.Header{{Key: typeHeader, Value: []byte("search")}}},
			{Offset: 2, Value: []byte(`bad`)},
			{Offset: 3, Value: []byte(`3`)},
		},
	}
	var got []int
	var types []string
	c := newConsumer(r, "events", func(_ context.Context, msg Message) error {
		n, err := DecodeJSON[int](msg.Value)
		if err != nil {
			return err
		}
		got = append(got, n)
		types = append(types, msg.Type)
		return nil
	})

	require.NoError(t, c.Run(ctx))
	assert.Equal(t, []int{1, 3}, got)
	assert.Equal(t, []string{"search", ""}, types)
	require.Len(t, r.committed, 2)
	assert.EqualValues(t, 3, r.committed[1].Offset)
	assert.True(t, r.closed)
}
