package eventbus

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/orgtree/pkg/logging"
)

type args struct {
	data any
}

type otherArgs struct{}

func bufferedLogger(level logrus.Level) (*logrus.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	log := logrus.New()
	log.SetOutput(buf)
	log.SetLevel(level)
	return log, buf
}

func TestPublisher_Publish_NoMatch(t *testing.T) {
	log, buf := bufferedLogger(logrus.WarnLevel)
	publisher := NewEventPublisher(log)
	publisher.Subscribe(func(e *args) {
		t.Error("should not be called")
	})

	publisher.Publish(&otherArgs{})

	assert.Contains(t, buf.String(), "eventbus.Publish: no matching subscribers")
}

func TestPublisher_Subscribe(t *testing.T) {
	publisher := NewEventPublisher(logging.ConsoleLogger(logrus.WarnLevel))
	var data any
	publisher.Subscribe(func(e *args) {
		data = e.data
	})

	publisher.Publish(&args{data: "test"})

	assert.Equal(t, "test", data)
	assert.Equal(t, 1, publisher.SubscribersCount())
}

func TestMatchSignature(t *testing.T) {
	assert.True(t, MatchSignature(func(e *args) {}, []any{&args{}}))
	assert.False(t, MatchSignature(func(e *args) {}, []any{&otherArgs{}}))
	assert.False(t, MatchSignature(func(e *args) {}, []any{}))
	assert.False(t, MatchSignature(func(e *args) {}, []any{&args{}, &args{}}))
	assert.True(t, MatchSignature(func(ctx context.Context) {}, []any{context.Background()}))
	assert.True(t, MatchSignature(func(e *args) {}, []any{nil}))
	assert.False(t, MatchSignature("not a func", []any{&args{}}))
}

func TestPublisher_PanicRecovery(t *testing.T) {
	log, buf := bufferedLogger(logrus.WarnLevel)
	publisher := NewEventPublisher(log)

	first, third := false, false
	publisher.Subscribe(func(e *args) { first = true })
	publisher.Subscribe(func(e *args) { panic("handler 2 panic") })
	publisher.Subscribe(func(e *args) { third = true })

	require.NotPanics(t, func() { publisher.Publish(&args{data: "test"}) })

	assert.True(t, first)
	assert.True(t, third)
	assert.Contains(t, buf.String(), "panicked")
	assert.Contains(t, buf.String(), "handler 2 panic")
}

func TestPublisher_PublishE(t *testing.T) {
	boom := errors.New("boom")
	publisher := NewEventPublisher(logging.ConsoleLogger(logrus.PanicLevel))

	require.ErrorIs(t, publisher.PublishE(&args{}), ErrNoSubscribers)

	publisher.Subscribe(func(e *args) error { return nil })
	require.NoError(t, publisher.PublishE(&args{}))

	publisher.Subscribe(func(e *args) error { return boom })
	require.ErrorIs(t, publisher.PublishE(&args{}), boom)

	publisher.Subscribe(func(e *args) int { return 1 })
	require.ErrorIs(t, publisher.PublishE(&args{}), ErrInvalidHandlerReturn)
}

func TestPublisher_UnsubscribeAndClear(t *testing.T) {
	publisher := NewEventPublisher(logging.ConsoleLogger(logrus.PanicLevel))
	calls := 0
	handler := func(e *args) { calls++ }
	publisher.Subscribe(handler)
	publisher.Subscribe(func(e *otherArgs) {})

	publisher.Unsubscribe(handler)
	publisher.Publish(&args{})
	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, publisher.SubscribersCount())

	publisher.Clear()
	assert.Equal(t, 0, publisher.SubscribersCount())
}

type counter struct{ calls int }

func (c *counter) Handle(e *args) { c.calls++ }

func TestPublisher_UnsubscribeMethodValue(t *testing.T) {
	publisher := NewEventPublisher(logging.ConsoleLogger(logrus.PanicLevel))
	a, b := &counter{}, &counter{}
	handleA, handleB := a.Handle, b.Handle
	publisher.Subscribe(handleA)
	publisher.Subscribe(handleB)

	publisher.Unsubscribe(a.Handle)
	assert.Equal(t, 2, publisher.SubscribersCount(), "a fresh method value is ambiguous between receivers")

	publisher.Unsubscribe(handleA)
	publisher.Publish(&args{})
	assert.Equal(t, 0, a.calls)
	assert.Equal(t, 1, b.calls)
	assert.Equal(t, 1, publisher.SubscribersCount())

	publisher.Unsubscribe(b.Handle)
	assert.Equal(t, 0, publisher.SubscribersCount(), "the only subscriber with that code matches")
}
