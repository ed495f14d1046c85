package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmitFansOutToAllNotifiers(t *testing.T) {
	var seen []string
	record := func(name string) Notifier {
		return NotifierFunc(func(_ context.Context, ev Event) error {
			seen = append(seen, name+":"+ev.Topic)
			return nil
		})
	}
	bus := &Bus{Notifiers: []Notifier{record("a"), nil, record("b")}}

	ev, err := bus.Emit(context.Background(), TopicServiceUpdated, "svc-1", map[string]string{"name": "wax"})
	require.NoError(t, err)
	require.Equal(t, TopicServiceUpdated, ev.Topic)
	require.JSONEq(t, `{"name":"wax"}`, string(ev.Payload))
	require.Equal(t, []string{"a:" + TopicServiceUpdated, "b:" + TopicServiceUpdated}, seen)
}

func TestEmitJoinsNotifierErrors(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	bus := &Bus{Notifiers: []Notifier{
		NotifierFunc(func(context.Context, Event) error { calls++; return boom }),
		NotifierFunc(func(context.Context, Event) error { calls++; return nil }),
	}}

	_, err := bus.Emit(context.Background(), TopicQuoteSaved, "q-1", nil)
	require.ErrorIs(t, err, boom)
	require.Equal(t, 2, calls)
}

func TestEmitRequiresTopic(t *testing.T) {
	bus := &Bus{}
	_, err := bus.Emit(context.Background(), "  ", "x", nil)
	require.Error(t, err)
}

func TestEmitRejectsInvalidRawPayload(t *testing.T) {
	bus := &Bus{}
	_, err := bus.Emit(context.Background(), TopicVoucherCreated, "v-1", []byte("{not json"))
	require.Error(t, err)
}
