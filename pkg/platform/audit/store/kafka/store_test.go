package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	audit "nicgate/pkg/platform/audit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

type fakeProducer struct {
	records []*kgo.Record
	err     error
	closed  bool
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		f.records = append(f.records, r)
		results = append(results, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return results
}

func (f *fakeProducer) Close() { f.closed = true }

func TestStore_AppendProducesKeyedRecord(t *testing.T) {
	fake := &fakeProducer{}
	store := newWithProducer(fake, "nic.audit")

	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	err := store.Append(context.Background(), audit.Event{
		Timestamp: ts,
		Subject:   "hash-1",
		Action:    string(audit.EventNICValidationFailed),
		Decision:  "invalid",
		Reason:    "gender_mismatch",
	})
	require.NoError(t, err)
	require.Len(t, fake.records, 1)

	rec := fake.records[0]
	assert.Equal(t, "nic.audit", rec.Topic)
	assert.Equal(t, []byte("hash-1"), rec.Key)
	require.Len(t, rec.Headers, 1)
	assert.Equal(t, "compliance", string(rec.Headers[0].Value))

	var got payload
	require.NoError(t, json.Unmarshal(rec.Value, &got))
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "compliance", got.Category)
	assert.Equal(t, ts.Format(time.RFC3339Nano), got.Timestamp)
	assert.Equal(t, "gender_mismatch", got.Reason)
}

func TestStore_AppendWrapsProduceError(t *testing.T) {
	boom := errors.New("not enough replicas")
	store := newWithProducer(&fakeProducer{err: boom}, "nic.audit")

	err := store.Append(context.Background(), audit.Event{Subject: "s", Action: string(audit.EventNICDecoded)})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestStore_Close(t *testing.T) {
	fake := &fakeProducer{}
	newWithProducer(fake, "t").Close()
	assert.True(t, fake.closed)
}
