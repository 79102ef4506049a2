//go:build integration

package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	audit "nicgate/pkg/platform/audit"
	"nicgate/pkg/testutil/containers"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"
)

type KafkaStoreSuite struct {
	suite.Suite
	brokers []string
	store   *Store
}

func TestKafkaStoreSuite(t *testing.T) {
	suite.Run(t, new(KafkaStoreSuite))
}

func (s *KafkaStoreSuite) SetupSuite() {
	rp := containers.GetRedpandaContainer(s.T())
	s.brokers = []string{rp.Broker}
}

func (s *KafkaStoreSuite) SetupTest() {
	store, err := New(s.brokers, "nic.audit."+s.T().Name())
	s.Require().NoError(err)
	s.store = store
}

func (s *KafkaStoreSuite) TearDownTest() {
	s.store.Close()
}

func (s *KafkaStoreSuite) TestAppendIsConsumable() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := s.store.Append(ctx, audit.Event{
		Timestamp: time.Now(),
		Subject:   "subject-hash",
		Action:    string(audit.EventNICAttemptsLocked),
	})
	s.Require().NoError(err)

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.brokers...),
		kgo.ConsumeTopics(s.store.topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().Empty(fetches.Errors())

	var records []*kgo.Record
	fetches.EachRecord(func(r *kgo.Record) { records = append(records, r) })
	s.Require().Len(records, 1)

	var got payload
	require.NoError(s.T(), json.Unmarshal(records[0].Value, &got))
	s.Equal("security", got.Category)
	s.Equal("subject-hash", got.Subject)
}
