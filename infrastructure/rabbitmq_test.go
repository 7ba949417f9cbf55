package infrastructure

import (
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDelivery(t *testing.T) {
	msg, err := decodeDelivery(amqp.Delivery{
		MessageId: "job-1",
		Body:      []byte(`{"interview_id":"iv-1"}`),
		Headers:   amqp.Table{attemptHeader: int32(2)},
	})

	require.NoError(t, err)
	assert.Equal(t, "job-1", msg.JobID)
	assert.Equal(t, "iv-1", msg.InterviewID)
	assert.Equal(t, 2, msg.Attempt)
}

func TestDecodeDeliveryMalformed(t *testing.T) {
	for name, body := range map[string]string{
		"not json":             "interview",
		"missing interview id": `{"id":"x"}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := decodeDelivery(amqp.Delivery{Body: []byte(body)})
			assert.ErrorContains(t, err, "invalid job format")
		})
	}
}

func TestAttemptFromHeaders(t *testing.T) {
	tests := []struct {
		name    string
		headers amqp.Table
		want    int
	}{
		{name: "no headers", headers: nil, want: 1},
		{name: "int32", headers: amqp.Table{attemptHeader: int32(3)}, want: 3},
		{name: "int64", headers: amqp.Table{attemptHeader: int64(2)}, want: 2},
		{name: "wrong type", headers: amqp.Table{attemptHeader: "2"}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, attemptFromHeaders(tt.headers))
		})
	}
}

func TestRedeliveryDelay(t *testing.T) {
	tests := []struct {
		count int
		want  time.Duration
		ok    bool
	}{
		{count: 1, want: 5 * time.Second, ok: true},
		{count: 2, want: 10 * time.Second, ok: true},
		{count: 4, want: 40 * time.Second, ok: true},
		{count: 7, want: 5 * time.Minute, ok: true},
		{count: maxRedeliveries, want: 5 * time.Minute, ok: true},
		{count: maxRedeliveries + 1, ok: false},
	}

	for _, tt := range tests {
		got, ok := redeliveryDelay(tt.count)
		assert.Equal(t, tt.ok, ok, "redelivery %d", tt.count)
		assert.Equal(t, tt.want, got, "redelivery %d", tt.count)
	}
}

func TestRedeliveryCountFromHeaders(t *testing.T) {
	assert.Equal(t, 0, headerInt(nil, redeliveryHeader, 0))
	assert.Equal(t, 3, headerInt(amqp.Table{redeliveryHeader: int32(3)}, redeliveryHeader, 0))
	assert.Equal(t, 2, headerInt(amqp.Table{redeliveryHeader: int32(3), attemptHeader: int32(2)}, attemptHeader, 1))
}
