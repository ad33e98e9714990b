package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/rfw-verification/internal/verify"
)

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	report := verify.Report{
		Label:  "northwest-lightning",
		Status: verify.StatusOK,
		Result: &verify.Result{
			RunID:       "run-1",
			GeneratedAt: now,
		},
	}

	msg, err := serializeToMessage(report)
	require.NoError(t, err)

	assert.Equal(t, []byte("run-1"), msg.Key)
	assert.Contains(t, string(msg.Value), `"label":"northwest-lightning"`)
	assert.Contains(t, string(msg.Value), `"run_id":"run-1"`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "label", msg.Headers[0].Key)
	assert.Equal(t, []byte("northwest-lightning"), msg.Headers[0].Value)
	assert.Equal(t, "status", msg.Headers[1].Key)
	assert.Equal(t, []byte("ok"), msg.Headers[1].Value)
	assert.Equal(t, "generated_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[2].Value)
}

func TestSerializeToMessage_InvalidReport(t *testing.T) {
	report := verify.Report{
		Label:  "bad-dates",
		Status: verify.StatusInvalid,
		Error:  "invalid filter options: start after end",
	}

	msg, err := serializeToMessage(report)
	require.NoError(t, err)

	assert.Equal(t, []byte("bad-dates"), msg.Key)
	assert.NotContains(t, string(msg.Value), `"result"`)
	assert.Contains(t, string(msg.Value), `"status":"invalid"`)
	assert.Empty(t, msg.Headers[2].Value)
}
