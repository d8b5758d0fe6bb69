package redpanda

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aadhil-anwer/resume-analyzer/internal/domain"
)

func TestTaskPayloadRoundTrip(t *testing.T) {
	t.Parallel()
	in := domain.Task{Kind: domain.TaskJDMatch, RecordID: "abc-123"}
	b, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"jd_match","record_id":"abc-123"}`, string(b))

	var out domain.Task
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in, out)
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	t.Parallel()
	_, err := NewProducer(nil)
	require.Error(t, err)
}

func TestNewConsumer_RequiresBrokers(t *testing.T) {
	t.Parallel()
	_, err := NewConsumer(nil, "g", 4, nil)
	require.Error(t, err)
}
