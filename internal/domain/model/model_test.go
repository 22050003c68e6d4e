package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSurveyResponse_FlattensAnswersWithServerTimestamp(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	resp := SurveyResponse{
		Answers: map[string]any{
			"favouriteGame": "obby",
			"timestamp":     "client-supplied",
		},
		Timestamp: ts,
	}

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"favouriteGame":"obby","timestamp":"2026-03-01T12:00:00Z"}`, string(data))

	var back SurveyResponse
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, ts, back.Timestamp)
	assert.Equal(t, map[string]any{"favouriteGame": "obby"}, back.Answers)
}

func TestSurveyResponse_UnparseableTimestampKeptAsAnswer(t *testing.T) {
	var resp SurveyResponse
	require.NoError(t, json.Unmarshal([]byte(`{"timestamp":"yesterday","q1":3}`), &resp))

	assert.True(t, resp.Timestamp.IsZero())
	assert.Equal(t, "yesterday", resp.Answers["timestamp"])
	assert.Equal(t, float64(3), resp.Answers["q1"])
}

func TestUser_IdentityOmitsHash(t *testing.T) {
	u := &User{ID: 1, Username: "Ana_01", PasswordHash: "$2a$10$abc", AvatarURL: "https://img.example/a.png"}

	data, err := json.Marshal(u.Identity())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "passwordHash")
	assert.NotContains(t, string(data), "$2a$10$abc")
	assert.Contains(t, string(data), `"username":"Ana_01"`)
}

func TestUsernamePattern(t *testing.T) {
	valid := []string{"Ana_01", "ab", "a-b", "ABCDEFGHIJKLMNOPQRSTUVWXYZ012345"}
	invalid := []string{"a", "", "with space", "émile", "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456", "semi;colon"}

	for _, name := range valid {
		assert.True(t, UsernamePattern.MatchString(name), name)
	}
	for _, name := range invalid {
		assert.False(t, UsernamePattern.MatchString(name), name)
	}
}
