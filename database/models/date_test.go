package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-07-15")
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 2024, Month: time.July, Day: 15}, d)
	assert.Equal(t, "2024-07-15", d.String())

	_, err = ParseDate("2024-02-30")
	assert.Error(t, err)
	_, err = ParseDate("15/07/2024")
	assert.Error(t, err)
}

func TestDateScan(t *testing.T) {
	var d Date

	require.NoError(t, d.Scan(time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-07-15", d.String())

	require.NoError(t, d.Scan("2023-01-02"))
	assert.Equal(t, "2023-01-02", d.String())

	require.NoError(t, d.Scan([]byte("2022-12-31T00:00:00Z")))
	assert.Equal(t, "2022-12-31", d.String())

	assert.Error(t, d.Scan(42))
}

func TestDateJSON(t *testing.T) {
	type payload struct {
		When Date `json:"when"`
	}
	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"when":"2024-07-15"}`), &p))
	assert.Equal(t, 15, p.When.Day)

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"when":"2024-07-15"}`, string(out))
}

func TestDateBefore(t *testing.T) {
	a := Date{Year: 2024, Month: time.January, Day: 31}
	b := Date{Year: 2024, Month: time.February, Day: 1}
	assert.True(t, a.Before(b))
	assert.False(t, b.Before(a))
	assert.False(t, a.Before(a))
}
