package ingest

import (
	"context"
	"fmt"
	"testing"

	"memory_console/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayload(t *testing.T) {
	cases := []struct {
		in   string
		want models.Scalar
	}{
		{"21.5", models.Number(21.5)},
		{" 7 \n", models.Number(7)},
		{`"3.25"`, models.Number(3.25)},
		{"true", models.Bool(true)},
		{"FALSE", models.Bool(false)},
		{`{"value": 18}`, models.Number(18)},
		{`{"value": true, "ts": "2025-08-27T12:00:00Z"}`, models.Bool(true)},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParsePayload([]byte(tc.in))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParsePayload_Rejects(t *testing.T) {
	for _, in := range []string{"", "   ", "hot", `{"val": 1}`, `{"value": "x"}`, `{`} {
		_, err := ParsePayload([]byte(in))
		assert.Error(t, err, "payload %q", in)
	}
}

func TestPointID(t *testing.T) {
	cases := []struct {
		prefix, topic string
		want          string
		ok            bool
	}{
		{"points", "points/ai-1", "ai-1", true},
		{"/plant/points/", "plant/points/ai-1", "ai-1", true},
		{"", "ai-1", "ai-1", true},
		{"points", "other/ai-1", "", false},
		{"points", "points/a/b", "", false},
		{"points", "points/", "", false},
	}
	for _, tc := range cases {
		got, ok := PointID(tc.prefix, tc.topic)
		assert.Equal(t, tc.ok, ok, "%s %s", tc.prefix, tc.topic)
		assert.Equal(t, tc.want, got, "%s %s", tc.prefix, tc.topic)
	}
}

type recordingSampler struct {
	ids    []string
	values []models.Scalar
	err    error
}

func (r *recordingSampler) Sample(_ context.Context, id string, v models.Scalar) error {
	if r.err != nil {
		return r.err
	}
	r.ids = append(r.ids, id)
	r.values = append(r.values, v)
	return nil
}

func TestSubscriber_Handle(t *testing.T) {
	rec := &recordingSampler{}
	s := NewSubscriber(Config{Broker: "tcp://127.0.0.1:1", ClientID: "t", TopicPrefix: "points"}, rec, nil)
	assert.Equal(t, "points/+", s.filter())

	s.handle(context.Background(), "points/ai-1", []byte("19.5"))
	s.handle(context.Background(), "points/di-1", []byte(`{"value": true}`))
	s.handle(context.Background(), "points/ai-1", []byte("garbage"))
	s.handle(context.Background(), "elsewhere/ai-1", []byte("1"))

	assert.Equal(t, []string{"ai-1", "di-1"}, rec.ids)
	assert.Equal(t, []models.Scalar{models.Number(19.5), models.Bool(true)}, rec.values)

	// Unknown points are dropped without panicking.
	rec.err = fmt.Errorf("point %q: %w", "zz", models.ErrNotFound)
	s.handle(context.Background(), "points/zz", []byte("1"))
	assert.Len(t, rec.ids, 2)
}
