package mqtt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestParseRingPayload covers the documented ring payload shapes.
func TestParseRingPayload(t *testing.T) {
	t.Parallel()

	t.Run("full payload", func(t *testing.T) {
		t.Parallel()

		active, ts, url, err := parseRingPayload([]byte(
			`{"active": true, "timestamp": "2026-02-07T18:30:00Z", "video_url": "rtsp://door/cam"}`))

		require.NoError(t, err)
		require.True(t, active)
		require.Equal(t, time.Date(2026, 2, 7, 18, 30, 0, 0, time.UTC), ts)
		require.Equal(t, "rtsp://door/cam", url)
	})

	t.Run("off event", func(t *testing.T) {
		t.Parallel()

		active, _, _, err := parseRingPayload([]byte(`{"active": false}`))
		require.NoError(t, err)
		require.False(t, active)
	})

	t.Run("missing active means ring", func(t *testing.T) {
		t.Parallel()

		active, _, url, err := parseRingPayload([]byte(`{"video_url": "rtsp://x"}`))
		require.NoError(t, err)
		require.True(t, active)
		require.Equal(t, "rtsp://x", url)
	})

	t.Run("bad timestamp falls back to zero", func(t *testing.T) {
		t.Parallel()

		active, ts, _, err := parseRingPayload([]byte(`{"active": true, "timestamp": "yesterday"}`))
		require.NoError(t, err)
		require.True(t, active)
		require.True(t, ts.IsZero())
	})

	t.Run("malformed payload rejected", func(t *testing.T) {
		t.Parallel()

		_, _, _, err := parseRingPayload([]byte(`ding dong`))
		require.Error(t, err)
	})
}

// TestParseMessagePayload covers the object, bare-string and raw forms of
// the message topic.
func TestParseMessagePayload(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		payload string
		want    string
	}{
		"json object":     {`{"text": "package delivered"}`, "package delivered"},
		"bare string":     {`"hello there"`, "hello there"},
		"raw text":        {`plain payload`, "plain payload"},
		"whitespace only": {`"   "`, ""},
	}

	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.want, parseMessagePayload([]byte(tc.payload)))
		})
	}
}
