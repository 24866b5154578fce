package shairport

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/doorbell-panel/internal/domain/event"
)

// item renders one metadata stream element the way shairport-sync emits it.
func item(class, code, payload string) string {
	if payload == "" {
		return fmt.Sprintf("<item><type>%s</type><code>%s</code><length>0</length></item>",
			hex.EncodeToString([]byte(class)), hex.EncodeToString([]byte(code)))
	}

	return fmt.Sprintf(
		"<item><type>%s</type><code>%s</code><length>%d</length>\n<data encoding=\"base64\">\n%s</data></item>",
		hex.EncodeToString([]byte(class)), hex.EncodeToString([]byte(code)),
		len(payload), base64.StdEncoding.EncodeToString([]byte(payload)))
}

// collect runs the decoder over the stream and returns the emitted events.
func collect(t *testing.T, stream string) []*event.Metadata {
	t.Helper()

	var emitted []*event.Metadata

	err := decodeStream(strings.NewReader(stream), func(m *event.Metadata) {
		emitted = append(emitted, m)
	})
	require.NoError(t, err)

	return emitted
}

// TestDecodeStream_TrackLifecycle walks a full session: begin, artist and
// title, flush to pause, resume, end.
func TestDecodeStream_TrackLifecycle(t *testing.T) {
	t.Parallel()

	stream := strings.Join([]string{
		item("ssnc", "pbeg", ""),
		item("core", "asar", "Miles Davis"),
		item("core", "asal", "Kind of Blue"),
		item("core", "minm", "So What"),
		item("ssnc", "pfls", ""),
		item("ssnc", "prsm", ""),
		item("ssnc", "pend", ""),
	}, "\n")

	emitted := collect(t, stream)
	require.Len(t, emitted, 5)

	require.Equal(t, event.PlayStatePlaying, emitted[0].State)
	require.Empty(t, emitted[0].Title)

	// Artist and album alone do not emit; the title completes the track.
	require.Equal(t, "So What", emitted[1].Title)
	require.Equal(t, "Miles Davis", emitted[1].Artist)
	require.Equal(t, event.PlayStatePlaying, emitted[1].State)

	require.Equal(t, event.PlayStatePaused, emitted[2].State)
	require.Equal(t, event.PlayStatePlaying, emitted[3].State)

	require.Equal(t, event.PlayStateStopped, emitted[4].State)
	require.Empty(t, emitted[4].Title)
	require.Empty(t, emitted[4].Artist)
}

// TestDecodeStream_TitleImpliesPlaying asserts a title arriving without a
// begin marker still reports a playing session.
func TestDecodeStream_TitleImpliesPlaying(t *testing.T) {
	t.Parallel()

	emitted := collect(t, item("core", "minm", "Blue in Green"))
	require.Len(t, emitted, 1)
	require.Equal(t, event.PlayStatePlaying, emitted[0].State)
	require.Equal(t, "Blue in Green", emitted[0].Title)
}

// TestDecodeStream_SkipsUnknownItems asserts uninteresting and garbled
// items are skipped without an error.
func TestDecodeStream_SkipsUnknownItems(t *testing.T) {
	t.Parallel()

	stream := strings.Join([]string{
		item("ssnc", "pvol", "-20.5"),
		"<item><type>zzzz</type><code>9</code><length>0</length></item>",
		item("core", "minm", "Freddie Freeloader"),
	}, "\n")

	emitted := collect(t, stream)
	require.Len(t, emitted, 1)
	require.Equal(t, "Freddie Freeloader", emitted[0].Title)
}

// TestDecodeStream_EmptyStream asserts EOF on an empty pipe is not an error.
func TestDecodeStream_EmptyStream(t *testing.T) {
	t.Parallel()

	require.Empty(t, collect(t, ""))
}
