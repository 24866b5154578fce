package shairport

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/oshokin/doorbell-panel/internal/domain/event"
)

// Metadata item classes and codes the panel reacts to.
const (
	typeCore = "core"
	typeSSNC = "ssnc"

	codeArtist = "asar"
	codeAlbum  = "asal"
	codeTitle  = "minm"

	codePlaybackBegin  = "pbeg"
	codePlaybackResume = "prsm"
	codePlaybackFlush  = "pfls"
	codePlaybackEnd    = "pend"
)

// rawItem is one <item> element of the metadata stream.
type rawItem struct {
	// Type is the hex-encoded item class, "core" or "ssnc".
	Type string `xml:"type"`
	// Code is the hex-encoded four-character item code.
	Code string `xml:"code"`
	// Length is the payload length in bytes.
	Length int `xml:"length"`
	// Data is the base64 payload, present when Length is non-zero.
	Data struct {
		// Encoding is the payload encoding attribute, always base64.
		Encoding string `xml:"encoding,attr"`
		// Value is the encoded payload.
		Value string `xml:",chardata"`
	} `xml:"data"`
}

// decoder accumulates track fields across items and produces one metadata
// event whenever something worth showing changed.
type decoder struct {
	// artist is the current artist, reset on playback end.
	artist string
	// album is the current album, tracked for completeness.
	album string
	// title is the current track title.
	title string
	// state is the current transport state.
	state event.PlayState
}

// handleItem folds one decoded item and reports whether an event should be
// emitted with the decoder's current view.
func (d *decoder) handleItem(class, code string, payload []byte) bool {
	switch class {
	case typeCore:
		switch code {
		case codeArtist:
			d.artist = string(payload)
			return false
		case codeAlbum:
			d.album = string(payload)
			return false
		case codeTitle:
			d.title = string(payload)

			// A title flowing in means a session is live even when the
			// begin marker was missed, e.g. after a panel restart.
			if d.state == event.PlayStateStopped {
				d.state = event.PlayStatePlaying
			}

			return true
		default:
			return false
		}
	case typeSSNC:
		switch code {
		case codePlaybackBegin, codePlaybackResume:
			d.state = event.PlayStatePlaying
			return true
		case codePlaybackFlush:
			d.state = event.PlayStatePaused
			return true
		case codePlaybackEnd:
			d.state = event.PlayStateStopped
			d.artist, d.album, d.title = "", "", ""

			return true
		default:
			return false
		}
	default:
		return false
	}
}

// metadata snapshots the decoder state as an event payload.
func (d *decoder) metadata() *event.Metadata {
	return &event.Metadata{
		Artist: d.artist,
		Title:  d.title,
		State:  d.state,
	}
}

// decodeStream reads items from the pipe until EOF or a decode error,
// invoking emit for every reportable change.
func decodeStream(r io.Reader, emit func(*event.Metadata)) error {
	var (
		dec = xml.NewDecoder(r)
		d   decoder
	)

	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return nil
			}

			return fmt.Errorf("read metadata stream: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "item" {
			continue
		}

		var item rawItem
		if err := dec.DecodeElement(&item, &start); err != nil {
			return fmt.Errorf("decode metadata item: %w", err)
		}

		class, code, payload, err := unpackItem(&item)
		if err != nil {
			// Unknown or garbled items are physical noise on this pipe,
			// skipped rather than reported.
			continue
		}

		if d.handleItem(class, code, payload) {
			emit(d.metadata())
		}
	}
}

// unpackItem resolves the hex four-character codes and the base64 payload.
func unpackItem(item *rawItem) (class, code string, payload []byte, err error) {
	classBytes, err := hex.DecodeString(strings.TrimSpace(item.Type))
	if err != nil {
		return "", "", nil, fmt.Errorf("decode item type: %w", err)
	}

	codeBytes, err := hex.DecodeString(strings.TrimSpace(item.Code))
	if err != nil {
		return "", "", nil, fmt.Errorf("decode item code: %w", err)
	}

	if item.Length > 0 && item.Data.Value != "" {
		payload, err = base64.StdEncoding.DecodeString(strings.TrimSpace(item.Data.Value))
		if err != nil {
			return "", "", nil, fmt.Errorf("decode item payload: %w", err)
		}
	}

	return string(classBytes), string(codeBytes), payload, nil
}
