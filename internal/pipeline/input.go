package pipeline

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode"

	"github.com/pfrederiksen/event-ingest/internal/event"
)

// ReadFragments decodes either a JSON array of fragments or JSON Lines
func ReadFragments(r io.Reader) ([]event.Fragment, error) {
	br := bufio.NewReader(r)

	first, err := firstNonSpace(br)
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading fragments: %w", err)
	}

	dec := json.NewDecoder(br)
	if first == '[' {
		var fragments []event.Fragment
		if err := dec.Decode(&fragments); err != nil {
			return nil, fmt.Errorf("decoding fragment array: %w", err)
		}
		return fragments, nil
	}

	var fragments []event.Fragment
	for line := 1; ; line++ {
		var f event.Fragment
		err := dec.Decode(&f)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding fragment %d: %w", line, err)
		}
		fragments = append(fragments, f)
	}
	return fragments, nil
}

// firstNonSpace returns the first significant byte without consuming it
func firstNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if !unicode.IsSpace(rune(b)) && b != 0xEF && b != 0xBB && b != 0xBF {
			return b, br.UnreadByte()
		}
	}
}
