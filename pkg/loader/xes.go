package loader

import (
	"bufio"
	"bytes"
	"context"
	"io"

	"github.com/albertodiazdurana/devflow-analyzer/internal/model"
	dferrors "github.com/albertodiazdurana/devflow-analyzer/pkg/errors"
)

// XES attribute key constants.
var (
	xesConceptName = []byte("concept:name")
	xesTimestamp   = []byte("time:timestamp")
	xesOrgResource = []byte("org:resource")
)

// XML element names.
var (
	xmlTrace  = []byte("trace")
	xmlEvent  = []byte("event")
	xmlString = []byte("string")
	xmlDate   = []byte("date")
	xmlInt    = []byte("int")
	xmlFloat  = []byte("float")
	xmlBool   = []byte("boolean")
)

// XES parser states.
type xesState uint8

const (
	stateInit xesState = iota
	stateTrace
	stateEvent
)

// XESLoader implements streaming XES parsing using a state machine
// over raw tags, without building a DOM.
type XESLoader struct {
	cfg Config
}

// NewXESLoader creates a new XES loader.
func NewXESLoader(cfg Config) *XESLoader {
	return &XESLoader{cfg: cfg}
}

// Parse implements the Loader interface.
func (l *XESLoader) Parse(ctx context.Context, r io.Reader, out chan<- model.Event) error {
	reader := bufio.NewReaderSize(r, l.cfg.BufferSize)

	state := stateInit
	var caseID string
	var event *model.Event
	tsSeen := false
	eventSeq := 0

	for {
		select {
		case <-ctx.Done():
			return dferrors.ContextCanceled("xes load")
		default:
		}

		line, err := reader.ReadBytes('>')
		if err != nil && err != io.EOF {
			return err
		}
		if len(line) == 0 && err == io.EOF {
			break
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			if err == io.EOF {
				break
			}
			continue
		}

		switch {
		case isOpenTag(line, xmlTrace):
			state = stateTrace
			caseID = ""

		case isCloseTag(line, xmlTrace):
			state = stateInit
			caseID = ""

		case isOpenTag(line, xmlEvent):
			state = stateEvent
			eventSeq++
			event = &model.Event{CaseID: caseID}
			tsSeen = false

		case isCloseTag(line, xmlEvent):
			if event != nil {
				if event.CaseID == "" {
					return dferrors.MalformedEvent("case_id", eventSeq)
				}
				if event.Activity == "" {
					return dferrors.MalformedEvent("activity", eventSeq)
				}
				if !tsSeen {
					return dferrors.InvalidTimestamp("", eventSeq)
				}
				select {
				case out <- *event:
				case <-ctx.Done():
					return dferrors.ContextCanceled("xes load")
				}
				event = nil
			}
			state = stateTrace

		case state == stateTrace && isAttributeTag(line):
			// Trace-level attribute: concept:name is the case id.
			key, value := extractAttribute(line)
			if bytes.Equal(key, xesConceptName) {
				caseID = string(value)
			}

		case state == stateEvent && isAttributeTag(line):
			if event != nil {
				saw, err := l.applyEventAttribute(line, event, eventSeq)
				if err != nil {
					return err
				}
				tsSeen = tsSeen || saw
			}
		}

		if err == io.EOF {
			break
		}
	}

	return nil
}

// applyEventAttribute updates the event from one XES attribute element.
// It reports whether the attribute carried the event timestamp, so a
// legitimate epoch timestamp is distinguishable from a missing one.
func (l *XESLoader) applyEventAttribute(line []byte, event *model.Event, seq int) (bool, error) {
	key, value := extractAttribute(line)
	if key == nil || value == nil {
		return false, nil
	}

	switch {
	case bytes.Equal(key, xesConceptName):
		event.Activity = string(value)

	case bytes.Equal(key, xesTimestamp):
		ts, err := parseTimestampNanos(string(value), l.cfg.TimestampFormat)
		if err != nil {
			return false, dferrors.InvalidTimestamp(string(value), seq)
		}
		event.Timestamp = ts
		return true, nil

	case bytes.Equal(key, xesOrgResource):
		event.Resource = string(value)

	default:
		if event.Attributes == nil {
			event.Attributes = make(map[string]string)
		}
		event.Attributes[string(key)] = string(value)
	}
	return false, nil
}

// isOpenTag checks if line is an opening tag for the given element.
func isOpenTag(line, element []byte) bool {
	if len(line) < len(element)+2 || line[0] != '<' {
		return false
	}
	if !bytes.HasPrefix(line[1:], element) {
		return false
	}
	next := 1 + len(element)
	if next >= len(line) {
		return true
	}
	c := line[next]
	return c == '>' || c == ' ' || c == '\t'
}

// isCloseTag checks if line is a closing tag for the given element.
func isCloseTag(line, element []byte) bool {
	if len(line) < len(element)+3 {
		return false
	}
	if line[0] == '<' && line[1] == '/' {
		return bytes.HasPrefix(line[2:], element)
	}
	// Self-closing <element ... />
	if line[0] == '<' && bytes.HasPrefix(line[1:], element) {
		return line[len(line)-2] == '/' && line[len(line)-1] == '>'
	}
	return false
}

// isAttributeTag checks if line is an XES attribute element.
func isAttributeTag(line []byte) bool {
	if len(line) < 3 || line[0] != '<' {
		return false
	}
	return bytes.HasPrefix(line[1:], xmlString) ||
		bytes.HasPrefix(line[1:], xmlDate) ||
		bytes.HasPrefix(line[1:], xmlInt) ||
		bytes.HasPrefix(line[1:], xmlFloat) ||
		bytes.HasPrefix(line[1:], xmlBool)
}

// extractAttribute extracts key and value from an XES attribute element.
func extractAttribute(line []byte) (key, value []byte) {
	key = extractAttrValue(line, []byte(`key="`))
	value = extractAttrValue(line, []byte(`value="`))
	return key, value
}

// extractAttrValue extracts an XML attribute value.
func extractAttrValue(line, prefix []byte) []byte {
	idx := bytes.Index(line, prefix)
	if idx < 0 {
		return nil
	}
	start := idx + len(prefix)
	end := bytes.IndexByte(line[start:], '"')
	if end < 0 {
		return nil
	}
	return line[start : start+end]
}
