package loader

import (
	"context"
	"strings"
	"testing"

	dferrors "github.com/albertodiazdurana/devflow-analyzer/pkg/errors"
)

const sampleXES = `<?xml version="1.0" encoding="UTF-8"?>
<log xes.version="1.0">
  <trace>
    <string key="concept:name" value="case-1"/>
    <event>
      <string key="concept:name" value="Open"/>
      <date key="time:timestamp" value="2024-01-01T08:00:00.000+00:00"/>
      <string key="org:resource" value="alice"/>
    </event>
    <event>
      <string key="concept:name" value="Close"/>
      <date key="time:timestamp" value="2024-01-01T12:00:00.000+00:00"/>
    </event>
  </trace>
  <trace>
    <string key="concept:name" value="case-2"/>
    <event>
      <string key="concept:name" value="Open"/>
      <date key="time:timestamp" value="2024-01-02T08:00:00.000+00:00"/>
      <int key="priority" value="3"/>
    </event>
  </trace>
</log>
`

func TestXESLoader_Load(t *testing.T) {
	events, err := Load(context.Background(), strings.NewReader(sampleXES), FormatXES, DefaultConfig())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[0].CaseID != "case-1" || events[0].Activity != "Open" {
		t.Errorf("unexpected first event: %+v", events[0])
	}
	if events[0].Resource != "alice" {
		t.Errorf("resource = %q, want alice", events[0].Resource)
	}
	if events[1].Activity != "Close" {
		t.Errorf("second event activity = %q, want Close", events[1].Activity)
	}
	if events[2].CaseID != "case-2" {
		t.Errorf("third event case = %q, want case-2", events[2].CaseID)
	}
	if events[2].Attributes["priority"] != "3" {
		t.Errorf("trace attribute not carried: %v", events[2].Attributes)
	}
	if events[0].Timestamp >= events[1].Timestamp {
		t.Error("timestamps not parsed in order")
	}
}

func TestXESLoader_MissingTimestamp(t *testing.T) {
	doc := `<log><trace>
  <string key="concept:name" value="c1"/>
  <event><string key="concept:name" value="Open"/></event>
</trace></log>`

	_, err := Load(context.Background(), strings.NewReader(doc), FormatXES, DefaultConfig())
	if err == nil {
		t.Fatal("expected timestamp error")
	}
	if !dferrors.IsCode(err, dferrors.CodeInvalidTimestamp) {
		t.Errorf("error code = %s, want %s", dferrors.GetCode(err), dferrors.CodeInvalidTimestamp)
	}
}

func TestXESLoader_EventOutsideTrace(t *testing.T) {
	doc := `<log><trace>
  <event>
    <string key="concept:name" value="Open"/>
    <date key="time:timestamp" value="2024-01-01T08:00:00Z"/>
  </event>
</trace></log>`

	// Trace has no concept:name, so the event has no case id.
	_, err := Load(context.Background(), strings.NewReader(doc), FormatXES, DefaultConfig())
	if err == nil {
		t.Fatal("expected malformed event error")
	}
	if !dferrors.IsCode(err, dferrors.CodeMalformedEvent) {
		t.Errorf("error code = %s, want %s", dferrors.GetCode(err), dferrors.CodeMalformedEvent)
	}
}
