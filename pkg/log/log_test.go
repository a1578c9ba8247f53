package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestForServiceMemoizes(t *testing.T) {
	a := ForService("pipeline")
	b := ForService("pipeline")
	if a != b {
		t.Error("expected the same logger instance for the same name")
	}
}

func TestPrefixAndLevels(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)

	l := ForService("legislation")
	l.Infof("fetched %d documents", 3)
	l.Warnf("slow response")
	l.Errorf("boom")

	out := buf.String()
	for _, want := range []string{
		"INFO [legislation>] fetched 3 documents",
		"WARN [legislation>] slow response",
		"ERROR [legislation>] boom",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDebugDisabledByDefault(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)

	l := ForService("tradedata-debug-test")
	l.Debugf("should not appear")
	if strings.Contains(buf.String(), "should not appear") {
		t.Error("debug output emitted while disabled")
	}

	EnableDebugFor("tradedata-debug-test")
	l.Debugf("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Error("debug output missing after EnableDebugFor")
	}
}

func TestGlobalDebug(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetGlobalDebug(true)
	defer SetGlobalDebug(false)

	ForService("anything").Debugf("global debug on")
	if !strings.Contains(buf.String(), "global debug on") {
		t.Error("global debug did not enable output")
	}
}
