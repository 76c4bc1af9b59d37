package jsontime_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/draftloom/draftloom/pkg/jsontime"
)

func TestMilliRoundTrip(t *testing.T) {
	orig := jsontime.Milli(time.UnixMilli(1735689600123))

	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != "1735689600123" {
		t.Fatalf("Marshal = %s, want 1735689600123", data)
	}

	var got jsontime.Milli
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !got.Time().Equal(orig.Time()) {
		t.Fatalf("round trip = %v, want %v", got, orig)
	}
}

func TestMilliUnmarshalRejectsNonNumber(t *testing.T) {
	var m jsontime.Milli
	if err := json.Unmarshal([]byte(`"2024-01-01"`), &m); err == nil {
		t.Fatal("expected error for string input")
	}
}

func TestMilliOrdering(t *testing.T) {
	a := jsontime.Milli(time.UnixMilli(1000))
	b := jsontime.Milli(time.UnixMilli(2000))
	if !a.Before(b) {
		t.Fatal("a should be before b")
	}
	if !b.After(a) {
		t.Fatal("b should be after a")
	}
	if a.IsZero() {
		t.Fatal("a should not be zero")
	}
	var zero jsontime.Milli
	if !zero.IsZero() {
		t.Fatal("zero value should report IsZero")
	}
}
