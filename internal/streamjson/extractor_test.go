package streamjson

import (
	"reflect"
	"testing"
)

func feedAll(t *testing.T, e *Extractor, chunks ...string) []Pair {
	t.Helper()
	var all []Pair
	for _, c := range chunks {
		pairs, err := e.Feed([]byte(c))
		if err != nil {
			t.Fatalf("Feed(%q): %v", c, err)
		}
		all = append(all, pairs...)
	}
	return all
}

func TestWholeDocumentOneShot(t *testing.T) {
	e := New("/success", "/data/^", "/message")
	pairs := feedAll(t, e, `{"success":true,"data":[{"id":1},{"id":2}],"message":"ok"}`)

	want := []Pair{
		{Path: "/success", Value: true},
		{Path: "/data/^", Value: map[string]any{"id": float64(1)}},
		{Path: "/data/^", Value: map[string]any{"id": float64(2)}},
		{Path: "/message", Value: "ok"},
	}
	if !reflect.DeepEqual(pairs, want) {
		t.Errorf("pairs = %#v, want %#v", pairs, want)
	}
	if !e.Done() {
		t.Error("expected Done() after closing brace")
	}
}

func TestByteAtATime(t *testing.T) {
	doc := `{"status_code":200,"records":[{"a":1},{"a":2},{"a":3}],"warnings":["low coverage"]}`
	e := New("/status_code", "/records/^", "/warnings")

	var pairs []Pair
	for i := 0; i < len(doc); i++ {
		got, err := e.Feed([]byte{doc[i]})
		if err != nil {
			t.Fatalf("Feed at byte %d: %v", i, err)
		}
		pairs = append(pairs, got...)
	}

	if len(pairs) != 5 { // status_code + 3 records + warnings
		t.Fatalf("got %d pairs, want 5: %#v", len(pairs), pairs)
	}
	if pairs[0].Path != "/status_code" || pairs[0].Value != float64(200) {
		t.Errorf("pairs[0] = %#v", pairs[0])
	}
	for i := 1; i <= 3; i++ {
		if pairs[i].Path != "/records/^" {
			t.Errorf("pairs[%d].Path = %q, want /records/^", i, pairs[i].Path)
		}
	}
	last := pairs[4]
	if last.Path != "/warnings" {
		t.Fatalf("pairs[4].Path = %q", last.Path)
	}
	arr, ok := last.Value.([]any)
	if !ok || len(arr) != 1 || arr[0] != "low coverage" {
		t.Errorf("warnings value = %#v", last.Value)
	}
}

func TestSplitMidToken(t *testing.T) {
	e := New("/message")
	var pairs []Pair
	pairs = append(pairs, feedAll(t, e, `{"mess`)...)
	pairs = append(pairs, feedAll(t, e, `age":"par`)...)
	pairs = append(pairs, feedAll(t, e, `tial chunk"}`)...)

	if len(pairs) != 1 || pairs[0].Path != "/message" || pairs[0].Value != "partial chunk" {
		t.Errorf("pairs = %#v", pairs)
	}
}

func TestIgnoresUnconfiguredKeys(t *testing.T) {
	e := New("/success")
	pairs := feedAll(t, e, `{"noise":{"deep":[1,2,3]},"success":false,"trailing":null}`)
	if len(pairs) != 1 || pairs[0].Value != false {
		t.Errorf("pairs = %#v", pairs)
	}
}

func TestMalformedStopsConsuming(t *testing.T) {
	e := New("/success")
	_, err := e.Feed([]byte(`{"success" true}`))
	if err == nil {
		t.Fatal("expected error for missing colon")
	}
	if _, err2 := e.Feed([]byte(`"more"}`)); err2 == nil {
		t.Fatal("expected sticky error on subsequent Feed")
	}
}

func TestArrayPathMismatchedTypeSkippedOpaquely(t *testing.T) {
	e := New("/data/^", "/success")
	pairs := feedAll(t, e, `{"data":"not-an-array","success":true}`)
	if len(pairs) != 1 || pairs[0].Path != "/success" {
		t.Errorf("pairs = %#v", pairs)
	}
}
