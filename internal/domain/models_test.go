package domain

import (
	"encoding/json"
	"testing"
)

func TestSourceNameUnmarshal(t *testing.T) {
	cases := []struct {
		name     string
		raw      string
		want     string
		resolved bool
	}{
		{name: "plain string", raw: `"The Hindu"`, want: "The Hindu", resolved: true},
		{name: "empty string", raw: `""`, resolved: false},
		{name: "object with name", raw: `{"icon":"https://x/icon.png","name":"NDTV"}`, want: "NDTV", resolved: true},
		{name: "object first string member", raw: `{"authors":["a"],"title":"Mint","icon":"i.png"}`, want: "Mint", resolved: true},
		{name: "object with empty name first", raw: `{"name":"","title":"Mint"}`, resolved: false},
		{name: "object with numeric name", raw: `{"name":7,"label":"Reuters"}`, want: "Reuters", resolved: true},
		{name: "object without strings", raw: `{"id":4,"tags":["x"]}`, resolved: false},
		{name: "null", raw: `null`, resolved: false},
		{name: "number", raw: `42`, resolved: false},
		{name: "array", raw: `["a"]`, resolved: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got SourceName
			if err := json.Unmarshal([]byte(tc.raw), &got); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			name, ok := got.Name()
			if ok != tc.resolved {
				t.Fatalf("resolved = %v, want %v", ok, tc.resolved)
			}
			if ok && name != tc.want {
				t.Fatalf("name = %q, want %q", name, tc.want)
			}
		})
	}
}

func TestRawResultMissingSourceIsUnresolvable(t *testing.T) {
	var raw RawResult
	if err := json.Unmarshal([]byte(`{"position":1,"link":"https://a","title":"t"}`), &raw); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, ok := raw.Source.Name(); ok {
		t.Fatal("expected absent source to be unresolvable")
	}
	if raw.Position != 1 || raw.Link != "https://a" || raw.Title != "t" {
		t.Fatalf("unexpected raw result %+v", raw)
	}
}
