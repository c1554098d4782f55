package pagination

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   Params
		want Params
	}{
		{"defaults", Params{}, Params{Limit: DefaultLimit, Offset: 0}},
		{"caps limit", Params{Limit: 500, Offset: 10}, Params{Limit: MaxLimit, Offset: 10}},
		{"negative offset", Params{Limit: 5, Offset: -3}, Params{Limit: 5, Offset: 0}},
		{"passthrough", Params{Limit: 25, Offset: 50}, Params{Limit: 25, Offset: 50}},
	}
	for _, tc := range cases {
		if got := tc.in.Normalize(); got != tc.want {
			t.Fatalf("%s: expected %+v, got %+v", tc.name, tc.want, got)
		}
	}
}
