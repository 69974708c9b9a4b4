package friendships

import "testing"

func TestIntersectCount(t *testing.T) {
	cases := []struct {
		name    string
		a, b    []string
		exclude []string
		want    int
	}{
		{"empty", nil, []string{"x"}, nil, 0},
		{"disjoint", []string{"x"}, []string{"y"}, nil, 0},
		{"overlap", []string{"x", "y", "z"}, []string{"y", "z", "w"}, nil, 2},
		{"duplicates", []string{"x", "x"}, []string{"x", "x", "x"}, nil, 1},
		{"excluded", []string{"a", "b", "c"}, []string{"a", "b", "c"}, []string{"a", "b"}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := intersectCount(tc.a, tc.b, tc.exclude...); got != tc.want {
				t.Fatalf("intersectCount = %d, want %d", got, tc.want)
			}
		})
	}
}
