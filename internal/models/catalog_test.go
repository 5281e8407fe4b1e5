package models

import "testing"

func TestNormalizeStatus(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Ongoing", StatusOngoing},
		{"  ongoing ", StatusOngoing},
		{"Completed", StatusCompleted},
		{"COMPLETED", StatusCompleted},
		{"", StatusUnknown},
		{"hiatus", StatusUnknown},
	}
	for _, c := range cases {
		if got := NormalizeStatus(c.in); got != c.want {
			t.Errorf("NormalizeStatus(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
