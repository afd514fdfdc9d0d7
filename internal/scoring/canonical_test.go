package scoring

import (
	"reflect"
	"testing"
)

func TestCanonicalNumericEquivalence(t *testing.T) {
	tests := []struct {
		in   interface{}
		want string
	}{
		{2, "2"},
		{float64(2), "2"},
		{"2", "2"},
		{"2.0", "2"},
		{" 2 ", "2"},
		{2.5, "2.5"},
		{"abc ", "abc"},
		{true, "true"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := Canonical(tt.in); got != tt.want {
			t.Errorf("Canonical(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCanonicalSetShapes(t *testing.T) {
	// The same selection arrives as []int from the tracker and as a decoded
	// []interface{} of float64 from the document store.
	a, ok := CanonicalSet([]int{2, 0})
	if !ok {
		t.Fatal("CanonicalSet([]int) not recognized")
	}
	b, ok := CanonicalSet([]interface{}{float64(0), float64(2), float64(2)})
	if !ok {
		t.Fatal("CanonicalSet([]interface{}) not recognized")
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("canonical sets differ: %v vs %v", a, b)
	}
	if _, ok := CanonicalSet("not a slice"); ok {
		t.Error("CanonicalSet accepted a non-slice")
	}
}

func TestCanonicalPairsShapes(t *testing.T) {
	a, ok := CanonicalPairs(map[int][]int{0: {1, 0}, 1: {2}})
	if !ok {
		t.Fatal("CanonicalPairs(map[int][]int) not recognized")
	}
	b, ok := CanonicalPairs(map[string]interface{}{
		"0": []interface{}{float64(0), float64(1)},
		"1": []interface{}{float64(2)},
	})
	if !ok {
		t.Fatal("CanonicalPairs(map[string]interface{}) not recognized")
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("canonical pairs differ: %v vs %v", a, b)
	}
	want := []string{"0:0", "0:1", "1:2"}
	if !reflect.DeepEqual(a, want) {
		t.Errorf("CanonicalPairs = %v, want %v", a, want)
	}
}

func TestCanonicalKey(t *testing.T) {
	tests := []struct {
		in   interface{}
		want string
	}{
		{2, "2"},
		{"2.0", "2"},
		{[]int{2, 0}, "0,2"},
		{[]interface{}{float64(0), float64(2)}, "0,2"},
		{map[int][]int{0: {1}, 1: {0}}, "0:1,1:0"},
	}
	for _, tt := range tests {
		if got := CanonicalKey(tt.in); got != tt.want {
			t.Errorf("CanonicalKey(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsEmpty(t *testing.T) {
	empties := []interface{}{nil, "", "   ", []int{}, map[int][]int{}, []interface{}{}}
	for _, v := range empties {
		if !IsEmpty(v) {
			t.Errorf("IsEmpty(%#v) = false, want true", v)
		}
	}
	nonEmpties := []interface{}{0, "0", []int{0}, map[int][]int{0: {0}}, false}
	for _, v := range nonEmpties {
		if IsEmpty(v) {
			t.Errorf("IsEmpty(%#v) = true, want false", v)
		}
	}
}
