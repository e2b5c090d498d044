// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package attr

import "testing"

func TestInsertionOrderAndAppend(t *testing.T) {
	a := New()
	a.Set("b", int64(2))
	a.Set("a", int64(1))
	a.Append(int64(100))
	a.Append(int64(200))

	keys := a.Keys()
	want := []string{"b", "a", "0", "1"}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v", keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
	if a.GetInt("0") != 100 || a.GetInt("1") != 200 {
		t.Fatalf("append values wrong")
	}
}

func TestNestedAttributes(t *testing.T) {
	child := New().Set("x", int64(1))
	root := New().Set("child", child)
	if root.GetAttributes("child").GetInt("x") != 1 {
		t.Fatal("nested attributes not retrievable")
	}
}
