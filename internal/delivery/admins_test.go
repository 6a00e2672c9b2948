package delivery

import "testing"

func TestParseAdminList(t *testing.T) {
	list := ParseAdminList(" alice, @bob ,,Carol,")
	if list.Len() != 3 {
		t.Fatalf("len = %d, want 3", list.Len())
	}
	for _, name := range []string{"alice", "@bob", "Carol"} {
		if !list.Contains(name) {
			t.Fatalf("%q missing", name)
		}
	}
	if list.Contains("bob") {
		t.Fatal("an @bob entry must not match username bob")
	}
	if list.Contains("carol") {
		t.Fatal("match must be case-sensitive")
	}
	if list.Contains("") {
		t.Fatal("empty username must never match")
	}
}

func TestEmptyAdminList(t *testing.T) {
	var zero AdminList
	if zero.Contains("alice") || zero.Len() != 0 {
		t.Fatal("zero list must be empty")
	}
	if ParseAdminList("").Len() != 0 {
		t.Fatal("empty config must produce empty list")
	}
}
