package database

import (
	"reflect"
	"testing"
	"testing/fstest"
)

func TestListMigrationFiles(t *testing.T) {
	files := fstest.MapFS{
		"0002_lesson_files.up.sql":   {Data: []byte("--")},
		"0001_chats.up.sql":          {Data: []byte("--")},
		"0001_chats.down.sql":        {Data: []byte("--")},
		"embed.go":                   {Data: []byte("package migrations")},
		"nested/0003_ignored.up.sql": {Data: []byte("--")},
	}
	got := listMigrationFiles(files)
	want := []string{"0001_chats.up.sql", "0002_lesson_files.up.sql"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("listMigrationFiles = %v, want %v", got, want)
	}
}

func TestSelectApplied(t *testing.T) {
	files := []string{"0001_a.up.sql", "0002_b.up.sql", "0003_c.up.sql"}
	got := selectApplied(files, 1, 3)
	want := []string{"0002_b.up.sql", "0003_c.up.sql"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("selectApplied = %v, want %v", got, want)
	}
	if out := selectApplied(files, 3, 3); len(out) != 0 {
		t.Fatalf("expected nothing applied, got %v", out)
	}
}
