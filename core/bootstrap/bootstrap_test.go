package bootstrap

import (
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/lessonbot/core/config"
	coredatabase "github.com/m3rciful/lessonbot/core/database"
)

func TestRunRequiresConfig(t *testing.T) {
	if _, err := Run(Options{}); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestRunPipelineOrder(t *testing.T) {
	var steps []string
	db := &sqlx.DB{}
	res, err := Run(Options{
		Config:     &coreconfig.Config{},
		Database:   coredatabase.Config{Name: "lessons"},
		Migrations: fstest.MapFS{"0001_init.up.sql": {Data: []byte("--")}},
		LoggerInit: func(*coreconfig.Config) error {
			steps = append(steps, "logger")
			return nil
		},
		Connect: func(cfg coredatabase.Config) (*sqlx.DB, error) {
			steps = append(steps, "connect:"+cfg.Name)
			return db, nil
		},
		Migrate: func(got *sqlx.DB, _ coredatabase.Config, _ fs.FS) error {
			if got != db {
				t.Errorf("migrate received a different handle")
			}
			steps = append(steps, "migrate")
			return nil
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.DB != db {
		t.Fatal("result does not expose the connected handle")
	}
	want := []string{"logger", "connect:lessons", "migrate"}
	if len(steps) != len(want) {
		t.Fatalf("steps = %v, want %v", steps, want)
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Fatalf("steps = %v, want %v", steps, want)
		}
	}
}

func TestRunStopsOnConnectError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Run(Options{
		Config:     &coreconfig.Config{},
		LoggerInit: func(*coreconfig.Config) error { return nil },
		Connect: func(coredatabase.Config) (*sqlx.DB, error) {
			return nil, boom
		},
		Migrate: func(*sqlx.DB, coredatabase.Config, fs.FS) error {
			t.Fatal("migrate must not run after connect failure")
			return nil
		},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped connect error, got %v", err)
	}
}
