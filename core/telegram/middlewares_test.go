package telegram

import (
	"testing"

	coreconfig "github.com/m3rciful/lessonbot/core/config"
)

func TestDefaultMiddlewares(t *testing.T) {
	if got := DefaultMiddlewares(nil, nil); len(got) != 0 {
		t.Fatalf("nil config produced %d middlewares", len(got))
	}
	cfg := &coreconfig.Config{}
	if got := DefaultMiddlewares(cfg, nil); len(got) != 0 {
		t.Fatalf("rate limit enabled without interval")
	}
	cfg.RateLimit.IntervalMS = 500
	got := DefaultMiddlewares(cfg, nil)
	if len(got) != 1 || got[0].Name != "rate_limit" || got[0].Use == nil {
		t.Fatalf("unexpected middlewares: %+v", got)
	}
}
