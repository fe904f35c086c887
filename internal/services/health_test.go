package services

import (
	"context"
	"errors"
	"testing"
)

func TestHealthService_Check(t *testing.T) {
	backend := func() string { return "memory" }

	ok := NewHealthService("Mr X Studio API", "1.0.0", func(context.Context) error { return nil }, backend)
	res := ok.Check(context.Background())
	if res.Status != "healthy" || res.Database != "ok" || res.RateLimit != "memory" {
		t.Errorf("Check() = %+v", res)
	}

	down := NewHealthService("Mr X Studio API", "1.0.0", func(context.Context) error { return errors.New("down") }, backend)
	res = down.Check(context.Background())
	if res.Status != "degraded" || res.Database != "unavailable" {
		t.Errorf("Check() = %+v, want degraded", res)
	}
}
