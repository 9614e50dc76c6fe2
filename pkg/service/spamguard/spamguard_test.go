package spamguard_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/adapter/storage"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/spamguard"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/clock"
	"github.com/m-mizutani/gt"
)

var t0 = time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

func TestCooldownPerPlate(t *testing.T) {
	mc := clock.NewManual(t0)
	ctx := clock.With(context.Background(), mc.Clock())
	g := spamguard.New(storage.NewMemory())

	plate := types.HashPlate("ABC 123")
	other := types.HashPlate("XYZ 999")

	gt.True(t, gt.R1(g.Check(ctx, "alice", plate)).NoError(t).Allowed)
	gt.NoError(t, g.Record(ctx, "alice", plate))

	mc.Advance(20 * time.Second)
	d := gt.R1(g.Check(ctx, "alice", plate)).NoError(t)
	gt.False(t, d.Allowed)
	gt.Equal(t, d.RetryAfter, 40*time.Second)

	gt.True(t, gt.R1(g.Check(ctx, "alice", other)).NoError(t).Allowed)
	gt.True(t, gt.R1(g.Check(ctx, "bob", plate)).NoError(t).Allowed)

	mc.Advance(40 * time.Second)
	gt.True(t, gt.R1(g.Check(ctx, "alice", plate)).NoError(t).Allowed)
}

func TestHourlyCap(t *testing.T) {
	mc := clock.NewManual(t0)
	ctx := clock.With(context.Background(), mc.Clock())
	g := spamguard.New(storage.NewMemory(), spamguard.WithHourlyCap(3))

	for i := 0; i < 3; i++ {
		plate := types.HashPlate(fmt.Sprintf("CAR %d", i))
		gt.True(t, gt.R1(g.Check(ctx, "alice", plate)).NoError(t).Allowed)
		gt.NoError(t, g.Record(ctx, "alice", plate))
		mc.Advance(5 * time.Minute)
	}

	d := gt.R1(g.Check(ctx, "alice", types.HashPlate("CAR 9"))).NoError(t)
	gt.False(t, d.Allowed)
	gt.Equal(t, d.RetryAfter, 45*time.Minute)

	mc.Set(t0.Add(time.Hour))
	gt.True(t, gt.R1(g.Check(ctx, "alice", types.HashPlate("CAR 9"))).NoError(t).Allowed)
}

func TestReserve(t *testing.T) {
	mc := clock.NewManual(t0)
	ctx := clock.With(context.Background(), mc.Clock())
	g := spamguard.New(storage.NewMemory())
	plate := types.HashPlate("ABC 123")

	d, r, err := g.Reserve(ctx, "alice", plate)
	gt.NoError(t, err)
	gt.True(t, d.Allowed)
	gt.True(t, r != nil)

	d, again, err := g.Reserve(ctx, "alice", plate)
	gt.NoError(t, err)
	gt.False(t, d.Allowed)
	gt.True(t, again == nil)

	t.Run("released reservation frees the cooldown", func(t *testing.T) {
		gt.NoError(t, r.Release(ctx))
		gt.NoError(t, r.Release(ctx))
		gt.True(t, gt.R1(g.Check(ctx, "alice", plate)).NoError(t).Allowed)
	})
}

func TestReserveRacingSends(t *testing.T) {
	ctx := clock.With(context.Background(), clock.Fixed(t0))
	g := spamguard.New(gt.R1(storage.NewSQLite(t.TempDir() + "/state.db")).NoError(t))
	plate := types.HashPlate("ABC 123")

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, _, err := g.Reserve(ctx, "alice", plate)
			gt.NoError(t, err)
			if d.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	gt.Equal(t, allowed.Load(), int32(1))
}
