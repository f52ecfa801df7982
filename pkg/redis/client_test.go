package redis

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/redis/go-redis/v9"
)

func TestRankingIncrementAndTop(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	if err := client.IncrementRanking(ctx, RankingKeySales, "prod-a", 3); err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if err := client.IncrementRanking(ctx, RankingKeySales, "prod-b", 5); err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if err := client.IncrementRanking(ctx, RankingKeySales, "prod-a", 4); err != nil {
		t.Fatalf("increment failed: %v", err)
	}

	top, err := client.TopRanked(ctx, RankingKeySales, 2)
	if err != nil {
		t.Fatalf("top ranked failed: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(top))
	}
	if top[0].ProductID != "prod-a" || top[0].Score != 7 {
		t.Fatalf("unexpected leader %+v", top[0])
	}
	if top[1].ProductID != "prod-b" || top[1].Score != 5 {
		t.Fatalf("unexpected runner-up %+v", top[1])
	}
}

func TestTopRankedDefaultsLimit(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	if _, err := client.TopRanked(ctx, RankingKeySales, 0); err != nil {
		t.Fatalf("top ranked with zero limit failed: %v", err)
	}
	if mock.lastStop != 9 {
		t.Fatalf("expected default limit 10 (stop index 9), got %d", mock.lastStop)
	}
}

func TestPublish(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	if err := client.Publish(ctx, "cream.domain-events", `{"event":"order.paid"}`); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if len(mock.published["cream.domain-events"]) != 1 {
		t.Fatalf("expected one published message")
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.RankingKey(RankingKeySales); got != "cream:ranking:product_sales" {
		t.Fatalf("unexpected ranking key %s", got)
	}
}

func TestUninitializedClientErrors(t *testing.T) {
	ctx := context.Background()
	client := &Client{}
	if err := client.IncrementRanking(ctx, RankingKeySales, "p", 1); err == nil {
		t.Fatalf("expected error from uninitialized client")
	}
	if _, err := client.TopRanked(ctx, RankingKeySales, 5); err == nil {
		t.Fatalf("expected error from uninitialized client")
	}
	if err := client.Publish(ctx, "c", "m"); err == nil {
		t.Fatalf("expected error from uninitialized client")
	}
}

type mockCmdable struct {
	scores    map[string]map[string]float64
	published map[string][]string
	lastStop  int64
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		scores:    make(map[string]map[string]float64),
		published: make(map[string][]string),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) ZIncrBy(ctx context.Context, key string, increment float64, member string) *redis.FloatCmd {
	if m.scores[key] == nil {
		m.scores[key] = make(map[string]float64)
	}
	m.scores[key][member] += increment
	return redis.NewFloatResult(m.scores[key][member], nil)
}

func (m *mockCmdable) ZRevRangeWithScores(ctx context.Context, key string, start, stop int64) *redis.ZSliceCmd {
	m.lastStop = stop
	members := make([]redis.Z, 0, len(m.scores[key]))
	for member, score := range m.scores[key] {
		members = append(members, redis.Z{Member: member, Score: score})
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Score > members[j].Score })
	if stop >= 0 && int64(len(members)) > stop+1 {
		members = members[:stop+1]
	}
	return redis.NewZSliceCmdResult(members, nil)
}

func (m *mockCmdable) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	m.published[channel] = append(m.published[channel], fmt.Sprint(message))
	return redis.NewIntResult(1, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.scores, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
