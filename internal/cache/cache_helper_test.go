package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

type payload struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

func TestCacheHelperRoundTrip(t *testing.T) {
	helper := NewCacheHelper(newTestClient(t), "test:")
	ctx := context.Background()

	in := payload{Name: "s1", Score: 82}
	if err := helper.Set(ctx, "student:s1", in, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var out payload
	if err := helper.Get(ctx, "student:s1", &out); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out != in {
		t.Errorf("Get = %+v, want %+v", out, in)
	}

	exists, err := helper.Exists(ctx, "student:s1")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !exists {
		t.Error("expected key to exist")
	}
}

func TestCacheHelperGetMissing(t *testing.T) {
	helper := NewCacheHelper(newTestClient(t), "test:")

	var out payload
	if err := helper.Get(context.Background(), "absent", &out); !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("expected ErrCacheNotFound, got %v", err)
	}
}

func TestCacheHelperDelete(t *testing.T) {
	helper := NewCacheHelper(newTestClient(t), "test:")
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		if err := helper.Set(ctx, key, payload{Name: key}, time.Minute); err != nil {
			t.Fatalf("Set %s: %v", key, err)
		}
	}

	if err := helper.Delete(ctx, "a", "b"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	var out payload
	if err := helper.Get(ctx, "a", &out); !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("key a should be deleted, got %v", err)
	}
	if err := helper.Get(ctx, "c", &out); err != nil {
		t.Errorf("key c should survive, got %v", err)
	}
}

func TestCacheHelperInvalidatePattern(t *testing.T) {
	helper := NewCacheHelper(newTestClient(t), "progress:")
	ctx := context.Background()

	if err := helper.Set(ctx, "student:s1", payload{Name: "s1"}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := helper.Set(ctx, "student:s2", payload{Name: "s2"}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if err := helper.InvalidatePattern(ctx, "student:s1*"); err != nil {
		t.Fatalf("InvalidatePattern: %v", err)
	}

	var out payload
	if err := helper.Get(ctx, "student:s1", &out); !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("s1 should be invalidated, got %v", err)
	}
	if err := helper.Get(ctx, "student:s2", &out); err != nil {
		t.Errorf("s2 should survive, got %v", err)
	}
}

func TestCacheOrExecute(t *testing.T) {
	helper := NewCacheHelper(newTestClient(t), "test:")
	ctx := context.Background()

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return payload{Name: "fresh", Score: 1}, nil
	}

	var out payload
	if err := helper.CacheOrExecute(ctx, "k", &out, time.Minute, fetch); err != nil {
		t.Fatalf("CacheOrExecute miss: %v", err)
	}
	if calls != 1 || out.Name != "fresh" {
		t.Errorf("miss path: calls=%d out=%+v", calls, out)
	}

	// Pre-populate explicitly; the write-back inside CacheOrExecute is
	// asynchronous and not relied on here.
	if err := helper.Set(ctx, "k", payload{Name: "cached", Score: 2}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var hit payload
	if err := helper.CacheOrExecute(ctx, "k", &hit, time.Minute, fetch); err != nil {
		t.Fatalf("CacheOrExecute hit: %v", err)
	}
	if calls != 1 {
		t.Errorf("fetch ran %d times, want 1 after a cache hit", calls)
	}
	if hit.Name != "cached" {
		t.Errorf("hit = %+v, want the cached value", hit)
	}
}

func TestCacheHelperNilClientDegradesGracefully(t *testing.T) {
	helper := NewCacheHelper(nil, "test:")
	ctx := context.Background()

	if err := helper.Set(ctx, "k", payload{}, time.Minute); err != nil {
		t.Errorf("Set with nil client = %v, want nil", err)
	}
	if err := helper.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete with nil client = %v, want nil", err)
	}

	var out payload
	if err := helper.Get(ctx, "k", &out); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("Get with nil client = %v, want ErrCacheNotAvailable", err)
	}

	// CacheOrExecute still serves the fetched value.
	if err := helper.CacheOrExecute(ctx, "k", &out, time.Minute, func() (interface{}, error) {
		return payload{Name: "direct"}, nil
	}); err != nil {
		t.Fatalf("CacheOrExecute: %v", err)
	}
	if out.Name != "direct" {
		t.Errorf("out = %+v, want the fetched value", out)
	}
}

func TestCacheManagerInvalidateStudentCompany(t *testing.T) {
	client := newTestClient(t)
	cm := NewCacheManager(client)
	ctx := context.Background()

	if err := cm.Progress.Set(ctx, "student:s1", payload{Name: "s1"}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := cm.Analysis.Set(ctx, "latest:s1:Acme", payload{Score: 45}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := cm.Progress.Set(ctx, "student:s2", payload{Name: "s2"}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if err := cm.InvalidateStudentCompany(ctx, "s1", "Acme"); err != nil {
		t.Fatalf("InvalidateStudentCompany: %v", err)
	}

	var out payload
	if err := cm.Progress.Get(ctx, "student:s1", &out); !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("s1 progress should be invalidated, got %v", err)
	}
	if err := cm.Analysis.Get(ctx, "latest:s1:Acme", &out); !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("s1 latest analysis should be invalidated, got %v", err)
	}
	if err := cm.Progress.Get(ctx, "student:s2", &out); err != nil {
		t.Errorf("s2 progress should survive, got %v", err)
	}
}

// The free invalidation functions are the ones the repositories call, so
// they must match the exact key shapes the read paths cache under.
func TestInvalidateAnalysisCacheMatchesProductionKeys(t *testing.T) {
	client := newTestClient(t)
	cm := NewCacheManager(client)
	ctx := context.Background()

	if err := cm.Progress.Set(ctx, "student:s1", payload{Name: "s1"}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := cm.Analysis.Set(ctx, "latest:s1:Acme", payload{Score: 45}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := cm.Progress.Set(ctx, "student:s2", payload{Name: "s2"}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	InvalidateAnalysisCache(ctx, cm, "s1", "Acme")

	var out payload
	if err := cm.Progress.Get(ctx, "student:s1", &out); !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("s1 progress should be invalidated, got %v", err)
	}
	if err := cm.Analysis.Get(ctx, "latest:s1:Acme", &out); !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("s1 latest analysis should be invalidated, got %v", err)
	}
	if err := cm.Progress.Get(ctx, "student:s2", &out); err != nil {
		t.Errorf("s2 progress should survive, got %v", err)
	}
}

func TestInvalidateQuestionBankCacheMatchesProductionKeys(t *testing.T) {
	client := newTestClient(t)
	cm := NewCacheManager(client)
	ctx := context.Background()

	if err := cm.Question.Set(ctx, "bank:Acme:Quant:Algebra", payload{Name: "pool"}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := cm.Question.Set(ctx, "bank:Acme:Verbal:Grammar", payload{Name: "other"}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	InvalidateQuestionBankCache(ctx, cm, "Acme", "Quant", "Algebra")

	var out payload
	if err := cm.Question.Get(ctx, "bank:Acme:Quant:Algebra", &out); !errors.Is(err, ErrCacheNotFound) {
		t.Errorf("invalidated pool should be gone, got %v", err)
	}
	if err := cm.Question.Get(ctx, "bank:Acme:Verbal:Grammar", &out); err != nil {
		t.Errorf("unrelated pool should survive, got %v", err)
	}
}

func TestCacheManagerNilClient(t *testing.T) {
	cm := NewCacheManager(nil)

	if cm.Analysis == nil || cm.Question == nil || cm.Progress == nil || cm.Fast == nil {
		t.Fatal("helpers must be non-nil even without redis")
	}
	if err := cm.InvalidateQuestionBank(context.Background(), "Acme", "Quant", "Algebra"); err != nil {
		t.Errorf("InvalidateQuestionBank with nil client = %v, want nil", err)
	}
}
