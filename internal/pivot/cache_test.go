package pivot

import (
	"sync"
	"testing"

	"go-pivot-table/internal/model"
)

func TestCacheEvictsOldestInsertion(t *testing.T) {
	c, err := NewCache(2)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	a, b, d := &model.Result{}, &model.Result{}, &model.Result{}

	c.Add("a", a)
	c.Add("b", b)
	// Reading "a" does not protect it.
	if got, ok := c.Get("a"); !ok || got != a {
		t.Fatal("a missing")
	}
	if evicted := c.Add("d", d); !evicted {
		t.Error("adding past capacity should evict")
	}

	if _, ok := c.Get("a"); ok {
		t.Error("a should have been evicted first")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("b should still be cached")
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
	c.Purge()
	if c.Len() != 0 {
		t.Errorf("Len after Purge = %d", c.Len())
	}
}

func TestNewCacheDefaultCapacity(t *testing.T) {
	c, err := NewCache(0)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	for i := 0; i < DefaultCacheSize+3; i++ {
		c.Add(string(rune('a'+i)), &model.Result{})
	}
	if c.Len() != DefaultCacheSize {
		t.Errorf("Len = %d, want %d", c.Len(), DefaultCacheSize)
	}
}

func TestEngineMemoizes(t *testing.T) {
	cache, err := NewCache(5)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	e := NewEngine(cache)
	cfg := model.PivotConfig{RowFields: []string{"region"}, ValueFields: sumOf("sales")}

	first, hit, err := e.Transform("sales", salesRows(), cfg)
	if err != nil || hit {
		t.Fatalf("first call: hit %v err %v", hit, err)
	}
	second, hit, err := e.Transform("sales", salesRows(), cfg)
	if err != nil || !hit || second != first {
		t.Fatalf("second call: hit %v err %v same %v", hit, err, second == first)
	}

	// Same config over another dataset is a miss.
	other, hit, err := e.Transform("cities", cityRows(), cfg)
	if err != nil || hit || other == first {
		t.Fatalf("other dataset: hit %v err %v", hit, err)
	}

	cfg.Options.ShowGrandTotal = true
	if _, hit, _ := e.Transform("sales", salesRows(), cfg); hit {
		t.Error("changed options should miss")
	}

	hits, misses := e.Stats()
	if hits != 1 || misses != 3 {
		t.Errorf("stats = %d hits %d misses, want 1 and 3", hits, misses)
	}
}

func TestEngineDoesNotCacheErrors(t *testing.T) {
	cache, _ := NewCache(5)
	e := NewEngine(cache)
	if _, _, err := e.Transform("k", salesRows(), model.PivotConfig{}); err == nil {
		t.Fatal("expected config error")
	}
	if cache.Len() != 0 {
		t.Errorf("cache holds %d entries after an error", cache.Len())
	}
}

func TestEngineWithoutCache(t *testing.T) {
	e := NewEngine(nil)
	res, hit, err := e.Transform("k", salesRows(), model.PivotConfig{ValueFields: sumOf("sales")})
	if err != nil || hit || res == nil {
		t.Fatalf("res %v hit %v err %v", res, hit, err)
	}
}

func TestEngineConcurrentUse(t *testing.T) {
	cache, _ := NewCache(3)
	e := NewEngine(cache)
	configs := []model.PivotConfig{
		{RowFields: []string{"region"}, ValueFields: sumOf("sales")},
		{RowFields: []string{"product"}, ValueFields: sumOf("sales")},
		{RowFields: []string{"region", "product"}, ColumnFields: []string{"quarter"}, ValueFields: sumOf("sales")},
		{ValueFields: sumOf("sales")},
	}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(cfg model.PivotConfig) {
			defer wg.Done()
			if _, _, err := e.Transform("sales", salesRows(), cfg); err != nil {
				t.Errorf("Transform: %v", err)
			}
		}(configs[i%len(configs)])
	}
	wg.Wait()

	hits, misses := e.Stats()
	if hits+misses != 32 {
		t.Errorf("hits+misses = %d, want 32", hits+misses)
	}
}
