package ids

import (
	"sync"
	"testing"
)

func TestGenerateMonotonicUnique(t *testing.T) {
	prev := Generate()
	for i := 0; i < 10000; i++ {
		id := Generate()
		if id <= prev {
			t.Fatalf("ids not strictly increasing: %d after %d", id, prev)
		}
		prev = id
	}
}

func TestGenerateConcurrentUnique(t *testing.T) {
	const workers, per = 8, 2000
	seen := make(map[int64]struct{}, workers*per)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]int64, 0, per)
			for i := 0; i < per; i++ {
				local = append(local, Generate())
			}
			mu.Lock()
			for _, id := range local {
				if _, dup := seen[id]; dup {
					mu.Unlock()
					t.Errorf("duplicate id %d", id)
					return
				}
				seen[id] = struct{}{}
			}
			mu.Unlock()
		}()
	}
	wg.Wait()
}

func TestSetNodeIDBounds(t *testing.T) {
	defer SetNodeID(1)
	SetNodeID(42)
	if node := (Generate() >> 12) & 0x3FF; node != 42 {
		t.Fatalf("node bits = %d", node)
	}
	// out-of-range values fall back to the default
	SetNodeID(5000)
	if node := (Generate() >> 12) & 0x3FF; node != 1 {
		t.Fatalf("node bits after invalid set = %d", node)
	}
}
