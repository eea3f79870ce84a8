package registry

import (
	"fmt"
	"testing"
)

type factoryEntry struct {
	Kind string
	New  func() string
}

func TestBaseRegistry_Register(t *testing.T) {
	reg := NewBaseRegistry[factoryEntry]()

	tests := []struct {
		name    string
		item    factoryEntry
		wantErr bool
	}{
		{name: "register valid kind", item: factoryEntry{Kind: "http.poll"}, wantErr: false},
		{name: "register empty kind", item: factoryEntry{Kind: ""}, wantErr: true},
		{name: "register duplicate kind", item: factoryEntry{Kind: "http.poll"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reg.Register(tt.item.Kind, tt.item)
			if (err != nil) != tt.wantErr {
				t.Errorf("Register() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBaseRegistry_Get(t *testing.T) {
	reg := NewBaseRegistry[factoryEntry]()
	entry := factoryEntry{Kind: "http.poll", New: func() string { return "source" }}
	if err := reg.Register(entry.Kind, entry); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	if got, ok := reg.Get("http.poll"); !ok || got.Kind != entry.Kind {
		t.Errorf("Get() = %v, %v; want %v, true", got, ok, entry)
	}
	if _, ok := reg.Get("unknown"); ok {
		t.Errorf("Get() found unregistered kind")
	}
}

func TestBaseRegistry_List(t *testing.T) {
	reg := NewBaseRegistry[factoryEntry]()
	kinds := []string{"http.poll", "redis.stream", "noop.action"}
	for _, k := range kinds {
		if err := reg.Register(k, factoryEntry{Kind: k}); err != nil {
			t.Fatalf("Register(%s) failed: %v", k, err)
		}
	}

	items := reg.List()
	if len(items) != len(kinds) {
		t.Errorf("List() length = %d, want %d", len(items), len(kinds))
	}
}

func TestBaseRegistry_RemoveAndCount(t *testing.T) {
	reg := NewBaseRegistry[factoryEntry]()
	_ = reg.Register("http.poll", factoryEntry{Kind: "http.poll"})
	_ = reg.Register("noop.action", factoryEntry{Kind: "noop.action"})

	if reg.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", reg.Count())
	}
	if err := reg.Remove("http.poll"); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}
	if reg.Count() != 1 {
		t.Errorf("Count() after remove = %d, want 1", reg.Count())
	}
	if err := reg.Remove("http.poll"); err == nil {
		t.Errorf("Remove() of already-removed kind should fail")
	}
}

func TestBaseRegistry_Clear(t *testing.T) {
	reg := NewBaseRegistry[factoryEntry]()
	_ = reg.Register("http.poll", factoryEntry{Kind: "http.poll"})
	reg.Clear()
	if reg.Count() != 0 {
		t.Errorf("Count() after Clear() = %d, want 0", reg.Count())
	}
}

func TestBaseRegistry_Concurrency(t *testing.T) {
	reg := NewBaseRegistry[factoryEntry]()
	done := make(chan bool, 2)

	go func() {
		defer func() { done <- true }()
		for i := 0; i < 100; i++ {
			k := fmt.Sprintf("kind-%d", i)
			_ = reg.Register(k, factoryEntry{Kind: k})
		}
	}()
	go func() {
		defer func() { done <- true }()
		for i := 0; i < 100; i++ {
			reg.Get(fmt.Sprintf("kind-%d", i))
			reg.Count()
			reg.List()
		}
	}()
	<-done
	<-done

	if reg.Count() != 100 {
		t.Errorf("Count() after concurrent registration = %d, want 100", reg.Count())
	}
}
