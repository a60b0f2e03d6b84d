package store

import (
	"context"
	"testing"
	"time"
)

func TestNewRedisTimeouts(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		read    time.Duration
		dial    time.Duration
	}{
		{"configured", 300 * time.Millisecond, 300 * time.Millisecond, 600 * time.Millisecond},
		{"zero uses default", 0, DefaultRedisTimeout, 2 * DefaultRedisTimeout},
		{"negative uses default", -time.Second, DefaultRedisTimeout, 2 * DefaultRedisTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRedis("localhost:6379", tt.timeout)
			defer r.Close()
			opts := r.Client.Options()
			if opts.ReadTimeout != tt.read || opts.WriteTimeout != tt.read {
				t.Fatalf("read/write timeout = %v/%v, want %v", opts.ReadTimeout, opts.WriteTimeout, tt.read)
			}
			if opts.DialTimeout != tt.dial {
				t.Fatalf("dial timeout = %v, want %v", opts.DialTimeout, tt.dial)
			}
		})
	}
}

func TestNilRedisIsUnhealthy(t *testing.T) {
	var r *Redis
	if r.Healthy(context.Background()) {
		t.Fatal("nil client reported healthy")
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close on nil: %v", err)
	}
}
