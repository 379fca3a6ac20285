package lock

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test")
	}

	ctx := context.Background()
	var (
		container testcontainers.Container
		err       error
	)
	func() {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("docker unavailable: %v", p)
			}
		}()
		container, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "redis:7-alpine",
				ExposedPorts: []string{"6379/tcp"},
				WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
			},
			Started: true,
		})
	}()
	if err != nil {
		t.Skipf("redis container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	return fmt.Sprintf("redis://%s:%s/0", host, port.Port())
}

func TestRedisLocker(t *testing.T) {
	url := startRedis(t)
	ctx := context.Background()

	a, err := NewRedisLocker(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer a.Close()
	b, err := NewRedisLocker(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer b.Close()

	release, ok, err := a.TryLock(ctx, "jobs:process-notifications", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first lock: ok=%v err=%v", ok, err)
	}

	if _, ok, err := b.TryLock(ctx, "jobs:process-notifications", time.Minute); err != nil || ok {
		t.Fatalf("second instance must not get the lock: ok=%v err=%v", ok, err)
	}

	if err := release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	releaseB, ok, err := b.TryLock(ctx, "jobs:process-notifications", time.Minute)
	if err != nil || !ok {
		t.Fatalf("lock after release: ok=%v err=%v", ok, err)
	}

	// a stale release from the previous holder leaves the new lock alone
	if err := release(ctx); err != nil {
		t.Fatalf("stale release: %v", err)
	}
	if _, ok, _ := a.TryLock(ctx, "jobs:process-notifications", time.Minute); ok {
		t.Fatal("stale release must not free someone else's lock")
	}
	_ = releaseB(ctx)
}

func TestRedisLocker_Expires(t *testing.T) {
	url := startRedis(t)
	ctx := context.Background()

	l, err := NewRedisLocker(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer l.Close()

	if _, ok, err := l.TryLock(ctx, "short", 200*time.Millisecond); err != nil || !ok {
		t.Fatalf("lock: ok=%v err=%v", ok, err)
	}
	time.Sleep(400 * time.Millisecond)
	if _, ok, err := l.TryLock(ctx, "short", time.Second); err != nil || !ok {
		t.Fatalf("expected expired lock to be free: ok=%v err=%v", ok, err)
	}
}

func TestNewRedisLocker_BadURL(t *testing.T) {
	t.Parallel()

	if _, err := NewRedisLocker(context.Background(), "not a url"); err == nil {
		t.Fatal("expected parse error")
	}
}
