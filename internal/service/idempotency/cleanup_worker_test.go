package idempotency

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/marketplace/internal/domain"
	"github.com/vladislavdragonenkov/marketplace/internal/storage/memory"
)

var _ domain.IdempotencyRepository = (*stubCleanupRepo)(nil)

func TestCleanupWorker_DeleteExpired_Batches(t *testing.T) {
	t.Parallel()

	repo := memory.NewIdempotencyRepository()
	now := time.Now().UTC()

	// Три протухших ключа оформления заказа и один живой.
	expired := []string{"place-order-a1", "place-order-b2", "place-order-c3"}
	for _, key := range expired {
		if _, err := repo.CreateProcessing(key, "hash-"+key, now.Add(-time.Hour)); err != nil {
			t.Fatalf("seed expired key %s: %v", key, err)
		}
		if err := repo.MarkDone(key, []byte(`{"id":"order-1","status":"pending"}`), 201); err != nil {
			t.Fatalf("mark done %s: %v", key, err)
		}
	}
	if _, err := repo.CreateProcessing("place-order-fresh", "hash-fresh", now.Add(time.Hour)); err != nil {
		t.Fatalf("seed fresh key: %v", err)
	}

	worker := NewCleanupWorker(repo, WithBatchSize(2))

	deleted, err := worker.DeleteExpired(context.Background(), now)
	if err != nil {
		t.Fatalf("DeleteExpired failed: %v", err)
	}
	if deleted != 3 {
		t.Fatalf("unexpected deleted total: got=%d want=3", deleted)
	}

	for _, key := range expired {
		if _, err := repo.Get(key); !errors.Is(err, domain.ErrIdempotencyKeyNotFound) {
			t.Fatalf("expected key %s to be deleted, got err=%v", key, err)
		}
	}
	if _, err := repo.Get("place-order-fresh"); err != nil {
		t.Fatalf("expected fresh key to survive cleanup: %v", err)
	}
}

func TestCleanupWorker_DeleteExpired_Error(t *testing.T) {
	t.Parallel()

	repo := &stubCleanupRepo{
		deleteErrors: []error{errors.New("boom")},
	}

	worker := NewCleanupWorker(repo, WithBatchSize(10))

	deleted, err := worker.DeleteExpired(context.Background(), time.Now().UTC())
	if err == nil {
		t.Fatal("expected DeleteExpired error")
	}
	if deleted != 0 {
		t.Fatalf("unexpected deleted total: got=%d want=0", deleted)
	}
}

func TestCleanupWorker_Run_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	repo := &stubCleanupRepo{
		deleteResults: []int{0, 0, 0},
	}

	worker := NewCleanupWorker(
		repo,
		WithInterval(5*time.Millisecond),
		WithBatchSize(10),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on context cancel")
	}

	if calls := repo.calls(); calls == 0 {
		t.Fatal("expected cleanup to be called at least once")
	}
}

type stubCleanupRepo struct {
	mu sync.Mutex

	deleteResults []int
	deleteErrors  []error
	callCount     int
}

func (s *stubCleanupRepo) CreateProcessing(string, string, time.Time) (domain.IdempotencyRecord, error) {
	panic("not implemented")
}

func (s *stubCleanupRepo) Get(string) (domain.IdempotencyRecord, error) {
	panic("not implemented")
}

func (s *stubCleanupRepo) MarkDone(string, []byte, int) error {
	panic("not implemented")
}

func (s *stubCleanupRepo) MarkFailed(string, []byte, int) error {
	panic("not implemented")
}

func (s *stubCleanupRepo) DeleteExpired(_ time.Time, _ int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.callCount++

	if len(s.deleteErrors) > 0 {
		err := s.deleteErrors[0]
		s.deleteErrors = s.deleteErrors[1:]
		if err != nil {
			return 0, err
		}
	}

	if len(s.deleteResults) == 0 {
		return 0, nil
	}
	result := s.deleteResults[0]
	s.deleteResults = s.deleteResults[1:]
	return result, nil
}

func (s *stubCleanupRepo) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callCount
}
