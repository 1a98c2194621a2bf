package jobs

import (
	"sync"
	"testing"

	"github.com/atendezap/atende-backend/internal/services"
	"github.com/atendezap/atende-backend/internal/storage"
)

func TestInactivityJobStartStopLifecycle(t *testing.T) {
	svc := services.NewChatService(storage.NewMemoryStore(), nil)
	job := NewInactivityJob(svc)

	// Concurrent starts must collapse into a single running loop.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			job.Start()
		}()
	}
	wg.Wait()

	job.Stop()
	// A second stop is a no-op, not a panic on a closed channel.
	job.Stop()

	// The job restarts cleanly after a stop.
	job.Start()
	job.Stop()
}
