package jobs

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/atendezap/atende-backend/internal/services"
)

const defaultSweepInterval = 5 * time.Minute

// InactivityJob periodically closes chats that went silent past the
// inactivity threshold. The engine already enforces the timeout lazily on
// the next inbound message; the sweep (opt-in via ENABLE_INACTIVITY_SWEEP)
// additionally closes chats whose clients never come back.
type InactivityJob struct {
	chatService *services.ChatService
	interval    time.Duration

	mu        sync.Mutex
	isRunning bool
	stop      chan struct{}
}

// NewInactivityJob creates the sweep job. Interval comes from
// INACTIVITY_SWEEP_MINUTES (default 5).
func NewInactivityJob(chatService *services.ChatService) *InactivityJob {
	interval := defaultSweepInterval
	if v := os.Getenv("INACTIVITY_SWEEP_MINUTES"); v != "" {
		if minutes, err := strconv.Atoi(v); err == nil && minutes > 0 {
			interval = time.Duration(minutes) * time.Minute
		}
	}
	return &InactivityJob{
		chatService: chatService,
		interval:    interval,
	}
}

// Start begins the inactivity sweep loop
func (j *InactivityJob) Start() {
	j.mu.Lock()
	if j.isRunning {
		j.mu.Unlock()
		log.Println("Inactivity sweep already running")
		return
	}
	j.isRunning = true
	j.stop = make(chan struct{})
	stop := j.stop
	j.mu.Unlock()

	log.Printf("Starting inactivity sweep (every %v)...", j.interval)
	go j.run(stop)
}

// Stop halts the sweep loop
func (j *InactivityJob) Stop() {
	j.mu.Lock()
	if !j.isRunning {
		j.mu.Unlock()
		return
	}
	j.isRunning = false
	close(j.stop)
	j.mu.Unlock()

	log.Println("Stopping inactivity sweep...")
}

func (j *InactivityJob) run(stop <-chan struct{}) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			closed, err := j.chatService.CloseInactiveSessions()
			if err != nil {
				log.Printf("⚠️ Inactivity sweep failed: %v", err)
				continue
			}
			if closed > 0 {
				log.Printf("🕒 Inactivity sweep closed %d chat(s)", closed)
			}
		case <-stop:
			return
		}
	}
}
