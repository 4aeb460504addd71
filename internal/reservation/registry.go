package reservation

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry хранит открытые формы бронирования по их идентификаторам.
type Registry struct {
	submitter Submitter
	cfg       FormConfig
	ttl       time.Duration

	mu    sync.Mutex
	forms map[string]*Form
}

// NewRegistry создает реестр форм. ttl время жизни неактивной формы.
func NewRegistry(submitter Submitter, cfg FormConfig, ttl time.Duration) *Registry {
	return &Registry{
		submitter: submitter,
		cfg:       cfg.withDefaults(),
		ttl:       ttl,
		forms:     make(map[string]*Form),
	}
}

// Open открывает новую форму для поездки.
func (r *Registry) Open(experienceID int) *Form {
	f := NewForm(uuid.NewString(), experienceID, r.submitter, r.cfg)
	r.mu.Lock()
	r.forms[f.ID] = f
	r.mu.Unlock()
	return f
}

// Get возвращает открытую форму.
func (r *Registry) Get(id string) (*Form, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.forms[id]
	return f, ok
}

// Close закрывает форму и удаляет ее из реестра.
func (r *Registry) Close(id string) bool {
	r.mu.Lock()
	f, ok := r.forms[id]
	delete(r.forms, id)
	r.mu.Unlock()
	if ok {
		f.Close()
	}
	return ok
}

// Len число открытых форм.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.forms)
}

// Sweep закрывает формы, неактивные дольше ttl. Формы с идущей отправкой не трогаются.
func (r *Registry) Sweep(now time.Time) int {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	var expired []*Form
	for id, f := range r.forms {
		if f.Snapshot().State == StateSubmitting {
			continue
		}
		if now.Sub(f.LastActivity()) > r.ttl {
			expired = append(expired, f)
			delete(r.forms, id)
		}
	}
	r.mu.Unlock()

	for _, f := range expired {
		f.Close()
	}
	return len(expired)
}

// Run периодически очищает реестр до отмены ctx.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(r.cfg.Now()); n > 0 {
				log.Printf("reservation forms expired: %d", n)
			}
		}
	}
}
