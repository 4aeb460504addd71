package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"altomayo/internal/model"

	"github.com/redis/go-redis/v9"
)

// DialogRepository хранит состояние диалогов бота. Отсутствие диалога не ошибка: (nil, nil).
type DialogRepository interface {
	GetState(ctx context.Context, chatID int64) (*model.DialogState, error)
	SetState(ctx context.Context, state *model.DialogState) error
	ClearState(ctx context.Context, chatID int64) error
}

const dialogKeyPrefix = "altomayo:dialog:"

// RedisDialogRepository диалоги в Redis; брошенный диалог истекает через ttl.
type RedisDialogRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDialogRepository(client *redis.Client, ttl time.Duration) *RedisDialogRepository {
	return &RedisDialogRepository{client: client, ttl: ttl}
}

func dialogKey(chatID int64) string {
	return dialogKeyPrefix + strconv.FormatInt(chatID, 10)
}

func (r *RedisDialogRepository) GetState(ctx context.Context, chatID int64) (*model.DialogState, error) {
	data, err := r.client.Get(ctx, dialogKey(chatID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать диалог %d: %w", chatID, err)
	}
	var state model.DialogState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("поврежден диалог %d: %w", chatID, err)
	}
	return &state, nil
}

func (r *RedisDialogRepository) SetState(ctx context.Context, state *model.DialogState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, dialogKey(state.ChatID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("не удалось сохранить диалог %d: %w", state.ChatID, err)
	}
	return nil
}

func (r *RedisDialogRepository) ClearState(ctx context.Context, chatID int64) error {
	if err := r.client.Del(ctx, dialogKey(chatID)).Err(); err != nil {
		return fmt.Errorf("не удалось удалить диалог %d: %w", chatID, err)
	}
	return nil
}

// MemoryDialogRepository диалоги в памяти процесса, без срока жизни.
type MemoryDialogRepository struct {
	mu     sync.Mutex
	states map[int64]model.DialogState
}

func NewMemoryDialogRepository() *MemoryDialogRepository {
	return &MemoryDialogRepository{states: make(map[int64]model.DialogState)}
}

func (r *MemoryDialogRepository) GetState(_ context.Context, chatID int64) (*model.DialogState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.states[chatID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *MemoryDialogRepository) SetState(_ context.Context, state *model.DialogState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[state.ChatID] = *state
	return nil
}

func (r *MemoryDialogRepository) ClearState(_ context.Context, chatID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, chatID)
	return nil
}
