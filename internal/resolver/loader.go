package resolver

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// FetchFunc loads one entity by (typeName, localID).
type FetchFunc func(ctx context.Context, typeName, localID string) (map[string]any, error)

// Loader — запросный дедупликатор вторичных выборок: не более одной реальной
// загрузки на ключ за время жизни одного запроса, все ожидающие получают
// общий результат. Время жизни Loader — один запрос; между запросами ничего
// не переиспользуется.
type Loader struct {
	fetch FetchFunc

	group singleflight.Group
	mu    sync.Mutex
	cache map[string]map[string]any
}

func NewLoader(fetch FetchFunc) *Loader {
	return &Loader{
		fetch: fetch,
		cache: make(map[string]map[string]any),
	}
}

// ForKey returns the entity for a key, fetching it at most once.
func (l *Loader) ForKey(ctx context.Context, typeName, localID string) (map[string]any, error) {
	key := typeName + ":" + localID

	l.mu.Lock()
	if item, ok := l.cache[key]; ok {
		l.mu.Unlock()
		return item, nil
	}
	l.mu.Unlock()

	v, err, _ := l.group.Do(key, func() (any, error) {
		return l.fetch(ctx, typeName, localID)
	})
	if err != nil {
		return nil, err
	}
	item, _ := v.(map[string]any)

	l.mu.Lock()
	l.cache[key] = item
	l.mu.Unlock()
	return item, nil
}
