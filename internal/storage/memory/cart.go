package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/marketplace/internal/domain"
)

// CartStore — in-memory корзины покупателей.
type CartStore struct {
	mu    sync.RWMutex
	carts map[string][]domain.CartItem
}

// NewCartStore создаёт пустое хранилище корзин.
func NewCartStore() *CartStore {
	return &CartStore{
		carts: make(map[string][]domain.CartItem),
	}
}

// SetItems заменяет содержимое корзины покупателя.
func (s *CartStore) SetItems(buyerID string, items []domain.CartItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[buyerID] = append([]domain.CartItem(nil), items...)
}

// Items возвращает позиции корзины в порядке добавления.
func (s *CartStore) Items(buyerID string) ([]domain.CartItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.CartItem(nil), s.carts[buyerID]...), nil
}

// Clear очищает корзину покупателя.
func (s *CartStore) Clear(buyerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, buyerID)
	return nil
}

var _ domain.CartSource = (*CartStore)(nil)
