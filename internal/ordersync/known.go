package ordersync

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/Anilparajuli4/eatery-go/internal/localstore"
)

// KnownOrders is the guest-tracking list: every order id this client ever
// placed, newest first, deduplicated, append-only. It is the only proof of
// ownership a guest has, so it is persisted locally.
type KnownOrders struct {
	mu    sync.Mutex
	ids   []string
	local localstore.Store
}

func NewKnownOrders(local localstore.Store) *KnownOrders {
	k := &KnownOrders{local: local}
	var stored []string
	err := localstore.LoadJSON(context.Background(), local, localstore.KeyKnownOrderIDs, &stored)
	if err != nil && !errors.Is(err, localstore.ErrNotFound) {
		log.Printf("known orders load error: %v", err)
	}
	k.ids = stored
	return k
}

// RecordOrderID prepends a newly placed order id. Re-recording an id moves
// nothing; the list stays deduplicated.
func (k *KnownOrders) RecordOrderID(orderID string) {
	if orderID == "" {
		return
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	for _, id := range k.ids {
		if id == orderID {
			return
		}
	}
	k.ids = append([]string{orderID}, k.ids...)
	if err := localstore.SaveJSON(context.Background(), k.local, localstore.KeyKnownOrderIDs, k.ids); err != nil {
		log.Printf("known orders persist error: %v", err)
	}
}

// IDs returns the known ids newest-first.
func (k *KnownOrders) IDs() []string {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]string, len(k.ids))
	copy(out, k.ids)
	return out
}
