package dispatches

import "sync"

// Feed reparte snapshots completos a los suscriptores. Cada suscriptor guarda
// solo el último snapshot pendiente; uno más nuevo reemplaza al anterior.
type Feed struct {
	mu   sync.Mutex
	next int
	subs map[int]chan []Dispatch
}

func NewFeed() *Feed {
	return &Feed{subs: make(map[int]chan []Dispatch)}
}

// Subscribe devuelve el canal y la función para cancelar la suscripción.
// Si initial no es nil queda como primer snapshot del canal.
func (f *Feed) Subscribe(initial []Dispatch) (<-chan []Dispatch, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.next
	f.next++
	ch := make(chan []Dispatch, 1)
	f.subs[id] = ch
	if initial != nil {
		ch <- initial
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			if c, ok := f.subs[id]; ok {
				delete(f.subs, id)
				close(c)
			}
		})
	}
	return ch, cancel
}

func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Publish entrega snapshot a todos sin bloquear.
func (f *Feed) Publish(snapshot []Dispatch) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		offer(ch, snapshot)
	}
}

func offer(ch chan []Dispatch, snapshot []Dispatch) {
	select {
	case ch <- snapshot:
		return
	default:
	}
	// descartar el snapshot viejo
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snapshot:
	default:
	}
}
