package store

import "sync"

// subscriber owns a delivery buffer drained by its own goroutine, so one
// slow observer never blocks the write path or other observers. The
// buffer grows as needed; a subscriber that falls more than
// subscriberQueueSize behind is detached from future publishes, but
// everything enqueued before the detach is still delivered in order.
type subscriber struct {
	fn func(interface{})

	mu       sync.Mutex
	cond     *sync.Cond
	buf      []interface{}
	detached bool // no further enqueues, drain what is buffered
	stopped  bool // explicit unsubscribe, discard what is buffered
}

// subscriberQueueSize bounds how far an observer may fall behind before it
// is detached instead of slowing publishers
const subscriberQueueSize = 32

func newSubscriber(fn func(interface{})) *subscriber {
	s := &subscriber{fn: fn}
	s.cond = sync.NewCond(&s.mu)
	go s.drain()
	return s
}

// drain delivers buffered snapshots in enqueue order. It exits once the
// subscription is stopped, or once a detached subscriber has flushed.
func (s *subscriber) drain() {
	for {
		s.mu.Lock()
		for len(s.buf) == 0 && !s.detached && !s.stopped {
			s.cond.Wait()
		}
		if s.stopped || len(s.buf) == 0 {
			s.mu.Unlock()
			return
		}
		v := s.buf[0]
		s.buf = s.buf[1:]
		s.mu.Unlock()

		s.fn(v)
	}
}

// offer enqueues without ever blocking the publisher. The snapshot is
// always accepted; the return value reports whether the subscriber is
// still keeping up, and the registry detaches it when it is not.
func (s *subscriber) offer(v interface{}) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || s.detached {
		return false
	}
	s.buf = append(s.buf, v)
	s.cond.Signal()
	return len(s.buf) <= subscriberQueueSize
}

// detach cuts the subscriber off from future publishes. Snapshots already
// enqueued are still delivered, so a consumer that was merely behind sees
// every write up to the detach point.
func (s *subscriber) detach() {
	s.mu.Lock()
	s.detached = true
	s.cond.Signal()
	s.mu.Unlock()
}

// stop cancels the subscription; buffered snapshots are discarded. A
// callback already in flight may complete.
func (s *subscriber) stop() {
	s.mu.Lock()
	s.stopped = true
	s.buf = nil
	s.cond.Signal()
	s.mu.Unlock()
}

// Registry is the observer registry keyed by document ID. Publishes happen
// under the registry lock, so every subscriber's buffer receives snapshots
// in commit order. Each subscription returns an owned cancellation func;
// multiple independent subscriptions to the same document are fine.
type Registry struct {
	mu          sync.Mutex
	nextID      int
	meetupSubs  map[string]map[int]*subscriber
	listSubs    map[int]*subscriber
	messageSubs map[string]map[int]*subscriber
}

// NewRegistry creates an empty observer registry
func NewRegistry() *Registry {
	return &Registry{
		meetupSubs:  make(map[string]map[int]*subscriber),
		listSubs:    make(map[int]*subscriber),
		messageSubs: make(map[string]map[int]*subscriber),
	}
}

// SubscribeMeetup registers an observer for one meetup document. The
// initial snapshot is enqueued before the lock is released, so it always
// precedes any later publish.
func (r *Registry) SubscribeMeetup(meetupID string, initial interface{}, fn func(interface{})) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++

	sub := newSubscriber(fn)
	if r.meetupSubs[meetupID] == nil {
		r.meetupSubs[meetupID] = make(map[int]*subscriber)
	}
	r.meetupSubs[meetupID][id] = sub
	sub.offer(initial)

	return func() {
		r.mu.Lock()
		delete(r.meetupSubs[meetupID], id)
		r.mu.Unlock()
		sub.stop()
	}
}

// SubscribeList registers an observer for the active-meetups query
func (r *Registry) SubscribeList(initial interface{}, fn func(interface{})) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++

	sub := newSubscriber(fn)
	r.listSubs[id] = sub
	sub.offer(initial)

	return func() {
		r.mu.Lock()
		delete(r.listSubs, id)
		r.mu.Unlock()
		sub.stop()
	}
}

// SubscribeMessages registers an observer for a meetup's message feed
func (r *Registry) SubscribeMessages(meetupID string, initial interface{}, fn func(interface{})) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++

	sub := newSubscriber(fn)
	if r.messageSubs[meetupID] == nil {
		r.messageSubs[meetupID] = make(map[int]*subscriber)
	}
	r.messageSubs[meetupID][id] = sub
	sub.offer(initial)

	return func() {
		r.mu.Lock()
		delete(r.messageSubs[meetupID], id)
		r.mu.Unlock()
		sub.stop()
	}
}

// PublishMeetup fans a meetup snapshot out to its observers
func (r *Registry) PublishMeetup(meetupID string, snapshot interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, sub := range r.meetupSubs[meetupID] {
		if !sub.offer(snapshot) {
			delete(r.meetupSubs[meetupID], id)
			sub.detach()
		}
	}
}

// PublishList fans the active-meetups result set out to its observers
func (r *Registry) PublishList(snapshot interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, sub := range r.listSubs {
		if !sub.offer(snapshot) {
			delete(r.listSubs, id)
			sub.detach()
		}
	}
}

// PublishMessages fans a meetup's message feed out to its observers
func (r *Registry) PublishMessages(meetupID string, snapshot interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, sub := range r.messageSubs[meetupID] {
		if !sub.offer(snapshot) {
			delete(r.messageSubs[meetupID], id)
			sub.detach()
		}
	}
}
