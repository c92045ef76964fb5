package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryDeliversInPublishOrder(t *testing.T) {
	r := NewRegistry()

	var mu sync.Mutex
	var got []int
	done := make(chan struct{})

	unsub := r.SubscribeMeetup("m1", 0, func(v interface{}) {
		mu.Lock()
		got = append(got, v.(int))
		if len(got) == 4 {
			close(done)
		}
		mu.Unlock()
	})
	defer unsub()

	r.PublishMeetup("m1", 1)
	r.PublishMeetup("m1", 2)
	r.PublishMeetup("m1", 3)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 3}, got, "initial snapshot first, then publish order")
}

func TestRegistryUnsubscribeStopsDelivery(t *testing.T) {
	r := NewRegistry()

	first := make(chan interface{}, 1)
	unsub := r.SubscribeMeetup("m1", "initial", func(v interface{}) {
		select {
		case first <- v:
		default:
			t.Error("callback after unsubscribe")
		}
	})

	select {
	case v := <-first:
		require.Equal(t, "initial", v)
	case <-time.After(2 * time.Second):
		t.Fatal("no initial snapshot")
	}

	unsub()
	r.PublishMeetup("m1", "late")
	time.Sleep(100 * time.Millisecond)
}

func TestRegistryIsolatesDocuments(t *testing.T) {
	r := NewRegistry()

	ch := make(chan interface{}, 8)
	unsub := r.SubscribeMeetup("m1", "init", func(v interface{}) { ch <- v })
	defer unsub()

	<-ch
	r.PublishMeetup("m2", "other document")

	select {
	case <-ch:
		t.Fatal("received snapshot for a different document")
	case <-time.After(100 * time.Millisecond):
	}
}

// A subscriber that stops draining is detached once its queue fills,
// instead of blocking the publisher or other observers.
func TestRegistryDetachesSlowSubscriber(t *testing.T) {
	r := NewRegistry()

	block := make(chan struct{})
	unsubSlow := r.SubscribeMeetup("m1", 0, func(v interface{}) {
		<-block // never drains
	})
	defer unsubSlow()

	var mu sync.Mutex
	fastCount := 0
	unsubFast := r.SubscribeMeetup("m1", 0, func(v interface{}) {
		mu.Lock()
		fastCount++
		mu.Unlock()
	})
	defer unsubFast()

	// Overflow the slow subscriber's queue; publishes must not block
	published := make(chan struct{})
	go func() {
		for i := 0; i < subscriberQueueSize*3; i++ {
			r.PublishMeetup("m1", i)
		}
		close(published)
	}()

	select {
	case <-published:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on a slow subscriber")
	}

	close(block)
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Greater(t, fastCount, subscriberQueueSize, "fast subscriber keeps receiving")
}

// A publish burst larger than the buffer must not cost an observer the
// snapshots already enqueued for it: even if the burst outruns the drain
// goroutine entirely, everything accepted before the detach is delivered,
// in order, starting with the initial snapshot.
func TestRegistryBurstDoesNotStarveSubscriber(t *testing.T) {
	r := NewRegistry()

	var mu sync.Mutex
	var got []int
	unsub := r.SubscribeMeetup("m1", -1, func(v interface{}) {
		mu.Lock()
		got = append(got, v.(int))
		mu.Unlock()
	})
	defer unsub()

	for i := 0; i < subscriberQueueSize*3; i++ {
		r.PublishMeetup("m1", i)
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) > subscriberQueueSize
	}, 2*time.Second, 10*time.Millisecond, "buffered snapshots were not flushed")

	mu.Lock()
	defer mu.Unlock()
	for i, v := range got {
		assert.Equal(t, i-1, v, "snapshots delivered out of order")
	}
}

func TestRegistryListAndMessageChannels(t *testing.T) {
	r := NewRegistry()

	listCh := make(chan interface{}, 8)
	msgCh := make(chan interface{}, 8)

	unsubList := r.SubscribeList("list-init", func(v interface{}) { listCh <- v })
	defer unsubList()
	unsubMsgs := r.SubscribeMessages("m1", "msgs-init", func(v interface{}) { msgCh <- v })
	defer unsubMsgs()

	require.Equal(t, "list-init", <-listCh)
	require.Equal(t, "msgs-init", <-msgCh)

	r.PublishList("list-1")
	r.PublishMessages("m1", "msgs-1")
	r.PublishMessages("m2", "wrong-meetup")

	assert.Equal(t, "list-1", <-listCh)
	assert.Equal(t, "msgs-1", <-msgCh)

	select {
	case v := <-msgCh:
		t.Fatalf("unexpected message snapshot: %v", v)
	case <-time.After(100 * time.Millisecond):
	}
}
