package services

import (
	"context"
	"sync"
	"time"

	"shojo-terminal/backend-go/internal/models"
)

const defaultFeedInterval = 30 * time.Second

type FeedSnapshot struct {
	TsISO    string
	Tokens   []models.TokenView
	Insights models.InsightsView
}

// FeedLoader produces one snapshot for the given token limit.
type FeedLoader func(ctx context.Context, limit int) FeedSnapshot

type feedTopic struct {
	subs   map[chan FeedSnapshot]struct{}
	cancel context.CancelFunc
	last   *FeedSnapshot
}

// MarketFeed shares one refresh loop between all subscribers of the same
// limit, so N open streams cost one upstream refresh per interval.
type MarketFeed struct {
	load    FeedLoader
	timeout time.Duration

	mu     sync.Mutex
	topics map[int]*feedTopic
}

func NewMarketFeed(load FeedLoader, timeout time.Duration) *MarketFeed {
	return &MarketFeed{load: load, timeout: timeout, topics: make(map[int]*feedTopic)}
}

func (f *MarketFeed) Subscribe(ctx context.Context, limit int, interval time.Duration) (<-chan FeedSnapshot, func()) {
	ch := make(chan FeedSnapshot, 1)
	var once sync.Once

	f.mu.Lock()
	topic := f.topics[limit]
	if topic == nil {
		bgCtx, cancel := context.WithCancel(context.Background())
		topic = &feedTopic{subs: make(map[chan FeedSnapshot]struct{}), cancel: cancel}
		f.topics[limit] = topic
		go f.run(bgCtx, limit, interval)
	}
	topic.subs[ch] = struct{}{}
	last := topic.last
	f.mu.Unlock()

	if last != nil {
		select {
		case ch <- *last:
		default:
		}
	}

	unsubscribe := func() {
		once.Do(func() {
			f.mu.Lock()
			if t := f.topics[limit]; t != nil {
				delete(t.subs, ch)
				if len(t.subs) == 0 {
					t.cancel()
					delete(f.topics, limit)
				}
			}
			f.mu.Unlock()
			close(ch)
		})
	}

	go func() {
		<-ctx.Done()
		unsubscribe()
	}()

	return ch, unsubscribe
}

// Topics reports how many refresh loops are running.
func (f *MarketFeed) Topics() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.topics)
}

func (f *MarketFeed) run(ctx context.Context, limit int, interval time.Duration) {
	if interval <= 0 {
		interval = defaultFeedInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	publish := func() {
		reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
		defer cancel()
		snap := f.load(reqCtx, limit)
		if ctx.Err() != nil {
			return
		}
		f.publish(limit, snap)
	}

	publish()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			publish()
		}
	}
}

func (f *MarketFeed) publish(limit int, snap FeedSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	topic := f.topics[limit]
	if topic == nil {
		return
	}
	topic.last = &snap
	for ch := range topic.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}
