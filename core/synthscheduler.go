package orchestration

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kotonelabs/avatar-core/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
)

const defaultSynthesisInterval = time.Second

// SynthesisScheduler synthesizes queued screenplays concurrently with
// playback while keeping both guarantees the pipeline relies on:
// sentences play in enqueue order, and synthesis requests are spaced at
// least a minimum interval apart.
//
// Failed syntheses never stall the queue; the affected sentence is
// skipped and playback moves on.
type SynthesisScheduler struct {
	mu      sync.Mutex
	entries []*queueEntry

	fetchSignal chan struct{}
	playSignal  chan struct{}

	fetcher     *AudioFetcher
	sink        PlaybackSink
	minInterval time.Duration

	// now and wait are injected so tests can run without real timers.
	now  func() time.Time
	wait func(time.Duration)

	lastFetchEnd time.Time

	baseCtx   context.Context
	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

type queueEntry struct {
	id         string
	screenplay Screenplay

	onStart    func()
	onComplete func()

	audio   *texttospeech.Audio
	fetched chan struct{}
	// done is set by the playback worker; Close uses it to complete only
	// the entries that never got played.
	done bool
}

type SchedulerOption func(*SynthesisScheduler)

// WithMinimumInterval sets the minimum spacing between synthesis
// requests.
func WithMinimumInterval(interval time.Duration) SchedulerOption {
	return func(s *SynthesisScheduler) {
		s.minInterval = interval
	}
}

// withClock replaces the scheduler's time source; used in tests.
func withClock(now func() time.Time, wait func(time.Duration)) SchedulerOption {
	return func(s *SynthesisScheduler) {
		s.now = now
		s.wait = wait
	}
}

func NewSynthesisScheduler(ctx context.Context, fetcher *AudioFetcher, sink PlaybackSink, opts ...SchedulerOption) *SynthesisScheduler {
	scheduler := &SynthesisScheduler{
		fetchSignal: make(chan struct{}, 1),
		playSignal:  make(chan struct{}, 1),
		fetcher:     fetcher,
		sink:        sink,
		minInterval: defaultSynthesisInterval,
		now:         time.Now,
		baseCtx:     ctx,
		closed:      make(chan struct{}),
	}
	scheduler.wait = scheduler.interruptibleWait

	for _, opt := range opts {
		opt(scheduler)
	}

	scheduler.wg.Add(2)
	go scheduler.fetchWorker()
	go scheduler.playbackWorker()

	return scheduler
}

type EnqueueOption func(*queueEntry)

// WithStartedCallback runs just before the entry's playback starts.
func WithStartedCallback(callback func()) EnqueueOption {
	return func(e *queueEntry) {
		e.onStart = callback
	}
}

// WithCompletedCallback runs after the entry's playback finished or the
// entry was skipped.
func WithCompletedCallback(callback func()) EnqueueOption {
	return func(e *queueEntry) {
		e.onComplete = callback
	}
}

// Enqueue appends a screenplay to the synthesis queue. Playback order is
// the enqueue order regardless of how long each synthesis takes.
func (s *SynthesisScheduler) Enqueue(screenplay Screenplay, opts ...EnqueueOption) {
	if s == nil {
		return
	}

	entry := &queueEntry{
		id:         uuid.NewString(),
		screenplay: screenplay,
		fetched:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(entry)
	}

	s.mu.Lock()
	s.entries = append(s.entries, entry)
	s.mu.Unlock()

	s.signal(s.fetchSignal)
	s.signal(s.playSignal)
}

// Close stops both workers and waits for them to drain. Entries that were
// never played complete without playing.
func (s *SynthesisScheduler) Close() {
	if s == nil {
		return
	}
	s.closeOnce.Do(func() {
		close(s.closed)
		s.wg.Wait()

		s.mu.Lock()
		abandoned := s.entries
		s.entries = nil
		s.mu.Unlock()

		for _, entry := range abandoned {
			if !entry.done && entry.onComplete != nil {
				entry.onComplete()
			}
		}
	})
}

func (s *SynthesisScheduler) signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (s *SynthesisScheduler) interruptibleWait(d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-s.closed:
	}
}

// awaitEntry blocks until the queue holds an entry at or past the index,
// returning nil when the scheduler closes first.
func (s *SynthesisScheduler) awaitEntry(index int, signal chan struct{}) *queueEntry {
	for {
		s.mu.Lock()
		if index < len(s.entries) {
			entry := s.entries[index]
			s.mu.Unlock()
			return entry
		}
		s.mu.Unlock()

		select {
		case <-signal:
		case <-s.closed:
			return nil
		}
	}
}

// fetchWorker synthesizes entries in order, pacing requests at least
// minInterval apart. Synthesis failures are absorbed: the entry is marked
// fetched with no audio and playback skips it.
func (s *SynthesisScheduler) fetchWorker() {
	defer s.wg.Done()

	for index := 0; ; index++ {
		entry := s.awaitEntry(index, s.fetchSignal)
		if entry == nil {
			return
		}

		if !s.lastFetchEnd.IsZero() {
			if elapsed := s.now().Sub(s.lastFetchEnd); elapsed < s.minInterval {
				s.wait(s.minInterval - elapsed)
			}
		}

		select {
		case <-s.closed:
			close(entry.fetched)
			return
		default:
		}

		ctx, span := tracer.Start(s.baseCtx, "synthesize queued screenplay")
		span.SetAttributes(attribute.String("entry.id", entry.id))

		audio, err := s.fetcher.Fetch(ctx, entry.screenplay)
		if err != nil {
			span.RecordError(err)
			logger.Error("Failed to synthesize queued screenplay",
				"error", err, "entry", entry.id)
		} else {
			entry.audio = audio
		}
		span.End()

		s.lastFetchEnd = s.now()
		close(entry.fetched)
	}
}

// playbackWorker plays fetched entries strictly in enqueue order. A
// single worker consuming the queue front-to-back is what guarantees
// ordering; slow syntheses further down the queue just accumulate behind
// it.
func (s *SynthesisScheduler) playbackWorker() {
	defer s.wg.Done()

	for index := 0; ; index++ {
		entry := s.awaitEntry(index, s.playSignal)
		if entry == nil {
			return
		}

		select {
		case <-entry.fetched:
		case <-s.closed:
			return
		}

		if entry.onStart != nil {
			entry.onStart()
		}

		if entry.audio != nil && s.sink != nil {
			if err := s.sink.Play(s.baseCtx, entry.audio, entry.screenplay); err != nil {
				logger.Error("Failed to play synthesized speech",
					"error", err, "entry", entry.id)
			}
		}

		if entry.onComplete != nil {
			entry.onComplete()
		}

		// The entry stays queued for index bookkeeping but its audio is
		// no longer needed.
		entry.audio = nil
		entry.done = true
	}
}
