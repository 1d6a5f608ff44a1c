package pipeline

import (
	"sync"
	"time"

	"rtgrab/internal/model"
)

// Debounce emits an event for a path once it has been quiet for delay.
// Pending events are flushed when inCh closes.
func Debounce(inCh <-chan model.FileEvent, delay time.Duration) <-chan model.FileEvent {
	outCh := make(chan model.FileEvent, cap(inCh))

	go func() {
		var (
			mu     sync.Mutex
			wg     sync.WaitGroup
			timers = make(map[string]*time.Timer)
			events = make(map[string]model.FileEvent)
		)

		for event := range inCh {
			path := event.Path

			mu.Lock()
			if t, ok := timers[path]; ok && t.Stop() {
				wg.Done()
			}
			events[path] = event

			wg.Add(1)
			timers[path] = time.AfterFunc(delay, func() {
				defer wg.Done()

				mu.Lock()
				ev, ok := events[path]
				delete(timers, path)
				delete(events, path)
				mu.Unlock()

				if ok {
					outCh <- ev
				}
			})
			mu.Unlock()
		}

		mu.Lock()
		for path, t := range timers {
			// A timer that already fired owns its event.
			if !t.Stop() {
				continue
			}
			wg.Done()
			outCh <- events[path]
			delete(timers, path)
			delete(events, path)
		}
		mu.Unlock()

		wg.Wait()
		close(outCh)
	}()

	return outCh
}
