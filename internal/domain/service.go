package domain

// Executor runs one task per work item with at most concurrency tasks active.
// Execute blocks until every item has settled and returns exactly one outcome per item,
// in no particular order.
type Executor interface {
	Strategy() Strategy
	Execute(items []WorkItem, concurrency int) []TaskOutcome
}

// Observer receives progress events. Implementations must be safe for concurrent use.
type Observer interface {
	Notify(event Event)
}

// ObserverFunc adapts a function to the Observer interface
type ObserverFunc func(Event)

func (f ObserverFunc) Notify(event Event) {
	f(event)
}

// Observers fans an event out to several observers.
type Observers []Observer

func (o Observers) Notify(event Event) {
	for _, obs := range o {
		if obs != nil {
			obs.Notify(event)
		}
	}
}
