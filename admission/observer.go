package admission

// Observer consumes unit status messages. Implementations must be safe for
// concurrent use: every unit of an episode reports to the same Observer.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to an Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

type multiObserver []Observer

func (m multiObserver) Observe(e Event) {
	for _, o := range m {
		o.Observe(e)
	}
}

// Observers fans every event out to each non-nil observer in order.
func Observers(obs ...Observer) Observer {
	m := make(multiObserver, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

// ChanObserver delivers events over a channel. Sends block, so no event is
// dropped and per-unit order is preserved; the reader must keep up.
type ChanObserver chan<- Event

func (c ChanObserver) Observe(e Event) { c <- e }

type nopObserver struct{}

func (nopObserver) Observe(Event) {}
