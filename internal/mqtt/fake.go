package mqtt

// FakePublisher records published events for testing.
type FakePublisher struct {
	ReadingEvents []ReadingEvent
	DoseEvents    []DoseEvent
	SystemEvents  []SystemEvent

	// Payloads holds the serialized form of each published message in order,
	// keyed by topic.
	Payloads []PublishedMessage

	// PublishError, if set, is returned from all publish methods.
	PublishError error

	// Connected is the value returned from IsConnected.
	Connected bool

	Closed bool
}

// PublishedMessage captures one published message for assertion.
type PublishedMessage struct {
	Topic   string
	Payload []byte
}

// NewFakePublisher creates a fake publisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{Connected: true}
}

// PublishReading records the reading event.
func (f *FakePublisher) PublishReading(event ReadingEvent) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.ReadingEvents = append(f.ReadingEvents, event)
	payload, err := FormatReadingPayload(event)
	if err != nil {
		return err
	}
	f.Payloads = append(f.Payloads, PublishedMessage{Topic: Topic, Payload: payload})
	return nil
}

// PublishDose records the dose event.
func (f *FakePublisher) PublishDose(event DoseEvent) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.DoseEvents = append(f.DoseEvents, event)
	payload, err := FormatDosePayload(event)
	if err != nil {
		return err
	}
	f.Payloads = append(f.Payloads, PublishedMessage{Topic: TopicDosing, Payload: payload})
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.SystemEvents = append(f.SystemEvents, event)
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.Payloads = append(f.Payloads, PublishedMessage{Topic: TopicSystem, Payload: payload})
	return nil
}

// IsConnected returns the configured connection state.
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Close marks the publisher closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// Reset clears all recorded events.
func (f *FakePublisher) Reset() {
	f.ReadingEvents = nil
	f.DoseEvents = nil
	f.SystemEvents = nil
	f.Payloads = nil
	f.PublishError = nil
	f.Closed = false
}
