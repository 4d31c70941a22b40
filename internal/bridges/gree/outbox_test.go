package gree

import (
	"errors"
	"sync"
	"testing"

	"github.com/nerrad567/gray-logic-gree/internal/climate"
)

func TestOutboxSend(t *testing.T) {
	done := make(chan struct{})
	o := newOutbox(2, done)

	if err := o.Send(climate.NewStatusRequest(testMAC)); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	msg := <-o.queue
	if msg.topic != GatewayOutTopic(testMAC) {
		t.Errorf("topic = %s", msg.topic)
	}

	pkt := climate.CommandPacket{Options: []string{"Pow"}, Values: []int{0}, Kind: climate.RequestKindCommand, Sub: testMACBed}
	if err := o.Send(pkt); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	msg = <-o.queue
	if msg.topic != GatewayOutTopic(testMACBed) {
		t.Errorf("topic = %s", msg.topic)
	}
	if string(msg.payload) != `{"opt":["Pow"],"p":[0],"t":"cmd","sub":"`+testMACBed+`"}` {
		t.Errorf("payload = %s", msg.payload)
	}
}

func TestOutboxFull(t *testing.T) {
	o := newOutbox(1, make(chan struct{}))

	if err := o.Send(climate.NewStatusRequest(testMAC)); err != nil {
		t.Fatalf("first Send() error = %v", err)
	}
	if err := o.Send(climate.NewStatusRequest(testMAC)); !errors.Is(err, ErrOutboxFull) {
		t.Errorf("second Send() error = %v, want ErrOutboxFull", err)
	}
}

func TestOutboxStopped(t *testing.T) {
	done := make(chan struct{})
	o := newOutbox(4, done)
	close(done)

	if err := o.Send(climate.NewStatusRequest(testMAC)); !errors.Is(err, ErrStopped) {
		t.Errorf("Send() error = %v, want ErrStopped", err)
	}
}

func TestOutboxRun(t *testing.T) {
	done := make(chan struct{})
	o := newOutbox(4, done)

	var (
		mu        sync.Mutex
		published []string
		failures  []error
	)
	publishErr := errors.New("broker gone")
	publish := func(topic string, _ []byte) error {
		mu.Lock()
		defer mu.Unlock()
		published = append(published, topic)
		if len(published) == 2 {
			return publishErr
		}
		return nil
	}
	onError := func(err error) {
		mu.Lock()
		failures = append(failures, err)
		mu.Unlock()
	}

	for _, mac := range []string{testMAC, testMACBed, testMAC} {
		if err := o.Send(climate.NewStatusRequest(mac)); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
	}

	finished := make(chan struct{})
	go func() {
		o.run(publish, onError)
		close(finished)
	}()

	waitFor(t, "queue drained", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(published) == 3
	})
	close(done)
	<-finished

	if published[0] != GatewayOutTopic(testMAC) || published[1] != GatewayOutTopic(testMACBed) {
		t.Errorf("publish order = %v", published)
	}
	if o.sent.Load() != 2 || o.fails.Load() != 1 {
		t.Errorf("sent/fails = %d/%d, want 2/1", o.sent.Load(), o.fails.Load())
	}
	if len(failures) != 1 || !errors.Is(failures[0], publishErr) {
		t.Errorf("failures = %v", failures)
	}
}
