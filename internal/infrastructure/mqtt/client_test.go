package mqtt

import (
	"errors"
	"testing"
)

// =============================================================================
// Topics Tests
// =============================================================================

func TestTopicBuilders(t *testing.T) {
	topics := NewTopics("isy")

	tests := []struct {
		name     string
		builder  func() string
		expected string
	}{
		{
			name: "Status",
			builder: func() string {
				return topics.Status()
			},
			expected: "isy/status",
		},
		{
			name: "EntityState",
			builder: func() string {
				return topics.EntityState("light", "11 22 33 1")
			},
			expected: "isy/entity/light/11 22 33 1/state",
		},
		{
			name: "ControlEvent",
			builder: func() string {
				return topics.ControlEvent()
			},
			expected: "isy/event/control",
		},
		{
			name: "Command",
			builder: func() string {
				return topics.Command("11 22 33 1")
			},
			expected: "isy/command/11 22 33 1",
		},
		{
			name: "AllCommands",
			builder: func() string {
				return topics.AllCommands()
			},
			expected: "isy/command/+",
		},
		{
			name: "AllEntityStates",
			builder: func() string {
				return topics.AllEntityStates()
			},
			expected: "isy/entity/+/+/state",
		},
		{
			name: "All",
			builder: func() string {
				return topics.All()
			},
			expected: "isy/#",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.builder()
			if result != tt.expected {
				t.Errorf("%s() = %q, want %q", tt.name, result, tt.expected)
			}
		})
	}
}

func TestTopicsCustomPrefix(t *testing.T) {
	topics := NewTopics("home/isy994")

	if got := topics.Status(); got != "home/isy994/status" {
		t.Errorf("Status() = %q, want %q", got, "home/isy994/status")
	}
	if got := topics.Command("dev-1"); got != "home/isy994/command/dev-1" {
		t.Errorf("Command() = %q, want %q", got, "home/isy994/command/dev-1")
	}
}

func TestTopicsDefaultPrefix(t *testing.T) {
	topics := NewTopics("")

	if got := topics.Prefix(); got != DefaultTopicPrefix {
		t.Errorf("Prefix() = %q, want %q", got, DefaultTopicPrefix)
	}
	if got := topics.Status(); got != "isy/status" {
		t.Errorf("Status() = %q, want %q", got, "isy/status")
	}
}

// =============================================================================
// Client State Tests (no broker required)
// =============================================================================

func TestCloseNil(t *testing.T) {
	client := &Client{}
	err := client.Close()
	if err != nil {
		t.Errorf("Close() on nil client error = %v, want nil", err)
	}
}

func TestIsConnected_InitialState(t *testing.T) {
	client := &Client{}

	if client.IsConnected() {
		t.Error("IsConnected() should be false for uninitialised client")
	}
}

func TestSubscriptionCount_Empty(t *testing.T) {
	client := &Client{subscriptions: make(map[string]subscription)}

	if client.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", client.SubscriptionCount())
	}
}

func TestHasSubscription_NotSubscribed(t *testing.T) {
	client := &Client{subscriptions: make(map[string]subscription)}

	if client.HasSubscription("nonexistent/topic") {
		t.Error("HasSubscription() should be false for unsubscribed topic")
	}
}

// =============================================================================
// Validation Tests (no broker required)
// =============================================================================

func TestPublishEmptyTopic(t *testing.T) {
	client := &Client{}

	err := client.Publish("", []byte("test"), 1, false)
	if !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Publish() error = %v, want ErrInvalidTopic", err)
	}
}

func TestPublishInvalidQoS(t *testing.T) {
	client := &Client{}

	err := client.Publish("test/topic", []byte("test"), 3, false)
	if !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Publish() error = %v, want ErrInvalidQoS", err)
	}
}

func TestPublishDisconnected(t *testing.T) {
	client := &Client{}

	err := client.Publish("test/topic", []byte("test"), 1, false)
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
}

func TestPublishOversizedPayload(t *testing.T) {
	client := &Client{}

	payload := make([]byte, maxPayloadSize+1)
	err := client.Publish("test/topic", payload, 1, false)
	if !errors.Is(err, ErrPublishFailed) {
		t.Errorf("Publish() error = %v, want ErrPublishFailed", err)
	}
}

func TestSubscribeEmptyTopic(t *testing.T) {
	client := &Client{}

	err := client.Subscribe("", 1, func(string, []byte) error { return nil })
	if !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Subscribe() error = %v, want ErrInvalidTopic", err)
	}
}

func TestSubscribeInvalidQoS(t *testing.T) {
	client := &Client{}

	err := client.Subscribe("test/topic", 3, func(string, []byte) error { return nil })
	if !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Subscribe() error = %v, want ErrInvalidQoS", err)
	}
}

func TestSubscribeNilHandler(t *testing.T) {
	client := &Client{}

	err := client.Subscribe("test/topic", 1, nil)
	if !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("Subscribe() error = %v, want ErrSubscribeFailed", err)
	}
}

func TestSubscribeDisconnected(t *testing.T) {
	client := &Client{}

	err := client.Subscribe("test/topic", 1, func(string, []byte) error { return nil })
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe() error = %v, want ErrNotConnected", err)
	}
}

func TestUnsubscribeEmptyTopic(t *testing.T) {
	client := &Client{}

	err := client.Unsubscribe("")
	if !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Unsubscribe() error = %v, want ErrInvalidTopic", err)
	}
}

func TestUnsubscribeDisconnected(t *testing.T) {
	client := &Client{}

	err := client.Unsubscribe("test/topic")
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Unsubscribe() error = %v, want ErrNotConnected", err)
	}
}
