package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/elaw611/isy-bridge/internal/audit"
	"github.com/elaw611/isy-bridge/internal/entity"
	"github.com/elaw611/isy-bridge/internal/infrastructure/mqtt"
	"github.com/elaw611/isy-bridge/internal/isy"
)

// Bridge operation constants.
const (
	// commandTimeout is the timeout for forwarding commands to the controller.
	commandTimeout = 5 * time.Second

	// storeTimeout bounds history and audit writes triggered by events.
	storeTimeout = 3 * time.Second
)

// Controller is the subset of the controller client the bridge needs
// for forwarding commands. Satisfied by *isy.Client.
type Controller interface {
	// SendNodeCommand forwards a raw command to a node or scene.
	SendNodeCommand(ctx context.Context, address, command string, value *int) error

	// RunProgram issues a program command against a program id.
	RunProgram(ctx context.Context, programID, command string) error

	// SetVariable writes a variable's current value.
	SetVariable(ctx context.Context, varType, id, value int) error
}

// MQTTClient is the interface for MQTT operations.
// This allows mocking in tests and flexibility in implementation.
type MQTTClient interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error

	// IsConnected returns true if connected to the broker.
	IsConnected() bool
}

// MetricsWriter records telemetry in the time-series database.
// It is optional — if nil, the bridge operates without metrics.
// Satisfied by *influxdb.Client.
type MetricsWriter interface {
	// WriteEntityState records an entity's primary state value.
	WriteEntityState(entityID, category string, value float64)

	// WriteControlEvent records a non-state control report value.
	WriteControlEvent(entityID, control string, value float64)
}

// EventSource delivers controller events to the bridge. The handler is
// bound at construction, so the source is attached after the bridge
// exists. Satisfied by *isy.EventStream.
type EventSource interface {
	Start(ctx context.Context) error
	Stop()
}

// Logger is the logging interface used by the bridge.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Options holds configuration for creating a bridge.
type Options struct {
	// Registry is the populated entity registry.
	Registry *entity.Registry

	// Controller is the controller client for command forwarding.
	Controller Controller

	// MQTTClient is the MQTT client implementation.
	MQTTClient MQTTClient

	// Topics builds the bridge's MQTT topic names.
	Topics mqtt.Topics

	// QoS is the quality of service level for bridge publishes.
	QoS byte

	// Metrics is optional time-series recording. May be nil.
	Metrics MetricsWriter

	// History is optional state history persistence. May be nil.
	History entity.StateHistoryRepository

	// Audit is optional control event persistence. May be nil.
	Audit audit.Repository

	// Logger is optional structured logging. May be nil.
	Logger Logger
}

// controlEventMessage is the payload published on the control event topic.
type controlEventMessage struct {
	EventID  string    `json:"event_id"`
	EntityID string    `json:"entity_id"`
	Control  string    `json:"control"`
	Value    int       `json:"value"`
	TS       time.Time `json:"ts"`
}

// commandMessage is the payload accepted on the command topics.
type commandMessage struct {
	Command string `json:"command"`
	Value   *int   `json:"value,omitempty"`
}

// Bridge connects the controller event stream to MQTT and storage.
// It handles:
//   - Translating controller events into registry updates and retained
//     state publishes
//   - Publishing raw control reports on the control event topic
//   - Receiving entity commands over MQTT and forwarding them to the
//     controller
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	registry   *entity.Registry
	controller Controller
	mqtt       MQTTClient
	topics     mqtt.Topics
	qos        byte
	metrics    MetricsWriter
	history    entity.StateHistoryRepository
	audit      audit.Repository

	events   EventSource
	eventsMu sync.Mutex

	// Shutdown coordination
	stopOnce  sync.Once
	ctx       context.Context
	ctxCancel context.CancelFunc

	logger Logger
}

// New creates a bridge. Call AttachEvents to bind the controller event
// source, then Start to begin operation.
func New(opts Options) (*Bridge, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if opts.Controller == nil {
		return nil, fmt.Errorf("controller client is required")
	}
	if opts.MQTTClient == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}

	// Bridge-level context so in-flight commands abort on shutdown
	ctx, ctxCancel := context.WithCancel(context.Background())

	return &Bridge{
		registry:   opts.Registry,
		controller: opts.Controller,
		mqtt:       opts.MQTTClient,
		topics:     opts.Topics,
		qos:        opts.QoS,
		metrics:    opts.Metrics,
		history:    opts.History,
		audit:      opts.Audit,
		ctx:        ctx,
		ctxCancel:  ctxCancel,
		logger:     opts.Logger,
	}, nil
}

// AttachEvents binds the controller event source. The source must have
// been constructed with HandleEvent as its handler.
func (b *Bridge) AttachEvents(events EventSource) {
	b.eventsMu.Lock()
	b.events = events
	b.eventsMu.Unlock()
}

// Start begins bridge operation: subscribes to command topics, publishes
// the initial retained state for every entity, and starts the attached
// event source.
func (b *Bridge) Start(ctx context.Context) error {
	commandTopic := b.topics.AllCommands()
	if err := b.mqtt.Subscribe(commandTopic, b.qos, b.handleCommand); err != nil {
		return fmt.Errorf("subscribe to commands: %w", err)
	}
	b.logInfo("subscribed to commands", "topic", commandTopic)

	b.PublishStates()

	b.eventsMu.Lock()
	events := b.events
	b.eventsMu.Unlock()
	if events != nil {
		if err := events.Start(ctx); err != nil {
			return fmt.Errorf("starting event source: %w", err)
		}
	}

	b.logInfo("bridge started", "entities", b.registry.Count())
	return nil
}

// Stop gracefully shuts down the bridge.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		b.eventsMu.Lock()
		events := b.events
		b.eventsMu.Unlock()
		if events != nil {
			events.Stop()
		}

		// Cancel bridge context to abort in-flight commands
		b.ctxCancel()

		b.logInfo("bridge stopped")
	})
}

// PublishStates publishes the current retained state for every entity.
// Called at startup so subscribers see a full picture before the first
// event arrives.
func (b *Bridge) PublishStates() {
	published := 0
	for _, e := range b.registry.List() {
		if err := b.publishState(&e); err != nil {
			b.logError("failed to publish initial state", err, "entity", e.ID)
			continue
		}
		published++
	}
	b.logInfo("published initial states", "count", published)
}

// HandleEvent processes one controller event. It is the handler bound
// into the event stream and runs on the stream's reader goroutine, so
// per-entity ordering is preserved.
func (b *Bridge) HandleEvent(e isy.Event) {
	// Controller housekeeping events carry underscore-prefixed controls
	// and no useful node address.
	if e.Node == "" || strings.HasPrefix(e.Control, "_") {
		return
	}

	if _, err := b.registry.Get(e.Node); err != nil {
		b.logDebug("event for unclassified node", "node", e.Node, "control", e.Control)
		return
	}

	if e.Control == "ST" {
		b.handleStateEvent(e)
		return
	}

	b.handleControlEvent(e)
}

// handleStateEvent applies a primary state change.
func (b *Bridge) handleStateEvent(e isy.Event) {
	value, err := strconv.Atoi(e.Action)
	if err != nil {
		// Empty or non-numeric action means the value became unknown
		if setErr := b.registry.SetValue(e.Node, nil); setErr != nil {
			b.logError("failed to clear entity value", setErr, "entity", e.Node)
			return
		}
	} else {
		if setErr := b.registry.SetValue(e.Node, value); setErr != nil {
			b.logError("failed to update entity value", setErr, "entity", e.Node)
			return
		}
	}

	updated, getErr := b.registry.Get(e.Node)
	if getErr != nil {
		return
	}

	if pubErr := b.publishState(updated); pubErr != nil {
		b.logError("failed to publish state", pubErr, "entity", e.Node)
	}

	b.recordHistory(updated, entity.StateHistorySourceEvent)

	if b.metrics != nil && err == nil {
		b.metrics.WriteEntityState(updated.ID, string(updated.Category), float64(value))
	}
}

// handleControlEvent publishes a raw control report and, for controls
// that carry attribute values, folds it into the entity state.
func (b *Bridge) handleControlEvent(e isy.Event) {
	value, numErr := strconv.Atoi(e.Action)

	msg := controlEventMessage{
		EventID:  "evt-" + uuid.NewString()[:8],
		EntityID: e.Node,
		Control:  e.Control,
		Value:    value,
		TS:       time.Now().UTC(),
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		b.logError("failed to marshal control event", err)
		return
	}
	if err := b.mqtt.Publish(b.topics.ControlEvent(), payload, b.qos, false); err != nil {
		b.logError("failed to publish control event", err, "entity", e.Node, "control", e.Control)
	}

	b.recordAudit(&audit.Event{
		ID:       msg.EventID,
		EntityID: e.Node,
		Control:  e.Control,
		Value:    value,
		Source:   audit.SourceDevice,
	})

	if !IsAttributeControl(e.Control) {
		return
	}

	var attrValue any = e.Action
	if numErr == nil {
		attrValue = value
	}
	if err := b.registry.SetAttribute(e.Node, FriendlyName(e.Control), attrValue); err != nil {
		b.logError("failed to update entity attribute", err, "entity", e.Node, "control", e.Control)
		return
	}

	if updated, getErr := b.registry.Get(e.Node); getErr == nil {
		if pubErr := b.publishState(updated); pubErr != nil {
			b.logError("failed to publish state", pubErr, "entity", e.Node)
		}
	}

	if b.metrics != nil && numErr == nil {
		b.metrics.WriteControlEvent(e.Node, e.Control, float64(value))
	}
}

// handleCommand processes one command message from MQTT.
func (b *Bridge) handleCommand(topic string, payload []byte) error {
	entityID := b.entityIDFromCommandTopic(topic)
	if entityID == "" {
		return fmt.Errorf("invalid command topic: %s", topic)
	}

	var cmd commandMessage
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return fmt.Errorf("parsing command payload: %w", err)
	}
	if cmd.Command == "" {
		return fmt.Errorf("command is required")
	}

	e, err := b.registry.Get(entityID)
	if err != nil {
		return fmt.Errorf("command for unknown entity %s: %w", entityID, err)
	}

	b.logInfo("received command", "entity", entityID, "command", cmd.Command)

	ctx, cancel := context.WithTimeout(b.ctx, commandTimeout)
	defer cancel()

	switch e.Kind {
	case entity.KindProgram:
		err = b.controller.RunProgram(ctx, e.ID, cmd.Command)
	case entity.KindVariable:
		err = b.setVariable(ctx, e.ID, cmd)
	default:
		err = b.controller.SendNodeCommand(ctx, e.ID, cmd.Command, cmd.Value)
	}
	if err != nil {
		b.logError("command forwarding failed", err, "entity", entityID, "command", cmd.Command)
		return err
	}

	value := 0
	if cmd.Value != nil {
		value = *cmd.Value
	}
	b.recordAudit(&audit.Event{
		EntityID: entityID,
		Control:  cmd.Command,
		Value:    value,
		Source:   audit.SourceMQTT,
	})

	return nil
}

// setVariable forwards a variable write. Variable entities only accept
// the "set" command with a value.
func (b *Bridge) setVariable(ctx context.Context, entityID string, cmd commandMessage) error {
	if cmd.Command != "set" {
		return fmt.Errorf("unsupported variable command: %s", cmd.Command)
	}
	if cmd.Value == nil {
		return fmt.Errorf("variable set requires a value")
	}

	var varType, varID int
	if _, err := fmt.Sscanf(entityID, "var_%d_%d", &varType, &varID); err != nil {
		return fmt.Errorf("parsing variable id %q: %w", entityID, err)
	}

	return b.controller.SetVariable(ctx, varType, varID, *cmd.Value)
}

// entityIDFromCommandTopic extracts the entity id from a command topic.
// Controller addresses contain spaces but no slashes, so everything
// after the command prefix is the id.
func (b *Bridge) entityIDFromCommandTopic(topic string) string {
	prefix := b.topics.Command("")
	if !strings.HasPrefix(topic, prefix) {
		return ""
	}
	return topic[len(prefix):]
}

// publishState publishes an entity's retained state message.
func (b *Bridge) publishState(e *entity.Entity) error {
	payload, err := json.Marshal(e.State)
	if err != nil {
		return fmt.Errorf("marshalling state: %w", err)
	}

	topic := b.topics.EntityState(string(e.Category), e.ID)
	return b.mqtt.Publish(topic, payload, b.qos, true)
}

// recordHistory persists a state snapshot if history is configured.
func (b *Bridge) recordHistory(e *entity.Entity, source string) {
	if b.history == nil {
		return
	}

	ctx, cancel := context.WithTimeout(b.ctx, storeTimeout)
	defer cancel()

	if err := b.history.RecordStateChange(ctx, e.ID, e.State, source); err != nil {
		b.logError("failed to record state history", err, "entity", e.ID)
	}
}

// recordAudit persists a control event if the audit trail is configured.
func (b *Bridge) recordAudit(event *audit.Event) {
	if b.audit == nil {
		return
	}

	ctx, cancel := context.WithTimeout(b.ctx, storeTimeout)
	defer cancel()

	if err := b.audit.Create(ctx, event); err != nil {
		b.logError("failed to record control event", err, "entity", event.EntityID)
	}
}

func (b *Bridge) logInfo(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Info(msg, args...)
	}
}

func (b *Bridge) logDebug(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Debug(msg, args...)
	}
}

func (b *Bridge) logError(msg string, err error, args ...any) {
	if b.logger != nil {
		b.logger.Error(msg, append([]any{"error", err}, args...)...)
	}
}
