package entity

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/elaw611/isy-bridge/internal/classify"
	"github.com/elaw611/isy-bridge/internal/isy"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry holds the classified entities and their live state.
//
// It is populated once from a classification result and then updated
// in place by the event stream. Lookups return deep copies so callers
// can never mutate the cached entities.
//
// All public methods are thread-safe.
type Registry struct {
	entities map[string]*Entity
	order    []string // insertion order for stable listings
	mu       sync.RWMutex
	logger   Logger
}

// NewRegistry creates an empty entity registry.
func NewRegistry() *Registry {
	return &Registry{
		entities: make(map[string]*Entity),
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// VariableID builds the registry id for a variable entity.
func VariableID(varType, id int) string {
	return fmt.Sprintf("var_%d_%d", varType, id)
}

// Load populates the registry from a classification result.
//
// Nodes and scenes key by controller address, programs by program id,
// variables by the synthetic VariableID. Within each bucket the
// classification order is preserved, so listings are deterministic for
// an unchanged installation. Calling Load again replaces the registry
// contents entirely.
func (r *Registry) Load(res *classify.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entities = make(map[string]*Entity)
	r.order = r.order[:0]

	for _, cat := range classify.AllCategories() {
		for _, node := range res.Nodes[cat] {
			kind := KindDevice
			if node.Kind == isy.KindScene {
				kind = KindScene
			}
			r.add(&Entity{
				ID:       node.Address,
				Name:     node.Name,
				Category: cat,
				Kind:     kind,
				Path:     node.Path,
				Enabled:  node.Enabled,
				State:    nodeState(node),
			})
		}
	}

	for _, cat := range classify.ProgramCategories() {
		for _, prog := range res.Programs[cat] {
			state := State{}
			if prog.Status != nil {
				state["value"] = prog.Status.Status
			}
			id := prog.Name
			if prog.Status != nil {
				id = prog.Status.ID
			}
			r.add(&Entity{
				ID:       id,
				Name:     prog.Name,
				Category: cat,
				Kind:     KindProgram,
				Enabled:  true,
				State:    state,
			})
		}
	}

	for _, cat := range classify.VariableCategories() {
		for _, v := range res.Variables[cat] {
			name := v.Descriptor.Name
			if name == "" {
				name = v.Name
			}
			r.add(&Entity{
				ID:       VariableID(v.Descriptor.Type, v.Descriptor.ID),
				Name:     name,
				Category: cat,
				Kind:     KindVariable,
				Enabled:  true,
				State: State{
					"value": v.Value.Value,
					"init":  v.Value.Init,
				},
			})
		}
	}

	r.logger.Info("entity registry loaded", "entities", len(r.entities))
}

// add inserts one entity, preserving insertion order. Duplicate ids
// keep the first entry; the controller should never produce them.
func (r *Registry) add(e *Entity) {
	if _, exists := r.entities[e.ID]; exists {
		r.logger.Warn("duplicate entity id ignored", "id", e.ID, "name", e.Name)
		return
	}
	r.entities[e.ID] = e
	r.order = append(r.order, e.ID)
}

// Get retrieves an entity by id.
// Returns ErrEntityNotFound if the entity does not exist.
// The returned entity is a deep copy; callers can safely modify it.
func (r *Registry) Get(id string) (*Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entities[id]
	if !ok {
		return nil, ErrEntityNotFound
	}
	return e.DeepCopy(), nil
}

// List returns all entities in registry order.
// The returned entities are deep copies; callers can safely modify them.
func (r *Registry) List() []Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entities := make([]Entity, 0, len(r.order))
	for _, id := range r.order {
		entities = append(entities, *r.entities[id].DeepCopy())
	}
	return entities
}

// ListByCategory returns the entities of one category in registry order.
// The returned entities are deep copies; callers can safely modify them.
func (r *Registry) ListByCategory(cat classify.Category) []Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var entities []Entity
	for _, id := range r.order {
		if e := r.entities[id]; e.Category == cat {
			entities = append(entities, *e.DeepCopy())
		}
	}
	return entities
}

// SetState replaces an entity's state snapshot.
// This is optimised for frequent updates from the event stream.
func (r *Registry) SetState(id string, state State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entities[id]
	if !ok {
		return ErrEntityNotFound
	}

	// Atomic replacement with a deep copy so concurrent readers holding
	// earlier copies are unaffected
	updated := e.DeepCopy()
	updated.State = deepCopyState(state)
	now := time.Now().UTC()
	updated.StateUpdatedAt = &now
	r.entities[id] = updated

	r.logger.Debug("entity state updated", "id", id)
	return nil
}

// SetValue updates the primary state value, keeping other attributes.
func (r *Registry) SetValue(id string, value any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entities[id]
	if !ok {
		return ErrEntityNotFound
	}

	updated := e.DeepCopy()
	if updated.State == nil {
		updated.State = State{}
	}
	if value == nil {
		delete(updated.State, "value")
		delete(updated.State, "formatted")
	} else {
		updated.State["value"] = value
	}
	now := time.Now().UTC()
	updated.StateUpdatedAt = &now
	r.entities[id] = updated

	r.logger.Debug("entity value updated", "id", id)
	return nil
}

// SetAttribute updates one named state attribute, keeping the rest.
func (r *Registry) SetAttribute(id, name string, value any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entities[id]
	if !ok {
		return ErrEntityNotFound
	}

	updated := e.DeepCopy()
	if updated.State == nil {
		updated.State = State{}
	}
	updated.State[name] = value
	now := time.Now().UTC()
	updated.StateUpdatedAt = &now
	r.entities[id] = updated

	r.logger.Debug("entity attribute updated", "id", id, "attribute", name)
	return nil
}

// Count returns the number of registered entities.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entities)
}

// Stats holds registry statistics for monitoring.
type Stats struct {
	Total      int                       `json:"total"`
	ByCategory map[classify.Category]int `json:"by_category"`
	ByKind     map[Kind]int              `json:"by_kind"`
}

// GetStats returns current registry statistics.
func (r *Registry) GetStats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{
		Total:      len(r.entities),
		ByCategory: make(map[classify.Category]int),
		ByKind:     make(map[Kind]int),
	}

	for _, e := range r.entities {
		stats.ByCategory[e.Category]++
		stats.ByKind[e.Kind]++
	}

	return stats
}

// Categories returns the categories present in the registry, sorted.
func (r *Registry) Categories() []classify.Category {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[classify.Category]bool)
	for _, e := range r.entities {
		seen[e.Category] = true
	}

	cats := make([]classify.Category, 0, len(seen))
	for cat := range seen {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats
}
