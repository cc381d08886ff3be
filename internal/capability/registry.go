package capability

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Registry holds every registered capability constructor, keyed by kind and
// name. Registration happens once at process startup before any task runs;
// afterwards the registry is read-only and safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	ctors  map[Kind]map[string]Constructor
	checks map[Kind]map[string]CheckFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		ctors:  make(map[Kind]map[string]Constructor),
		checks: make(map[Kind]map[string]CheckFunc),
	}
}

func validKind(kind Kind) bool {
	switch kind {
	case KindContent, KindLLM, KindNotifier, KindAction, KindTrigger:
		return true
	}
	return false
}

// Register binds a constructor to (kind, name). Registering the same pair
// twice is an error: every capability has exactly one constructor.
func (r *Registry) Register(kind Kind, name string, ctor Constructor) error {
	if !validKind(kind) {
		return &ResolutionError{Kind: kind, Name: name, Reason: "unknown kind"}
	}
	if name == "" {
		return &ResolutionError{Kind: kind, Name: name, Reason: "empty name"}
	}
	if ctor == nil {
		return &ResolutionError{Kind: kind, Name: name, Reason: "nil constructor"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ctors[kind] == nil {
		r.ctors[kind] = make(map[string]Constructor)
	}
	if _, exists := r.ctors[kind][name]; exists {
		return &ResolutionError{Kind: kind, Name: name, Reason: "already registered"}
	}
	r.ctors[kind][name] = ctor
	return nil
}

// RegisterPack binds a constructor to a pack-scoped name, e.g.
// RegisterPack("rss", KindContent, ctor) registers "rss.content".
func (r *Registry) RegisterPack(pack string, kind Kind, ctor Constructor) error {
	if pack == "" {
		return &ResolutionError{Kind: kind, Name: pack, Reason: "empty pack name"}
	}
	return r.Register(kind, PackName(pack, kind), ctor)
}

// RegisterCheck attaches an availability check to (kind, name). The check
// runs before every construction of that plugin; a failing check surfaces as
// a DependencyError and the constructor is never invoked.
func (r *Registry) RegisterCheck(kind Kind, name string, check CheckFunc) error {
	if !validKind(kind) {
		return &ResolutionError{Kind: kind, Name: name, Reason: "unknown kind"}
	}
	if check == nil {
		return &ResolutionError{Kind: kind, Name: name, Reason: "nil check"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.checks[kind] == nil {
		r.checks[kind] = make(map[string]CheckFunc)
	}
	r.checks[kind][name] = check
	return nil
}

// Discover returns the sorted names registered for kind. It is idempotent
// and has no side effects: two calls with no intervening registration return
// identical results.
func (r *Registry) Discover(kind Kind) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.ctors[kind]))
	for name := range r.ctors[kind] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load runs the availability check for (kind, name) if one is registered,
// then invokes the constructor. Callers that need a concrete capability
// type use the typed loaders instead.
func (r *Registry) Load(kind Kind, name string, params map[string]any) (any, error) {
	r.mu.RLock()
	ctor, ok := r.ctors[kind][name]
	check := r.checks[kind][name]
	r.mu.RUnlock()

	if !ok {
		if !validKind(kind) {
			return nil, &ResolutionError{Kind: kind, Name: name, Reason: "unknown kind"}
		}
		return nil, &ResolutionError{Kind: kind, Name: name, Reason: "not registered"}
	}

	if check != nil {
		if err := check(); err != nil {
			var dep *DependencyError
			if errors.As(err, &dep) {
				return nil, dep
			}
			return nil, &DependencyError{Kind: kind, Name: name, Err: err}
		}
	}

	instance, err := ctor(params)
	if err != nil {
		return nil, err
	}
	if instance == nil {
		return nil, &ResolutionError{Kind: kind, Name: name, Reason: "constructor returned nil"}
	}
	return instance, nil
}

// LoadPack resolves a pack-scoped capability, e.g. LoadPack("rss",
// KindTrigger, params).
func (r *Registry) LoadPack(pack string, kind Kind, params map[string]any) (any, error) {
	return r.Load(kind, PackName(pack, kind), params)
}

// LoadContent resolves and constructs a content provider.
func (r *Registry) LoadContent(name string, params map[string]any) (ContentProvider, error) {
	v, err := r.Load(KindContent, name, params)
	if err != nil {
		return nil, err
	}
	p, ok := v.(ContentProvider)
	if !ok {
		return nil, wrongType(KindContent, name, v, "ContentProvider")
	}
	return p, nil
}

// LoadSender resolves and constructs an LLM sender.
func (r *Registry) LoadSender(name string, params map[string]any) (Sender, error) {
	v, err := r.Load(KindLLM, name, params)
	if err != nil {
		return nil, err
	}
	s, ok := v.(Sender)
	if !ok {
		return nil, wrongType(KindLLM, name, v, "Sender")
	}
	return s, nil
}

// LoadNotifier resolves and constructs a notifier.
func (r *Registry) LoadNotifier(name string, params map[string]any) (Notifier, error) {
	v, err := r.Load(KindNotifier, name, params)
	if err != nil {
		return nil, err
	}
	n, ok := v.(Notifier)
	if !ok {
		return nil, wrongType(KindNotifier, name, v, "Notifier")
	}
	return n, nil
}

// LoadAction resolves and constructs an action.
func (r *Registry) LoadAction(name string, params map[string]any) (Action, error) {
	v, err := r.Load(KindAction, name, params)
	if err != nil {
		return nil, err
	}
	a, ok := v.(Action)
	if !ok {
		return nil, wrongType(KindAction, name, v, "Action")
	}
	return a, nil
}

// LoadTrigger resolves and constructs a trigger.
func (r *Registry) LoadTrigger(name string, params map[string]any) (Trigger, error) {
	v, err := r.Load(KindTrigger, name, params)
	if err != nil {
		return nil, err
	}
	t, ok := v.(Trigger)
	if !ok {
		return nil, wrongType(KindTrigger, name, v, "Trigger")
	}
	return t, nil
}

// LoadPackContent resolves a pack's content provider.
func (r *Registry) LoadPackContent(pack string, params map[string]any) (ContentProvider, error) {
	return r.LoadContent(PackName(pack, KindContent), params)
}

// LoadPackTrigger resolves a pack's trigger.
func (r *Registry) LoadPackTrigger(pack string, params map[string]any) (Trigger, error) {
	return r.LoadTrigger(PackName(pack, KindTrigger), params)
}

func wrongType(kind Kind, name string, got any, want string) error {
	return &ResolutionError{
		Kind:   kind,
		Name:   name,
		Reason: fmt.Sprintf("constructor returned %T, want %s", got, want),
	}
}
