package capability

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

// stubProvider is a minimal ContentProvider for registry tests.
type stubProvider struct {
	prompt  string
	content string
}

func (p *stubProvider) Prompt() string { return p.prompt }
func (p *stubProvider) Fetch(ctx context.Context) (string, error) {
	return p.content, nil
}

// stubTrigger is a minimal Trigger for pack-resolution tests.
type stubTrigger struct{}

func (t *stubTrigger) Setup(ctx context.Context) error        { return nil }
func (t *stubTrigger) Check(ctx context.Context) (bool, error) { return false, nil }
func (t *stubTrigger) TriggerData() map[string]any            { return nil }
func (t *stubTrigger) Teardown() error                        { return nil }
func (t *stubTrigger) Interval() time.Duration                { return 0 }

// TestRegisterAndLoad verifies the basic register-then-load round trip.
func TestRegisterAndLoad(t *testing.T) {
	reg := NewRegistry()

	err := reg.Register(KindContent, "stub", func(params map[string]any) (any, error) {
		return &stubProvider{prompt: StringParam(params, "prompt", "default")}, nil
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	p, err := reg.LoadContent("stub", map[string]any{"prompt": "summarize this"})
	if err != nil {
		t.Fatalf("LoadContent failed: %v", err)
	}
	if p.Prompt() != "summarize this" {
		t.Errorf("expected prompt 'summarize this', got %q", p.Prompt())
	}
}

// TestDuplicateRegistration verifies that the second registration of the
// same (kind, name) pair fails with a ResolutionError.
func TestDuplicateRegistration(t *testing.T) {
	reg := NewRegistry()

	ctor := func(params map[string]any) (any, error) { return &stubProvider{}, nil }
	if err := reg.Register(KindContent, "dup", ctor); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}

	err := reg.Register(KindContent, "dup", ctor)
	var resErr *ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected ResolutionError, got %v", err)
	}
	if resErr.Name != "dup" {
		t.Errorf("expected error for name 'dup', got %q", resErr.Name)
	}
}

// TestLoadUnknownName verifies resolution failure for unregistered names.
func TestLoadUnknownName(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.LoadContent("nope", nil)
	var resErr *ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected ResolutionError, got %v", err)
	}
}

// TestLoadUnknownKind verifies resolution failure for invalid kinds.
func TestLoadUnknownKind(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register(Kind("gadget"), "x", func(map[string]any) (any, error) { return nil, nil }); err == nil {
		t.Error("expected Register to reject unknown kind")
	}

	_, err := reg.Load(Kind("gadget"), "x", nil)
	var resErr *ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected ResolutionError, got %v", err)
	}
	if resErr.Reason != "unknown kind" {
		t.Errorf("expected reason 'unknown kind', got %q", resErr.Reason)
	}
}

// TestDiscoverSortedAndIdempotent verifies that Discover returns sorted
// names and that repeated calls return the same result.
func TestDiscoverSortedAndIdempotent(t *testing.T) {
	reg := NewRegistry()

	ctor := func(params map[string]any) (any, error) { return &stubProvider{}, nil }
	for _, name := range []string{"zebra", "alpha", "mango"} {
		if err := reg.Register(KindContent, name, ctor); err != nil {
			t.Fatalf("Register %q failed: %v", name, err)
		}
	}

	want := []string{"alpha", "mango", "zebra"}
	first := reg.Discover(KindContent)
	if !reflect.DeepEqual(first, want) {
		t.Errorf("expected %v, got %v", want, first)
	}

	second := reg.Discover(KindContent)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical results across calls, got %v then %v", first, second)
	}
}

// TestWrongTypeConstructor verifies that a constructor returning a value
// outside the kind's interface fails with a ResolutionError.
func TestWrongTypeConstructor(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register(KindContent, "broken", func(map[string]any) (any, error) {
		return "not a provider", nil
	}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	_, err := reg.LoadContent("broken", nil)
	var resErr *ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected ResolutionError, got %v", err)
	}
}

// TestAvailabilityCheckBlocksConstruction verifies that a failing check
// surfaces as a DependencyError and the constructor never runs.
func TestAvailabilityCheckBlocksConstruction(t *testing.T) {
	reg := NewRegistry()

	ctorCalls := 0
	if err := reg.Register(KindNotifier, "guarded", func(map[string]any) (any, error) {
		ctorCalls++
		return nil, nil
	}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := reg.RegisterCheck(KindNotifier, "guarded", func() error {
		return &DependencyError{Kind: KindNotifier, Name: "guarded", Hint: "install the widget binary"}
	}); err != nil {
		t.Fatalf("RegisterCheck failed: %v", err)
	}

	_, err := reg.Load(KindNotifier, "guarded", nil)
	var depErr *DependencyError
	if !errors.As(err, &depErr) {
		t.Fatalf("expected DependencyError, got %v", err)
	}
	if depErr.Hint != "install the widget binary" {
		t.Errorf("expected remediation hint to survive, got %q", depErr.Hint)
	}
	if ctorCalls != 0 {
		t.Errorf("expected constructor not to run, ran %d times", ctorCalls)
	}
}

// TestAvailabilityCheckPlainErrorWrapped verifies that a check returning a
// plain error is wrapped into a DependencyError.
func TestAvailabilityCheckPlainErrorWrapped(t *testing.T) {
	reg := NewRegistry()

	baseErr := errors.New("binary not found")
	if err := reg.Register(KindNotifier, "plain", func(map[string]any) (any, error) { return nil, nil }); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := reg.RegisterCheck(KindNotifier, "plain", func() error { return baseErr }); err != nil {
		t.Fatalf("RegisterCheck failed: %v", err)
	}

	_, err := reg.Load(KindNotifier, "plain", nil)
	var depErr *DependencyError
	if !errors.As(err, &depErr) {
		t.Fatalf("expected DependencyError, got %v", err)
	}
	if !errors.Is(err, baseErr) {
		t.Error("expected wrapped error to match the check's error")
	}
}

// TestPackResolution verifies pack-scoped registration and loading.
func TestPackResolution(t *testing.T) {
	reg := NewRegistry()

	if err := reg.RegisterPack("feeds", KindContent, func(params map[string]any) (any, error) {
		return &stubProvider{content: "pack content"}, nil
	}); err != nil {
		t.Fatalf("RegisterPack content failed: %v", err)
	}
	if err := reg.RegisterPack("feeds", KindTrigger, func(params map[string]any) (any, error) {
		return &stubTrigger{}, nil
	}); err != nil {
		t.Fatalf("RegisterPack trigger failed: %v", err)
	}

	p, err := reg.LoadPackContent("feeds", nil)
	if err != nil {
		t.Fatalf("LoadPackContent failed: %v", err)
	}
	content, err := p.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if content != "pack content" {
		t.Errorf("expected 'pack content', got %q", content)
	}

	if _, err := reg.LoadPackTrigger("feeds", nil); err != nil {
		t.Fatalf("LoadPackTrigger failed: %v", err)
	}

	names := reg.Discover(KindContent)
	if len(names) != 1 || names[0] != "feeds.content" {
		t.Errorf("expected ['feeds.content'], got %v", names)
	}
}

// TestConstructorErrorPropagates verifies constructor errors surface as-is.
func TestConstructorErrorPropagates(t *testing.T) {
	reg := NewRegistry()

	ctorErr := &ConfigError{Field: "api_key", Reason: "required"}
	if err := reg.Register(KindLLM, "needy", func(map[string]any) (any, error) {
		return nil, ctorErr
	}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	_, err := reg.LoadSender("needy", nil)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if cfgErr.Field != "api_key" {
		t.Errorf("expected field 'api_key', got %q", cfgErr.Field)
	}
}
