package resolver

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/studioforge-backend/internal/importmap"
	"github.com/yungbote/studioforge-backend/internal/logger"
	"github.com/yungbote/studioforge-backend/internal/types"
)

// fakeRegistry counts resolve calls and can block to simulate a stalled
// backing store.
type fakeRegistry struct {
	version  string
	resolves int64
	block    bool
}

func (f *fakeRegistry) Exports(source string) ([]string, bool) { return nil, false }

func (f *fakeRegistry) Resolve(ctx context.Context, source, symbol string) (*importmap.Implementation, error) {
	atomic.AddInt64(&f.resolves, 1)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if symbol == "Missing" {
		return nil, importmap.ErrUnknownSymbol
	}
	return &importmap.Implementation{Name: symbol, Source: source, Kind: importmap.KindWidget}, nil
}

func (f *fakeRegistry) ResolveIcons(ctx context.Context, names []string) (map[string]*importmap.Implementation, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	out := make(map[string]*importmap.Implementation, len(names))
	for _, n := range names {
		if n == "Missing" {
			continue
		}
		out[n] = &importmap.Implementation{Name: n, Source: importmap.IconModulePath, Kind: importmap.KindIcon}
	}
	return out, nil
}

func (f *fakeRegistry) Version() string { return f.version }

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger init failed: %v", err)
	}
	return log
}

func TestResolve_ComponentsIconsAndCustom(t *testing.T) {
	reg := &fakeRegistry{version: "v1"}
	r := New(reg, NewTreeEvaluator(), testLogger(t), time.Second)

	m := types.NewDependencyManifest()
	m.RequiredComponents["Card"] = importmap.UIModulePrefix + "card"
	m.RequiredIcons = append(m.RequiredIcons, "Star")
	m.CustomImports = append(m.CustomImports, types.ImportDeclaration{Source: "./weird"})

	res, err := r.Resolve(context.Background(), m)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Symbols["Card"] == nil || res.Symbols["Star"] == nil {
		t.Fatalf("expected Card and Star resolved, got %+v", res.Symbols)
	}
	if len(res.Unsupported) != 1 || res.Unsupported[0].Source != "./weird" {
		t.Fatalf("custom import should surface as unsupported: %+v", res.Unsupported)
	}
}

func TestResolve_CachesAcrossCalls(t *testing.T) {
	reg := &fakeRegistry{version: "v1"}
	r := New(reg, NewTreeEvaluator(), testLogger(t), time.Second)

	m := types.NewDependencyManifest()
	m.RequiredComponents["Card"] = importmap.UIModulePrefix + "card"

	for i := 0; i < 3; i++ {
		if _, err := r.Resolve(context.Background(), m); err != nil {
			t.Fatalf("Resolve %d failed: %v", i, err)
		}
	}
	if n := atomic.LoadInt64(&reg.resolves); n != 1 {
		t.Fatalf("expected 1 registry hit, got %d", n)
	}
}

func TestResolve_UnresolvedSymbolReported(t *testing.T) {
	reg := &fakeRegistry{version: "v1"}
	r := New(reg, NewTreeEvaluator(), testLogger(t), time.Second)

	m := types.NewDependencyManifest()
	m.RequiredComponents["Missing"] = importmap.UIModulePrefix + "card"
	m.RequiredIcons = append(m.RequiredIcons, "Missing")

	res, err := r.Resolve(context.Background(), m)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(res.Unresolved) != 2 {
		t.Fatalf("both misses should be reported, got %v", res.Unresolved)
	}
}

func TestResolve_Timeout(t *testing.T) {
	reg := &fakeRegistry{version: "v1", block: true}
	r := New(reg, NewTreeEvaluator(), testLogger(t), 20*time.Millisecond)

	m := types.NewDependencyManifest()
	m.RequiredComponents["Card"] = importmap.UIModulePrefix + "card"

	_, err := r.Resolve(context.Background(), m)
	if !errors.Is(err, ErrResolveTimeout) {
		t.Fatalf("expected ErrResolveTimeout, got %v", err)
	}
}

func TestEvaluate_Memoized(t *testing.T) {
	reg := &fakeRegistry{version: "v1"}
	r := New(reg, NewTreeEvaluator(), testLogger(t), time.Second)

	m := types.NewDependencyManifest()
	m.RequiredComponents["Card"] = importmap.UIModulePrefix + "card"
	code := `const X = (props) => h(Card, null, "hi");`

	first, err := r.Evaluate(context.Background(), code, m, "X")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	second, err := r.Evaluate(context.Background(), code, m, "X")
	if err != nil {
		t.Fatalf("second Evaluate failed: %v", err)
	}
	if first != second {
		t.Fatalf("identical inputs should return the memoized tree")
	}
	if n := atomic.LoadInt64(&reg.resolves); n != 1 {
		t.Fatalf("memoized evaluation should not re-resolve, got %d hits", n)
	}
}
