package resolver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yungbote/studioforge-backend/internal/importmap"
	"github.com/yungbote/studioforge-backend/internal/logger"
	"github.com/yungbote/studioforge-backend/internal/types"
)

// ErrResolveTimeout means the deadline elapsed before every required
// symbol resolved. Callers should treat it as a stall, not a broken
// manifest.
var ErrResolveTimeout = errors.New("symbol resolution deadline exceeded")

// SymbolTable is the resolved name -> implementation mapping a piece of
// transformed code is evaluated against.
type SymbolTable map[string]*importmap.Implementation

// Result carries the resolved table plus everything that could not be
// resolved. Unsupported imports are reported, never silently dropped.
type Result struct {
	Symbols     SymbolTable               `json:"symbols"`
	Unsupported []types.ImportDeclaration `json:"unsupported,omitempty"`
	Unresolved  []string                  `json:"unresolved,omitempty"`
}

// Resolver resolves dependency manifests against a symbol registry and
// evaluates transformed code into render trees. Resolved symbols are
// cached process-wide; the symbol universe is closed so the cache never
// needs eviction, only invalidation when the registry version changes.
type Resolver struct {
	registry  importmap.Registry
	evaluator Evaluator
	log       *logger.Logger
	deadline  time.Duration

	group singleflight.Group
	cache sync.Map // "version|name" -> *importmap.Implementation

	evalMu   sync.Mutex
	evalMemo map[string]*types.RenderNode
}

func New(registry importmap.Registry, evaluator Evaluator, baseLog *logger.Logger, deadline time.Duration) *Resolver {
	if deadline <= 0 {
		deadline = 10 * time.Second
	}
	return &Resolver{
		registry:  registry,
		evaluator: evaluator,
		log:       baseLog.With("component", "Resolver"),
		deadline:  deadline,
		evalMemo:  make(map[string]*types.RenderNode),
	}
}

// Resolve produces the symbol table for a manifest. Components resolve
// individually through the cache; icons resolve as one batch. Custom
// imports are never resolved here, they come back in Unsupported.
func (r *Resolver) Resolve(ctx context.Context, manifest types.DependencyManifest) (*Result, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.deadline)
		defer cancel()
	}

	res := &Result{Symbols: make(SymbolTable)}
	res.Unsupported = append(res.Unsupported, manifest.CustomImports...)
	res.Unresolved = append(res.Unresolved, manifest.UnresolvedSymbols...)

	for name, source := range manifest.RequiredComponents {
		impl, err := r.resolveOne(ctx, source, name)
		if err != nil {
			if deadlineExceeded(ctx, err) {
				return nil, ErrResolveTimeout
			}
			res.Unresolved = append(res.Unresolved, name)
			continue
		}
		res.Symbols[name] = impl
	}

	if len(manifest.RequiredIcons) > 0 {
		icons, err := r.resolveIconBatch(ctx, manifest.RequiredIcons)
		if err != nil {
			if deadlineExceeded(ctx, err) {
				return nil, ErrResolveTimeout
			}
			return nil, err
		}
		for _, name := range manifest.RequiredIcons {
			if impl, ok := icons[name]; ok && impl != nil {
				res.Symbols[name] = impl
			} else {
				res.Unresolved = append(res.Unresolved, name)
			}
		}
	}

	return res, nil
}

func (r *Resolver) resolveOne(ctx context.Context, source, name string) (*importmap.Implementation, error) {
	key := r.registry.Version() + "|" + name
	if cached, ok := r.cache.Load(key); ok {
		return cached.(*importmap.Implementation), nil
	}
	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		impl, rErr := r.registry.Resolve(ctx, source, name)
		if rErr != nil {
			return nil, rErr
		}
		r.cache.Store(key, impl)
		return impl, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*importmap.Implementation), nil
}

func (r *Resolver) resolveIconBatch(ctx context.Context, names []string) (map[string]*importmap.Implementation, error) {
	out := make(map[string]*importmap.Implementation, len(names))
	missing := make([]string, 0, len(names))
	version := r.registry.Version()
	for _, name := range names {
		if cached, ok := r.cache.Load(version + "|icon:" + name); ok {
			out[name] = cached.(*importmap.Implementation)
		} else {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return out, nil
	}
	fetched, err := r.registry.ResolveIcons(ctx, missing)
	if err != nil {
		return nil, err
	}
	for name, impl := range fetched {
		if impl == nil {
			continue
		}
		r.cache.Store(version+"|icon:"+name, impl)
		out[name] = impl
	}
	return out, nil
}

// Evaluate resolves the manifest and evaluates the transformed code to a
// render tree. Re-evaluation only happens when code, manifest, or the
// registry version changes; otherwise the memoized tree is returned.
func (r *Resolver) Evaluate(ctx context.Context, code string, manifest types.DependencyManifest, componentName string) (*types.RenderNode, error) {
	key := evalKey(r.registry.Version(), code, manifest, componentName)

	r.evalMu.Lock()
	if node, ok := r.evalMemo[key]; ok {
		r.evalMu.Unlock()
		return node, nil
	}
	r.evalMu.Unlock()

	res, err := r.Resolve(ctx, manifest)
	if err != nil {
		return nil, err
	}
	node, eErr := r.evaluator.Evaluate(code, componentName, res.Symbols)
	if eErr != nil {
		return nil, fmt.Errorf("Failed to evaluate component %q: %w", componentName, eErr)
	}

	r.evalMu.Lock()
	r.evalMemo[key] = node
	r.evalMu.Unlock()
	return node, nil
}

func evalKey(version, code string, manifest types.DependencyManifest, componentName string) string {
	h := sha256.New()
	h.Write([]byte(version))
	h.Write([]byte{0})
	h.Write([]byte(componentName))
	h.Write([]byte{0})
	h.Write([]byte(code))
	h.Write([]byte{0})
	components := make([]string, 0, len(manifest.RequiredComponents))
	for name, source := range manifest.RequiredComponents {
		components = append(components, name+"="+source)
	}
	sort.Strings(components)
	for _, c := range components {
		h.Write([]byte(c + ";"))
	}
	icons := append([]string(nil), manifest.RequiredIcons...)
	sort.Strings(icons)
	for _, icon := range icons {
		h.Write([]byte("icon:" + icon + ";"))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func deadlineExceeded(ctx context.Context, err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
}
