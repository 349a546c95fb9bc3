// Package engine 负责加载树并用已配置的各个策略执行 LCA 查询，
// 同时记录日志、指标与追踪，并检查策略之间的一致性.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/wyfcoding/bstlca/cache"
	"github.com/wyfcoding/bstlca/config"
	"github.com/wyfcoding/bstlca/idgen"
	"github.com/wyfcoding/bstlca/lca"
	"github.com/wyfcoding/bstlca/logging"
	"github.com/wyfcoding/bstlca/metrics"
	"github.com/wyfcoding/bstlca/tracing"
	"github.com/wyfcoding/bstlca/tree"
	"github.com/wyfcoding/bstlca/xerrors"
)

// Query 一对查询值.
type Query struct {
	P, Q int
}

// Result 单个策略的查询结果；Value 为 nil 表示没有 LCA.
type Result struct {
	Strategy string
	Value    *int
	Duration time.Duration
}

// Report 一次查询在所有策略上的结果.
type Report struct {
	TreeID  int64
	P, Q    int
	Results []Result
	Agreed  bool
	// TraceID 本次查询所在链路，未开启追踪时为空.
	TraceID string
}

// Value 返回指定策略的结果值；策略未参与时 ok 为 false.
func (r *Report) Value(strategy string) (v *int, ok bool) {
	for _, res := range r.Results {
		if res.Strategy == strategy {
			return res.Value, true
		}
	}
	return nil, false
}

// Engine 不是并发安全的：记忆化策略的缓存按树独占.
type Engine struct {
	cfg     *config.Config
	logger  *logging.Logger
	metrics *metrics.Metrics
	gen     idgen.Generator
	shared  *cache.BigCache
	ownsBC  bool

	strategies []string
	stateless  map[string]lca.Finder
	memos      map[int64]*lca.Memoized
}

// Option Engine 构造选项.
type Option func(*Engine)

// WithLogger 指定日志记录器.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics 指定指标采集器，未指定时不采集.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithIDGenerator 指定树 ID 生成器，默认使用进程级的 idgen.Default().
func WithIDGenerator(g idgen.Generator) Option {
	return func(e *Engine) { e.gen = g }
}

// WithBigCache 指定共享的 bigcache，仅在 memo_backend=bigcache 时使用；
// 该后端下未指定时由 Engine 自行创建。
func WithBigCache(c *cache.BigCache) Option {
	return func(e *Engine) { e.shared = c }
}

// New 按配置创建 Engine.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	e := &Engine{
		cfg:        cfg,
		strategies: cfg.LCA.Strategies,
		stateless:  make(map[string]lca.Finder),
		memos:      make(map[int64]*lca.Memoized),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.Default().Named("engine")
	}
	if e.gen == nil {
		e.gen = idgen.Default()
	}
	if len(e.strategies) == 0 {
		e.strategies = lca.Names()
	}

	for _, name := range e.strategies {
		f, err := lca.New(name)
		if err != nil {
			return nil, err
		}
		if name != lca.NameMemoized {
			e.stateless[name] = f
		}
	}

	if cfg.LCA.MemoBackend == "bigcache" && e.shared == nil {
		bc, err := cache.NewBigCache(cfg.BigCache)
		if err != nil {
			return nil, xerrors.WrapInternal(err, "create memo cache")
		}
		e.shared = bc
		e.ownsBC = true
	}

	e.logger.Info("engine initialized",
		"strategies", e.strategies,
		"memo_backend", cfg.LCA.MemoBackend,
		"require_bst", cfg.Validation.RequireBST,
	)
	return e, nil
}

// Strategies 返回参与计算的策略名称.
func (e *Engine) Strategies() []string {
	return append([]string(nil), e.strategies...)
}

// Load 从层序序列构建树；require_bst 开启时拒绝非 BST.
// 空序列得到空树，不视为错误。
func (e *Engine) Load(ctx context.Context, seq []*int) (*tree.Tree, error) {
	ctx, span := tracing.StartSpan(ctx, "engine.load")
	defer span.End()
	defer logging.LogDuration(ctx, "tree load", "length", len(seq))()

	if err := ctx.Err(); err != nil {
		return nil, xerrors.FromContext(err)
	}

	t := tree.New(seq, tree.WithIDGenerator(e.gen))
	tracing.AddTag(ctx, "tree_id", t.ID())
	tracing.AddTag(ctx, "nodes", t.Len())

	if e.cfg.Validation.RequireBST {
		if err := tree.ValidateBST(t.Root()); err != nil {
			e.metrics.ObserveTree(t.Len(), true)
			tracing.SetError(ctx, err)
			e.logger.WarnContext(ctx, "tree rejected", "error", err)
			return nil, err
		}
	}

	e.metrics.ObserveTree(t.Len(), false)
	e.logger.InfoContext(ctx, "tree loaded",
		"tree_id", t.ID(),
		"nodes", t.Len(),
		"height", t.Height(),
	)
	return t, nil
}

// LoadString 解析并加载形如 "6,2,8,null,4" 的序列.
func (e *Engine) LoadString(ctx context.Context, s string) (*tree.Tree, error) {
	seq, err := tree.ParseSequence(s)
	if err != nil {
		return nil, err
	}
	return e.Load(ctx, seq)
}

func (e *Engine) memoFor(t *tree.Tree) *lca.Memoized {
	if m, ok := e.memos[t.ID()]; ok {
		return m
	}
	var m *lca.Memoized
	if e.cfg.LCA.MemoBackend == "bigcache" && e.shared != nil {
		m = lca.NewMemoized(lca.WithMemoCache(lca.NewBigCacheMemo(t, e.shared)))
	} else {
		m = lca.NewMemoized()
	}
	e.memos[t.ID()] = m
	return m
}

// Forget 释放某棵树的记忆化实例（共享 bigcache 中的条目随过期窗口淘汰）.
func (e *Engine) Forget(t *tree.Tree) {
	delete(e.memos, t.ID())
}

func (e *Engine) finder(name string, t *tree.Tree) lca.Finder {
	if name == lca.NameMemoized {
		return e.memoFor(t)
	}
	return e.stateless[name]
}

// Evaluate 用所有已配置策略求 LCA(p, q).
// require_bst 开启时，策略结果不一致会返回 ErrStrategyDisagreement，同时仍返回报告。
func (e *Engine) Evaluate(ctx context.Context, t *tree.Tree, p, q int) (*Report, error) {
	ctx, span := tracing.StartSpan(ctx, "engine.evaluate")
	defer span.End()
	tracing.AddTag(ctx, "tree_id", t.ID())
	tracing.AddTag(ctx, "p", p)
	tracing.AddTag(ctx, "q", q)

	if err := ctx.Err(); err != nil {
		return nil, xerrors.FromContext(err)
	}

	report := &Report{TreeID: t.ID(), P: p, Q: q, Agreed: true, TraceID: tracing.GetTraceID(ctx)}
	for _, name := range e.strategies {
		f := e.finder(name, t)

		var hits0, misses0 int64
		memo, isMemo := f.(*lca.Memoized)
		if isMemo {
			hits0, misses0 = memo.Hits(), memo.Misses()
		}

		start := time.Now()
		node := f.FindLCA(t.Root(), p, q)
		elapsed := time.Since(start)

		if isMemo {
			e.metrics.ObserveMemo(memo.Hits()-hits0, memo.Misses()-misses0)
		}
		e.metrics.ObserveQuery(name, node != nil, elapsed)

		res := Result{Strategy: name, Value: tree.ValueOf(node), Duration: elapsed}
		if len(report.Results) > 0 && !sameValue(report.Results[0].Value, res.Value) {
			report.Agreed = false
		}
		report.Results = append(report.Results, res)

		e.logger.DebugContext(ctx, "strategy evaluated",
			"strategy", name,
			"p", p,
			"q", q,
			"lca", format(res.Value),
			"duration", elapsed,
		)
	}
	tracing.AddTag(ctx, "agreed", report.Agreed)

	if !report.Agreed {
		results := make(map[string]string, len(report.Results))
		for _, r := range report.Results {
			results[r.Strategy] = format(r.Value)
		}
		e.logger.WarnContext(ctx, "strategies disagree", "p", p, "q", q, "results", results)
		if e.cfg.Validation.RequireBST {
			err := xerrors.StrategyDisagreement(p, q, results)
			tracing.SetError(ctx, err)
			return report, err
		}
	}
	return report, nil
}

// EvaluateAll 依次执行多组查询，记忆化缓存在查询之间复用.
// 遇到错误或 ctx 取消时停止，并返回已完成的报告。
func (e *Engine) EvaluateAll(ctx context.Context, t *tree.Tree, queries []Query) ([]*Report, error) {
	reports := make([]*Report, 0, len(queries))
	for _, qy := range queries {
		r, err := e.Evaluate(ctx, t, qy.P, qy.Q)
		if r != nil {
			reports = append(reports, r)
		}
		if err != nil {
			return reports, err
		}
	}
	return reports, nil
}

// Close 释放 Engine 自行创建的资源.
func (e *Engine) Close() error {
	e.memos = make(map[int64]*lca.Memoized)
	if e.ownsBC && e.shared != nil {
		return e.shared.Close()
	}
	return nil
}

func sameValue(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func format(v *int) string {
	if v == nil {
		return "none"
	}
	return fmt.Sprintf("%d", *v)
}
