// Package condition compiles and evaluates breakpoint condition
// expressions. It mirrors the safety properties the original
// ConditionEvaluator documents: expressions are compiled once and cached by
// their source text; any evaluation error — compile failure or runtime
// panic — falls back to "condition passed" so a broken condition traces
// rather than silently swallowing a breakpoint; and the wall-clock budget is
// purely a telemetry signal, never a hard interrupt of the evaluation.
package condition

import (
	"fmt"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/tracecore/tracecore/logging"
	"github.com/tracecore/tracecore/telemetry"
)

// DefaultBudget is the soft wall-clock budget for a single condition
// evaluation, matching the original DEFAULT_CONDITION_BUDGET_S.
const DefaultBudget = 100 * time.Millisecond

// Result is the outcome of evaluating one breakpoint condition.
type Result struct {
	Passed      bool
	Fallback    bool
	Elapsed     time.Duration
	CompileErr  error
	EvalErr     error
}

type compiledCondition struct {
	program    *vm.Program
	compileErr error
}

// Evaluator compiles and evaluates boolean breakpoint conditions against a
// frame's variable environment, caching compiled programs by source text.
type Evaluator struct {
	mu      sync.Mutex
	cache   map[string]*compiledCondition
	budget  time.Duration
	enabled bool

	telemetry *telemetry.Telemetry
	logger    logging.Logger
	now       func() time.Time
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithBudget overrides the default soft wall-clock budget.
func WithBudget(d time.Duration) Option {
	return func(e *Evaluator) { e.budget = d }
}

// WithTelemetry attaches a telemetry sink for budget-exceeded and
// evaluation-failure events.
func WithTelemetry(t *telemetry.Telemetry) Option {
	return func(e *Evaluator) { e.telemetry = t }
}

// WithLogger attaches a logger for condition evaluation diagnostics.
func WithLogger(l logging.Logger) Option {
	return func(e *Evaluator) { e.logger = l }
}

// New returns an Evaluator with the given options applied. Condition
// evaluation is enabled by default.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		cache:   make(map[string]*compiledCondition),
		budget:  DefaultBudget,
		enabled: true,
		logger:  logging.NewNoOpLogger(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetEnabled toggles condition evaluation. While disabled, Evaluate always
// reports Passed=true, Fallback=true without compiling or running anything.
func (e *Evaluator) SetEnabled(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled = enabled
}

// SetBudget updates the soft wall-clock budget.
func (e *Evaluator) SetBudget(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.budget = d
}

// Evaluate compiles expression (if not already cached) and runs it against
// env, the frame's locals and globals merged into a single lookup map. Any
// compile or runtime error causes the breakpoint to fire (Passed=true,
// Fallback=true) rather than be silently skipped.
func (e *Evaluator) Evaluate(expression string, env map[string]interface{}) Result {
	e.mu.Lock()
	enabled := e.enabled
	budget := e.budget
	e.mu.Unlock()

	if !enabled {
		return Result{Passed: true, Fallback: true}
	}

	start := e.now()
	cc := e.getCompiled(expression)
	if cc.compileErr != nil {
		e.recordFailure(expression, cc.compileErr)
		return Result{Passed: true, Fallback: true, CompileErr: cc.compileErr, Elapsed: e.now().Sub(start)}
	}

	out, err := expr.Run(cc.program, env)
	elapsed := e.now().Sub(start)

	if err != nil {
		e.recordFailure(expression, err)
		return Result{Passed: true, Fallback: true, EvalErr: err, Elapsed: elapsed}
	}

	if budget > 0 && elapsed > budget {
		e.logger.Warn("condition %q exceeded budget: %s > %s", expression, elapsed, budget)
		if e.telemetry != nil {
			e.telemetry.Record(telemetry.ReasonBudgetExceeded, map[string]string{
				"expression": expression,
				"elapsed":    elapsed.String(),
			})
		}
	}

	passed, ok := out.(bool)
	if !ok {
		err := fmt.Errorf("condition %q did not evaluate to a bool, got %T", expression, out)
		e.recordFailure(expression, err)
		return Result{Passed: true, Fallback: true, EvalErr: err, Elapsed: elapsed}
	}

	return Result{Passed: passed, Elapsed: elapsed}
}

func (e *Evaluator) recordFailure(expression string, err error) {
	e.logger.Debug("condition %q failed, falling back to pass: %v", expression, err)
	if e.telemetry != nil {
		e.telemetry.Record(telemetry.ReasonSelectiveTracingAnalysisFailed, map[string]string{
			"expression": expression,
			"error":      err.Error(),
		})
	}
}

func (e *Evaluator) getCompiled(expression string) *compiledCondition {
	e.mu.Lock()
	defer e.mu.Unlock()

	if cc, ok := e.cache[expression]; ok {
		return cc
	}

	program, err := expr.Compile(expression, expr.AllowUndefinedVariables())
	cc := &compiledCondition{program: program, compileErr: err}
	e.cache[expression] = cc
	return cc
}

// ClearCache empties the compiled-condition cache.
func (e *Evaluator) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[string]*compiledCondition)
}

// CacheSize returns the number of distinct condition expressions currently
// compiled and cached, including ones that failed to compile.
func (e *Evaluator) CacheSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.cache)
}
