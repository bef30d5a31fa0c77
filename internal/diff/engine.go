// Package diff compares two schema graphs and produces the ordered SQL
// statements that reconcile them.
package diff

import (
	"fmt"
	"log/slog"
	"strings"

	sderrors "github.com/tordrt/sqldiff/internal/errors"
	"github.com/tordrt/sqldiff/internal/schema"
)

// Policy decides what happens when a single statement cannot be generated.
type Policy int

const (
	// PolicyAbort stops the diff at the first generation error.
	PolicyAbort Policy = iota
	// PolicySkip logs the error, records it and moves on.
	PolicySkip
)

// String returns "abort" or "skip"
func (p Policy) String() string {
	if p == PolicySkip {
		return "skip"
	}
	return "abort"
}

// ParsePolicy parses "abort" or "skip". The empty string means abort.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(s) {
	case "", "abort":
		return PolicyAbort, nil
	case "skip":
		return PolicySkip, nil
	default:
		return PolicyAbort, fmt.Errorf("invalid error policy: %s (must be 'abort' or 'skip')", s)
	}
}

// Result holds the statements of a diff in emission order.
type Result struct {
	Changes []schema.Change
	// Skipped holds the generation errors ignored under PolicySkip.
	Skipped []error
}

// Append adds the changes and skipped errors of other to r.
func (r *Result) Append(other *Result) {
	if other == nil {
		return
	}
	r.Changes = append(r.Changes, other.Changes...)
	r.Skipped = append(r.Skipped, other.Skipped...)
}

// Engine runs forward and mirror diffs.
type Engine struct {
	policy Policy
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithPolicy sets the generation error policy
func WithPolicy(p Policy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates an Engine that aborts on generation errors unless
// configured otherwise.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		policy: PolicyAbort,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Forward returns the statements that add the structure of source to target.
// Tables come in source order; for each table columns precede indexes, which
// precede dialect extras.
//
// Adding an auto-increment column removes the primary index of its source
// table, so that index is not emitted a second time.
func (e *Engine) Forward(source, target schema.Database) (*Result, error) {
	res := &Result{}

	for _, st := range source.Tables() {
		tt, ok := target.Table(st.Name())
		if !ok {
			e.logger.Debug("table missing from target", "table", st.Name())
			sql, err := st.CreateTableSQL()
			if err := e.emit(res, st.Name(), schema.ChangeAdd, sql, err); err != nil {
				return nil, err
			}
			continue
		}

		if !tablesDiffer(st, tt) {
			continue
		}
		e.logger.Debug("table differs", "table", st.Name())

		for _, sc := range st.Columns() {
			tc, ok := tt.Column(sc.Name())
			switch {
			case !ok:
				sql, err := tt.AddColumnSQL(sc)
				if err := e.emit(res, st.Name(), schema.ChangeAdd, sql, err); err != nil {
					return nil, err
				}
			case sc.Definition() != tc.Definition():
				sql, err := tt.ChangeColumnSQL(sc)
				if err := e.emit(res, st.Name(), schema.ChangeChange, sql, err); err != nil {
					return nil, err
				}
			}
		}

		for _, si := range st.Indexes() {
			ti, ok := tt.Index(si.Key())
			switch {
			case !ok:
				sql, err := tt.AddIndexSQL(si)
				if err := e.emit(res, st.Name(), schema.ChangeAdd, sql, err); err != nil {
					return nil, err
				}
			case !indexesEqual(si, ti):
				sql, err := tt.ChangeIndexSQL(si)
				if err := e.emit(res, st.Name(), schema.ChangeChange, sql, err); err != nil {
					return nil, err
				}
			}
		}

		extras, err := tt.ExtraChanges(st)
		if err != nil {
			if err := e.fail(res, st.Name(), err); err != nil {
				return nil, err
			}
			continue
		}
		res.Changes = append(res.Changes, extras...)
	}

	return res, nil
}

// Mirror returns the destructive statements that remove from target whatever
// source does not have. Indexes are dropped before columns. Entities present
// on both sides are never touched.
func (e *Engine) Mirror(target, source schema.Database) (*Result, error) {
	res := &Result{}

	for _, tt := range target.Tables() {
		st, ok := source.Table(tt.Name())
		if !ok {
			e.logger.Debug("table missing from source", "table", tt.Name())
			res.Changes = append(res.Changes, schema.Change{SQL: tt.DropTableSQL(), Kind: schema.ChangeDelete, Table: tt.Name()})
			continue
		}

		if !tablesDiffer(tt, st) {
			continue
		}

		for _, ti := range tt.Indexes() {
			if _, ok := st.Index(ti.Key()); !ok {
				res.Changes = append(res.Changes, schema.Change{SQL: tt.DropIndexSQL(ti), Kind: schema.ChangeDelete, Table: tt.Name()})
			}
		}
		for _, tc := range tt.Columns() {
			if _, ok := st.Column(tc.Name()); !ok {
				res.Changes = append(res.Changes, schema.Change{SQL: tt.DropColumnSQL(tc), Kind: schema.ChangeDelete, Table: tt.Name()})
			}
		}
	}

	return res, nil
}

func (e *Engine) emit(res *Result, table string, kind schema.ChangeKind, sql string, err error) error {
	if err != nil {
		return e.fail(res, table, err)
	}
	res.Changes = append(res.Changes, schema.Change{SQL: sql, Kind: kind, Table: table})
	return nil
}

func (e *Engine) fail(res *Result, table string, err error) error {
	if e.policy == PolicySkip && sderrors.IsGeneration(err) {
		e.logger.Warn("skipping statement", "table", table, "error", err)
		res.Skipped = append(res.Skipped, err)
		return nil
	}
	return fmt.Errorf("failed to generate statement for table %s: %w", table, err)
}

// tablesDiffer compares the rendered CREATE TABLE statements. A table that
// cannot be rendered is treated as different.
func tablesDiffer(a, b schema.Table) bool {
	sa, errA := a.CreateTableSQL()
	sb, errB := b.CreateTableSQL()
	if errA != nil || errB != nil {
		return true
	}
	return sa != sb
}

// indexesEqual compares rendered definitions, falling back to structural
// signatures when neither side can be rendered.
func indexesEqual(a, b schema.Index) bool {
	da, errA := a.Definition()
	db, errB := b.Definition()
	switch {
	case errA == nil && errB == nil:
		return da == db
	case errA != nil && errB != nil:
		return a.Signature() == b.Signature()
	default:
		return false
	}
}
