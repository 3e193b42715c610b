package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ektamehra-ue/uelogic/pkg/common"
	"github.com/ektamehra-ue/uelogic/pkg/models"
)

type meterPlan struct {
	meter    models.Meter
	stage    string
	level    int
	formulas []FormulaPlan
	edges    []models.AllocationEdge // incoming, for allocation targets
}

type runPlan struct {
	// stages[0] is differencing, stages[1..] the derived levels
	stages   [][]*meterPlan
	warnings []string
}

func (p *runPlan) meterCount() int {
	n := 0
	for _, s := range p.stages {
		n += len(s)
	}
	return n
}

// describe fills in the meter on a configuration error raised without one.
func describe(err error, m models.Meter) error {
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		if cfgErr.MeterID == 0 || cfgErr.MeterID == m.ID {
			cfgErr.MeterID = m.ID
			cfgErr.Identifier = m.Identifier
		}
	}
	return err
}

// plan loads and validates everything a run needs. It never writes.
func (e *Engine) plan(ctx context.Context, scope Scope) (*runPlan, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameEngine,
		zap.String(common.LoggerFieldCategory, common.LoggerCategoryOrchestrator),
	)

	meters, err := e.Catalog.Meters(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("list meters: %w", err)
	}

	p := &runPlan{stages: [][]*meterPlan{nil}}
	derived := map[uint]*meterPlan{}
	deps := map[uint][]uint{}
	names := map[uint]string{}
	var nodes []uint

	inScope := make(map[uint]bool, len(meters))
	for _, m := range meters {
		inScope[m.ID] = true
	}

	for _, m := range meters {
		names[m.ID] = m.Identifier

		out, err := e.Catalog.AllocationEdges(ctx, m.ID)
		if err != nil {
			return nil, fmt.Errorf("allocation edges of %s: %w", m.Identifier, err)
		}
		if err := ValidateEdges(out); err != nil {
			return nil, describe(err, m)
		}
		if sum := e.Allocator.PercentSum(out); sum.GreaterThan(hundred) {
			w := fmt.Sprintf("meter %s allocates %s%% of its consumption", m.Identifier, sum)
			p.warnings = append(p.warnings, w)
			logger.Warn("Allocation exceeds parent", zap.String("meter", m.Identifier), zap.String("percent_sum", sum.String()))
		}

		switch m.Type {
		case models.MeterTypeSub:
			p.stages[0] = append(p.stages[0], &meterPlan{meter: m, stage: StageDifference})
			continue
		case models.MeterTypeFiscal:
			if e.Options.DifferenceFiscal {
				p.stages[0] = append(p.stages[0], &meterPlan{meter: m, stage: StageDifference})
			}
			continue
		}

		rows, err := e.Catalog.Formulas(ctx, m.ID)
		if err != nil {
			return nil, fmt.Errorf("formulas of %s: %w", m.Identifier, err)
		}
		in, err := e.Catalog.AllocationEdgesInto(ctx, m.ID)
		if err != nil {
			return nil, fmt.Errorf("allocation edges into %s: %w", m.Identifier, err)
		}

		switch {
		case len(rows) > 0 && len(in) > 0:
			return nil, &ConfigurationError{
				Reason:     ErrConflictingDerivation,
				MeterID:    m.ID,
				Identifier: m.Identifier,
				Detail:     fmt.Sprintf("%d formulas, %d incoming edges", len(rows), len(in)),
			}
		case len(rows) > 0:
			mp, refs, err := e.planFormulas(ctx, m, rows)
			if err != nil {
				return nil, err
			}
			derived[m.ID] = mp
			deps[m.ID] = refs
		case len(in) > 0:
			if err := ValidateEdges(in); err != nil {
				return nil, describe(err, m)
			}
			mp := &meterPlan{meter: m, stage: StageAllocation, edges: in}
			for _, edge := range in {
				deps[m.ID] = append(deps[m.ID], edge.ParentID)
				if inScope[edge.ParentID] {
					continue
				}
				parent, err := e.Catalog.Meter(ctx, edge.ParentID)
				if errors.Is(err, ErrMeterNotFound) {
					return nil, &ConfigurationError{
						Reason:     ErrUnknownReference,
						MeterID:    m.ID,
						Identifier: m.Identifier,
						Detail:     fmt.Sprintf("allocation parent id=%d", edge.ParentID),
					}
				}
				if err != nil {
					return nil, fmt.Errorf("allocation parent of %s: %w", m.Identifier, err)
				}
				p.warnings = append(p.warnings, fmt.Sprintf(
					"meter %s allocates from %s outside the run scope, its stored consumption is used",
					m.Identifier, parent.Identifier))
			}
			derived[m.ID] = mp
		default:
			logger.Debug("Virtual meter has no derivation", zap.String("meter", m.Identifier))
			continue
		}
		nodes = append(nodes, m.ID)
	}

	ordered, err := levels(nodes, deps, names)
	if err != nil {
		return nil, err
	}
	for i, level := range ordered {
		stage := make([]*meterPlan, 0, len(level))
		for _, id := range level {
			mp := derived[id]
			mp.level = i + 1
			stage = append(stage, mp)
		}
		p.stages = append(p.stages, stage)
	}
	for _, mp := range p.stages[0] {
		mp.level = 0
	}

	// edges into meters that are not virtual are never applied
	for _, m := range meters {
		if m.Type == models.MeterTypeVirtual {
			continue
		}
		in, err := e.Catalog.AllocationEdgesInto(ctx, m.ID)
		if err != nil {
			return nil, fmt.Errorf("allocation edges into %s: %w", m.Identifier, err)
		}
		if len(in) > 0 {
			p.warnings = append(p.warnings, fmt.Sprintf("meter %s is %s, %d allocation edges ignored", m.Identifier, m.Type, len(in)))
		}
	}

	return p, nil
}

func (e *Engine) planFormulas(ctx context.Context, m models.Meter, rows []models.Formula) (*meterPlan, []uint, error) {
	if err := e.Resolver.Validate(rows); err != nil {
		return nil, nil, describe(err, m)
	}

	mp := &meterPlan{meter: m, stage: StageFormula}
	var refs []uint
	resolved := map[string]Operand{}
	for _, row := range rows {
		expr, err := e.Evaluator.Parse(row)
		if err != nil {
			return nil, nil, &ConfigurationError{
				Reason:     ErrInvalidExpression,
				MeterID:    m.ID,
				Identifier: m.Identifier,
				Window:     formulaWindow(row),
				Err:        err,
			}
		}

		fp := FormulaPlan{Formula: row, Expr: expr}
		for _, ident := range expr.Refs() {
			op, ok := resolved[ident]
			if !ok {
				ref, err := e.Catalog.Resolve(ctx, m.OrgID, ident)
				if errors.Is(err, ErrMeterNotFound) {
					return nil, nil, &ConfigurationError{
						Reason:     ErrUnknownReference,
						MeterID:    m.ID,
						Identifier: m.Identifier,
						Window:     formulaWindow(row),
						Detail:     fmt.Sprintf("%q", ident),
					}
				}
				if err != nil {
					return nil, nil, fmt.Errorf("resolve %s in %s: %w", ident, m.Identifier, err)
				}
				op = Operand{Identifier: ident, MeterID: ref.ID, Type: ref.Type}
				resolved[ident] = op
				refs = append(refs, ref.ID)
			}
			fp.Operands = append(fp.Operands, op)
		}
		mp.formulas = append(mp.formulas, fp)
	}
	return mp, refs, nil
}
