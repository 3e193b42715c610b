package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ektamehra-ue/uelogic/pkg/common"
	"github.com/ektamehra-ue/uelogic/pkg/formula"
	"github.com/ektamehra-ue/uelogic/pkg/models"
	"github.com/ektamehra-ue/uelogic/pkg/series"
)

// Operand is a formula identifier resolved to a meter.
type Operand struct {
	Identifier string
	MeterID    uint
	Type       models.MeterType
}

// FormulaPlan is one validated formula row of a target meter.
type FormulaPlan struct {
	Formula  models.Formula
	Expr     *formula.Expression
	Operands []Operand
}

type EvalResult struct {
	Points    []series.Point
	Anomalies []Anomaly
}

type Evaluator struct {
	Cache    *formula.Cache
	Resolver WindowResolver
	// OperandKind is read for fiscal and sub operands. Virtual operands only
	// ever carry consumption.
	OperandKind models.ReadingKind
}

func NewEvaluator(operandKind models.ReadingKind) *Evaluator {
	if operandKind == "" {
		operandKind = models.ReadingKindConsumption
	}
	return &Evaluator{Cache: formula.NewCache(), OperandKind: operandKind}
}

// Parse returns the cached expression of f.
func (ev *Evaluator) Parse(f models.Formula) (*formula.Expression, error) {
	return ev.Cache.Get(formula.NewVersion(f.TargetMeterID, f.Start, f.End), f.Expression)
}

func (ev *Evaluator) operandKind(op Operand) models.ReadingKind {
	if op.Type == models.MeterTypeVirtual {
		return models.ReadingKindConsumption
	}
	return ev.OperandKind
}

// EvaluateMeter computes the target's series over window. Candidate
// instants of a row are the union of its operands' timestamps inside the
// row's window; an instant is evaluated by the row that is active there.
// Instants with a missing operand or a zero divisor are reported as
// anomalies and skipped.
func (ev *Evaluator) EvaluateMeter(ctx context.Context, reader ReadingStore, target models.Meter, plans []FormulaPlan, window series.Window) (EvalResult, error) {
	logger := common.GetLoggerWith(
		common.LoggerNameEngine,
		zap.String(common.LoggerFieldCategory, common.LoggerCategoryFormula),
	)

	rows := make([]models.Formula, len(plans))
	for i, p := range plans {
		rows[i] = p.Formula
	}

	var res EvalResult
	for _, plan := range plans {
		rowWindow := window.Clip(plan.Formula.Start, plan.Formula.End)
		if rowWindow.Empty() {
			continue
		}

		operands := make(map[string]map[int64]series.Point, len(plan.Operands))
		all := make([][]series.Point, 0, len(plan.Operands))
		for _, op := range plan.Operands {
			points, err := reader.Query(ctx, op.MeterID, ev.operandKind(op), rowWindow)
			if err != nil {
				return EvalResult{}, fmt.Errorf("query operand %s of %s: %w", op.Identifier, target.Identifier, err)
			}
			operands[op.Identifier] = series.Index(points)
			all = append(all, points)
		}

		self := formula.NewVersion(plan.Formula.TargetMeterID, plan.Formula.Start, plan.Formula.End)
		for _, ts := range series.Timestamps(all...) {
			active, err := ev.Resolver.Resolve(rows, ts)
			if err != nil {
				return EvalResult{}, err
			}
			if active == nil || formula.NewVersion(active.TargetMeterID, active.Start, active.End) != self {
				continue
			}

			key := series.Key(ts)
			v, err := plan.Expr.Eval(func(identifier string) (decimal.Decimal, bool) {
				p, ok := operands[identifier][key]
				return p.Value, ok
			})
			var missing *formula.MissingOperandError
			switch {
			case err == nil:
				res.Points = append(res.Points, series.Derived(ts, v, target.Unit))
			case errors.As(err, &missing):
				res.Anomalies = append(res.Anomalies, Anomaly{
					Timestamp: ts,
					Kind:      AnomalyMissingOperand,
					Detail:    fmt.Sprintf("no value for %s", missing.Identifier),
				})
			case errors.Is(err, formula.ErrDivisionByZero):
				res.Anomalies = append(res.Anomalies, Anomaly{
					Timestamp: ts,
					Kind:      AnomalyDivisionByZero,
					Detail:    fmt.Sprintf("%s divides by zero", plan.Expr.Source),
				})
			default:
				return EvalResult{}, fmt.Errorf("evaluate %s at %s: %w", target.Identifier, ts.Format(timeLayout), err)
			}
		}
	}

	series.Sort(res.Points)
	sort.SliceStable(res.Anomalies, func(i, j int) bool {
		return res.Anomalies[i].Timestamp.Before(res.Anomalies[j].Timestamp)
	})

	logger.Debug("Evaluated meter",
		zap.String("meter", target.Identifier),
		zap.Int("points", len(res.Points)),
		zap.Int("anomalies", len(res.Anomalies)),
	)
	return res, nil
}
