// Package engine derives meter series: consumption from accumulated
// registers, allocation shares and formula based virtual meters. A run plans
// everything up front, computes into a staging buffer and commits all
// derived points together with the run ledger in one store transaction.
package engine

import (
	"github.com/ektamehra-ue/uelogic/pkg/common"
	"github.com/ektamehra-ue/uelogic/pkg/models"
)

type Options struct {
	Workers          int
	OperandKind      models.ReadingKind
	DifferenceFiscal bool
}

func OptionsFromConfig(cfg common.Config) Options {
	return Options{
		Workers:          cfg.Workers,
		OperandKind:      models.ReadingKind(cfg.OperandKind),
		DifferenceFiscal: cfg.DifferenceFiscal,
	}
}

type Engine struct {
	Store   Store
	Catalog MeterCatalog

	Differencer Differencer
	Allocator   Allocator
	Resolver    WindowResolver
	Evaluator   *Evaluator

	Options Options
}

type ServiceOpts struct {
	Store   Store
	Catalog MeterCatalog
}

func New(store Store, catalog MeterCatalog, opts Options) (*Engine, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if catalog == nil {
		return nil, ErrNilCatalog
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	ev := NewEvaluator(opts.OperandKind)
	opts.OperandKind = ev.OperandKind
	return &Engine{
		Store:     store,
		Catalog:   catalog,
		Evaluator: ev,
		Options:   opts,
	}, nil
}

func (e *Engine) WithServices(opts ServiceOpts) *Engine {
	if opts.Store != nil {
		e.Store = opts.Store
	}
	if opts.Catalog != nil {
		e.Catalog = opts.Catalog
	}
	return e
}
