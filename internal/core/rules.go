package core

import "neocertify/pkg/domain"

// Rule aliases the domain rule contract for registration convenience.
type Rule = domain.Rule

// RulesEngine aliases the domain rules engine.
type RulesEngine = domain.RulesEngine

// NewRulesEngine constructs an empty engine instance.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds a rules engine with the built-in policy set for
// the provided transfer policy (nil selects the default downstream-only table).
func NewDefaultRulesEngine(policy domain.TransferPolicy) *RulesEngine {
	if policy == nil {
		policy = domain.DefaultTransferPolicy()
	}
	engine := NewRulesEngine()
	engine.Register(NewLotConservationRule())
	engine.Register(NewTransferPolicyRule(policy))
	engine.Register(NewExpiringStockRule())
	return engine
}
