package core

import "safetycore/pkg/domain"

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
// Every transaction is evaluated against these guard rails regardless of
// which service entry point produced it.
func NewDefaultRulesEngine() *domain.RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(LifecycleTransitionRule())
	engine.Register(HistoryAppendOnlyRule())
	engine.Register(DelayMirrorRule())
	return engine
}
