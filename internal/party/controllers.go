package party

import (
	"github.com/mgerste/blamewheel/internal/blame"
	"github.com/mgerste/blamewheel/internal/engine"
)

type introController struct{ m *Module }

func (c introController) Transition(action engine.Action, _ engine.Payload, _ *engine.Context) (engine.Result, error) {
	if action == engine.ActionAdvance {
		return engine.Goto(PhaseSetup), nil
	}
	return engine.Stay(), nil
}

type setupController struct{ m *Module }

func (c setupController) Transition(action engine.Action, _ engine.Payload, _ *engine.Context) (engine.Result, error) {
	switch action {
	case engine.ActionBack:
		return engine.Goto(PhaseIntro), nil
	case engine.ActionAdvance:
		if err := c.m.start(); err != nil {
			return engine.Stay(), err
		}
		if _, ok := c.m.provider.Current(); !ok {
			// Empty pool: nothing to play through.
			return engine.Goto(PhaseSummary), nil
		}
		return engine.Goto(PhasePlay), nil
	}
	return engine.Stay(), nil
}

type playController struct{ m *Module }

// Transition drives the blame sub-machine. The phase-level guard has already
// filtered undeclared actions; stage-level mismatches (ADVANCE while
// selecting, SELECT_TARGET while revealing) are rejected the same way the
// dispatcher rejects them: no-op plus one ActionRejected event.
func (c playController) Transition(action engine.Action, payload engine.Payload, ctx *engine.Context) (engine.Result, error) {
	switch action {
	case engine.ActionSelectTarget:
		if c.m.chain.Stage() != blame.StageSelecting {
			ctx.Bus.Publish(engine.ActionRejected{Phase: PhasePlay, Action: action})
			return engine.Stay(), nil
		}
		question, ok := c.m.provider.Current()
		if !ok {
			ctx.Bus.Publish(engine.ActionRejected{Phase: PhasePlay, Action: action})
			return engine.Stay(), nil
		}
		if err := c.m.chain.SelectTarget(payload.Target, question.Text); err != nil {
			return engine.Stay(), err
		}
		return engine.Stay(), nil

	case engine.ActionAdvance:
		if c.m.chain.Stage() != blame.StageReveal {
			ctx.Bus.Publish(engine.ActionRejected{Phase: PhasePlay, Action: action})
			return engine.Stay(), nil
		}
		c.m.chain.AdvanceTurn()
		if !c.m.provider.Next() {
			return engine.Goto(PhaseSummary), nil
		}
		index, _ := c.m.provider.Progress()
		ctx.Bus.Publish(engine.ContentAdvanced{Index: index})
		return engine.Stay(), nil

	case engine.ActionRestart:
		c.m.restart()
		return engine.Goto(PhaseSetup), nil
	}
	return engine.Stay(), nil
}

type summaryController struct{ m *Module }

func (c summaryController) Transition(action engine.Action, _ engine.Payload, _ *engine.Context) (engine.Result, error) {
	switch action {
	case engine.ActionRestart:
		c.m.restart()
		return engine.Goto(PhaseSetup), nil
	case engine.ActionAdvance:
		return engine.Complete(), nil
	}
	return engine.Stay(), nil
}
