package app

import (
	"coup/internal/domain"
)

// PerformAction declares an action for the turn holder and routes it into the
// phase that follows: an immediate effect, a challenge window, a block
// window, or a forced influence loss.
func (s *Service) PerformAction(game *domain.Game, actorID string, kind domain.ActionKind, targetID string) ([]Event, error) {
	if game.Status != domain.StatusPlaying || game.Phase != domain.PhaseChoosingAction {
		return nil, ErrInvalidPhase
	}
	actor := game.TurnHolder()
	if actor == nil || actor.ID != actorID {
		return nil, ErrInvalidTurn
	}
	if !kind.Valid() {
		return nil, ErrInvalidPhase
	}
	if actor.Coins >= MandatoryCoupThreshold && kind != domain.ActionCoup {
		return nil, ErrMandatoryCoup
	}

	var target *domain.Player
	if kind.NeedsTarget() {
		target = game.PlayerByID(targetID)
		if target == nil || target.Dead || target.ID == actorID {
			return nil, ErrTargetInvalid
		}
	} else {
		targetID = ""
	}

	switch kind {
	case domain.ActionCoup:
		if actor.Coins < CoupCost {
			return nil, ErrInsufficientFunds
		}
	case domain.ActionAssassinate:
		if actor.Coins < AssassinateCost {
			return nil, ErrInsufficientFunds
		}
	}

	game.CurrentAction = &domain.Action{Kind: kind, ActorID: actorID, TargetID: targetID}
	if targetID != "" {
		s.log(game, "%s declares %s against %s", actor.Name, kind, target.Name)
	} else {
		s.log(game, "%s declares %s", actor.Name, kind)
	}

	events := []Event{{
		Kind:    EventActionDeclared,
		Payload: ActionDeclaredPayload{ActorID: actorID, Kind: kind, TargetID: targetID},
	}}

	switch kind {
	case domain.ActionIncome:
		evs, err := s.resolveEffect(game)
		if err != nil {
			return nil, err
		}
		events = append(events, evs...)

	case domain.ActionForeignAid:
		// No role claimed, so no challenge window; anyone may claim Duke.
		game.Phase = domain.PhaseAwaitingBlock
		game.PendingResponders = responderSet(game.Players, actorID)

	case domain.ActionCoup:
		actor.Coins -= CoupCost
		game.Phase = domain.PhaseAwaitingInfluenceLoss
		game.PendingPlayerID = targetID

	case domain.ActionTax, domain.ActionSteal, domain.ActionAssassinate, domain.ActionExchange:
		if kind == domain.ActionAssassinate {
			// Cost is paid up front and not refunded on a failed claim.
			actor.Coins -= AssassinateCost
		}
		game.Phase = domain.PhaseAwaitingChallenge
		game.PendingResponders = responderSet(game.Players, actorID)
	}

	if ev, ok := events[0].Payload.(ActionDeclaredPayload); ok {
		ev.Phase = game.Phase
		events[0].Payload = ev
	}

	return events, s.commit(game)
}

// resolveEffect applies the declared action's state change once every contest
// is settled, then advances the turn unless a further player decision is
// pending.
func (s *Service) resolveEffect(game *domain.Game) ([]Event, error) {
	a := game.CurrentAction
	if a == nil {
		return nil, ErrInvalidPhase
	}
	actor := game.PlayerByID(a.ActorID)
	target := game.PlayerByID(a.TargetID)

	events := []Event{{
		Kind:    EventActionResolved,
		Payload: ActionResolvedPayload{Kind: a.Kind, ActorID: a.ActorID, TargetID: a.TargetID},
	}}

	decisionPending := false

	switch a.Kind {
	case domain.ActionIncome:
		actor.Coins += IncomeAmount
		s.log(game, "%s takes income", actor.Name)

	case domain.ActionForeignAid:
		actor.Coins += ForeignAidAmount
		s.log(game, "%s takes foreign aid", actor.Name)

	case domain.ActionTax:
		actor.Coins += TaxAmount
		s.log(game, "%s collects tax", actor.Name)

	case domain.ActionSteal:
		amount := 0
		if target != nil && !target.Dead {
			amount = min(StealAmount, target.Coins)
			target.Coins -= amount
			actor.Coins += amount
		}
		s.log(game, "%s steals %d coins from %s", actor.Name, amount, s.playerName(game, a.TargetID))

	case domain.ActionAssassinate, domain.ActionCoup:
		// Cost was already deducted when the action was declared.
		if target == nil || target.Dead {
			// The contest already eliminated the target; nothing left to take.
			break
		}
		game.Phase = domain.PhaseAwaitingInfluenceLoss
		game.PendingPlayerID = target.ID
		game.PendingResponders = nil
		decisionPending = true
		s.log(game, "%s must lose influence", target.Name)

	case domain.ActionExchange:
		drawn, err := game.Deck.Draw(ExchangeDrawCount)
		if err != nil {
			return nil, err
		}
		buffer := make([]domain.Card, 0, actor.UnrevealedCount()+ExchangeDrawCount)
		kept := make([]domain.Card, 0, len(actor.Hand))
		for _, c := range actor.Hand {
			if c.Revealed {
				kept = append(kept, c)
			} else {
				buffer = append(buffer, c)
			}
		}
		keepCount := len(buffer)
		for _, role := range drawn {
			buffer = append(buffer, domain.Card{Role: role})
		}
		actor.Hand = kept
		game.ExchangeBuffer = buffer
		game.Phase = domain.PhaseAwaitingExchange
		game.PendingPlayerID = actor.ID
		game.PendingResponders = nil
		decisionPending = true
		s.log(game, "%s exchanges cards with the court deck", actor.Name)
		events = append(events, Event{
			Kind:       EventExchangeOptions,
			Payload:    ExchangeOptionsPayload{PlayerID: actor.ID, Options: buffer, KeepCount: keepCount},
			Recipients: []string{actor.ID},
		})
	}

	if !decisionPending {
		game.CurrentAction = nil
		game.PendingPlayerID = ""
		game.PendingResponders = nil
		events = append(events, s.advanceTurn(game)...)
	}

	return events, s.commit(game)
}

// closeWindow fires the transition that follows a fully-declined contest
// window.
func (s *Service) closeWindow(game *domain.Game) ([]Event, error) {
	a := game.CurrentAction
	if a == nil {
		return nil, ErrInvalidPhase
	}

	switch game.Phase {
	case domain.PhaseAwaitingChallenge:
		if a.Kind.Blockable() {
			responders := blockResponders(game, a)
			if len(responders) > 0 {
				game.Phase = domain.PhaseAwaitingBlock
				game.PendingResponders = responders
				return nil, s.commit(game)
			}
		}
		return s.resolveEffect(game)

	case domain.PhaseAwaitingBlock:
		return s.resolveEffect(game)

	case domain.PhaseAwaitingBlockChallenge:
		// The block stands unchallenged; the action is cancelled.
		s.log(game, "%s's block stands", s.playerName(game, a.BlockedBy))
		events := s.cancelAction(game)
		events = append(events, s.advanceTurn(game)...)
		return events, s.commit(game)

	default:
		return nil, ErrInvalidPhase
	}
}

// blockResponders returns who may declare a block against the pending action:
// only the target for targeted actions, the whole table for foreign aid.
func blockResponders(game *domain.Game, a *domain.Action) map[string]bool {
	if a.Kind == domain.ActionForeignAid {
		return responderSet(game.Players, a.ActorID)
	}
	target := game.PlayerByID(a.TargetID)
	if target == nil || target.Dead {
		return map[string]bool{}
	}
	return map[string]bool{target.ID: true}
}
