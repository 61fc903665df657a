package app

import (
	"coup/internal/domain"
)

// Challenge disputes the pending role claim: the declared action's claim in
// AwaitingChallenge, or the declared block's claim in AwaitingBlockChallenge.
func (s *Service) Challenge(game *domain.Game, challengerID string) ([]Event, error) {
	if game.Status != domain.StatusPlaying {
		return nil, ErrInvalidPhase
	}
	blockClaim := false
	switch game.Phase {
	case domain.PhaseAwaitingChallenge:
	case domain.PhaseAwaitingBlockChallenge:
		blockClaim = true
	default:
		return nil, ErrInvalidPhase
	}
	a := game.CurrentAction
	if a == nil {
		return nil, ErrInvalidPhase
	}
	if !game.PendingResponders[challengerID] {
		return nil, ErrInvalidTurn
	}

	var accused *domain.Player
	var claimed domain.Role
	if blockClaim {
		accused = game.PlayerByID(a.BlockedBy)
		claimed = a.BlockRole
	} else {
		accused = game.PlayerByID(a.ActorID)
		claimed, _ = domain.RequiredRole(a.Kind)
	}
	challenger := game.PlayerByID(challengerID)
	if accused == nil || challenger == nil || challenger.ID == accused.ID {
		return nil, ErrInvalidTurn
	}

	s.log(game, "%s challenges %s's claim to %s", challenger.Name, accused.Name, claimed)
	events := []Event{{
		Kind:    EventChallengeRaised,
		Payload: ChallengeRaisedPayload{ChallengerID: challengerID, AccusedID: accused.ID, BlockClaim: blockClaim},
	}}

	cardIdx := accused.UnrevealedIndexOf(claimed)
	vindicated := cardIdx >= 0
	events = append(events, Event{
		Kind: EventChallengeResolved,
		Payload: ChallengeResolvedPayload{
			ChallengerID: challengerID,
			AccusedID:    accused.ID,
			ClaimedRole:  claimed,
			Vindicated:   vindicated,
		},
	})

	if vindicated {
		// The shown card goes back into the deck and is replaced after a
		// reshuffle, so opponents learn nothing durable about the hand.
		accused.Hand = append(accused.Hand[:cardIdx], accused.Hand[cardIdx+1:]...)
		game.Deck.Return(claimed)
		game.Deck.Shuffle(s.rng)
		replacement, err := game.Deck.Draw(1)
		if err != nil {
			return nil, err
		}
		accused.Hand = append(accused.Hand, domain.Card{Role: replacement[0]})
		s.log(game, "%s proves the claim and redraws", accused.Name)

		evs, _ := s.revealInfluence(game, challenger)
		events = append(events, evs...)
		if done, endEvents := s.checkWin(game); done {
			events = append(events, endEvents...)
			return events, s.commit(game)
		}

		if blockClaim {
			// The block is proven; the original action dies with it.
			events = append(events, s.cancelAction(game)...)
			events = append(events, s.advanceTurn(game)...)
			return events, s.commit(game)
		}

		if a.Kind.Blockable() {
			responders := blockResponders(game, a)
			if len(responders) > 0 {
				game.Phase = domain.PhaseAwaitingBlock
				game.PendingResponders = responders
				return events, s.commit(game)
			}
			// The only eligible blocker just lost their last influence.
			events = append(events, s.cancelAction(game)...)
			events = append(events, s.advanceTurn(game)...)
			return events, s.commit(game)
		}

		evs2, err := s.resolveEffect(game)
		if err != nil {
			return nil, err
		}
		events = append(events, evs2...)
		return events, nil
	}

	// Caught bluffing: the accused reveals a card.
	s.log(game, "%s was bluffing %s", accused.Name, claimed)
	evs, _ := s.revealInfluence(game, accused)
	events = append(events, evs...)
	if done, endEvents := s.checkWin(game); done {
		events = append(events, endEvents...)
		return events, s.commit(game)
	}

	if blockClaim {
		// The block was a bluff; the original action now resolves.
		evs2, err := s.resolveEffect(game)
		if err != nil {
			return nil, err
		}
		events = append(events, evs2...)
		return events, nil
	}

	// A bluffed action is cancelled. Assassinate's cost stays spent.
	events = append(events, s.cancelAction(game)...)
	events = append(events, s.advanceTurn(game)...)
	return events, s.commit(game)
}

// Block records a counter-claim against the pending action. The blocker names
// the role they claim; steal accepts either of its two legal blockers.
func (s *Service) Block(game *domain.Game, blockerID string, role domain.Role) ([]Event, error) {
	if game.Status != domain.StatusPlaying || game.Phase != domain.PhaseAwaitingBlock {
		return nil, ErrInvalidPhase
	}
	a := game.CurrentAction
	if a == nil {
		return nil, ErrInvalidPhase
	}
	if !game.PendingResponders[blockerID] {
		return nil, ErrInvalidTurn
	}
	if !domain.CanBlockWith(a.Kind, role) {
		return nil, ErrInvalidBlock
	}
	blocker := game.PlayerByID(blockerID)
	if blocker == nil || blocker.Dead {
		return nil, ErrInvalidTurn
	}

	a.BlockedBy = blockerID
	a.BlockRole = role
	game.Phase = domain.PhaseAwaitingBlockChallenge
	game.PendingResponders = responderSet(game.Players, blockerID)
	s.log(game, "%s claims %s to block %s", blocker.Name, role, a.Kind)

	return []Event{{
		Kind:    EventBlockDeclared,
		Payload: BlockDeclaredPayload{BlockerID: blockerID, Role: role},
	}}, s.commit(game)
}

// Pass records that one eligible responder declines to contest the current
// window. The window's transition only fires once every responder has passed.
func (s *Service) Pass(game *domain.Game, callerID string) ([]Event, error) {
	if game.Status != domain.StatusPlaying {
		return nil, ErrInvalidPhase
	}
	switch game.Phase {
	case domain.PhaseAwaitingChallenge, domain.PhaseAwaitingBlock, domain.PhaseAwaitingBlockChallenge:
	default:
		return nil, ErrInvalidPhase
	}
	if !game.PendingResponders[callerID] {
		return nil, ErrInvalidTurn
	}

	delete(game.PendingResponders, callerID)
	events := []Event{{
		Kind:    EventResponderPassed,
		Payload: ResponderPassedPayload{PlayerID: callerID, Remaining: len(game.PendingResponders)},
	}}

	if len(game.PendingResponders) > 0 {
		return events, nil
	}

	evs, err := s.closeWindow(game)
	if err != nil {
		return nil, err
	}
	return append(events, evs...), nil
}

// revealInfluence flips the lowest face-down card of the given player and
// runs elimination bookkeeping. Challenge penalties auto-select the card;
// only action-driven losses let the player choose.
func (s *Service) revealInfluence(game *domain.Game, pl *domain.Player) ([]Event, bool) {
	idx := pl.FirstUnrevealedIndex()
	if idx < 0 {
		return nil, pl.Dead
	}
	pl.Hand[idx].Revealed = true
	s.log(game, "%s reveals %s", pl.Name, pl.Hand[idx].Role)
	events := []Event{{
		Kind:    EventInfluenceLost,
		Payload: InfluenceLostPayload{PlayerID: pl.ID, CardIndex: idx, Role: pl.Hand[idx].Role},
	}}
	if pl.UnrevealedCount() == 0 {
		events = append(events, s.eliminate(game, pl)...)
		return events, true
	}
	return events, false
}
