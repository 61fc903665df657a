package app

import (
	"coup/internal/domain"
)

// ResolveLoss reveals the chosen card of the player who owes an influence.
// Elimination and win detection run before the turn advances.
func (s *Service) ResolveLoss(game *domain.Game, loserID string, cardIndex int) ([]Event, error) {
	if game.Status != domain.StatusPlaying || game.Phase != domain.PhaseAwaitingInfluenceLoss {
		return nil, ErrInvalidPhase
	}
	if loserID != game.PendingPlayerID {
		return nil, ErrInvalidTurn
	}
	loser := game.PlayerByID(loserID)
	if loser == nil {
		return nil, ErrUnknownPlayer
	}
	if cardIndex < 0 || cardIndex >= len(loser.Hand) || loser.Hand[cardIndex].Revealed {
		return nil, ErrInvalidIndex
	}

	loser.Hand[cardIndex].Revealed = true
	s.log(game, "%s loses influence: %s", loser.Name, loser.Hand[cardIndex].Role)
	events := []Event{{
		Kind:    EventInfluenceLost,
		Payload: InfluenceLostPayload{PlayerID: loserID, CardIndex: cardIndex, Role: loser.Hand[cardIndex].Role},
	}}

	if loser.UnrevealedCount() == 0 {
		events = append(events, s.eliminate(game, loser)...)
	}

	if done, endEvents := s.checkWin(game); done {
		events = append(events, endEvents...)
		return events, s.commit(game)
	}

	game.CurrentAction = nil
	game.PendingPlayerID = ""
	events = append(events, s.advanceTurn(game)...)
	return events, s.commit(game)
}
