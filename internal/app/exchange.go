package app

import (
	"coup/internal/domain"
)

// ResolveExchange finalizes the ambassador's swap. keptIndices selects which
// buffer entries become the player's new face-down hand; everything else goes
// back into the deck, which is reshuffled before any later draw.
func (s *Service) ResolveExchange(game *domain.Game, playerID string, keptIndices []int) ([]Event, error) {
	if game.Status != domain.StatusPlaying || game.Phase != domain.PhaseAwaitingExchange {
		return nil, ErrInvalidPhase
	}
	if playerID != game.PendingPlayerID {
		return nil, ErrInvalidTurn
	}
	pl := game.PlayerByID(playerID)
	if pl == nil {
		return nil, ErrUnknownPlayer
	}

	keepCount := len(game.ExchangeBuffer) - ExchangeDrawCount
	if len(keptIndices) != keepCount {
		return nil, ErrInvalidIndex
	}
	seen := map[int]bool{}
	for _, idx := range keptIndices {
		if idx < 0 || idx >= len(game.ExchangeBuffer) || seen[idx] {
			return nil, ErrInvalidIndex
		}
		seen[idx] = true
	}

	for _, idx := range keptIndices {
		pl.Hand = append(pl.Hand, game.ExchangeBuffer[idx])
	}
	for idx, c := range game.ExchangeBuffer {
		if !seen[idx] {
			game.Deck.Return(c.Role)
		}
	}
	game.ExchangeBuffer = nil
	game.Deck.Shuffle(s.rng)

	s.log(game, "%s completes the exchange", pl.Name)
	events := []Event{{
		Kind:    EventExchangeCompleted,
		Payload: ExchangeCompletedPayload{PlayerID: playerID},
	}}

	game.CurrentAction = nil
	game.PendingPlayerID = ""
	events = append(events, s.advanceTurn(game)...)
	return events, s.commit(game)
}
