package app

import "errors"

// Intent rejections. All of these are recoverable: the caller's intent simply
// does not commit and other participants are unaffected.
var (
	// ErrInvalidTurn means the caller is not the active player or an eligible
	// responder for the current window.
	ErrInvalidTurn = errors.New("caller is not eligible to act")
	// ErrInvalidPhase means the intent does not match the current phase. Late
	// duplicates of an already-settled challenge/block/pass land here.
	ErrInvalidPhase = errors.New("intent does not match current phase")
	// ErrInsufficientFunds means the actor cannot pay the action's cost.
	ErrInsufficientFunds = errors.New("not enough coins")
	// ErrMandatoryCoup means the actor holds 10 or more coins and may only coup.
	ErrMandatoryCoup = errors.New("ten or more coins: coup is mandatory")
	// ErrTargetInvalid means the target is dead, missing, or the actor itself.
	ErrTargetInvalid = errors.New("target is dead, missing, or self")
	// ErrInvalidBlock means the claimed role cannot block the pending action.
	ErrInvalidBlock = errors.New("role cannot block this action")
	// ErrInvalidIndex means the referenced card index is out of range or the
	// card is already revealed.
	ErrInvalidIndex = errors.New("invalid card index")
	// ErrTooFewPlayers means a game cannot start with the current seat count.
	ErrTooFewPlayers = errors.New("not enough players to start")
	// ErrTooManyPlayers means the seat count exceeds the table limit.
	ErrTooManyPlayers = errors.New("too many players to start")
	// ErrUnknownPlayer means the caller is not part of the session.
	ErrUnknownPlayer = errors.New("player not found")
)
