package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create a joinable match.
	RpcQuickMatch = "quick_match"

	// MatchNameCoup is the authoritative match handler name registered with Nakama.
	MatchNameCoup = "coup_match"

	// MatchLabelKey_OpenSeats is the label key match listing queries filter on.
	MatchLabelKey_OpenSeats = "open"

	// SessionCollection is the storage collection holding committed game snapshots.
	SessionCollection = "coup_sessions"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartGame       int64 = 1
	OpDeclareAction   int64 = 2
	OpChallenge       int64 = 3
	OpBlock           int64 = 4
	OpPass            int64 = 5
	OpResolveLoss     int64 = 6
	OpResolveExchange int64 = 7

	// Server -> Client events
	OpMatchState        int64 = 101
	OpPlayerLeft        int64 = 102
	OpGameStarted       int64 = 103
	OpHandDealt         int64 = 104 // sent privately
	OpActionDeclared    int64 = 105
	OpChallengeRaised   int64 = 106
	OpChallengeResolved int64 = 107
	OpBlockDeclared     int64 = 108
	OpResponderPassed   int64 = 109
	OpActionResolved    int64 = 110
	OpActionCancelled   int64 = 111
	OpInfluenceLost     int64 = 112
	OpPlayerEliminated  int64 = 113
	OpExchangeOptions   int64 = 114 // sent privately
	OpExchangeCompleted int64 = 115
	OpTurnChanged       int64 = 116
	OpGameEnded         int64 = 117
	OpGameError         int64 = 118
	OpSessionSnapshot   int64 = 119 // per-viewer redacted state, sent privately
)
