package app

// MinPlayersToStartGame defines the minimum number of occupied seats required to start a game.
// Keep this centralized so tests or local runs can adjust the rule without touching multiple call sites.
const MinPlayersToStartGame = 2

// MaxPlayers is the table capacity.
const MaxPlayers = 6

// Economic rules of the game.
const (
	StartingCoins  = 2
	CardsPerPlayer = 2

	IncomeAmount     = 1
	ForeignAidAmount = 2
	TaxAmount        = 3
	StealAmount      = 2

	CoupCost        = 7
	AssassinateCost = 3

	// MandatoryCoupThreshold forces the coup action once an actor holds this
	// many coins.
	MandatoryCoupThreshold = 10

	// ExchangeDrawCount is how many cards an ambassador draws into the buffer.
	ExchangeDrawCount = 2
)
