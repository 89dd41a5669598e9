package engine

import "fmt"

// ErrorKind is the taxonomy of rules/state-machine failures. The
// gateway branches on Kind to pick the wire error code; it never
// inspects Message programmatically.
type ErrorKind string

const (
	ErrNotInGame        ErrorKind = "NotInGame"
	ErrNotYourTurn      ErrorKind = "NotYourTurn"
	ErrWrongPhase       ErrorKind = "WrongPhase"
	ErrWrongTurnPhase   ErrorKind = "WrongTurnPhase"
	ErrIllegalPlacement ErrorKind = "IllegalPlacement"
	ErrCannotAfford     ErrorKind = "CannotAfford"
	ErrPieceExhausted   ErrorKind = "PieceExhausted"
	ErrDeckEmpty        ErrorKind = "DeckEmpty"
	ErrBankShortage     ErrorKind = "BankShortage"
	ErrInvalidPayload   ErrorKind = "InvalidPayload"
	ErrInvalidID        ErrorKind = "InvalidId"
	ErrInternalError    ErrorKind = "InternalError"
)

// GameError is the only error type rules-engine actions return. A
// rules failure never mutates state: callers get back the untouched
// GameState plus one of these.
type GameError struct {
	Kind    ErrorKind
	Message string
}

func (e *GameError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newError(kind ErrorKind, format string, args ...any) *GameError {
	return &GameError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
