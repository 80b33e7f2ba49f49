package checkersdto

// Error codes returned by the play server.
const (
	CodeBadRequest  = "bad_request"
	CodeNotFound    = "not_found"
	CodeIllegalMove = "illegal_move"
	CodeNotYourTurn = "not_your_turn"
	CodeFinished    = "finished"
	CodeNoHistory   = "no_history"
	CodeInternal    = "internal"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e ErrorResponse) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "checkers service error"
}
