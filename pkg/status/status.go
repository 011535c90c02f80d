package status

const (
	OK                    string = "OK"
	CREATED               string = "CREATED"
	BAD_REQUEST           string = "BAD_REQUEST"
	UNAUTHORIZED          string = "UNAUTHORIZED"
	FORBIDDEN             string = "FORBIDDEN"
	NOT_FOUND             string = "NOT_FOUND"
	CONFLICT              string = "CONFLICT"
	UNPROCESSABLE_ENTITY  string = "UNPROCESSABLE_ENTITY"
	INTERNAL_SERVER_ERROR string = "INTERNAL_SERVER_ERROR"

	INSUFFICIENT_BALANCE     string = "INSUFFICIENT_BALANCE"
	ALREADY_REGISTERED       string = "ALREADY_REGISTERED"
	REGISTRATION_CLOSED      string = "REGISTRATION_CLOSED"
	INVALID_REFUND_QUANTITY  string = "INVALID_REFUND_QUANTITY"
	INVALID_STATE_TRANSITION string = "INVALID_STATE_TRANSITION"
)
