package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// FunctionError is one entry of the errors array carried by a function failure body.
type FunctionError struct {
	Message string `json:"message"`
}

// FunctionErrorBody is the JSON document stringified into FunctionErrorEnvelope.Body.
type FunctionErrorBody struct {
	Errors []FunctionError `json:"errors"`
}

// FunctionErrorEnvelope is what the query functions return instead of an error.
type FunctionErrorEnvelope struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}
