package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/alen-hh/arxiv-query-proxy/logger"
	"github.com/alen-hh/arxiv-query-proxy/types"
)

const contentTypeJSON = "application/json"

// errorResponse maps an error to its status code and failure body.
// Method and validation errors carry only the error text; everything else
// is reported as a fetch failure with the underlying cause as message.
func errorResponse(err error) events.APIGatewayProxyResponse {
	var appErr *logger.AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case logger.ErrorTypeMethod:
			resp := jsonResponse(http.StatusMethodNotAllowed, types.ErrorResponse{Error: msgMethodNotAllowed})
			resp.Headers["Allow"] = http.MethodGet
			return resp
		case logger.ErrorTypeValidation:
			return jsonResponse(http.StatusBadRequest, types.ErrorResponse{Error: appErr.Message})
		}
	}

	return jsonResponse(http.StatusInternalServerError, types.ErrorResponse{
		Error:   msgFetchFailed,
		Message: causeMessage(err),
	})
}

// causeMessage returns the innermost description worth showing a caller
func causeMessage(err error) string {
	if err == nil {
		return msgUnknownError
	}

	var appErr *logger.AppError
	for errors.As(err, &appErr) {
		if appErr.Cause == nil {
			if appErr.Message != "" {
				return appErr.Message
			}
			return msgUnknownError
		}
		err = appErr.Cause
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return msgUnknownError
}

func jsonResponse(status int, body interface{}) events.APIGatewayProxyResponse {
	payload, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		payload = []byte(`{"error":"` + msgFetchFailed + `","message":"` + msgUnknownError + `"}`)
	}

	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type": contentTypeJSON,
		},
		Body: string(payload),
	}
}
