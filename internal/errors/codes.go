package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Code classifies an Error. Each code maps onto one gRPC code and one HTTP
// status so handlers never choose them ad hoc.
type Code string

// Codes raised by the engine, its stores and its transports.
const (
	CodeOK                 Code = "OK"
	CodeInvalidArgument    Code = "INVALID_ARGUMENT"
	CodeDeadlineExceeded   Code = "DEADLINE_EXCEEDED"
	CodeNotFound           Code = "NOT_FOUND"
	CodeAlreadyExists      Code = "ALREADY_EXISTS"
	CodeResourceExhausted  Code = "RESOURCE_EXHAUSTED"
	CodeFailedPrecondition Code = "FAILED_PRECONDITION"
	CodeInternal           Code = "INTERNAL"
	CodeUnavailable        Code = "UNAVAILABLE"
	CodeDataLoss           Code = "DATA_LOSS"
)

type codeMapping struct {
	grpc codes.Code
	http int
}

var codeMappings = map[Code]codeMapping{
	CodeOK:                 {codes.OK, http.StatusOK},
	CodeInvalidArgument:    {codes.InvalidArgument, http.StatusBadRequest},
	CodeDeadlineExceeded:   {codes.DeadlineExceeded, http.StatusGatewayTimeout},
	CodeNotFound:           {codes.NotFound, http.StatusNotFound},
	CodeAlreadyExists:      {codes.AlreadyExists, http.StatusConflict},
	CodeResourceExhausted:  {codes.ResourceExhausted, http.StatusTooManyRequests},
	CodeFailedPrecondition: {codes.FailedPrecondition, http.StatusPreconditionFailed},
	CodeInternal:           {codes.Internal, http.StatusInternalServerError},
	CodeUnavailable:        {codes.Unavailable, http.StatusServiceUnavailable},
	CodeDataLoss:           {codes.DataLoss, http.StatusInternalServerError},
}

var fromGRPC = func() map[codes.Code]Code {
	m := make(map[codes.Code]Code, len(codeMappings))
	for code, mapping := range codeMappings {
		m[mapping.grpc] = code
	}
	return m
}()

// String returns the string representation of the code
func (c Code) String() string {
	return string(c)
}

// HTTPStatus is the status the webhook answers with. Unknown codes are 500.
func (c Code) HTTPStatus() int {
	if m, ok := codeMappings[c]; ok {
		return m.http
	}
	return http.StatusInternalServerError
}

// GRPCCode is the status code the gRPC handlers answer with.
func (c Code) GRPCCode() codes.Code {
	if m, ok := codeMappings[c]; ok {
		return m.grpc
	}
	return codes.Unknown
}

// codeFromGRPC maps a status code back; codes the engine never raises
// collapse to CodeInternal.
func codeFromGRPC(c codes.Code) Code {
	if code, ok := fromGRPC[c]; ok {
		return code
	}
	return CodeInternal
}
