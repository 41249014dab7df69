package errors

import (
	"fmt"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/status"
)

// ErrorDomain identifies this service in google.rpc.ErrorInfo details.
const ErrorDomain = "advancement.rpg"

// ToGRPCError converts err into a status error. The reason and the rest of
// the metadata travel as an ErrorInfo detail so FromGRPCError can restore them.
func ToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var customErr *Error
	if !As(err, &customErr) {
		return status.Error(CodeInternal.GRPCCode(), err.Error())
	}

	st := status.New(customErr.Code.GRPCCode(), customErr.Message)
	if len(customErr.Meta) == 0 {
		return st.Err()
	}

	info := &errdetails.ErrorInfo{
		Domain:   ErrorDomain,
		Metadata: make(map[string]string, len(customErr.Meta)),
	}
	for k, v := range customErr.Meta {
		if k == MetaReason {
			info.Reason = fmt.Sprint(v)
			continue
		}
		info.Metadata[k] = fmt.Sprint(v)
	}
	if detailed, detailErr := st.WithDetails(info); detailErr == nil {
		st = detailed
	}
	return st.Err()
}

// FromGRPCError rebuilds an *Error from a status error received by a client.
// Errors that carry no status are returned unchanged.
func FromGRPCError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	out := New(codeFromGRPC(st.Code()), st.Message())
	for _, detail := range st.Details() {
		info, ok := detail.(*errdetails.ErrorInfo)
		if !ok || info.GetDomain() != ErrorDomain {
			continue
		}
		if info.GetReason() != "" {
			out.WithMeta(MetaReason, info.GetReason())
		}
		for k, v := range info.GetMetadata() {
			out.WithMeta(k, v)
		}
	}
	return out
}
