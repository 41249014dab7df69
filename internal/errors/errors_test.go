package errors_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/KirkDiggler/rpg-advancement/internal/errors"
)

type ErrorsTestSuite struct {
	suite.Suite
}

func TestErrorsSuite(t *testing.T) {
	suite.Run(t, new(ErrorsTestSuite))
}

func (s *ErrorsTestSuite) TestErrorString() {
	err := errors.New(errors.CodeNotFound, "class fighter not found")
	s.Equal("NOT_FOUND: class fighter not found", err.Error())

	wrapped := errors.Wrap(fmt.Errorf("disk full"), "failed to commit")
	s.Equal("INTERNAL: failed to commit: disk full", wrapped.Error())
}

func (s *ErrorsTestSuite) TestWrapPreservesCodeAndMeta() {
	base := errors.NotFound("choice not found").WithMeta("choice_id", "c-1")
	wrapped := errors.Wrapf(base, "failed to resolve %s", "c-1")

	s.Equal(errors.CodeNotFound, wrapped.Code)
	s.Equal("c-1", wrapped.Meta["choice_id"])
	s.Equal(base, wrapped.Unwrap())

	wrapped.WithMeta("extra", true)
	s.NotContains(base.Meta, "extra")
}

func (s *ErrorsTestSuite) TestWrapWithCode() {
	base := fmt.Errorf("UNIQUE constraint failed")
	wrapped := errors.WrapWithCode(base, errors.CodeAlreadyExists, "class already taken")

	s.Equal(errors.CodeAlreadyExists, wrapped.Code)
	s.True(errors.IsAlreadyExists(wrapped))
}

func (s *ErrorsTestSuite) TestWrapNil() {
	s.Nil(errors.Wrap(nil, "nothing"))
	s.Nil(errors.WrapWithCode(nil, errors.CodeNotFound, "nothing"))
}

func (s *ErrorsTestSuite) TestIs() {
	s.True(errors.Is(errors.NotFound("a"), errors.NotFound("b")))
	s.False(errors.Is(errors.NotFound("a"), errors.InvalidArgument("a")))
}

func (s *ErrorsTestSuite) TestGetters() {
	err := errors.Wrap(errors.NotFound("spell missing").WithMeta("spell_id", "fireball"), "load spells")

	s.Equal(errors.CodeNotFound, errors.GetCode(err))
	s.Equal("fireball", errors.GetMeta(err)["spell_id"])
	s.Equal("load spells", errors.GetMessage(err))

	s.Equal(errors.CodeOK, errors.GetCode(nil))
	s.Equal(errors.CodeInternal, errors.GetCode(fmt.Errorf("plain")))
	s.Nil(errors.GetMeta(fmt.Errorf("plain")))
	s.Equal("plain", errors.GetMessage(fmt.Errorf("plain")))
}

func (s *ErrorsTestSuite) TestBlockedByPriorChoice() {
	err := errors.BlockedByPriorChoice("char-1", "choice-9")

	s.True(errors.IsFailedPrecondition(err))
	s.True(errors.IsBlockedByPriorChoice(err))
	s.True(errors.IsBlockedByPriorChoice(errors.Wrap(err, "resolve")))
	s.Equal("choice-9", errors.GetMeta(err)["blocking_choice_id"])

	other := errors.Preconditionf(errors.ReasonClassAlreadyTaken, "class %s already taken", "rogue")
	s.False(errors.IsBlockedByPriorChoice(other))
	s.True(errors.HasReason(other, errors.CodeFailedPrecondition, errors.ReasonClassAlreadyTaken))
}

func (s *ErrorsTestSuite) TestIntegrity() {
	err := errors.Integrityf("no spellcasting row for %s level %d", "bard", 21)

	s.True(errors.IsIntegrity(err))
	s.False(errors.IsInternal(err))
	s.Equal(500, err.Code.HTTPStatus())
}

func (s *ErrorsTestSuite) TestHTTPStatus() {
	testCases := []struct {
		code     errors.Code
		expected int
	}{
		{errors.CodeOK, 200},
		{errors.CodeNotFound, 404},
		{errors.CodeInvalidArgument, 400},
		{errors.CodeAlreadyExists, 409},
		{errors.CodeFailedPrecondition, 412},
		{errors.CodeResourceExhausted, 429},
		{errors.CodeInternal, 500},
		{errors.CodeUnavailable, 503},
		{errors.Code("BOGUS"), 500},
	}

	for _, tc := range testCases {
		s.Run(string(tc.code), func() {
			s.Equal(tc.expected, tc.code.HTTPStatus())
		})
	}
}

func (s *ErrorsTestSuite) TestGRPCConversion() {
	err := errors.NotFound("character not found").WithMeta("character_id", "123")

	st, ok := status.FromError(errors.ToGRPCError(err))
	s.Require().True(ok)
	s.Equal(codes.NotFound, st.Code())
	s.Equal("character not found", st.Message())

	back := errors.FromGRPCError(status.Error(codes.FailedPrecondition, "blocked"))
	s.True(errors.IsFailedPrecondition(back))
	s.Equal("blocked", errors.GetMessage(back))

	s.Nil(errors.ToGRPCError(nil))
	s.Nil(errors.FromGRPCError(nil))
}

func (s *ErrorsTestSuite) TestGRPCRoundTripKeepsReason() {
	err := errors.BlockedByPriorChoice("char_1", "choice_9")

	back := errors.FromGRPCError(errors.ToGRPCError(err))
	s.True(errors.IsBlockedByPriorChoice(back))
	s.Equal("choice_9", errors.GetMeta(back)["blocking_choice_id"])
	s.Equal("char_1", errors.GetMeta(back)["character_id"])
}

func (s *ErrorsTestSuite) TestGRPCUnmappedCodes() {
	plain := errors.ToGRPCError(fmt.Errorf("boom"))
	s.Equal(codes.Internal, status.Code(plain))

	back := errors.FromGRPCError(status.Error(codes.PermissionDenied, "nope"))
	s.True(errors.IsInternal(back))

	notStatus := fmt.Errorf("dial failed")
	s.Equal(notStatus, errors.FromGRPCError(notStatus))
	s.Equal(codes.Unknown, errors.Code("BOGUS").GRPCCode())
}
