package errors_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/rpg-advancement/internal/errors"
)

type ValidationTestSuite struct {
	suite.Suite
}

func TestValidationSuite(t *testing.T) {
	suite.Run(t, new(ValidationTestSuite))
}

func (s *ValidationTestSuite) TestBuilderCollectsAllFields() {
	err := errors.NewValidationBuilder().
		Fieldf("skills", "select exactly %d", 2).
		RequiredField("subclass").
		InvalidField("tool", "not a gaming set").
		Build()

	s.Require().Error(err)
	s.True(errors.IsInvalidArgument(err))

	fields := errors.ValidationFields(err)
	s.Equal([]string{"select exactly 2"}, fields["skills"])
	s.Equal([]string{"is required"}, fields["subclass"])
	s.Equal([]string{"is invalid: not a gaming set"}, fields["tool"])
}

func (s *ValidationTestSuite) TestErrorMessageIsSorted() {
	ve := errors.NewValidationError()
	ve.AddFieldError("tool", "unknown")
	ve.AddFieldError("abilities", "too many")

	s.Equal("validation failed: abilities: too many; tool: unknown", ve.Error())
}

func (s *ValidationTestSuite) TestBuilderNoErrors() {
	s.NoError(errors.NewValidationBuilder().Build())
	s.Nil(errors.NewValidationError().ToError())
}

func (s *ValidationTestSuite) TestValidateHelpers() {
	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("name", "  ", vb)
	errors.ValidateRange("strength", 31, 1, 30, vb)
	errors.ValidateRange("dexterity", 14, 1, 30, vb)
	errors.ValidateEnum("format", "yaml", []string{"json", "text"}, vb)

	fields := errors.ValidationFields(vb.Build())
	s.Contains(fields, "name")
	s.Equal([]string{"must be between 1 and 30"}, fields["strength"])
	s.NotContains(fields, "dexterity")
	s.Equal([]string{"must be one of: json, text"}, fields["format"])
}
