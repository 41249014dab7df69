package errors

import "fmt"

// MetaReason is the metadata key that narrows a FailedPrecondition or
// InvalidArgument error to a machine-readable reason.
const MetaReason = "reason"

// Precondition reasons raised by the advancement engine.
const (
	ReasonBlockedByPriorChoice   = "blocked_by_prior_choice"
	ReasonClassAlreadyTaken      = "class_already_taken"
	ReasonMulticlassPrerequisite = "multiclass_prerequisite"
	ReasonLevelCap               = "level_cap"
	ReasonNotRejectable          = "not_rejectable"
	ReasonInvalidFormat          = "invalid_format"
	ReasonOutOfRange             = "out_of_range"
)

// BlockedByPriorChoice reports that an unimportant choice was addressed while
// an important one is still pending for the same character.
func BlockedByPriorChoice(characterID, blockingChoiceID string) *Error {
	return FailedPrecondition("a more important choice must be made first").
		WithMeta(MetaReason, ReasonBlockedByPriorChoice).
		WithMeta("character_id", characterID).
		WithMeta("blocking_choice_id", blockingChoiceID)
}

// IsBlockedByPriorChoice reports whether err is a BlockedByPriorChoice rejection.
func IsBlockedByPriorChoice(err error) bool {
	return HasReason(err, CodeFailedPrecondition, ReasonBlockedByPriorChoice)
}

// Preconditionf builds a FailedPrecondition error tagged with reason.
func Preconditionf(reason, format string, args ...any) *Error {
	return FailedPreconditionf(format, args...).WithMeta(MetaReason, reason)
}

// Integrity reports rulebook or state content that contradicts itself:
// a missing table row, an unregistered post action, a dangling reference.
// These are fatal for the operation and never retried.
func Integrity(message string) *Error {
	return New(CodeDataLoss, message)
}

// Integrityf builds an Integrity error with a formatted message.
func Integrityf(format string, args ...any) *Error {
	return Integrity(fmt.Sprintf(format, args...))
}

// IsIntegrity reports whether err is a content integrity error.
func IsIntegrity(err error) bool {
	return GetCode(err) == CodeDataLoss
}

// HasReason reports whether err carries code and the given reason metadata.
func HasReason(err error, code Code, reason string) bool {
	if GetCode(err) != code {
		return false
	}
	got, ok := GetMeta(err)[MetaReason].(string)
	return ok && got == reason
}

// ValidationFields returns the field errors attached to an InvalidArgument
// error built by a ValidationBuilder, or nil.
func ValidationFields(err error) map[string][]string {
	fields, _ := GetMeta(err)["validation_errors"].(map[string][]string)
	return fields
}
