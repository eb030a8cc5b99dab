package constants

// DocumentType distinguishes an original scheduling order from an amendment.
type DocumentType string

const (
	SchedulingOrder        DocumentType = "SCHEDULING_ORDER"
	AmendedSchedulingOrder DocumentType = "AMENDED_SCHEDULING_ORDER"
)

// FailureKind classifies why an extraction did not succeed.
type FailureKind string

const (
	FailureDuplicate    FailureKind = "DUPLICATE_DOCUMENT"
	FailureMissingField FailureKind = "MISSING_REQUIRED_FIELD"
	FailureValidation   FailureKind = "VALIDATION_FAILURE"
	FailureUnexpected   FailureKind = "UNEXPECTED_FAILURE"
)

const (
	KeywordConfidence  = 0.9
	FallbackConfidence = 0.7
	ReviewThreshold    = 0.8
)

// Outcome messages. Callers match on these strings, keep them stable.
const (
	MsgDuplicateDocument = "This document has already been processed"
	MsgMissingCaseNumber = "Could not extract case number"
	MsgPastDueDate       = "Due date cannot be in the past"
)

// Field limits for extracted records.
const (
	MaxTitleLen       = 500
	MaxDescriptionLen = 2000
	MaxCourtLen       = 200
	MaxJudgeLen       = 200
	MinFileHashLen    = 32
	MaxFilenameLen    = 255
)
