package constants

// DeadlineStatus is the lifecycle state of a stored deadline.
type DeadlineStatus string

// Stable values (store these exact strings in DB).
const (
	DeadlineActive     DeadlineStatus = "ACTIVE"
	DeadlineSuperseded DeadlineStatus = "SUPERSEDED"
	DeadlineCompleted  DeadlineStatus = "COMPLETED"
)

// Stage names a point in the extraction pipeline; used in logs, metrics and errors.
type Stage string

const (
	StageStart             Stage = "START"
	StageHashChecked       Stage = "HASH_CHECKED"
	StageDuplicateStop     Stage = "DUPLICATE_STOP"
	StageEntitiesExtracted Stage = "ENTITIES_EXTRACTED"
	StageDatesExtracted    Stage = "DATES_EXTRACTED"
	StageClassified        Stage = "CLASSIFIED"
	StageTypeDetermined    Stage = "TYPE_DETERMINED"
	StageReviewEvaluated   Stage = "REVIEW_EVALUATED"
	StageDone              Stage = "DONE"
	StageFailed            Stage = "FAILED"
)
