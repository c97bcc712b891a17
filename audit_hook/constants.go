package audithook

// Action constants for audit events.
const (
	// Pool actions
	ActionPoolInitialized    = "pool.initialized"
	ActionRewardRateAdjusted = "reward_rate.adjusted"

	// Stake actions
	ActionStaked         = "stake.deposited"
	ActionUnstaked       = "stake.withdrawn"
	ActionRewardsClaimed = "rewards.claimed"

	// Failure actions
	ActionOperationFailed = "operation.failed"
	ActionUnauthorized    = "operation.unauthorized"
	ActionTransferFailed  = "transfer.failed"
)

// Resource constants for audit events.
const (
	ResourcePool  = "pool"
	ResourceStake = "stake"
)

// Category constants for audit events.
const (
	CategoryGovernance = "governance"
	CategoryStaking    = "staking"
	CategoryRewards    = "rewards"
	CategoryAccess     = "access"
	CategorySettlement = "settlement"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
