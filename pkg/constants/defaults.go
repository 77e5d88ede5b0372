package constants

// Scheduler settings
const (
	// ScheduleCheckInterval is how often the PM scheduler wakes up, in seconds.
	ScheduleCheckInterval = 60
	// ScheduleMaxRuntimeMins bounds a single scheduled job run.
	ScheduleMaxRuntimeMins = 10
	// ScheduleDefaultTimezone is used when a schedule has no timezone.
	ScheduleDefaultTimezone = "UTC"
)

// Outbox worker settings
const (
	OutboxPollIntervalMs = 500
	OutboxMaxAttempts    = 5
	OutboxBatchSize      = 50
)

// Session settings
const (
	SessionLifetimeHours = 24
)

// Pagination
const (
	DefaultPageSize   = 50
	MaxPageSize       = 200
	AnalyticsRowLimit = 1000
)

// System actor used for scheduler-generated records and notifications.
const (
	SystemUserID   = "00000000-0000-0000-0000-000000000000"
	SystemUserName = "System Scheduler"
)

// Work order numbering
const (
	WorkOrderNumberPrefix = "WO-"
)

// AI settings
const (
	DefaultAIMaxTokens   = 2048
	DefaultAITemperature = 0.2
	// AIRequestsPerMinute is the per-user rate limit on /api/ai/chat.
	AIRequestsPerMinute = 10
)
