package constants

// Common column names shared across tables
const (
	FieldID               = "id"
	FieldName             = "name"
	FieldEmail            = "email"
	FieldPassword         = "password"
	FieldRole             = "role"
	FieldIsActive         = "is_active"
	FieldCreatedDate      = "created_date"
	FieldLastModifiedDate = "last_modified_date"
	FieldLastLoginDate    = "last_login_date"
	FieldStatus           = "status"
	FieldPriority         = "priority"
	FieldMessage          = "message"
)

// Session columns
const (
	FieldUserID       = "user_id"
	FieldToken        = "token"
	FieldExpiresAt    = "expires_at"
	FieldIsRevoked    = "is_revoked"
	FieldLastActivity = "last_activity"
)

// Response keys
const (
	ResponseError = "error"
	ResponseData  = "data"
)

// Request context keys
const (
	ContextKeyUser  = "user"
	ContextKeyToken = "token"
)

// HTTP headers
const (
	HeaderAuthorization = "Authorization"
)
