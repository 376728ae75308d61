package constants

const (
	ROLE_ADMIN = "admin"
	ROLE_STAFF = "staff"
)

var ROLE = []string{ROLE_ADMIN, ROLE_STAFF}

const (
	TICKET_ACTIVE  = "active"
	TICKET_USED    = "used"
	TICKET_EXPIRED = "expired"
)

const (
	SEASON_WINTER  = "winter"
	SEASON_SUMMER  = "summer"
	SEASON_UNKNOWN = "unknown"
	SEASON_CLOSED  = "closed"
)

const (
	DAY_OPEN                 = "open"
	DAY_CLOSED               = "closed"
	DAY_EXCEPTIONALLY_CLOSED = "exceptionally_closed"
)

const (
	REASON_WIND  = "wind"
	REASON_RAIN  = "rain"
	REASON_SNOW  = "snow"
	REASON_FOG   = "fog"
	REASON_OTHER = "other"
)

var CLOSURE_REASONS = []string{REASON_WIND, REASON_RAIN, REASON_SNOW, REASON_FOG, REASON_OTHER}

const (
	VALIDATION_VALID        = "valid"
	VALIDATION_NOT_FOUND    = "not_found"
	VALIDATION_ALREADY_USED = "already_used"
	VALIDATION_EXPIRED      = "expired"
)

const DATE_LAYOUT = "2006-01-02"
