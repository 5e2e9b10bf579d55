package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldQuery         = "query"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldUserAgent     = "user_agent"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldMonth         = "month"
	FieldEntity        = "entity"
	FieldEntityID      = "entity_id"
	FieldCategoryID    = "category_id"
	FieldAmount        = "amount"
	FieldCurrency      = "currency"
	FieldPeriodStart   = "period_start"
	FieldPeriodEnd     = "period_end"
	FieldSource        = "data_source"
	FieldSheetsRow     = "sheets_row"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentAPI       = "api"
	ComponentMock      = "mock_api"
	ComponentFinance   = "finance"
	ComponentDashboard = "dashboard"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentRecurring = "recurring"
	ComponentSheets    = "sheets"
	ComponentCache     = "cache"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
	ComponentBackend   = "backend"
	ComponentRealtime  = "realtime"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpMirror   = "mirror"
	OpCommit   = "commit"
	OpValidate = "validate"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeUpstream      = "upstream_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError adds the error message; a nil error adds nothing.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithChange adds the entity, operation and id of a finance change.
func (f LogFields) WithChange(entity, op, id string) LogFields {
	f[FieldEntity] = entity
	f[FieldOperation] = op
	f[FieldEntityID] = id
	return f
}

// WithTransaction adds the money fields of a transaction.
func (f LogFields) WithTransaction(id, categoryID string, amount float64, currency string) LogFields {
	f[FieldEntityID] = id
	f[FieldCategoryID] = categoryID
	f[FieldAmount] = amount
	f[FieldCurrency] = currency
	return f
}

// WithPeriod adds inclusive period bounds as YYYY-MM-DD strings.
func (f LogFields) WithPeriod(start, end string) LogFields {
	f[FieldPeriodStart] = start
	f[FieldPeriodEnd] = end
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if query != "" {
		f[FieldQuery] = query
	}
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice converts LogFields to slog key/value arguments.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
