package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	billdomain "github.com/smallbiznis/pamdes/internal/bill/domain"
	perioddomain "github.com/smallbiznis/pamdes/internal/billingperiod/domain"
	bundledomain "github.com/smallbiznis/pamdes/internal/bundle/domain"
	collectordomain "github.com/smallbiznis/pamdes/internal/collector/domain"
	customerdomain "github.com/smallbiznis/pamdes/internal/customer/domain"
	ledgerdomain "github.com/smallbiznis/pamdes/internal/ledger/domain"
	paymentdomain "github.com/smallbiznis/pamdes/internal/payment/domain"
	reportdomain "github.com/smallbiznis/pamdes/internal/report/domain"
	tariffdomain "github.com/smallbiznis/pamdes/internal/tariff/domain"
	villagedomain "github.com/smallbiznis/pamdes/internal/village/domain"
	usagedomain "github.com/smallbiznis/pamdes/internal/waterusage/domain"
	"github.com/smallbiznis/pamdes/pkg/db"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog returns the payload type and code logged with each failed request.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	if status == http.StatusInternalServerError {
		return payload.Type, "internal_error"
	}
	if len(payload.Errors) > 0 {
		return payload.Type, payload.Errors[0].Code
	}
	return payload.Type, payload.Message
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return true
	case isVillageValidationError(err),
		isCustomerValidationError(err),
		isCollectorValidationError(err),
		isPeriodValidationError(err),
		isUsageValidationError(err),
		isTariffValidationError(err),
		isBillValidationError(err),
		isBundleValidationError(err),
		isPaymentValidationError(err),
		isLedgerValidationError(err),
		isReportValidationError(err):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		db.IsDuplicateKeyErr(err),
		errors.Is(err, villagedomain.ErrDuplicateSlug),
		errors.Is(err, collectordomain.ErrDuplicateName),
		errors.Is(err, perioddomain.ErrDuplicatePeriod),
		errors.Is(err, perioddomain.ErrInvalidTransition),
		errors.Is(err, usagedomain.ErrDuplicateReading),
		errors.Is(err, usagedomain.ErrReadingBilled),
		errors.Is(err, usagedomain.ErrPeriodClosed),
		errors.Is(err, tariffdomain.ErrDuplicateRangeStart),
		errors.Is(err, billdomain.ErrDuplicateBill),
		errors.Is(err, billdomain.ErrUsageChanged),
		errors.Is(err, billdomain.ErrNotPayable),
		errors.Is(err, billdomain.ErrAlreadyPaid),
		errors.Is(err, billdomain.ErrInvalidTransition),
		errors.Is(err, bundledomain.ErrBillNotUnpaid),
		errors.Is(err, bundledomain.ErrBundleContainer),
		errors.Is(err, bundledomain.ErrBillInActiveBundle),
		errors.Is(err, bundledomain.ErrAlreadyExpired),
		errors.Is(err, bundledomain.ErrBundleNotPending),
		errors.Is(err, bundledomain.ErrDuplicateReference),
		errors.Is(err, paymentdomain.ErrNotPayable),
		errors.Is(err, paymentdomain.ErrBundleContainer),
		errors.Is(err, paymentdomain.ErrBillInActiveBundle),
		errors.Is(err, paymentdomain.ErrDuplicateReference):
		return true
	default:
		return false
	}
}

func conflictMessage(err error) string {
	if errors.Is(err, ErrConflict) || db.IsDuplicateKeyErr(err) {
		return "conflict"
	}
	return rootMessage(err)
}

// rootMessage returns the sentinel code at the end of a wrapped chain.
func rootMessage(err error) string {
	msg := err.Error()
	if idx := strings.LastIndex(msg, ": "); idx >= 0 {
		return msg[idx+2:]
	}
	return msg
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, villagedomain.ErrNotFound),
		errors.Is(err, customerdomain.ErrNotFound),
		errors.Is(err, collectordomain.ErrNotFound),
		errors.Is(err, perioddomain.ErrNotFound),
		errors.Is(err, usagedomain.ErrNotFound),
		errors.Is(err, tariffdomain.ErrNotFound),
		errors.Is(err, billdomain.ErrNotFound),
		errors.Is(err, billdomain.ErrUsageNotFound),
		errors.Is(err, billdomain.ErrPeriodNotFound),
		errors.Is(err, billdomain.ErrVillageNotFound),
		errors.Is(err, bundledomain.ErrNotFound),
		errors.Is(err, paymentdomain.ErrNotFound),
		errors.Is(err, reportdomain.ErrPeriodNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isVillageValidationError(err error) bool {
	switch {
	case errors.Is(err, villagedomain.ErrInvalidName),
		errors.Is(err, villagedomain.ErrInvalidCodePrefix),
		errors.Is(err, villagedomain.ErrInvalidFee),
		errors.Is(err, villagedomain.ErrInvalidThreshold):
		return true
	default:
		return false
	}
}

func isCustomerValidationError(err error) bool {
	switch {
	case errors.Is(err, customerdomain.ErrInvalidVillage),
		errors.Is(err, customerdomain.ErrInvalidName),
		errors.Is(err, customerdomain.ErrInvalidStatus):
		return true
	default:
		return false
	}
}

func isCollectorValidationError(err error) bool {
	switch {
	case errors.Is(err, collectordomain.ErrInvalidVillage),
		errors.Is(err, collectordomain.ErrInvalidName),
		errors.Is(err, collectordomain.ErrInvalidRole):
		return true
	default:
		return false
	}
}

func isPeriodValidationError(err error) bool {
	switch {
	case errors.Is(err, perioddomain.ErrInvalidVillage),
		errors.Is(err, perioddomain.ErrInvalidMonth),
		errors.Is(err, perioddomain.ErrInvalidReadingWindow),
		errors.Is(err, perioddomain.ErrInvalidDueDate):
		return true
	default:
		return false
	}
}

func isUsageValidationError(err error) bool {
	switch {
	case errors.Is(err, usagedomain.ErrInvalidCustomer),
		errors.Is(err, usagedomain.ErrInvalidPeriod),
		errors.Is(err, usagedomain.ErrInvalidMeter),
		errors.Is(err, usagedomain.ErrVillageMismatch):
		return true
	default:
		return false
	}
}

func isTariffValidationError(err error) bool {
	switch {
	case errors.Is(err, tariffdomain.ErrInvalidRange),
		errors.Is(err, tariffdomain.ErrGap),
		errors.Is(err, tariffdomain.ErrOverlap),
		errors.Is(err, tariffdomain.ErrMissingUnbounded),
		errors.Is(err, tariffdomain.ErrMultipleUnbounded),
		errors.Is(err, tariffdomain.ErrFieldNotEditable),
		errors.Is(err, tariffdomain.ErrEmptySchedule),
		errors.Is(err, tariffdomain.ErrNegativeUsage),
		errors.Is(err, tariffdomain.ErrInvalidVillage):
		return true
	default:
		return false
	}
}

func isBillValidationError(err error) bool {
	switch {
	case errors.Is(err, billdomain.ErrInvalidFee),
		errors.Is(err, billdomain.ErrCustomerInactive):
		return true
	default:
		return false
	}
}

func isBundleValidationError(err error) bool {
	switch {
	case errors.Is(err, bundledomain.ErrNoUnpaidBills),
		errors.Is(err, bundledomain.ErrNotEnoughBills),
		errors.Is(err, bundledomain.ErrMixedCustomer):
		return true
	default:
		return false
	}
}

func isPaymentValidationError(err error) bool {
	switch {
	case errors.Is(err, paymentdomain.ErrInvalidMethod),
		errors.Is(err, paymentdomain.ErrInvalidAmount),
		errors.Is(err, paymentdomain.ErrInsufficientTender):
		return true
	default:
		return false
	}
}

func isLedgerValidationError(err error) bool {
	switch {
	case errors.Is(err, ledgerdomain.ErrInvalidVillage),
		errors.Is(err, ledgerdomain.ErrInvalidAccount):
		return true
	default:
		return false
	}
}

func isReportValidationError(err error) bool {
	switch {
	case errors.Is(err, reportdomain.ErrInvalidVillage),
		errors.Is(err, reportdomain.ErrInvalidRange):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	if errors.Is(err, ErrInvalidRequest) {
		return "invalid_request"
	}
	return rootMessage(err)
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	default:
		return strings.ReplaceAll(code, "_", " ")
	}
}
