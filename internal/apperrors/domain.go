package apperrors

import "net/http"

// --- Auth ---

var ErrInvalidCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"Invalid credentials",
	http.StatusUnauthorized,
)

var ErrInvalidToken = New(
	CodeInvalidToken,
	"auth",
	"Invalid token",
	http.StatusUnauthorized,
)

var ErrTokenExpired = New(
	CodeTokenExpired,
	"auth",
	"Session expired, please log in again",
	http.StatusUnauthorized,
)

var ErrEmailAlreadyExists = New(
	CodeAlreadyExists,
	"auth",
	"An account with this email already exists",
	http.StatusConflict,
)

var ErrUsernameAlreadyExists = New(
	CodeAlreadyExists,
	"auth",
	"This username is already taken",
	http.StatusConflict,
)

var ErrInsufficientPermissions = New(
	CodeForbidden,
	"auth",
	"Insufficient permissions",
	http.StatusForbidden,
)

var ErrInvalidResetToken = New(
	CodeInvalidToken,
	"password_reset",
	"Invalid or expired reset link",
	http.StatusBadRequest,
)

// --- Consultations ---

var ErrConsultationNotFound = New(
	CodeNotFound,
	"consultation",
	"Consultation not found",
	http.StatusNotFound,
)

var ErrConsultationNotPending = New(
	CodeInvalidStatus,
	"consultation",
	"Only pending consultations can be answered",
	http.StatusConflict,
)

// --- Appointments ---

var ErrSlotTaken = New(
	CodeSlotTaken,
	"appointment",
	"This time slot is no longer available",
	http.StatusConflict,
)

var ErrAppointmentNotFound = New(
	CodeNotFound,
	"appointment",
	"Appointment not found",
	http.StatusNotFound,
)

var ErrCancellationWindowClosed = New(
	CodeInvalidOperation,
	"appointment",
	"Appointments can only be cancelled up to 3 hours before they start",
	http.StatusConflict,
)

var ErrAppointmentNotActive = New(
	CodeInvalidStatus,
	"appointment",
	"Appointment is not active",
	http.StatusConflict,
)

// --- Payments ---

var ErrPaymentFailed = New(
	CodePaymentFailed,
	"payment",
	"Error processing the payment, please try again",
	http.StatusBadGateway,
)

var ErrPlanNotPurchasable = New(
	CodeInvalidOperation,
	"payment",
	"This plan cannot be purchased",
	http.StatusBadRequest,
)

var ErrPaymentNotFound = New(
	CodeNotFound,
	"payment",
	"Payment not found",
	http.StatusNotFound,
)

// --- Chat ---

var ErrConversationNotFound = New(
	CodeNotFound,
	"chat",
	"Conversation not found",
	http.StatusNotFound,
)
