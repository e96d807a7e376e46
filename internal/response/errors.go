package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden        ErrCode = "FORBIDDEN"
	ErrPermissionDenied ErrCode = "PERMISSION_DENIED"
	ErrUserAccessOnly   ErrCode = "USER_ACCESS_ONLY"
	ErrAdminAccessOnly  ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound         ErrCode = "NOT_FOUND"
	ErrDependencyExists ErrCode = "DEPENDENCY_EXISTS"
	ErrAlreadyExists    ErrCode = "ALREADY_EXISTS"

	// ─── Screening ─────────────────────────────────────────────────────
	ErrInvalidSelection      ErrCode = "INVALID_SELECTION"
	ErrQuestionNotVisible    ErrCode = "QUESTION_NOT_VISIBLE"
	ErrIncompleteSession     ErrCode = "INCOMPLETE_SESSION"
	ErrSubmissionFailed      ErrCode = "SUBMISSION_FAILED"
	ErrInvalidAnswer         ErrCode = "INVALID_ANSWER"
	ErrUnsupportedInstrument ErrCode = "UNSUPPORTED_INSTRUMENT"
	ErrInstrumentUnavailable ErrCode = "INSTRUMENT_UNAVAILABLE"
	ErrInvalidTemplate       ErrCode = "INVALID_TEMPLATE"
	ErrSessionClosed         ErrCode = "SESSION_CLOSED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrTokenRequired:
		return "Cần có mã xác thực."
	case ErrTokenInvalid:
		return "Mã xác thực không hợp lệ hoặc đã hết hạn."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "Bạn không có quyền truy cập tài nguyên này."
	case ErrPermissionDenied:
		return "Quyền bị từ chối."
	case ErrUserAccessOnly:
		return "Tài nguyên này chỉ dành cho người dùng."
	case ErrAdminAccessOnly:
		return "Tài nguyên này chỉ dành cho quản trị viên."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Dữ liệu không hợp lệ. Vui lòng kiểm tra lại."
	case ErrInvalidID:
		return "Định dạng ID không hợp lệ."
	case ErrInvalidPayload:
		return "Nội dung yêu cầu không hợp lệ."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Không tìm thấy tài nguyên."
	case ErrDependencyExists:
		return "Không thể xóa vì dữ liệu vẫn đang được sử dụng."
	case ErrAlreadyExists:
		return "Dữ liệu đã tồn tại."

	// ─── Screening ─────────────────────────────────────────────────────
	case ErrInvalidSelection:
		return "Vui lòng chọn ít nhất một chất đã từng sử dụng."
	case ErrQuestionNotVisible:
		return "Câu hỏi này hiện không được hiển thị."
	case ErrIncompleteSession:
		return "Vui lòng trả lời tất cả các câu hỏi trước khi nộp bài."
	case ErrSubmissionFailed:
		return "Không thể gửi bài đánh giá. Vui lòng thử lại."
	case ErrInvalidAnswer:
		return "Câu trả lời không hợp lệ cho câu hỏi này."
	case ErrUnsupportedInstrument:
		return "Loại bài đánh giá không được hỗ trợ."
	case ErrInstrumentUnavailable:
		return "Bài đánh giá này hiện chưa sẵn sàng."
	case ErrInvalidTemplate:
		return "Bộ câu hỏi không hợp lệ."
	case ErrSessionClosed:
		return "Phiên đánh giá đã kết thúc."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Quá nhiều yêu cầu. Vui lòng thử lại sau."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Đã xảy ra lỗi máy chủ nội bộ."
	default:
		return "Đã xảy ra lỗi không mong muốn."
	}
}
