package members

// Error is an application-layer error that can be mapped to an HTTP response.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]any

	// Err is the underlying cause, if any. It is never shown to callers.
	Err error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

const (
	CodeValidation            = "VALIDATION_ERROR"
	CodeMembershipNumberTaken = "MEMBERSHIP_NUMBER_TAKEN"
	CodeMemberNotFound        = "MEMBER_NOT_FOUND"
	CodeStorage               = "STORAGE_ERROR"
)

const (
	msgSearchQueryRequired   = "الرجاء إدخال اسم للبحث"
	msgMembershipNumberTaken = "رقم العضوية موجود مسبقاً"
	msgMemberNotFound        = "العضو غير موجود"
	msgListFailed            = "خطأ في قراءة البيانات"
	msgSearchFailed          = "خطأ في البحث"
	msgAddFailed             = "خطأ في إضافة العضو"
	msgUpdateFailed          = "خطأ في تحديث العضو"
	msgDeleteFailed          = "خطأ في حذف العضو"
	msgStatsFailed           = "خطأ في جلب الإحصائيات"
)

func fieldRequired(label string) *Error {
	return &Error{
		Status:  400,
		Code:    CodeValidation,
		Message: `الحقل "` + label + `" مطلوب`,
		Details: map[string]any{label: "required"},
	}
}

func fieldNotNull(label string) *Error {
	return &Error{
		Status:  400,
		Code:    CodeValidation,
		Message: `الحقل "` + label + `" مطلوب`,
		Details: map[string]any{label: "cannot be null"},
	}
}

func membershipNumberTaken(number int) *Error {
	return &Error{
		Status:  400,
		Code:    CodeMembershipNumberTaken,
		Message: msgMembershipNumberTaken,
		Details: map[string]any{"membership_number": number},
	}
}

func memberNotFound() *Error {
	return &Error{Status: 404, Code: CodeMemberNotFound, Message: msgMemberNotFound}
}

func storageFailure(message string, err error) *Error {
	return &Error{Status: 500, Code: CodeStorage, Message: message, Err: err}
}
