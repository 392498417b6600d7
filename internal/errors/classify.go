package errors

// Category represents the type of error for display and handling purposes.
type Category int

const (
	// CategoryUnknown is the default for unclassified errors.
	CategoryUnknown Category = iota
	// CategoryValidation indicates input the user must correct.
	CategoryValidation
	// CategoryPermission indicates notifications are not allowed.
	CategoryPermission
	// CategoryScheduling indicates the notification service failed.
	CategoryScheduling
	// CategoryStorage indicates a read or write failure.
	CategoryStorage
	// CategoryNotFound indicates an unknown block id.
	CategoryNotFound
)

// String returns the string representation of the category.
func (c Category) String() string {
	switch c {
	case CategoryValidation:
		return "validation"
	case CategoryPermission:
		return "permission"
	case CategoryScheduling:
		return "scheduling"
	case CategoryStorage:
		return "storage"
	case CategoryNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Classify determines the category of an error. A joined error reporting
// both a created block and a storage failure classifies as storage.
func Classify(err error) Category {
	switch {
	case err == nil:
		return CategoryUnknown
	case IsUserError(err):
		return CategoryValidation
	case IsPermissionError(err):
		return CategoryPermission
	case IsSchedulingError(err):
		return CategoryScheduling
	case IsStorageError(err):
		return CategoryStorage
	case IsNotFound(err):
		return CategoryNotFound
	default:
		return CategoryUnknown
	}
}
