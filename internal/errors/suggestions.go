package errors

// Suggestions maps common errors to helpful suggestions.
var Suggestions = []struct {
	Err        error
	Suggestion string
}{
	{ErrNoDays, "Pick at least one day, e.g. --days mon,wed or --days weekdays."},
	{ErrInvalidTime, "Use 24-hour HH:MM like 09:30, or a phrase like '9:30pm'."},
	{ErrInvalidDay, "Use day codes sun..sat, or daily, weekdays, weekends."},
	{ErrInvalidTheme, "Use 'timeblock theme list' to see available themes."},
	{ErrPermissionDenied, "Enable notifications first: 'timeblock notifications allow'."},
	{ErrBlockNotFound, "Use 'timeblock blocks' to see available blocks."},
	{ErrLockHeld, "Another timeblock process holds the database. Stop 'timeblock serve' or use its HTTP API."},
	{ErrScheduling, "The notification service rejected the reminder. Nothing was armed; try again."},
	{ErrStorage, "Check permissions in your data directory. Reminders already armed are kept."},
}

// GetSuggestion returns a suggestion for an error, if available.
// The first match in table order wins.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}
	if ue, ok := AsUserError(err); ok && ue.Suggestion != "" {
		return ue.Suggestion
	}
	for _, s := range Suggestions {
		if Is(err, s.Err) {
			return s.Suggestion
		}
	}
	return ""
}
