package gate

// Action describes the kind of operation a user wants to perform.
// The vocabulary mirrors the classic view/add/change/delete model permissions.
type Action string

const (
	ActionView   Action = "view"
	ActionAdd    Action = "add"
	ActionChange Action = "change"
	ActionDelete Action = "delete"
)
