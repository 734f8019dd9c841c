package event

// Type identifies a kind of domain event
type Type string

const (
	TypeItemCreated   Type = "item.created"
	TypeItemSubmitted Type = "item.submitted"
	TypeItemApproved  Type = "item.approved"
	TypeItemRejected  Type = "item.rejected"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}
