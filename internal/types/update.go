package types

// ChangeType describes the kind of edit an UpdateDescriptor carries
type ChangeType string

// Change types sent by the editor
const (
	ChangeAdd    ChangeType = "add"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

// UpdateDescriptor describes the intent of a single edit. It carries no diff:
// renderers interpret it against the full current ResumeData.
type UpdateDescriptor struct {
	Section    string     `json:"section" validate:"required,knownsection"`
	EntryID    string     `json:"entryId" validate:"required"`
	ChangeType ChangeType `json:"changeType" validate:"required,oneof=add update delete"`
}

// TargetsHeader reports whether the edit lands in the rendered header
func (u *UpdateDescriptor) TargetsHeader() bool {
	return IsHeaderSection(u.Section)
}

// PolishRequest asks for the free text of one entry to be improved
type PolishRequest struct {
	Section    string         `json:"section" validate:"required,knownsection"`
	EntryID    string         `json:"entryId" validate:"required"`
	ChangeType ChangeType     `json:"changeType,omitempty" validate:"omitempty,oneof=add update delete"`
	Content    map[string]any `json:"content"`
}
