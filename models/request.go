package models

type TaskCreateRequest struct {
	Description   string        `json:"description" validate:"notblank"`
	IsReminderSet bool          `json:"isReminderSet"`
	IsTaskOpen    bool          `json:"isTaskOpen"`
	CreatedOn     LocalDateTime `json:"createdOn"`
	Priority      Priority      `json:"priority" validate:"required,oneof=LOW MEDIUM HIGH"`
}

// TaskUpdateRequest carries a partial update. Nil fields are left untouched.
type TaskUpdateRequest struct {
	Description   *string   `json:"description,omitempty" validate:"omitempty,notblank"`
	IsReminderSet *bool     `json:"isReminderSet,omitempty"`
	IsTaskOpen    *bool     `json:"isTaskOpen,omitempty"`
	Priority      *Priority `json:"priority,omitempty" validate:"omitempty,oneof=LOW MEDIUM HIGH"`
}

type TaskDto struct {
	ID            int64         `json:"id"`
	Description   string        `json:"description"`
	IsReminderSet bool          `json:"isReminderSet"`
	IsTaskOpen    bool          `json:"isTaskOpen"`
	CreatedOn     LocalDateTime `json:"createdOn"`
	Priority      Priority      `json:"priority"`
}
