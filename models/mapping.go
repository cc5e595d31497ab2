package models

// ToDto copies every field of task into its outward representation.
func ToDto(task Task) TaskDto {
	return TaskDto{
		ID:            task.ID,
		Description:   task.Description,
		IsReminderSet: task.IsReminderSet,
		IsTaskOpen:    task.IsTaskOpen,
		CreatedOn:     NewLocalDateTime(task.CreatedOn),
		Priority:      task.Priority,
	}
}

func ToDtos(tasks []Task) []TaskDto {
	dtos := make([]TaskDto, 0, len(tasks))
	for _, t := range tasks {
		dtos = append(dtos, ToDto(t))
	}
	return dtos
}

// ApplyCreate fills task from a creation request. CreatedOn is only copied
// when the request carries one.
func ApplyCreate(task *Task, req TaskCreateRequest) {
	task.Description = req.Description
	task.IsReminderSet = req.IsReminderSet
	task.IsTaskOpen = req.IsTaskOpen
	task.Priority = req.Priority
	if !req.CreatedOn.IsZero() {
		task.CreatedOn = req.CreatedOn.Time
	}
}

// ApplyUpdate merges the present fields of req into task.
// ID and CreatedOn are never touched.
func ApplyUpdate(task *Task, req TaskUpdateRequest) {
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.IsReminderSet != nil {
		task.IsReminderSet = *req.IsReminderSet
	}
	if req.IsTaskOpen != nil {
		task.IsTaskOpen = *req.IsTaskOpen
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
}
