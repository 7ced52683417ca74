package models

// TaskSyncRequest is the body of POST /tasks/sync.
type TaskSyncRequest struct {
	DeletedIDs []string     `json:"deleted_ids" validate:"dive,uuid"`
	ToInsert   []TaskInsert `json:"to_insert" validate:"dive"`
	ToUpdate   []TaskUpdate `json:"to_update" validate:"dive"`
}

// HabitSyncRequest is the body of POST /habits/sync.
type HabitSyncRequest struct {
	DeletedIDs []string      `json:"deleted_ids" validate:"dive,uuid"`
	ToInsert   []HabitInsert `json:"to_insert" validate:"dive"`
	ToUpdate   []HabitUpdate `json:"to_update" validate:"dive"`
}

// LogsBulkRequest is the body of PUT /logs.
type LogsBulkRequest struct {
	Logs []DailyLog `json:"logs" validate:"max=400"`
}
