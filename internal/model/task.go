package model

import "time"

// TaskStatus is the lifecycle state of a repair request.
type TaskStatus string

const (
	StatusPending          TaskStatus = "pending"
	StatusAccepted         TaskStatus = "accepted"
	StatusFixing           TaskStatus = "fixing"
	StatusPayment          TaskStatus = "payment"
	StatusRequestCanceling TaskStatus = "request_canceling"
	StatusSuccessful       TaskStatus = "successful"
	StatusFailed           TaskStatus = "failed"
	StatusCancelled        TaskStatus = "cancelled"
)

// Statuses lists the fixed enumeration in lifecycle order.
var Statuses = []TaskStatus{
	StatusPending, StatusAccepted, StatusFixing, StatusPayment,
	StatusRequestCanceling, StatusSuccessful, StatusFailed, StatusCancelled,
}

// Valid reports whether s is a literal member of the enumeration.
func (s TaskStatus) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Task is a repair request submitted by a user and fulfilled by a technician.
//
// Fields:
//
//	Requester – username of the user who created it; never changes.
//	Assignee  – username of the technician holding it; nil until claimed,
//	            then set exactly once.
//	Images    – paths stored at creation time only. Later uploads are
//	            recorded as TaskImage rows and are not mirrored here.
type Task struct {
	ID         uint64     `json:"id"`           // tasks.id
	Requester  string     `json:"requester"`    // tasks.requester
	Assignee   *string    `json:"assignee"`     // tasks.assignee (nullable)
	Status     TaskStatus `json:"status"`       // tasks.status
	TaskTypeID uint64     `json:"task_type_id"` // tasks.task_type_id
	Title      string     `json:"title"`        // tasks.title
	Detail     string     `json:"detail"`       // tasks.detail
	Address    string     `json:"address"`      // tasks.address
	District   string     `json:"district"`     // tasks.district
	Province   string     `json:"province"`     // tasks.province
	Images     []string   `json:"images"`       // tasks.images (JSON array)
	CreatedAt  time.Time  `json:"created_at"`   // tasks.created_at
	UpdatedAt  time.Time  `json:"updated_at"`   // tasks.updated_at
}

// AssignedTo reports whether the technician handle holds the task.
func (t *Task) AssignedTo(technician string) bool {
	return t.Assignee != nil && *t.Assignee == technician
}

// TaskType is a free-form repair category such as "air conditioner".
type TaskType struct {
	ID   uint64 `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Uploader roles recorded on TaskImage.AddedBy.
const (
	AddedByUser       = "user"
	AddedByTechnician = "technician"
)

// TaskImage is one uploaded picture attached to a task after creation.
// Rows are append-only.
type TaskImage struct {
	ID          uint64    `json:"id"`
	TaskID      uint64    `json:"task_id"`
	Path        string    `json:"path"`
	AddedBy     string    `json:"added_by"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
