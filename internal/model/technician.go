package model

import "time"

// Technician is an approved field technician with its own login identity.
// Tasks refer to technicians by Username, so deleting a technician leaves
// historical tasks intact.
type Technician struct {
	ID                  uint64    `json:"id" db:"id"`
	Username            string    `json:"username" db:"username"`
	FullName            string    `json:"full_name" db:"full_name"`
	Email               string    `json:"email" db:"email"`
	Phone               string    `json:"phone" db:"phone"`
	Age                 int       `json:"age" db:"age"`
	PasswordHash        string    `json:"-" db:"password_hash"`
	ProfilePath         *string   `json:"profile_path" db:"profile_path"`
	IDCard              string    `json:"id_card" db:"id_card"`
	IDCardImagePath     string    `json:"id_card_image_path" db:"id_card_image_path"`
	Address             string    `json:"address" db:"address"`
	District            string    `json:"district" db:"district"`
	Province            string    `json:"province" db:"province"`
	WorkingAreaDistrict *string   `json:"working_area_district" db:"working_area_district"`
	WorkingAreaProvince *string   `json:"working_area_province" db:"working_area_province"`
	BirthDate           time.Time `json:"birth_date" db:"birth_date"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

// RegistrationStatus is the admin review state of a signup.
type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "pending"
	RegistrationApproved RegistrationStatus = "approved"
	RegistrationRejected RegistrationStatus = "rejected"
)

// TechnicianRegistration is a self-service application awaiting review.
// Approval copies the accepted fields into a new Technician.
type TechnicianRegistration struct {
	ID              uint64             `json:"id" db:"id"`
	Username        string             `json:"username" db:"username"`
	PasswordHash    string             `json:"-" db:"password_hash"`
	FullName        string             `json:"full_name" db:"full_name"`
	Email           string             `json:"email" db:"email"`
	Phone           string             `json:"phone" db:"phone"`
	Age             int                `json:"age" db:"age"`
	IDCard          string             `json:"id_card" db:"id_card"`
	IDCardImagePath string             `json:"id_card_image_path" db:"id_card_image_path"`
	Address         string             `json:"address" db:"address"`
	District        string             `json:"district" db:"district"`
	Province        string             `json:"province" db:"province"`
	BirthDate       time.Time          `json:"birth_date" db:"birth_date"`
	Status          RegistrationStatus `json:"status" db:"status"`
	CreatedAt       time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" db:"updated_at"`
}

// Technician builds the active record promoted from an approved registration.
func (r *TechnicianRegistration) Technician() *Technician {
	return &Technician{
		Username:        r.Username,
		FullName:        r.FullName,
		Email:           r.Email,
		Phone:           r.Phone,
		Age:             r.Age,
		PasswordHash:    r.PasswordHash,
		IDCard:          r.IDCard,
		IDCardImagePath: r.IDCardImagePath,
		Address:         r.Address,
		District:        r.District,
		Province:        r.Province,
		BirthDate:       r.BirthDate,
	}
}

// TaskCounts summarises one technician's workload.
type TaskCounts struct {
	Total      int `json:"total_tasks" db:"total"`
	Fixing     int `json:"fixing_tasks" db:"fixing"`
	Successful int `json:"successful_tasks" db:"successful"`
	Failed     int `json:"failed_tasks" db:"failed"`
}

// TechnicianSummary is a roster row: the technician plus workload counts.
type TechnicianSummary struct {
	Technician
	TaskCounts
}
