package models

import "time"

// Gender enumerates the genders accepted on admission forms.
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

// Student defines the student model based on the 'students' table.
// IndexNumber stays nil until the student's admission is approved.
type Student struct {
	ID          int64     `json:"id" db:"id" example:"1"`
	IndexNumber *string   `json:"indexNumber,omitempty" db:"index_number" example:"SCH/JHS/26/0001"` // Assigned on approval, unique
	FirstName   string    `json:"firstName" db:"first_name" example:"Ama"`
	MiddleName  *string   `json:"middleName,omitempty" db:"middle_name"`
	LastName    string    `json:"lastName" db:"last_name" example:"Mensah"`
	Gender      Gender    `json:"gender" db:"gender" example:"FEMALE"`
	DateOfBirth time.Time `json:"dateOfBirth" db:"date_of_birth"`
	Nationality string    `json:"nationality" db:"nationality" example:"Ghanaian"`
	Address     *string   `json:"address,omitempty" db:"address"`
	City        *string   `json:"city,omitempty" db:"city"`
	Photo       *string   `json:"photo,omitempty" db:"photo"` // Opaque reference supplied by the caller
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`

	// Relations (populated when needed)
	Guardians []*Guardian     `json:"guardians,omitempty"`
	Medical   *StudentMedical `json:"medical,omitempty"`
	Account   *StudentAccount `json:"account,omitempty"`
}

// Guardian defines a student's guardian based on the 'guardians' table
type Guardian struct {
	ID             int64   `json:"id" db:"id"`
	StudentID      int64   `json:"studentId" db:"student_id"`
	Name           string  `json:"name" db:"name"`
	Relationship   string  `json:"relationship" db:"relationship"` // e.g. Father, Mother
	Phone          string  `json:"phone" db:"phone"`
	SecondaryPhone *string `json:"secondaryPhone,omitempty" db:"secondary_phone"`
	Email          *string `json:"email,omitempty" db:"email"`
	Address        string  `json:"address" db:"address"`
	Occupation     *string `json:"occupation,omitempty" db:"occupation"`
}

// StudentMedical defines optional medical details based on the 'student_medical' table
type StudentMedical struct {
	ID               int64   `json:"id" db:"id"`
	StudentID        int64   `json:"studentId" db:"student_id"`
	HealthConditions *string `json:"healthConditions,omitempty" db:"health_conditions"`
	Allergies        *string `json:"allergies,omitempty" db:"allergies"`
	SpecialNeeds     *string `json:"specialNeeds,omitempty" db:"special_needs"`
}

// StudentAccount defines the login credential created with an admission.
// Accounts are created inactive and activated only when the admission is
// approved.
type StudentAccount struct {
	ID                 int64  `json:"id" db:"id"`
	StudentID          int64  `json:"studentId" db:"student_id"`
	Username           string `json:"username" db:"username"`
	HashedPassword     string `json:"-" db:"hashed_password"`
	MustChangePassword bool   `json:"mustChangePassword" db:"must_change_password"`
	IsActive           bool   `json:"isActive" db:"is_active"`
}
