package models

import "time"

// Submission represents one fully completed intake. Rows are immutable once
// written; only the retention purge ever removes them.
type Submission struct {
	ID          uint      `gorm:"column:id;primaryKey;autoIncrement"`
	SubmitterID int64     `gorm:"column:submitter_id;not null;index"`
	FullName    string    `gorm:"column:fio;type:text;not null"`
	Address     string    `gorm:"column:address;type:text;not null"`
	Kin1        string    `gorm:"column:kin1;type:text;not null"`
	Kin2        string    `gorm:"column:kin2;type:text;not null"`
	Phone       string    `gorm:"column:phone;type:text;not null"`
	IDCardDoc   string    `gorm:"column:doc1;type:text;not null"`
	PsychDoc    string    `gorm:"column:doc2;type:text;not null"`
	NarcDoc     string    `gorm:"column:doc3;type:text;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName overrides the default gorm table name
func (Submission) TableName() string {
	return "submissions"
}

// Complete reports whether every collected field is populated. A submission
// missing any field must never reach storage.
func (s *Submission) Complete() bool {
	return s.SubmitterID != 0 &&
		s.FullName != "" &&
		s.Address != "" &&
		s.Kin1 != "" &&
		s.Kin2 != "" &&
		s.Phone != "" &&
		s.IDCardDoc != "" &&
		s.PsychDoc != "" &&
		s.NarcDoc != ""
}
