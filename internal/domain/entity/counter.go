package entity

// Counter is a named persistent sequence used to allocate display identifiers
type Counter struct {
	Name string `gorm:"type:varchar(50);primaryKey" json:"name"`
	Seq  int64  `gorm:"not null;default:0" json:"seq"`
}

func (Counter) TableName() string {
	return "counters"
}

// Counter names, one per entity type that receives allocated identifiers
const (
	CounterPatientID = "patientId"
	CounterStaffID   = "staffId"
)
