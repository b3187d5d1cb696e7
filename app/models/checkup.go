package models

import "time"

// Checkup is a diagnostic order registered at the counter. It is never
// modified after creation.
type Checkup struct {
	ID             string         `bson:"_id"                      gorm:"primaryKey;size:24"        json:"id"`
	PatientName    string         `bson:"patientName"              gorm:"size:255;not null"         json:"patientName"`
	Age            int            `bson:"age"                      json:"age"`
	Gender         string         `bson:"gender,omitempty"         gorm:"size:20"                   json:"gender,omitempty"`
	Contact        string         `bson:"contact"                  gorm:"size:100;not null;index"   json:"contact"`
	CheckupType    string         `bson:"checkupType"              gorm:"size:500;not null"         json:"checkupType"`
	CheckupDetails map[string]any `bson:"checkupDetails,omitempty" gorm:"serializer:json;type:text" json:"checkupDetails,omitempty"`
	TotalCost      float64        `bson:"totalCost"                gorm:"not null"                  json:"totalCost"`
	CreatedAt      time.Time      `bson:"createdAt"                json:"createdAt"`
}

// CheckupType is one entry of the test catalogue offered at registration.
type CheckupType struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Subtitle string  `json:"subtitle"`
}

// CheckupCatalog is the fixed list of tests the store offers.
var CheckupCatalog = []CheckupType{
	{ID: "cbc", Name: "Hematology Panel (CBC)", Price: 15, Subtitle: "Complete blood count"},
	{ID: "widal", Name: "Widal Test", Price: 12, Subtitle: "Typhoid screening"},
	{ID: "fullbody", Name: "Full Body Checkup", Price: 60, Subtitle: "Comprehensive health package"},
	{ID: "sugar", Name: "Blood Sugar (Fasting/PP)", Price: 8, Subtitle: "Glucose levels"},
	{ID: "lipid", Name: "Lipid Profile", Price: 25, Subtitle: "Cholesterol and triglycerides"},
	{ID: "thyroid", Name: "Thyroid Profile (T3, T4, TSH)", Price: 20, Subtitle: "Thyroid function"},
	{ID: "liver", Name: "Liver Function Test", Price: 18, Subtitle: "Liver enzymes and proteins"},
}
