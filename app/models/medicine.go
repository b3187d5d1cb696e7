package models

import "time"

// Medicine is one inventory line. Name is the natural key used by the
// spreadsheet import.
type Medicine struct {
	ID             string            `bson:"_id"                      gorm:"primaryKey;size:24"              json:"id"`
	Name           string            `bson:"name"                     gorm:"size:255;not null;uniqueIndex"   json:"name"`
	BatchNo        string            `bson:"batchNo,omitempty"        gorm:"size:100"                        json:"batchNo,omitempty"`
	ExpiryDate     *time.Time        `bson:"expiryDate,omitempty"     json:"expiryDate,omitempty"`
	Manufacturer   string            `bson:"manufacturer,omitempty"   gorm:"size:255"                        json:"manufacturer,omitempty"`
	Quantity       int               `bson:"quantity"                 gorm:"not null;default:0"              json:"quantity"`
	Price          float64           `bson:"price"                    gorm:"not null;default:0"              json:"price"`
	Description    string            `bson:"description,omitempty"    gorm:"type:text"                       json:"description,omitempty"`
	AdditionalInfo map[string]string `bson:"additionalInfo,omitempty" gorm:"serializer:json;type:text"       json:"additionalInfo,omitempty"`
	CreatedAt      time.Time         `bson:"createdAt"                json:"createdAt"`
	UpdatedAt      time.Time         `bson:"updatedAt"                json:"updatedAt"`
}

// LowStock reports whether the quantity is below threshold.
func (m Medicine) LowStock(threshold int) bool { return m.Quantity < threshold }

// MedicineFilter narrows a catalogue listing. The zero value lists all.
type MedicineFilter struct {
	Query    string // case-insensitive substring of Name
	LowStock bool
	Below    int // threshold used when LowStock is set
}

func (f MedicineFilter) IsZero() bool { return f.Query == "" && !f.LowStock }
