package models

import (
	"strings"
	"time"
	"unicode"
)

const (
	LeadNew       = "New"
	LeadContacted = "Contacted"
	LeadConverted = "Converted"
	LeadLost      = "Lost"
)

// LeadStatuses lists every valid status. Any status may follow any other.
var LeadStatuses = []string{LeadNew, LeadContacted, LeadConverted, LeadLost}

// Lead is a CRM record for a prospective or converted customer. ContactKey
// is unique, so there is at most one lead per customer.
type Lead struct {
	ID         string    `bson:"_id"        gorm:"primaryKey;size:24"            json:"id"`
	Name       string    `bson:"name"       gorm:"size:255;not null"             json:"name"`
	Contact    string    `bson:"contact"    gorm:"size:255;not null"             json:"contact"`
	ContactKey string    `bson:"contactKey" gorm:"size:255;not null;uniqueIndex" json:"-"`
	Status     string    `bson:"status"     gorm:"size:20;not null;index"        json:"status"`
	Notes      string    `bson:"notes"      gorm:"type:text"                     json:"notes"`
	CreatedAt  time.Time `bson:"createdAt"  json:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt"  json:"updatedAt"`
}

func ValidLeadStatus(s string) bool {
	for _, v := range LeadStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// AppendNote adds note to the lead's notes, separated by " | ".
func (l *Lead) AppendNote(note string) {
	if l.Notes == "" {
		l.Notes = note
		return
	}
	l.Notes += " | " + note
}

// minPhoneDigits separates phone numbers from free text such as emails.
const minPhoneDigits = 7

// ContactKey normalises a contact so formatting differences ("555-1234",
// "555 1234") map to the same customer. Values with at least seven digits
// are reduced to their digits, keeping a leading '+'. Anything else is
// lower-cased with whitespace collapsed.
func ContactKey(contact string) string {
	contact = strings.TrimSpace(contact)

	var digits strings.Builder
	for _, r := range contact {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}
	if digits.Len() >= minPhoneDigits {
		if strings.HasPrefix(contact, "+") {
			return "+" + digits.String()
		}
		return digits.String()
	}

	return strings.ToLower(strings.Join(strings.Fields(contact), " "))
}
