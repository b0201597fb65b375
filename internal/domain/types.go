package domain

import "time"

type Status string

const (
	StatusDraft  Status = "DRAFT"
	StatusLocked Status = "LOCKED"
)

type Condition string

const (
	ConditionExcellent      Condition = "Excellent"
	ConditionGood           Condition = "Good"
	ConditionFair           Condition = "Fair"
	ConditionPoor           Condition = "Poor"
	ConditionNeedsAttention Condition = "Needs Attention"
)

type Cleanliness string

const (
	CleanlinessProfessional Cleanliness = "Professional Clean"
	CleanlinessDomestic     Cleanliness = "Domestic Clean"
	CleanlinessGood         Cleanliness = "Good"
	CleanlinessFair         Cleanliness = "Fair"
	CleanlinessPoor         Cleanliness = "Poor"
	CleanlinessDirty        Cleanliness = "Dirty"
)

type MeterType string

const (
	MeterStandard MeterType = "Standard"
	MeterPAYG     MeterType = "PAYG"
)

// Answer is a checklist response. The zero value means unanswered.
type Answer string

const (
	AnswerUnanswered    Answer = ""
	AnswerYes           Answer = "YES"
	AnswerNo            Answer = "NO"
	AnswerNotApplicable Answer = "N/A"
)

type SignerType string

const (
	SignerTenant   SignerType = "Tenant"
	SignerClerk    SignerType = "Clerk"
	SignerLandlord SignerType = "Landlord"
	SignerOther    SignerType = "Other"
)

// WorkingStatusNotTested is the working status every item starts with.
const WorkingStatusNotTested = "Not Tested"

// Inventory is the root record of one property inspection.
type Inventory struct {
	ID                  string              `json:"id"`
	Address             string              `json:"address"`
	ClientName          string              `json:"clientName"`
	InspectorName       string              `json:"inspectorName"`
	PropertyDescription string              `json:"propertyDescription"`
	FrontImage          []byte              `json:"frontImage,omitempty"`
	DateCreated         time.Time           `json:"dateCreated"`
	DateUpdated         time.Time           `json:"dateUpdated"`
	Status              Status              `json:"status"`
	TenantPresent       bool                `json:"tenantPresent"`
	DeclarationAgreed   bool                `json:"declarationAgreed"`
	HealthSafetyChecks  []HealthSafetyCheck `json:"healthSafetyChecks"`
	Rooms               []Room              `json:"rooms"`
	Documents           []Document          `json:"documents"`
	Signatures          []SignatureEntry    `json:"signatures"`
}

type Room struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	FloorGroup string `json:"floorGroup"`
	Items      []Item `json:"items"`
}

// Item is a rated element of a room. Make through Supplier are only surfaced
// for appliance and meter items.
type Item struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Condition     Condition   `json:"condition"`
	Cleanliness   Cleanliness `json:"cleanliness"`
	Description   string      `json:"description"`
	Photos        []Photo     `json:"photos"`
	Make          string      `json:"make,omitempty"`
	Model         string      `json:"model,omitempty"`
	SerialNumber  string      `json:"serialNumber,omitempty"`
	WorkingStatus string      `json:"workingStatus,omitempty"`
	MeterType     MeterType   `json:"meterType,omitempty"`
	Supplier      string      `json:"supplier,omitempty"`
}

// Photo is a processed, watermarked image owned by exactly one item.
// RoomRef and ItemRef are informational; ownership is the item's Photos slice.
type Photo struct {
	ID        string    `json:"id"`
	Image     []byte    `json:"image"`
	Timestamp time.Time `json:"timestamp"`
	RoomRef   string    `json:"roomRef,omitempty"`
	ItemRef   string    `json:"itemRef,omitempty"`
}

type Document struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	FileData   []byte     `json:"fileData"`
	UploadDate *time.Time `json:"uploadDate"`
}

// Uploaded reports whether a file has been attached.
func (d Document) Uploaded() bool {
	return d.FileData != nil
}

type HealthSafetyCheck struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   Answer `json:"answer"`
	Comment  string `json:"comment,omitempty"`
}

type SignatureEntry struct {
	ID   string     `json:"id"`
	Name string     `json:"name"`
	Type SignerType `json:"type"`
	Data []byte     `json:"data"`
	Date time.Time  `json:"date"`
}
