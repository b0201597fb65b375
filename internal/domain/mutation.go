package domain

import (
	"fmt"
	"strings"
	"time"
)

// Mutation changes a working copy of an inventory. It must leave the copy
// untouched when it returns an error.
type Mutation func(inv *Inventory) error

// Apply runs m against a deep copy of inv and returns the copy with
// DateUpdated advanced past its previous value. On any error the original
// snapshot is returned unchanged. A locked inventory rejects every mutation.
func Apply(inv *Inventory, at time.Time, m Mutation) (*Inventory, error) {
	if inv.Locked() {
		return inv, fmt.Errorf("inventory %q: %w", inv.ID, ErrLocked)
	}
	next := inv.Clone()
	if err := m(next); err != nil {
		return inv, err
	}
	at = Normalize(at)
	if !at.After(inv.DateUpdated) {
		at = inv.DateUpdated.Add(time.Millisecond)
	}
	next.DateUpdated = at
	return next, nil
}

// FieldPatch carries top-level scalar edits. Nil fields are left unchanged.
type FieldPatch struct {
	Address             *string `json:"address,omitempty"`
	ClientName          *string `json:"clientName,omitempty"`
	InspectorName       *string `json:"inspectorName,omitempty"`
	PropertyDescription *string `json:"propertyDescription,omitempty"`
	TenantPresent       *bool   `json:"tenantPresent,omitempty"`
	DeclarationAgreed   *bool   `json:"declarationAgreed,omitempty"`
}

func UpdateFields(p FieldPatch) Mutation {
	return func(inv *Inventory) error {
		setIf(&inv.Address, p.Address)
		setIf(&inv.ClientName, p.ClientName)
		setIf(&inv.InspectorName, p.InspectorName)
		setIf(&inv.PropertyDescription, p.PropertyDescription)
		setIf(&inv.TenantPresent, p.TenantPresent)
		setIf(&inv.DeclarationAgreed, p.DeclarationAgreed)
		return nil
	}
}

// SetFrontImage replaces the property's cover photo.
func SetFrontImage(image []byte) Mutation {
	return func(inv *Inventory) error {
		if len(image) == 0 {
			return fmt.Errorf("front image is empty: %w", ErrValidation)
		}
		inv.FrontImage = cloneBytes(image)
		return nil
	}
}

type checkAnswer struct {
	Answer Answer `validate:"answer"`
}

// AnswerCheck records a checklist answer. A nil comment keeps the existing one.
func AnswerCheck(checkID string, answer Answer, comment *string) Mutation {
	return func(inv *Inventory) error {
		if err := validateStruct(checkAnswer{Answer: answer}); err != nil {
			return err
		}
		for c := range inv.HealthSafetyChecks {
			check := &inv.HealthSafetyChecks[c]
			if check.ID != checkID {
				continue
			}
			check.Answer = answer
			setIf(&check.Comment, comment)
			return nil
		}
		return fmt.Errorf("check %q: %w", checkID, ErrNotFound)
	}
}

// ItemPatch carries item edits. Nil fields are left unchanged.
type ItemPatch struct {
	Condition     *Condition   `json:"condition,omitempty" validate:"omitempty,condition"`
	Cleanliness   *Cleanliness `json:"cleanliness,omitempty" validate:"omitempty,cleanliness"`
	Description   *string      `json:"description,omitempty"`
	Make          *string      `json:"make,omitempty"`
	Model         *string      `json:"model,omitempty"`
	SerialNumber  *string      `json:"serialNumber,omitempty"`
	WorkingStatus *string      `json:"workingStatus,omitempty"`
	MeterType     *MeterType   `json:"meterType,omitempty" validate:"omitempty,metertype"`
	Supplier      *string      `json:"supplier,omitempty"`
}

func UpdateItem(roomID, itemID string, p ItemPatch) Mutation {
	return func(inv *Inventory) error {
		if err := validateStruct(p); err != nil {
			return err
		}
		_, item, err := inv.Item(roomID, itemID)
		if err != nil {
			return err
		}
		setIf(&item.Condition, p.Condition)
		setIf(&item.Cleanliness, p.Cleanliness)
		setIf(&item.Description, p.Description)
		setIf(&item.Make, p.Make)
		setIf(&item.Model, p.Model)
		setIf(&item.SerialNumber, p.SerialNumber)
		setIf(&item.WorkingStatus, p.WorkingStatus)
		setIf(&item.MeterType, p.MeterType)
		setIf(&item.Supplier, p.Supplier)
		return nil
	}
}

// AppendPhoto adds photo to the end of the item's photo list. The room and
// item references on the photo are overwritten with its actual owner.
func AppendPhoto(roomID, itemID string, photo Photo) Mutation {
	return func(inv *Inventory) error {
		if photo.ID == "" || len(photo.Image) == 0 {
			return fmt.Errorf("photo has no id or image: %w", ErrValidation)
		}
		if _, err := inv.Photo(photo.ID); err == nil {
			return fmt.Errorf("photo %q already attached: %w", photo.ID, ErrValidation)
		}
		room, item, err := inv.Item(roomID, itemID)
		if err != nil {
			return err
		}
		photo.Image = cloneBytes(photo.Image)
		photo.Timestamp = Normalize(photo.Timestamp)
		photo.RoomRef = room.ID
		photo.ItemRef = item.ID
		item.Photos = append(item.Photos, photo)
		return nil
	}
}

// RemovePhoto deletes a photo from its item, keeping the order of the rest.
func RemovePhoto(roomID, itemID, photoID string) Mutation {
	return func(inv *Inventory) error {
		_, item, err := inv.Item(roomID, itemID)
		if err != nil {
			return err
		}
		for p := range item.Photos {
			if item.Photos[p].ID == photoID {
				item.Photos = append(item.Photos[:p], item.Photos[p+1:]...)
				return nil
			}
		}
		return fmt.Errorf("photo %q on item %q: %w", photoID, itemID, ErrNotFound)
	}
}

// UploadDocument stores a file against a required document, replacing any
// earlier upload.
func UploadDocument(docID string, data []byte, at time.Time) Mutation {
	return func(inv *Inventory) error {
		if len(data) == 0 {
			return fmt.Errorf("document file is empty: %w", ErrValidation)
		}
		for d := range inv.Documents {
			doc := &inv.Documents[d]
			if doc.ID != docID {
				continue
			}
			uploaded := Normalize(at)
			doc.FileData = cloneBytes(data)
			doc.UploadDate = &uploaded
			return nil
		}
		return fmt.Errorf("document %q: %w", docID, ErrNotFound)
	}
}

type signatureInput struct {
	Name string     `validate:"required"`
	Type SignerType `validate:"signer"`
	Data []byte     `validate:"required,min=1"`
}

// AddSignature appends a signature. Existing signatures are never touched.
func AddSignature(sig SignatureEntry) Mutation {
	return func(inv *Inventory) error {
		sig.Name = strings.TrimSpace(sig.Name)
		if err := validateStruct(signatureInput{Name: sig.Name, Type: sig.Type, Data: sig.Data}); err != nil {
			return err
		}
		if sig.ID == "" {
			return fmt.Errorf("signature has no id: %w", ErrValidation)
		}
		sig.Data = cloneBytes(sig.Data)
		sig.Date = Normalize(sig.Date)
		inv.Signatures = append(inv.Signatures, sig)
		return nil
	}
}

// Lock finalises the inventory. It needs at least one signature and the
// agreed declaration; there is no way back to DRAFT.
func Lock() Mutation {
	return func(inv *Inventory) error {
		if len(inv.Signatures) == 0 {
			return fmt.Errorf("lock requires at least one signature: %w", ErrPrecondition)
		}
		if !inv.DeclarationAgreed {
			return fmt.Errorf("lock requires the declaration to be agreed: %w", ErrPrecondition)
		}
		inv.Status = StatusLocked
		return nil
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
