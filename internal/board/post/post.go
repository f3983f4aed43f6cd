// Copyright (c) 2026 Perdidos y Adopciones. All rights reserved.

/*
Package post implements the pet publication board: lost, found and
adoption posts with type-dependent fields, a public paginated feed and
owner-scoped management.
*/
package post

import (
	"strings"
	"time"
)

// Post types. The type decides which conditional fields apply and which
// default status a new post gets.
const (
	TypeLost     = "PERDIDO"
	TypeFound    = "ENCONTRADO"
	TypeAdoption = "ADOPCION"
)

// Well-known statuses. StatusInactive hides a post from every public
// surface; the rest are display states chosen by the owner.
const (
	StatusWanted        = "SE BUSCA"
	StatusSearchingHome = "BUSCANDO A SU FAMILIA"
	StatusForAdoption   = "EN BUSCA DE UN HOGAR"
	StatusInactive      = "INACTIVO"
)

// DefaultStatus returns the status a freshly created post of the given
// type starts in, or "" for an unknown type.
func DefaultStatus(postType string) string {
	switch postType {
	case TypeLost:
		return StatusWanted
	case TypeFound:
		return StatusSearchingHome
	case TypeAdoption:
		return StatusForAdoption
	}
	return ""
}

// Post is one board publication.
//
// Place and EventDate only apply to lost/found posts; Affinity,
// AnimalAffinity, Energy and Neutered only to adoption posts. Updates
// strip whichever group does not match the post's type.
type Post struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Status     string `json:"status"`
	AnimalName string `json:"animal_name"`
	Species    string `json:"species"`
	Breed      string `json:"breed"`
	Sex        string `json:"sex"`
	Size       string `json:"size"`
	Color      string `json:"color"`
	Age        string `json:"age"`
	Details    string `json:"details,omitempty"`

	// WhatsApp keeps its original formatting; it is a contact handle, not
	// display text.
	WhatsApp string `json:"whatsapp,omitempty"`
	Image    string `json:"img,omitempty"`

	// Lost/found only. EventDate stays a display string supplied by the
	// frontend date picker.
	Place     string `json:"place,omitempty"`
	EventDate string `json:"event_date,omitempty"`

	// Adoption only.
	Affinity       string `json:"affinity,omitempty"`
	AnimalAffinity string `json:"animal_affinity,omitempty"`
	Energy         string `json:"energy,omitempty"`
	Neutered       *bool  `json:"neutered,omitempty"`

	OwnerID   string    `json:"owner_id"`
	OwnerName string    `json:"owner_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAdoption reports whether the post is an adoption publication.
func (post *Post) IsAdoption() bool {
	return post.Type == TypeAdoption
}

// Normalize trims and uppercases display text so filtering and search are
// case-insensitive. WhatsApp keeps its original formatting and the image
// reference is lowercased.
func Normalize(text string) string {
	return strings.ToUpper(strings.TrimSpace(text))
}

// normalizeFields applies the display-text normalization to every field of
// the post that carries display text.
func (post *Post) normalizeFields() {
	post.Type = Normalize(post.Type)
	post.Status = Normalize(post.Status)
	post.AnimalName = Normalize(post.AnimalName)
	post.Species = Normalize(post.Species)
	post.Breed = Normalize(post.Breed)
	post.Sex = Normalize(post.Sex)
	post.Size = Normalize(post.Size)
	post.Color = Normalize(post.Color)
	post.Age = Normalize(post.Age)
	post.Details = Normalize(post.Details)
	post.Place = Normalize(post.Place)
	post.Affinity = Normalize(post.Affinity)
	post.AnimalAffinity = Normalize(post.AnimalAffinity)
	post.Energy = Normalize(post.Energy)
	post.Image = strings.ToLower(strings.TrimSpace(post.Image))
}

// stripMismatchedFields clears the conditional field group that does not
// belong to the post's type.
func (post *Post) stripMismatchedFields() {
	if post.IsAdoption() {
		post.Place = ""
		post.EventDate = ""
		return
	}
	post.Affinity = ""
	post.AnimalAffinity = ""
	post.Energy = ""
	post.Neutered = nil
}
