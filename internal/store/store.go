// Package store persists scanned contacts behind a backend-agnostic
// interface with SQLite and Postgres implementations.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/cardfolio/cardscan-cli/internal/model"
)

// ContactFilter narrows ListContacts. Zero values mean "no constraint".
type ContactFilter struct {
	Tag             string                `json:"tag,omitempty"`
	Category        model.ContactCategory `json:"category,omitempty"`
	Industry        string                `json:"industry,omitempty"`
	CompanySize     model.CompanySize     `json:"company_size,omitempty"`
	Country         string                `json:"country,omitempty"`
	City            string                `json:"city,omitempty"`
	CompetitorsOnly bool                  `json:"competitors_only,omitempty"`
	Limit           int                   `json:"limit,omitempty"`
	Offset          int                   `json:"offset,omitempty"`
}

// Store defines contact persistence. Implementations return contacts
// newest-first from ListContacts and SearchContacts.
type Store interface {
	// AddContact persists a contact, assigning its ID and timestamps when
	// unset.
	AddContact(ctx context.Context, contact *model.Contact) error
	GetContact(ctx context.Context, id string) (*model.Contact, error)
	ListContacts(ctx context.Context, filter ContactFilter) ([]model.Contact, error)
	// UpdateContact replaces the stored contact and bumps UpdatedAt.
	UpdateContact(ctx context.Context, contact *model.Contact) error
	DeleteContact(ctx context.Context, id string) error
	// SearchContacts matches query case-insensitively against name, company,
	// email, phone, industry, and tags.
	SearchContacts(ctx context.Context, query string, limit int) ([]model.Contact, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// AddTag appends tag to the contact's tag set and saves it. Adding an
// existing tag is a no-op.
func AddTag(ctx context.Context, s Store, id, tag string) (*model.Contact, error) {
	contact, err := s.GetContact(ctx, id)
	if err != nil {
		return nil, err
	}
	if contact.HasTag(tag) {
		return contact, nil
	}
	contact.Tags = append(contact.Tags, tag)
	if err := s.UpdateContact(ctx, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

// RemoveTag removes tag from the contact's tag set and saves it.
func RemoveTag(ctx context.Context, s Store, id, tag string) (*model.Contact, error) {
	contact, err := s.GetContact(ctx, id)
	if err != nil {
		return nil, err
	}
	if !contact.HasTag(tag) {
		return nil, eris.Errorf("store: contact %s has no tag %q", id, tag)
	}
	tags := make([]string, 0, len(contact.Tags)-1)
	for _, t := range contact.Tags {
		if t != tag {
			tags = append(tags, t)
		}
	}
	contact.Tags = tags
	if err := s.UpdateContact(ctx, contact); err != nil {
		return nil, err
	}
	return contact, nil
}
