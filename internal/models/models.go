package models

import (
	"time"
)

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Tags attached to FAQs created by the PDF ingestion pipeline.
var PipelineFAQTags = []string{"auto-generated", "pdf-extract"}

// User is a member of at most one organization. Email is the natural key.
type User struct {
	UID            string    `json:"uid"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Role           string    `json:"role"`
	OrganizationID string    `json:"organization_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// Organization is the tenant boundary.
type Organization struct {
	UID         string    `json:"uid"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	AdminID     string    `json:"admin_id"`
	InviteCode  string    `json:"invite_code"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FAQ is one question/answer record of an organization's knowledge base.
type FAQ struct {
	UID            string    `json:"uid"`
	Question       string    `json:"question"`
	Answer         string    `json:"answer"`
	OrganizationID string    `json:"organization_id"`
	Tags           []string  `json:"tags,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Document holds the full extracted text of one uploaded PDF.
type Document struct {
	UID            string    `json:"uid"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	FileURL        string    `json:"file_url"`
	OrganizationID string    `json:"organization_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// FAQPair is a candidate question/answer produced by the model.
type FAQPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Complete reports whether both sides of the pair are non-empty.
func (p FAQPair) Complete() bool {
	return p.Question != "" && p.Answer != ""
}

// Principal is the authenticated caller as supplied by the identity provider.
type Principal struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// DisplayName joins first and last name the way user records store it.
func (p Principal) DisplayName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// Ingestion run statuses.
const (
	IngestionPending        = "pending"
	IngestionDocumentStored = "document_stored"
	IngestionComplete       = "complete"
	IngestionPartial        = "partial"
	IngestionFailed         = "failed"
)

// IngestionRun tracks one upload through the pipeline.
type IngestionRun struct {
	ID             string    `db:"id" json:"id"`
	OrganizationID string    `db:"organization_id" json:"organization_id"`
	DocumentUID    string    `db:"document_uid" json:"document_uid"`
	FileName       string    `db:"file_name" json:"file_name"`
	Status         string    `db:"status" json:"status"`
	FAQsExtracted  int       `db:"faqs_extracted" json:"faqs_extracted"`
	FAQsCreated    int       `db:"faqs_created" json:"faqs_created"`
	FAQsFailed     int       `db:"faqs_failed" json:"faqs_failed"`
	Error          string    `db:"error" json:"error,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
