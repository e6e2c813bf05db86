// Package types provides type definitions for structured data used throughout the resume hub.
package types

import (
	"strings"
)

// Section names as sent by the editor. Header sections feed the rendered
// header; every other section is a body section.
const (
	SectionName           = "name"
	SectionContact        = "contact"
	SectionAboutMe        = "aboutMe"
	SectionEducation      = "education"
	SectionExperience     = "experience"
	SectionSkills         = "skills"
	SectionCustomSections = "customSections"
)

// Name holds the candidate's name
type Name struct {
	FirstName string `json:"firstName" validate:"required,max=50"`
	LastName  string `json:"lastName" validate:"required,max=50"`
}

// AboutMe is the free-text summary at the top of the body
type AboutMe struct {
	Description         string `json:"description" validate:"max=500"`
	PolishedDescription string `json:"polishedDescription,omitempty" validate:"max=500"`
}

// Contact is a single contact line (email, phone, linkedin, ...)
type Contact struct {
	ID    string `json:"id" validate:"required"`
	Type  string `json:"type" validate:"required,min=1,max=20"`
	Value string `json:"value" validate:"required,min=1,max=100"`
}

// Education is one education entry
type Education struct {
	ID                  string `json:"id" validate:"required"`
	Degree              string `json:"degree" validate:"required,min=1,max=100"`
	Institution         string `json:"institution" validate:"required,min=1,max=100"`
	StartDate           string `json:"startDate" validate:"required,yearmonth"`
	EndDate             string `json:"endDate" validate:"omitempty,yearmonth"`
	Description         string `json:"description" validate:"max=500"`
	PolishedDescription string `json:"polishedDescription,omitempty" validate:"max=500"`
}

// Experience is one work experience entry
type Experience struct {
	ID                  string   `json:"id" validate:"required"`
	Title               string   `json:"title" validate:"required,min=1,max=100"`
	Company             string   `json:"company" validate:"required,min=1,max=100"`
	StartDate           string   `json:"startDate" validate:"required,yearmonth"`
	EndDate             string   `json:"endDate" validate:"omitempty,yearmonth"`
	Description         string   `json:"description" validate:"max=1000"`
	Keywords            []string `json:"keywords,omitempty"`
	PolishedDescription string   `json:"polishedDescription,omitempty" validate:"max=1000"`
}

// Skill is a single skill entry
type Skill struct {
	ID    string `json:"id" validate:"required"`
	Skill string `json:"skill" validate:"required,min=1,max=50"`
}

// CustomSection is a user-defined titled block
type CustomSection struct {
	ID      string `json:"id" validate:"required"`
	Title   string `json:"title" validate:"required,min=1,max=100"`
	Content string `json:"content" validate:"max=1000"`
}

// ResumeData is the complete resume as supplied by the editor on every request.
// List entries carry stable IDs used to correlate add/update/delete operations.
type ResumeData struct {
	Name           Name            `json:"name"`
	AboutMe        AboutMe         `json:"aboutMe"`
	Contact        []Contact       `json:"contact" validate:"dive"`
	Education      []Education     `json:"education" validate:"dive"`
	Experience     []Experience    `json:"experience" validate:"dive"`
	Skills         []Skill         `json:"skills" validate:"dive"`
	CustomSections []CustomSection `json:"customSections" validate:"dive"`
}

// FullName joins first and last name, trimming missing parts
func (d *ResumeData) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(d.Name.FirstName) + " " + strings.TrimSpace(d.Name.LastName))
}

// Summary returns the polished about-me text when present, the raw one otherwise
func (a AboutMe) Summary() string {
	if strings.TrimSpace(a.PolishedDescription) != "" {
		return a.PolishedDescription
	}
	return a.Description
}

// Text returns the polished description when present, the raw one otherwise
func (e Education) Text() string {
	if strings.TrimSpace(e.PolishedDescription) != "" {
		return e.PolishedDescription
	}
	return e.Description
}

// Text returns the polished description when present, the raw one otherwise
func (e Experience) Text() string {
	if strings.TrimSpace(e.PolishedDescription) != "" {
		return e.PolishedDescription
	}
	return e.Description
}

// HasContent reports whether the named body section has anything to render.
func (d *ResumeData) HasContent(section string) bool {
	switch section {
	case SectionName:
		return d.FullName() != ""
	case SectionContact:
		return len(d.Contact) > 0
	case SectionAboutMe:
		return strings.TrimSpace(d.AboutMe.Summary()) != ""
	case SectionEducation:
		return len(d.Education) > 0
	case SectionExperience:
		return len(d.Experience) > 0
	case SectionSkills:
		return len(d.Skills) > 0
	case SectionCustomSections:
		return len(d.CustomSections) > 0
	default:
		return false
	}
}

// IsHeaderSection reports whether a section name is rendered into the header
func IsHeaderSection(section string) bool {
	return section == SectionName || section == SectionContact
}

// IsKnownSection reports whether a section name is recognized
func IsKnownSection(section string) bool {
	switch section {
	case SectionName, SectionContact, SectionAboutMe, SectionEducation,
		SectionExperience, SectionSkills, SectionCustomSections:
		return true
	}
	return false
}

// BodySections lists the body sections in the order they appear in a document
var BodySections = []string{
	SectionAboutMe,
	SectionEducation,
	SectionExperience,
	SectionSkills,
	SectionCustomSections,
}
