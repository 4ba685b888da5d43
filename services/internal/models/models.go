package models

import (
	"strings"

	"github.com/go-faster/errors"
)

// LoadType selects how much of a semester an upload replaces.
type LoadType string

const (
	LoadFull    LoadType = "full"
	LoadPartial LoadType = "partial"
)

// ParseLoadType accepts "full" or "partial" (case-insensitive).
func ParseLoadType(s string) (LoadType, error) {
	switch LoadType(strings.ToLower(strings.TrimSpace(s))) {
	case LoadFull:
		return LoadFull, nil
	case LoadPartial:
		return LoadPartial, nil
	default:
		return "", errors.Errorf("invalid load type %q (want full or partial)", s)
	}
}

// AccessScope marks whether the uploaded schedule is publicly visible.
type AccessScope string

const (
	AccessPublic  AccessScope = "public"
	AccessPrivate AccessScope = "private"
)

// ParseAccessScope accepts "public" or "private" (case-insensitive).
func ParseAccessScope(s string) (AccessScope, error) {
	switch AccessScope(strings.ToLower(strings.TrimSpace(s))) {
	case AccessPublic:
		return AccessPublic, nil
	case AccessPrivate:
		return AccessPrivate, nil
	default:
		return "", errors.Errorf("invalid access scope %q (want public or private)", s)
	}
}

// UploadRequest is the immutable input of one ingestion run.
type UploadRequest struct {
	File        []byte
	FileName    string
	LoadType    LoadType
	Access      AccessScope
	UseBulkFile bool
}

// Instrument is an active instrument from the reference tables.
type Instrument struct {
	ID   int    `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// Operator is an active telescope operator from the reference tables.
type Operator struct {
	ID   int    `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// Program holds proposal metadata for one program of a semester.
type Program struct {
	ProgramID      int    `json:"program_id"`
	Semester       string `json:"semester"`
	PI             string `json:"pi"`
	PIName         string `json:"pi_name"`
	PIEmail        string `json:"pi_email"`
	ProjectMembers string `json:"project_members"`
	OtherInfo      string `json:"other_info"`
}

// ParsedRow is one normalized schedule entry. It is never mutated after
// the normalizer returns it.
type ParsedRow struct {
	Line int

	LogID     int64
	StartTime int64
	EndTime   int64
	ProgramID int
	Semester  string

	RemoteObs        int
	DaytimeObs       int
	FirstTime        int
	FacilityOpen     int
	FacilityClose    int
	InstrumentChange int
	FacilityShutdown int

	SupportAstronomerID string
	ProjectPI           string
	InstrumentCodes     []string
	OperatorCodes       []string
	Comments            string

	ProjectMembers string
	OtherInfo      string
	PIName         string
	PIEmail        string
}

// EngineeringProgram reports whether id falls in the engineering range [900,1000).
func EngineeringProgram(id int) bool {
	return id >= 900 && id < 1000
}
