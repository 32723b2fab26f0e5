package domain

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrInvalidCVSource indicates a CV source that names neither or both of a
// file and an existing CV.
var ErrInvalidCVSource = errors.New("exactly one of a CV file or a CV id is required")

// ErrInvalidApplication indicates an application or match request that is
// missing required fields.
var ErrInvalidApplication = errors.New("invalid application")

// CVSource is the CV sent with an application or match: either an uploaded
// file or a CV already stored on the backend.
type CVSource struct {
	FileName string
	File     io.Reader
	CVID     string
}

// CVFile returns a source that uploads content under name.
func CVFile(name string, content io.Reader) CVSource {
	return CVSource{FileName: name, File: content}
}

// ExistingCV returns a source referring to a stored CV.
func ExistingCV(id string) CVSource {
	return CVSource{CVID: id}
}

// IsFile reports whether the source uploads a file.
func (s CVSource) IsFile() bool {
	return s.File != nil
}

func (s CVSource) Validate() error {
	hasFile := s.File != nil
	hasID := strings.TrimSpace(s.CVID) != ""
	if hasFile == hasID {
		return ErrInvalidCVSource
	}
	if hasFile && strings.TrimSpace(s.FileName) == "" {
		return fmt.Errorf("%w: file name is required", ErrInvalidCVSource)
	}
	return nil
}

// Application is a request to apply to a job.
type Application struct {
	JobID       string
	CV          CVSource
	CoverLetter string
}

func (a Application) Validate() error {
	if strings.TrimSpace(a.JobID) == "" {
		return fmt.Errorf("%w: job id is required", ErrInvalidApplication)
	}
	return a.CV.Validate()
}

// MatchRequest asks the backend to score a CV against a job.
type MatchRequest struct {
	JobID string
	CV    CVSource
}

func (r MatchRequest) Validate() error {
	if strings.TrimSpace(r.JobID) == "" {
		return fmt.Errorf("%w: job id is required", ErrInvalidApplication)
	}
	return r.CV.Validate()
}

// ApplicationReceipt is the backend's acknowledgement of an application.
type ApplicationReceipt struct {
	ApplicationID int64  `json:"applicationId,omitempty"`
	Status        string `json:"status,omitempty"`
	Message       string `json:"message,omitempty"`
}
