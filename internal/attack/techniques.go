package attack

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Technique is one MITRE ATT&CK technique with its precomputed embedding.
// Embeddings are produced by the external embedding pipeline; this package
// only validates and carries them.
type Technique struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Tactics     []string  `json:"tactics"`
	Description string    `json:"description"`
	Vector      []float32 `json:"vector"`
}

type LoadErrorCode string

const (
	LoadErrorReadFailed   LoadErrorCode = "read_failed"
	LoadErrorDecodeFailed LoadErrorCode = "decode_failed"
	LoadErrorEmpty        LoadErrorCode = "empty"
	LoadErrorMissingID    LoadErrorCode = "missing_id"
	LoadErrorEmptyVector  LoadErrorCode = "empty_vector"
	LoadErrorDimMismatch  LoadErrorCode = "dim_mismatch"
)

type LoadError struct {
	Code    LoadErrorCode
	Path    string
	Index   int
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	if e == nil {
		return "attack techniques load failed"
	}
	if e.Message != "" {
		return fmt.Sprintf("attack techniques load failed (path=%s code=%s index=%d): %s", e.Path, e.Code, e.Index, e.Message)
	}
	return fmt.Sprintf("attack techniques load failed (path=%s code=%s index=%d): %v", e.Path, e.Code, e.Index, e.Cause)
}

func (e *LoadError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

/*
LoadTechniques reads an ATT&CK technique export: either a bare JSON array or
a {"techniques": [...]} wrapper (both shapes exist in the wild). Every record
must carry a technique ID and a non-empty vector, and all vectors in one file
must share a dimensionality; anything else is a typed LoadError naming the
offending record.
*/
func LoadTechniques(path string) ([]Technique, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: LoadErrorReadFailed, Path: path, Index: -1, Cause: err}
	}

	var techniques []Technique
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &techniques); err != nil {
			return nil, &LoadError{Code: LoadErrorDecodeFailed, Path: path, Index: -1, Cause: err}
		}
	} else {
		var wrapper struct {
			Techniques []Technique `json:"techniques"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, &LoadError{Code: LoadErrorDecodeFailed, Path: path, Index: -1, Cause: err}
		}
		techniques = wrapper.Techniques
	}

	if len(techniques) == 0 {
		return nil, &LoadError{Code: LoadErrorEmpty, Path: path, Index: -1, Message: "no techniques in export"}
	}

	dim := len(techniques[0].Vector)
	for i := range techniques {
		techniques[i].ID = strings.TrimSpace(techniques[i].ID)
		if techniques[i].ID == "" {
			return nil, &LoadError{Code: LoadErrorMissingID, Path: path, Index: i, Message: "technique id is required"}
		}
		if len(techniques[i].Vector) == 0 {
			return nil, &LoadError{
				Code: LoadErrorEmptyVector, Path: path, Index: i,
				Message: fmt.Sprintf("technique %q has no vector", techniques[i].ID),
			}
		}
		if len(techniques[i].Vector) != dim {
			return nil, &LoadError{
				Code: LoadErrorDimMismatch, Path: path, Index: i,
				Message: fmt.Sprintf("technique %q dimension mismatch: expected=%d got=%d", techniques[i].ID, dim, len(techniques[i].Vector)),
			}
		}
	}
	return techniques, nil
}
