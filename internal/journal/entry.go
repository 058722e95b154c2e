package journal

import (
	"encoding/json"

	xerrors "AssetGrid-Chain/internal/errors"
)

// Entry 是一条组件动作记录。
type Entry struct {
	ID        string          `json:"id"`
	Component string          `json:"component"`
	Action    string          `json:"action"`
	RefID     string          `json:"ref_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt int64           `json:"created_at"`
}

const (
	CodeEntryNotFound xerrors.Code = "JOURNAL_NOT_FOUND"
	CodeEntryConflict xerrors.Code = "JOURNAL_CONFLICT"
	CodeEncodeFailed  xerrors.Code = "JOURNAL_ENCODE_FAILED"
	CodePublishFailed xerrors.Code = "JOURNAL_PUBLISH_FAILED"
)

var (
	// ErrEntryNotFound 表示指定的记录不存在。
	ErrEntryNotFound = xerrors.New(CodeEntryNotFound, "journal entry not found")
	// ErrEntryConflict 表示记录 ID 已存在。
	ErrEntryConflict = xerrors.New(CodeEntryConflict, "journal entry already exists", xerrors.WithSeverity(xerrors.SeverityWarning))
)

func init() {
	xerrors.Register(CodeEntryNotFound, xerrors.Attributes{
		Message:  "journal entry not found",
		Severity: xerrors.SeverityInfo,
	})
	xerrors.Register(CodeEntryConflict, xerrors.Attributes{
		Message:  "journal entry already exists",
		Severity: xerrors.SeverityWarning,
	})
	xerrors.Register(CodeEncodeFailed, xerrors.Attributes{
		Message:  "failed to encode journal payload",
		Severity: xerrors.SeverityWarning,
	})
	xerrors.Register(CodePublishFailed, xerrors.Attributes{
		Message:   "failed to publish journal entry",
		Severity:  xerrors.SeverityCritical,
		Retryable: true,
		Alert:     true,
	})
}

func cloneEntry(entry *Entry) *Entry {
	clone := *entry
	if entry.Payload != nil {
		clone.Payload = append(json.RawMessage(nil), entry.Payload...)
	}
	return &clone
}
