package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// codePrefixes maps a workflow type to the prefix of its human-readable code.
var codePrefixes = map[string]string{
	TypeRequisition:  "EDB",
	TypeVoucher:      "CDV",
	TypeMissionOrder: "ODM",
}

// GenerateCode builds the human-readable reference for a new record,
// e.g. "EDB-20240521A3F9". Codes are unique and immutable after creation.
func GenerateCode(workflowType string, now time.Time) string {
	prefix, ok := codePrefixes[workflowType]
	if !ok {
		prefix = "REF"
	}

	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:4]
	return fmt.Sprintf("%s-%s%s", prefix, now.Format("20060102"), suffix)
}
