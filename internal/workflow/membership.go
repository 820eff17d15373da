package workflow

import (
	"fmt"
	"strings"

	appErrors "github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/errors"
)

// ValidateMembers checks the complete team that would result from replacing
// the ANGGOTA list with memberIDs. limit is the scheme's batas_anggota and
// counts the chair. The trimmed member list is returned on success.
func ValidateMembers(chairID string, memberIDs []string, limit int) ([]string, error) {
	fields := make(map[string]string)
	seen := make(map[string]int, len(memberIDs))
	cleaned := make([]string, 0, len(memberIDs))

	for i, raw := range memberIDs {
		id := strings.TrimSpace(raw)
		key := fmt.Sprintf("members[%d]", i)
		switch {
		case id == "":
			fields[key] = "member id is required"
		case id == chairID:
			fields[key] = "chair is already on the team and cannot be listed as ANGGOTA"
		default:
			if first, dup := seen[id]; dup {
				fields[key] = fmt.Sprintf("duplicate of members[%d]", first)
				continue
			}
			seen[id] = i
			cleaned = append(cleaned, id)
		}
	}

	if limit > 0 && 1+len(memberIDs) > limit {
		fields["members"] = fmt.Sprintf("team size %d exceeds scheme limit of %d including the chair", 1+len(memberIDs), limit)
	}

	if len(fields) > 0 {
		return nil, appErrors.WithFields(appErrors.ErrValidation, "invalid team composition", fields)
	}
	return cleaned, nil
}
