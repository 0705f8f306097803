package database

import (
	"fmt"
	"sort"

	userDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/user"
	"gorm.io/gorm"
)

// UnknownPermissionsError lists permission names missing from the permissions table.
type UnknownPermissionsError struct {
	Names []string
}

func (e *UnknownPermissionsError) Error() string {
	return fmt.Sprintf("unknown permissions: %v", e.Names)
}

// NormalizePermissions returns names sorted and de-duplicated.
func NormalizePermissions(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// ResolvePermissionIDs maps permission names to row ids. Every name must exist.
func ResolvePermissionIDs(tx *gorm.DB, names []string) ([]int64, error) {
	names = NormalizePermissions(names)
	if len(names) == 0 {
		return nil, nil
	}

	var rows []userDatamodel.Permission
	if err := tx.Where("name IN ?", names).Find(&rows).Error; err != nil {
		return nil, err
	}

	byName := make(map[string]int64, len(rows))
	for _, r := range rows {
		byName[r.Name] = r.ID
	}

	ids := make([]int64, 0, len(names))
	var missing []string
	for _, n := range names {
		id, ok := byName[n]
		if !ok {
			missing = append(missing, n)
			continue
		}
		ids = append(ids, id)
	}
	if len(missing) > 0 {
		return nil, &UnknownPermissionsError{Names: missing}
	}
	return ids, nil
}
