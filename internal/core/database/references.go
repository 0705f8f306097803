package database

import (
	"fmt"

	"gorm.io/gorm"
)

// Reference is a nullable foreign key column pointing at a reference row.
// Versioned marks tables with an optimistic concurrency column, which is
// bumped whenever a reference in them is cleared.
type Reference struct {
	Table     string
	Column    string
	Versioned bool
}

// ReferenceInUseError reports that a row is still referenced and the caller
// did not ask for a forced delete.
type ReferenceInUseError struct {
	References int64
}

func (e *ReferenceInUseError) Error() string {
	return fmt.Sprintf("row is referenced %d time(s)", e.References)
}

// CountReferences counts rows across refs pointing at id.
func CountReferences(tx *gorm.DB, id int64, refs ...Reference) (int64, error) {
	var total int64
	for _, ref := range refs {
		var n int64
		if err := tx.Table(ref.Table).Where(ref.Column+" = ?", id).Count(&n).Error; err != nil {
			return 0, fmt.Errorf("count %s.%s: %w", ref.Table, ref.Column, err)
		}
		total += n
	}
	return total, nil
}

// ClearReferences sets every column in refs that points at id to NULL and
// returns the number of rows touched.
func ClearReferences(tx *gorm.DB, id int64, refs ...Reference) (int64, error) {
	var total int64
	for _, ref := range refs {
		values := map[string]interface{}{ref.Column: nil}
		if ref.Versioned {
			values["version"] = gorm.Expr("version + 1")
		}
		res := tx.Table(ref.Table).Where(ref.Column+" = ?", id).UpdateColumns(values)
		if res.Error != nil {
			return 0, fmt.Errorf("clear %s.%s: %w", ref.Table, ref.Column, res.Error)
		}
		total += res.RowsAffected
	}
	return total, nil
}

// DeleteReferenced removes the row of model with id inside one transaction.
// When the row is referenced it fails with ReferenceInUseError unless force is
// set, in which case the references are cleared first. It returns
// gorm.ErrRecordNotFound when the row does not exist.
func DeleteReferenced(tx *gorm.DB, model interface{}, id int64, force bool, refs ...Reference) (int64, error) {
	var exists int64
	if err := tx.Model(model).Where("id = ?", id).Count(&exists).Error; err != nil {
		return 0, err
	}
	if exists == 0 {
		return 0, gorm.ErrRecordNotFound
	}

	n, err := CountReferences(tx, id, refs...)
	if err != nil {
		return 0, err
	}

	var cleared int64
	if n > 0 {
		if !force {
			return 0, &ReferenceInUseError{References: n}
		}
		if cleared, err = ClearReferences(tx, id, refs...); err != nil {
			return 0, err
		}
	}

	if err := tx.Where("id = ?", id).Delete(model).Error; err != nil {
		return 0, err
	}
	return cleared, nil
}
