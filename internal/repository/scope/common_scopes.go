package scope

import "gorm.io/gorm"

// OrderByCreatedAsc lists rows in arrival order.
func OrderByCreatedAsc(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC")
}

// ByCollectionName narrows rows carrying a collection_name column.
func ByCollectionName(name string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("collection_name = ?", name)
	}
}
