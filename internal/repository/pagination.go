package repository

import "gorm.io/gorm"

const maxListPageSize = 100

// applyPagination 应用分页参数。
// 页码与页大小在 handler 层已归一化，这里再兜一层避免直连调用打穿
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	if pageSize > maxListPageSize {
		pageSize = maxListPageSize
	}
	if page < 1 {
		page = 1
	}
	return query.Limit(pageSize).Offset((page - 1) * pageSize)
}
