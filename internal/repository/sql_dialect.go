package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// dbDialectName 获取数据库方言名称，默认按 sqlite 处理。
func dbDialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	name := strings.ToLower(strings.TrimSpace(db.Dialector.Name()))
	if name == "" {
		return "sqlite"
	}
	return name
}

// searchLikeCondition 构建大小写不敏感的模糊匹配条件，兼容 sqlite 与 postgres。
func searchLikeCondition(db *gorm.DB, column string) string {
	return searchLikeConditionByDialect(dbDialectName(db), column)
}

func searchLikeConditionByDialect(dialect, column string) string {
	// sqlite 的 LIKE 对 ASCII 默认不区分大小写，postgres 需要 ILIKE
	return fmt.Sprintf("%s %s ?", column, likeOperatorByDialect(dialect))
}

func likeOperatorByDialect(dialect string) string {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql":
		return "ILIKE"
	default:
		return "LIKE"
	}
}
