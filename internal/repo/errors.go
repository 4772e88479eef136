package repo

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	// ErrDuplicate 唯一索引冲突（邮箱、分类名）
	ErrDuplicate = errors.New("duplicate entry")
	// ErrNotFound 更新或删除的目标记录不存在；查询类方法以 (nil, nil) 表示不存在
	ErrNotFound = errors.New("record not found")
	// ErrReference 外键引用的记录不存在
	ErrReference = errors.New("referenced record not found")
)

const (
	mysqlErrDupEntry     = 1062
	mysqlErrNoReferenced = 1452
)

// translate 将驱动错误转换为仓储层的哨兵错误，其余错误原样返回
func translate(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case mysqlErrDupEntry:
			return ErrDuplicate
		case mysqlErrNoReferenced:
			return ErrReference
		}
	}
	return err
}
