package migrations

import "embed"

// Files 内嵌动作记录表的迁移脚本，MySQLStore 按文件名顺序执行。
//
//go:embed *.sql
var Files embed.FS
