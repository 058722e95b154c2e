// Package journal 记录各组件的每一次动作。
//
// 记录写入 Store（内存或 MySQL），并可选地通过队列（内存、Redis、RabbitMQ）
// 把记录 ID 投递给 Dispatcher，由其写审计日志并累计指标。
package journal
