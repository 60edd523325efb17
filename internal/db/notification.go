package db

import "gorm.io/gorm"

// Notification 是针对单个接收者的一条通知。
// 广播时每个接收者各落一行；已读状态通过 ReadBy 集合并集维护，
// 在两人规模下足够，不做独立的已读关联表。
type Notification struct {
	gorm.Model
	Type      string
	Message   string
	Author    string
	Recipient string   `gorm:"index"`
	Link      string
	ReadBy    []string `gorm:"serializer:json"`
}

// ReadByUser 判断指定用户是否已读（大小写不敏感）
func (n *Notification) ReadByUser(username string) bool {
	for _, name := range n.ReadBy {
		if EqualName(name, username) {
			return true
		}
	}
	return false
}
