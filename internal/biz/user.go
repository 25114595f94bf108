package biz

import (
	"slices"

	"github.com/samber/lo"
)

// MoveState 移动状态, 时间为毫秒时间戳
type MoveState struct {
	FromX     float32
	FromY     float32
	ToX       float32
	ToY       float32
	StartTime int64
}

// User 在场用户, 只在 loop 中读写
type User struct {
	UserID     int64
	UserName   string
	HeroAvatar string
	CurrHp     int32
	Move       MoveState
}

func (u *User) Dead() bool {
	return u.CurrHp <= 0
}

// UserManager 在场用户表, 只在 loop 中访问, 不加锁
type UserManager struct {
	users map[int64]*User
}

func NewUserManager() *UserManager {
	return &UserManager{users: make(map[int64]*User)}
}

// Add 已存在时不覆盖, 返回是否新增
func (m *UserManager) Add(u *User) bool {
	if u == nil {
		return false
	}
	if _, ok := m.users[u.UserID]; ok {
		return false
	}
	m.users[u.UserID] = u
	return true
}

func (m *UserManager) Remove(userID int64) *User {
	u, ok := m.users[userID]
	if !ok {
		return nil
	}
	delete(m.users, userID)
	return u
}

func (m *UserManager) Get(userID int64) *User {
	return m.users[userID]
}

func (m *UserManager) Len() int {
	return len(m.users)
}

// List 按用户ID排序
func (m *UserManager) List() []*User {
	list := lo.Values(m.users)
	slices.SortFunc(list, func(a, b *User) int {
		switch {
		case a.UserID < b.UserID:
			return -1
		case a.UserID > b.UserID:
			return 1
		}
		return 0
	})
	return list
}
