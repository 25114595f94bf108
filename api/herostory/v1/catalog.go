package v1

import (
	"github.com/yola1107/herostory/library/codec"
)

// MsgCode 消息编号
const (
	MsgCodeUserEntryCmd         uint16 = 0
	MsgCodeUserEntryResult      uint16 = 1
	MsgCodeWhoElseIsHereCmd     uint16 = 2
	MsgCodeWhoElseIsHereResult  uint16 = 3
	MsgCodeUserMoveToCmd        uint16 = 4
	MsgCodeUserMoveToResult     uint16 = 5
	MsgCodeUserQuitResult       uint16 = 6
	MsgCodeUserStopCmd          uint16 = 7
	MsgCodeUserStopResult       uint16 = 8
	MsgCodeUserAttkCmd          uint16 = 9
	MsgCodeUserAttkResult       uint16 = 10
	MsgCodeUserSubtractHpResult uint16 = 11
	MsgCodeUserDieResult        uint16 = 12
	MsgCodeUserLoginCmd         uint16 = 13
	MsgCodeUserLoginResult      uint16 = 14
	MsgCodeGetRankCmd           uint16 = 17
	MsgCodeGetRankResult        uint16 = 18
)

func entry[M any, PM interface {
	*M
	codec.Message
}](code uint16) codec.Descriptor {
	return codec.Descriptor{
		Code: code,
		Name: PM(new(M)).MsgName(),
		New:  func() codec.Message { return PM(new(M)) },
	}
}

// Catalog 全部消息的静态目录
func Catalog() []codec.Descriptor {
	return []codec.Descriptor{
		entry[UserEntryCmd](MsgCodeUserEntryCmd),
		entry[UserEntryResult](MsgCodeUserEntryResult),
		entry[WhoElseIsHereCmd](MsgCodeWhoElseIsHereCmd),
		entry[WhoElseIsHereResult](MsgCodeWhoElseIsHereResult),
		entry[UserMoveToCmd](MsgCodeUserMoveToCmd),
		entry[UserMoveToResult](MsgCodeUserMoveToResult),
		entry[UserQuitResult](MsgCodeUserQuitResult),
		entry[UserStopCmd](MsgCodeUserStopCmd),
		entry[UserStopResult](MsgCodeUserStopResult),
		entry[UserAttkCmd](MsgCodeUserAttkCmd),
		entry[UserAttkResult](MsgCodeUserAttkResult),
		entry[UserSubtractHpResult](MsgCodeUserSubtractHpResult),
		entry[UserDieResult](MsgCodeUserDieResult),
		entry[UserLoginCmd](MsgCodeUserLoginCmd),
		entry[UserLoginResult](MsgCodeUserLoginResult),
		entry[GetRankCmd](MsgCodeGetRankCmd),
		entry[GetRankResult](MsgCodeGetRankResult),
	}
}

// NewRegistry 以 Catalog 构造注册表
func NewRegistry() (*codec.Registry, error) {
	return codec.NewRegistry(Catalog()...)
}
