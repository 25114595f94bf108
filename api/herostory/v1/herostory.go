package v1

import (
	"google.golang.org/protobuf/encoding/protowire"
)

const _package = "herostory.v1."

// UserEntryCmd 用户入场
type UserEntryCmd struct {
	UserID     uint32
	HeroAvatar string
}

func (m *UserEntryCmd) MsgName() string { return _package + "UserEntryCmd" }

func (m *UserEntryCmd) Marshal() ([]byte, error) {
	e := encoder{}
	e.uint32(1, m.UserID)
	e.string(2, m.HeroAvatar)
	return e.b, nil
}

func (m *UserEntryCmd) Unmarshal(b []byte) error {
	*m = UserEntryCmd{}
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeUint32(typ, b, &m.UserID)
		case 2:
			return consumeString(typ, b, &m.HeroAvatar)
		}
		return 0, nil
	})
}

// UserEntryResult 用户入场结果, 广播
type UserEntryResult struct {
	UserID     uint32
	UserName   string
	HeroAvatar string
}

func (m *UserEntryResult) MsgName() string { return _package + "UserEntryResult" }

func (m *UserEntryResult) Marshal() ([]byte, error) {
	e := encoder{}
	e.uint32(1, m.UserID)
	e.string(2, m.UserName)
	e.string(3, m.HeroAvatar)
	return e.b, nil
}

func (m *UserEntryResult) Unmarshal(b []byte) error {
	*m = UserEntryResult{}
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeUint32(typ, b, &m.UserID)
		case 2:
			return consumeString(typ, b, &m.UserName)
		case 3:
			return consumeString(typ, b, &m.HeroAvatar)
		}
		return 0, nil
	})
}

// WhoElseIsHereCmd 还有谁在场
type WhoElseIsHereCmd struct{}

func (m *WhoElseIsHereCmd) MsgName() string          { return _package + "WhoElseIsHereCmd" }
func (m *WhoElseIsHereCmd) Marshal() ([]byte, error) { return nil, nil }
func (m *WhoElseIsHereCmd) Unmarshal(b []byte) error { return decode(b, skipAll) }

// MoveState 移动状态
type MoveState struct {
	FromPosX  float32
	FromPosY  float32
	ToPosX    float32
	ToPosY    float32
	StartTime uint64
}

func (m *MoveState) Marshal() ([]byte, error) {
	e := encoder{}
	e.float(1, m.FromPosX)
	e.float(2, m.FromPosY)
	e.float(3, m.ToPosX)
	e.float(4, m.ToPosY)
	e.uint64(5, m.StartTime)
	return e.b, nil
}

func (m *MoveState) Unmarshal(b []byte) error {
	*m = MoveState{}
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeFloat(typ, b, &m.FromPosX)
		case 2:
			return consumeFloat(typ, b, &m.FromPosY)
		case 3:
			return consumeFloat(typ, b, &m.ToPosX)
		case 4:
			return consumeFloat(typ, b, &m.ToPosY)
		case 5:
			return consumeUint64(typ, b, &m.StartTime)
		}
		return 0, nil
	})
}

// UserInfo 在场用户信息
type UserInfo struct {
	UserID     uint32
	UserName   string
	HeroAvatar string
	MoveState  *MoveState
}

func (m *UserInfo) Marshal() ([]byte, error) {
	e := encoder{}
	e.uint32(1, m.UserID)
	e.string(2, m.UserName)
	e.string(3, m.HeroAvatar)
	if m.MoveState != nil {
		if err := e.message(4, m.MoveState); err != nil {
			return nil, err
		}
	}
	return e.b, nil
}

func (m *UserInfo) Unmarshal(b []byte) error {
	*m = UserInfo{}
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeUint32(typ, b, &m.UserID)
		case 2:
			return consumeString(typ, b, &m.UserName)
		case 3:
			return consumeString(typ, b, &m.HeroAvatar)
		case 4:
			m.MoveState = &MoveState{}
			return consumeMessage(typ, b, m.MoveState)
		}
		return 0, nil
	})
}

// WhoElseIsHereResult 在场用户列表
type WhoElseIsHereResult struct {
	UserInfo []*UserInfo
}

func (m *WhoElseIsHereResult) MsgName() string { return _package + "WhoElseIsHereResult" }

func (m *WhoElseIsHereResult) Marshal() ([]byte, error) {
	e := encoder{}
	for _, u := range m.UserInfo {
		if err := e.message(1, u); err != nil {
			return nil, err
		}
	}
	return e.b, nil
}

func (m *WhoElseIsHereResult) Unmarshal(b []byte) error {
	*m = WhoElseIsHereResult{}
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return 0, nil
		}
		u := &UserInfo{}
		n, err := consumeMessage(typ, b, u)
		if n > 0 && err == nil {
			m.UserInfo = append(m.UserInfo, u)
		}
		return n, err
	})
}

// UserMoveToCmd 移动
type UserMoveToCmd struct {
	MoveFromPosX float32
	MoveFromPosY float32
	MoveToPosX   float32
	MoveToPosY   float32
}

func (m *UserMoveToCmd) MsgName() string { return _package + "UserMoveToCmd" }

func (m *UserMoveToCmd) Marshal() ([]byte, error) {
	e := encoder{}
	e.float(1, m.MoveFromPosX)
	e.float(2, m.MoveFromPosY)
	e.float(3, m.MoveToPosX)
	e.float(4, m.MoveToPosY)
	return e.b, nil
}

func (m *UserMoveToCmd) Unmarshal(b []byte) error {
	*m = UserMoveToCmd{}
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeFloat(typ, b, &m.MoveFromPosX)
		case 2:
			return consumeFloat(typ, b, &m.MoveFromPosY)
		case 3:
			return consumeFloat(typ, b, &m.MoveToPosX)
		case 4:
			return consumeFloat(typ, b, &m.MoveToPosY)
		}
		return 0, nil
	})
}

// UserMoveToResult 移动结果, 广播
type UserMoveToResult struct {
	MoveUserID    uint32
	MoveFromPosX  float32
	MoveFromPosY  float32
	MoveToPosX    float32
	MoveToPosY    float32
	MoveStartTime uint64
}

func (m *UserMoveToResult) MsgName() string { return _package + "UserMoveToResult" }

func (m *UserMoveToResult) Marshal() ([]byte, error) {
	e := encoder{}
	e.uint32(1, m.MoveUserID)
	e.float(2, m.MoveFromPosX)
	e.float(3, m.MoveFromPosY)
	e.float(4, m.MoveToPosX)
	e.float(5, m.MoveToPosY)
	e.uint64(6, m.MoveStartTime)
	return e.b, nil
}

func (m *UserMoveToResult) Unmarshal(b []byte) error {
	*m = UserMoveToResult{}
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeUint32(typ, b, &m.MoveUserID)
		case 2:
			return consumeFloat(typ, b, &m.MoveFromPosX)
		case 3:
			return consumeFloat(typ, b, &m.MoveFromPosY)
		case 4:
			return consumeFloat(typ, b, &m.MoveToPosX)
		case 5:
			return consumeFloat(typ, b, &m.MoveToPosY)
		case 6:
			return consumeUint64(typ, b, &m.MoveStartTime)
		}
		return 0, nil
	})
}

// UserQuitResult 用户离场, 广播
type UserQuitResult struct {
	QuitUserID uint32
}

func (m *UserQuitResult) MsgName() string { return _package + "UserQuitResult" }

func (m *UserQuitResult) Marshal() ([]byte, error) {
	e := encoder{}
	e.uint32(1, m.QuitUserID)
	return e.b, nil
}

func (m *UserQuitResult) Unmarshal(b []byte) error {
	*m = UserQuitResult{}
	return decode(b, uint32Field(1, &m.QuitUserID))
}

// UserStopCmd 停止移动
type UserStopCmd struct{}

func (m *UserStopCmd) MsgName() string          { return _package + "UserStopCmd" }
func (m *UserStopCmd) Marshal() ([]byte, error) { return nil, nil }
func (m *UserStopCmd) Unmarshal(b []byte) error { return decode(b, skipAll) }

// UserStopResult 停止移动结果, 广播
type UserStopResult struct {
	StopUserID uint32
	StopAtPosX float32
	StopAtPosY float32
}

func (m *UserStopResult) MsgName() string { return _package + "UserStopResult" }

func (m *UserStopResult) Marshal() ([]byte, error) {
	e := encoder{}
	e.uint32(1, m.StopUserID)
	e.float(2, m.StopAtPosX)
	e.float(3, m.StopAtPosY)
	return e.b, nil
}

func (m *UserStopResult) Unmarshal(b []byte) error {
	*m = UserStopResult{}
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeUint32(typ, b, &m.StopUserID)
		case 2:
			return consumeFloat(typ, b, &m.StopAtPosX)
		case 3:
			return consumeFloat(typ, b, &m.StopAtPosY)
		}
		return 0, nil
	})
}

// UserAttkCmd 攻击
type UserAttkCmd struct {
	TargetUserID uint32
}

func (m *UserAttkCmd) MsgName() string { return _package + "UserAttkCmd" }

func (m *UserAttkCmd) Marshal() ([]byte, error) {
	e := encoder{}
	e.uint32(1, m.TargetUserID)
	return e.b, nil
}

func (m *UserAttkCmd) Unmarshal(b []byte) error {
	*m = UserAttkCmd{}
	return decode(b, uint32Field(1, &m.TargetUserID))
}

// UserAttkResult 攻击结果, 广播
type UserAttkResult struct {
	AttkUserID   uint32
	TargetUserID uint32
}

func (m *UserAttkResult) MsgName() string { return _package + "UserAttkResult" }

func (m *UserAttkResult) Marshal() ([]byte, error) {
	e := encoder{}
	e.uint32(1, m.AttkUserID)
	e.uint32(2, m.TargetUserID)
	return e.b, nil
}

func (m *UserAttkResult) Unmarshal(b []byte) error {
	*m = UserAttkResult{}
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeUint32(typ, b, &m.AttkUserID)
		case 2:
			return consumeUint32(typ, b, &m.TargetUserID)
		}
		return 0, nil
	})
}

// UserSubtractHpResult 减血结果, 广播
type UserSubtractHpResult struct {
	TargetUserID uint32
	SubtractHp   uint32
}

func (m *UserSubtractHpResult) MsgName() string { return _package + "UserSubtractHpResult" }

func (m *UserSubtractHpResult) Marshal() ([]byte, error) {
	e := encoder{}
	e.uint32(1, m.TargetUserID)
	e.uint32(2, m.SubtractHp)
	return e.b, nil
}

func (m *UserSubtractHpResult) Unmarshal(b []byte) error {
	*m = UserSubtractHpResult{}
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeUint32(typ, b, &m.TargetUserID)
		case 2:
			return consumeUint32(typ, b, &m.SubtractHp)
		}
		return 0, nil
	})
}

// UserDieResult 死亡结果, 广播
type UserDieResult struct {
	TargetUserID uint32
}

func (m *UserDieResult) MsgName() string { return _package + "UserDieResult" }

func (m *UserDieResult) Marshal() ([]byte, error) {
	e := encoder{}
	e.uint32(1, m.TargetUserID)
	return e.b, nil
}

func (m *UserDieResult) Unmarshal(b []byte) error {
	*m = UserDieResult{}
	return decode(b, uint32Field(1, &m.TargetUserID))
}

// UserLoginCmd 登录
type UserLoginCmd struct {
	UserName string
	Password string
}

func (m *UserLoginCmd) MsgName() string { return _package + "UserLoginCmd" }

func (m *UserLoginCmd) Marshal() ([]byte, error) {
	e := encoder{}
	e.string(1, m.UserName)
	e.string(2, m.Password)
	return e.b, nil
}

func (m *UserLoginCmd) Unmarshal(b []byte) error {
	*m = UserLoginCmd{}
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeString(typ, b, &m.UserName)
		case 2:
			return consumeString(typ, b, &m.Password)
		}
		return 0, nil
	})
}

// UserLoginResult 登录结果, UserID 为 0 表示登录失败
type UserLoginResult struct {
	UserID     uint32
	UserName   string
	HeroAvatar string
}

func (m *UserLoginResult) MsgName() string { return _package + "UserLoginResult" }

func (m *UserLoginResult) Marshal() ([]byte, error) {
	e := encoder{}
	e.uint32(1, m.UserID)
	e.string(2, m.UserName)
	e.string(3, m.HeroAvatar)
	return e.b, nil
}

func (m *UserLoginResult) Unmarshal(b []byte) error {
	*m = UserLoginResult{}
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeUint32(typ, b, &m.UserID)
		case 2:
			return consumeString(typ, b, &m.UserName)
		case 3:
			return consumeString(typ, b, &m.HeroAvatar)
		}
		return 0, nil
	})
}

// GetRankCmd 获取排行榜
type GetRankCmd struct{}

func (m *GetRankCmd) MsgName() string          { return _package + "GetRankCmd" }
func (m *GetRankCmd) Marshal() ([]byte, error) { return nil, nil }
func (m *GetRankCmd) Unmarshal(b []byte) error { return decode(b, skipAll) }

// RankItem 排名条目
type RankItem struct {
	RankID     uint32
	UserID     uint32
	UserName   string
	HeroAvatar string
	Win        uint32
}

func (m *RankItem) Marshal() ([]byte, error) {
	e := encoder{}
	e.uint32(1, m.RankID)
	e.uint32(2, m.UserID)
	e.string(3, m.UserName)
	e.string(4, m.HeroAvatar)
	e.uint32(5, m.Win)
	return e.b, nil
}

func (m *RankItem) Unmarshal(b []byte) error {
	*m = RankItem{}
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeUint32(typ, b, &m.RankID)
		case 2:
			return consumeUint32(typ, b, &m.UserID)
		case 3:
			return consumeString(typ, b, &m.UserName)
		case 4:
			return consumeString(typ, b, &m.HeroAvatar)
		case 5:
			return consumeUint32(typ, b, &m.Win)
		}
		return 0, nil
	})
}

// GetRankResult 排行榜
type GetRankResult struct {
	RankItem []*RankItem
}

func (m *GetRankResult) MsgName() string { return _package + "GetRankResult" }

func (m *GetRankResult) Marshal() ([]byte, error) {
	e := encoder{}
	for _, item := range m.RankItem {
		if err := e.message(1, item); err != nil {
			return nil, err
		}
	}
	return e.b, nil
}

func (m *GetRankResult) Unmarshal(b []byte) error {
	*m = GetRankResult{}
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return 0, nil
		}
		item := &RankItem{}
		n, err := consumeMessage(typ, b, item)
		if n > 0 && err == nil {
			m.RankItem = append(m.RankItem, item)
		}
		return n, err
	})
}

func skipAll(protowire.Number, protowire.Type, []byte) (int, error) { return 0, nil }

func uint32Field(want protowire.Number, v *uint32) fieldFunc {
	return func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != want {
			return 0, nil
		}
		return consumeUint32(typ, b, v)
	}
}
